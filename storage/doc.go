// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage provides the storage abstraction layer for qamatch.
//
// This package defines repository interfaces that decouple storage implementation
// from the matching engine. The engine depends only on create/read/update/delete
// operations plus full scans used to rebuild the in-memory indexes.
//
// # Architecture
//
//   - CorpusRepository: Questions and Answers
//   - ReviewRepository: harvested PendingReview items and their promotion
//   - MemoryRepository: personal reminders, birthdays, tasks and events
//   - FeedbackRepository: append-only SearchFeedback log
//   - ManifestRepository: embedding model and dimension of the stored vectors
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repos, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
