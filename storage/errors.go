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


package storage

import "errors"

// Repositories wrap these with the key or record that failed.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidArgument is returned for malformed requests, such as a
	// pair missing its answer or a page size below one.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSerializationFailed wraps codec failures; a record that fails to
	// decode is reported with its key.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData means a record ended before its last field.
	ErrTruncatedData = errors.New("truncated data")
)
