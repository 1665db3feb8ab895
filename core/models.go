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

package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Question is a stored phrasing that resolves to exactly one Answer.
// Normalized and Keywords are derived from Text and must be regenerated
// whenever Text changes.
type Question struct {
	Id         ID
	Text       string
	Normalized string
	Keywords   []string  // Sorted, duplicate-free keyword set
	Vector     []float32 // Embedding of Normalized (populated by the embedder)
	AnswerId   ID
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Answer is the response text shared by one or more Questions.
type Answer struct {
	Id         ID
	Text       string
	Normalized string
	Vector     []float32 // Optional cached embedding
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Recognized PendingReview metadata keys. Other keys are kept as-is.
const (
	MetaURL       = "url"
	MetaTitle     = "title"
	MetaFetchedAt = "fetched_at"
	MetaQuery     = "query"
)

// PendingReview is a harvested question/answer proposal awaiting human approval.
type PendingReview struct {
	Id         ID
	Question   string
	Answer     string
	Source     string
	Approved   bool
	Metadata   map[string]string
	InsertedAt time.Time
}

// MemoryType classifies a personal memory entry.
type MemoryType int

const (
	MemoryTypeReminder MemoryType = iota + 1
	MemoryTypeBirthday
	MemoryTypeTask
	MemoryTypeEvent
)

func (t MemoryType) String() string {
	switch t {
	case MemoryTypeReminder:
		return "reminder"
	case MemoryTypeBirthday:
		return "birthday"
	case MemoryTypeTask:
		return "task"
	case MemoryTypeEvent:
		return "event"
	}
	return "unknown"
}

// Priority orders memory entries. Higher values are more urgent.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}
	return "unknown"
}

// MemoryEntry is a reminder, birthday, task or event.
// Annual changes how the next occurrence is computed; it never rewrites ScheduledAt.
type MemoryEntry struct {
	Id          ID
	Type        MemoryType
	Description string
	ScheduledAt time.Time
	Annual      bool
	Priority    Priority
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SearchFeedback is an append-only record of whether a question/answer
// pairing from some source was accepted.
type SearchFeedback struct {
	Id         ID
	QuestionId ID
	AnswerId   ID
	Source     string
	Approved   bool
	CreatedAt  time.Time
}

// Manifest records which embedding model produced the stored vectors.
type Manifest struct {
	EmbeddingModel string
	Dimension      int
	UpdatedAt      time.Time
}
