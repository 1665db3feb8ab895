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

import (
	"fmt"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/qamatch/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalQuestion serializes a Question to bytes.
func MarshalQuestion(q *core.Question) []byte {
	w := newWriter()
	w.uint64(uint64(q.Id))
	w.string(q.Text)
	w.string(q.Normalized)
	w.strings(q.Keywords)
	w.floats(q.Vector)
	w.uint64(uint64(q.AnswerId))
	w.time(q.InsertedAt)
	w.time(q.UpdatedAt)
	return w.bs
}

// UnmarshalQuestion deserializes a Question from bytes.
func UnmarshalQuestion(data []byte) (*core.Question, error) {
	r := newReader(data)
	q := &core.Question{
		Id:         core.ID(r.uint64()),
		Text:       r.string(),
		Normalized: r.string(),
		Keywords:   r.strings(),
		Vector:     r.floats(),
		AnswerId:   core.ID(r.uint64()),
		InsertedAt: r.time(),
		UpdatedAt:  r.time(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return q, nil
}

// MarshalAnswer serializes an Answer to bytes.
func MarshalAnswer(a *core.Answer) []byte {
	w := newWriter()
	w.uint64(uint64(a.Id))
	w.string(a.Text)
	w.string(a.Normalized)
	w.floats(a.Vector)
	w.time(a.InsertedAt)
	w.time(a.UpdatedAt)
	return w.bs
}

// UnmarshalAnswer deserializes an Answer from bytes.
func UnmarshalAnswer(data []byte) (*core.Answer, error) {
	r := newReader(data)
	a := &core.Answer{
		Id:         core.ID(r.uint64()),
		Text:       r.string(),
		Normalized: r.string(),
		Vector:     r.floats(),
		InsertedAt: r.time(),
		UpdatedAt:  r.time(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return a, nil
}

// MarshalPendingReview serializes a PendingReview to bytes.
func MarshalPendingReview(item *core.PendingReview) []byte {
	w := newWriter()
	w.uint64(uint64(item.Id))
	w.string(item.Question)
	w.string(item.Answer)
	w.string(item.Source)
	w.bool(item.Approved)
	w.meta(item.Metadata)
	w.time(item.InsertedAt)
	return w.bs
}

// UnmarshalPendingReview deserializes a PendingReview from bytes.
func UnmarshalPendingReview(data []byte) (*core.PendingReview, error) {
	r := newReader(data)
	item := &core.PendingReview{
		Id:         core.ID(r.uint64()),
		Question:   r.string(),
		Answer:     r.string(),
		Source:     r.string(),
		Approved:   r.bool(),
		Metadata:   r.meta(),
		InsertedAt: r.time(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return item, nil
}

// MarshalMemoryEntry serializes a MemoryEntry to bytes.
func MarshalMemoryEntry(e *core.MemoryEntry) []byte {
	w := newWriter()
	w.uint64(uint64(e.Id))
	w.uint64(uint64(e.Type))
	w.string(e.Description)
	w.time(e.ScheduledAt)
	w.bool(e.Annual)
	w.uint64(uint64(e.Priority))
	w.strings(e.Tags)
	w.time(e.CreatedAt)
	w.time(e.UpdatedAt)
	return w.bs
}

// UnmarshalMemoryEntry deserializes a MemoryEntry from bytes.
func UnmarshalMemoryEntry(data []byte) (*core.MemoryEntry, error) {
	r := newReader(data)
	e := &core.MemoryEntry{
		Id:          core.ID(r.uint64()),
		Type:        core.MemoryType(r.uint64()),
		Description: r.string(),
		ScheduledAt: r.time(),
		Annual:      r.bool(),
		Priority:    core.Priority(r.uint64()),
		Tags:        r.strings(),
		CreatedAt:   r.time(),
		UpdatedAt:   r.time(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return e, nil
}

// MarshalSearchFeedback serializes a SearchFeedback to bytes.
func MarshalSearchFeedback(fb *core.SearchFeedback) []byte {
	w := newWriter()
	w.uint64(uint64(fb.Id))
	w.uint64(uint64(fb.QuestionId))
	w.uint64(uint64(fb.AnswerId))
	w.string(fb.Source)
	w.bool(fb.Approved)
	w.time(fb.CreatedAt)
	return w.bs
}

// UnmarshalSearchFeedback deserializes a SearchFeedback from bytes.
func UnmarshalSearchFeedback(data []byte) (*core.SearchFeedback, error) {
	r := newReader(data)
	fb := &core.SearchFeedback{
		Id:         core.ID(r.uint64()),
		QuestionId: core.ID(r.uint64()),
		AnswerId:   core.ID(r.uint64()),
		Source:     r.string(),
		Approved:   r.bool(),
		CreatedAt:  r.time(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return fb, nil
}

// MarshalManifest serializes a Manifest to bytes.
func MarshalManifest(m *core.Manifest) []byte {
	w := newWriter()
	w.string(m.EmbeddingModel)
	w.uint64(uint64(m.Dimension))
	w.time(m.UpdatedAt)
	return w.bs
}

// UnmarshalManifest deserializes a Manifest from bytes.
func UnmarshalManifest(data []byte) (*core.Manifest, error) {
	r := newReader(data)
	m := &core.Manifest{
		EmbeddingModel: r.string(),
		Dimension:      int(r.uint64()),
		UpdatedAt:      r.time(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return m, nil
}
