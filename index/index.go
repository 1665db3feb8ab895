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

// Package index publishes the searchable projection of the corpus.
//
// A Snapshot pairs a keyword index with a vector store, both derived from
// stored questions. Snapshots are immutable once published: readers load
// the current one without locking, and writers build the next generation
// on a clone and swap it in, so a query never sees a keyword set without
// its vector or the other way round.
package index

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/lexical"
	"github.com/poiesic/qamatch/vector"
)

// Snapshot is one immutable generation of the index.
type Snapshot struct {
	Generation uint64
	Lexical    *lexical.Index
	Vectors    *vector.Store
	answers    map[core.ID]core.ID
}

// AnswerFor returns the answer id of an indexed question.
func (s *Snapshot) AnswerFor(questionID core.ID) (core.ID, bool) {
	id, ok := s.answers[questionID]
	return id, ok
}

// Len returns the number of indexed questions.
func (s *Snapshot) Len() int {
	return len(s.answers)
}

func (s *Snapshot) clone() *Snapshot {
	answers := make(map[core.ID]core.ID, len(s.answers))
	for q, a := range s.answers {
		answers[q] = a
	}
	return &Snapshot{
		Generation: s.Generation + 1,
		Lexical:    s.Lexical.Clone(),
		Vectors:    s.Vectors.Clone(),
		answers:    answers,
	}
}

func (s *Snapshot) put(q *core.Question) error {
	if len(q.Vector) > 0 {
		if err := s.Vectors.Put(q.Id, q.Vector); err != nil {
			return err
		}
	} else {
		s.Vectors.Remove(q.Id)
	}
	if len(q.Keywords) > 0 {
		s.Lexical.PutKeywords(q.Id, q.Normalized, q.Keywords)
	} else {
		s.Lexical.Put(q.Id, q.Normalized)
	}
	s.answers[q.Id] = q.AnswerId
	return nil
}

// Source supplies every stored question for a rebuild.
type Source interface {
	ForEachQuestion(ctx context.Context, fn func(*core.Question) error) error
}

// Manager owns the current Snapshot and serializes writers.
type Manager struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	stemmer lexical.Stemmer
	dim     int
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithStemmer reduces keyword tokens with s in every generation.
func WithStemmer(s lexical.Stemmer) Option {
	return func(m *Manager) {
		m.stemmer = s
	}
}

// WithDimension fixes the vector dimension. Zero adopts the first vector.
func WithDimension(dim int) Option {
	return func(m *Manager) {
		m.dim = dim
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager holding an empty generation.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "index")
	m.current.Store(m.empty(0))
	return m
}

func (m *Manager) empty(generation uint64) *Snapshot {
	return &Snapshot{
		Generation: generation,
		Lexical:    lexical.NewIndex(lexical.WithStemmer(m.stemmer)),
		Vectors:    vector.NewStore(m.dim),
		answers:    make(map[core.ID]core.ID),
	}
}

// Current returns the published generation. It never returns nil.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Keywords derives a keyword set with the manager's stemmer.
func (m *Manager) Keywords(normalized string) []string {
	return lexical.Keywords(normalized, m.stemmer)
}

// Apply indexes questions, replacing existing entries with the same id,
// and publishes the result as a new generation. If any vector has the
// wrong dimension nothing is published and the error is a
// *core.DimensionMismatchError.
func (m *Manager) Apply(questions ...*core.Question) error {
	if len(questions) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.Current().clone()
	for _, q := range questions {
		if err := next.put(q); err != nil {
			m.logger.Warn("index update rejected", "question", q.Id, "err", err)
			return err
		}
	}
	m.current.Store(next)
	m.logger.Debug("index updated", "generation", next.Generation, "questions", len(questions))
	return nil
}

// Remove drops questions and publishes a new generation.
func (m *Manager) Remove(ids ...core.ID) {
	if len(ids) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.Current().clone()
	for _, id := range ids {
		next.Lexical.Remove(id)
		next.Vectors.Remove(id)
		delete(next.answers, id)
	}
	m.current.Store(next)
}

// Rebuild builds a fresh generation from a full scan of src and swaps it
// in. Queries keep using the previous generation until the swap. On error
// the previous generation stays published.
func (m *Manager) Rebuild(ctx context.Context, src Source) error {
	if src == nil {
		return errors.New("index: rebuild source is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.empty(m.Current().Generation + 1)
	err := src.ForEachQuestion(ctx, func(q *core.Question) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return next.put(q)
	})
	if err != nil {
		m.logger.Error("index rebuild failed", "err", err)
		return err
	}
	m.current.Store(next)
	m.logger.Info("index rebuilt", "generation", next.Generation, "questions", next.Len(), "dimension", next.Vectors.Dim())
	return nil
}
