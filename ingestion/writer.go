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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/qamatch/ai"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/index"
	"github.com/poiesic/qamatch/normalize"
	"github.com/poiesic/qamatch/storage"
)

// RawPair is an unprocessed question/answer pair.
type RawPair struct {
	Question string
	Answer   string
}

// Writer is the single writer of a corpus. Every mutation is stored first
// and published to the index only after the store commits; the index is
// never touched when the store rejects a write.
type Writer struct {
	mu       sync.Mutex
	corpus   storage.CorpusRepository
	embedder ai.Embedder
	index    *index.Manager
	logger   *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer) error

// WithWriterLogger sets the writer's logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWriter creates a corpus writer.
func NewWriter(corpus storage.CorpusRepository, embedder ai.Embedder, idx *index.Manager, opts ...WriterOption) (*Writer, error) {
	if corpus == nil {
		return nil, ErrCorpusRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	w := &Writer{
		corpus:   corpus,
		embedder: embedder,
		index:    idx,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	w.logger = w.logger.With("component", "corpus-writer")
	return w, nil
}

// Index returns the index manager the writer publishes to.
func (w *Writer) Index() *index.Manager {
	return w.index
}

// NewQuestion derives a question's normalized text and keyword set.
// The vector is left for Prepare to fill.
func (w *Writer) NewQuestion(text string) (*core.Question, error) {
	normalized, err := normalize.Text(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidQuestion, err)
	}
	if normalized == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidQuestion, core.ErrEmptyInput)
	}
	return &core.Question{
		Text:       text,
		Normalized: normalized,
		Keywords:   w.index.Keywords(normalized),
	}, nil
}

// NewAnswer derives an answer's normalized text.
func (w *Writer) NewAnswer(text string) (*core.Answer, error) {
	normalized, err := normalize.Text(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidAnswer, err)
	}
	return &core.Answer{Text: text, Normalized: normalized}, nil
}

// Prepare builds storable pairs from raw text, embedding every question
// and every new answer in one batch. Nothing is stored.
func (w *Writer) Prepare(ctx context.Context, raw ...RawPair) ([]storage.Pair, error) {
	pairs := make([]storage.Pair, len(raw))
	for i, r := range raw {
		q, err := w.NewQuestion(r.Question)
		if err != nil {
			return nil, err
		}
		a, err := w.NewAnswer(r.Answer)
		if err != nil {
			return nil, err
		}
		pairs[i] = storage.Pair{Question: q, Answer: a}
	}
	if err := w.embedPairs(ctx, pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// PrepareLinked builds a pair whose question resolves to an existing answer.
func (w *Writer) PrepareLinked(ctx context.Context, question string, answerID core.ID) (storage.Pair, error) {
	q, err := w.NewQuestion(question)
	if err != nil {
		return storage.Pair{}, err
	}
	pair := storage.Pair{Question: q, Answer: &core.Answer{Id: answerID}}
	if err := w.embedPairs(ctx, []storage.Pair{pair}); err != nil {
		return storage.Pair{}, err
	}
	return pair, nil
}

// AddPairs stores prepared pairs in one transaction and publishes their
// questions to the index.
func (w *Writer) AddPairs(ctx context.Context, pairs ...storage.Pair) ([]storage.Pair, error) {
	questions := make([]*core.Question, len(pairs))
	for i, p := range pairs {
		questions[i] = p.Question
	}

	var added []storage.Pair
	err := w.Commit(ctx, questions, func(ctx context.Context) error {
		var err error
		added, err = w.corpus.AddPairs(ctx, pairs...)
		return err
	})
	return added, err
}

// Commit runs write under the writer lock and publishes questions to the
// index once write succeeds. write is expected to persist questions and
// assign their IDs. Vectors are checked against the index dimension
// before write runs, so a mismatch rejects the whole mutation with the
// store and index untouched.
func (w *Writer) Commit(ctx context.Context, questions []*core.Question, write func(context.Context) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkDimension(questions); err != nil {
		w.logger.Warn("corpus write rejected", "err", err)
		return err
	}
	if err := write(ctx); err != nil {
		return err
	}
	if err := w.index.Apply(questions...); err != nil {
		// Stored but not indexed; a rebuild reconciles the two.
		w.logger.Error("stored questions could not be indexed", "err", err)
		return err
	}
	return nil
}

func (w *Writer) checkDimension(questions []*core.Question) error {
	dim := w.index.Current().Vectors.Dim()
	for _, q := range questions {
		if len(q.Vector) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(q.Vector)
			continue
		}
		if len(q.Vector) != dim {
			return &core.DimensionMismatchError{Expected: dim, Got: len(q.Vector)}
		}
	}
	return nil
}

// UpdateQuestion replaces a question's text, keeping its answer.
func (w *Writer) UpdateQuestion(ctx context.Context, id core.ID, text string) (*core.Question, error) {
	existing, err := w.corpus.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	pair, err := w.PrepareLinked(ctx, text, existing.AnswerId)
	if err != nil {
		return nil, err
	}
	q := pair.Question
	q.Id = existing.Id
	q.AnswerId = existing.AnswerId

	err = w.Commit(ctx, []*core.Question{q}, func(ctx context.Context) error {
		_, err := w.corpus.UpdateQuestions(ctx, q)
		return err
	})
	return q, err
}

// SetAnswer links one question to the answer with the given text. An
// answer already stored under the same normalized text is reused, otherwise
// a new one is created. Questions sharing the previous answer keep it, and
// the previous answer is removed once nothing references it.
func (w *Writer) SetAnswer(ctx context.Context, questionID core.ID, text string) (*core.Answer, error) {
	q, err := w.corpus.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	a, err := w.NewAnswer(text)
	if err != nil {
		return nil, err
	}
	if a.Normalized == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidAnswer, core.ErrEmptyInput)
	}
	_, err = w.corpus.FindAnswerByText(ctx, a.Normalized)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if a.Vector, err = w.embedder.EmbedText(ctx, a.Normalized); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	var linked *core.Answer
	err = w.Commit(ctx, []*core.Question{q}, func(ctx context.Context) error {
		updated, answer, err := w.corpus.RelinkQuestion(ctx, questionID, a)
		if err != nil {
			return err
		}
		*q = *updated
		linked = answer
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.logger.Debug("question relinked", "question", questionID, "answer", linked.Id)
	return linked, nil
}

// DeleteQuestions removes questions from the store and the index.
func (w *Writer) DeleteQuestions(ctx context.Context, ids ...core.ID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.corpus.DeleteQuestions(ctx, ids...); err != nil {
		return err
	}
	w.index.Remove(ids...)
	return nil
}

// Rebuild regenerates the index from the store.
func (w *Writer) Rebuild(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index.Rebuild(ctx, w.corpus)
}

// Exclusive runs fn holding the write lock and then rebuilds the index
// from the store. It serves bulk rewrites, such as re-embedding, that
// update stored records without going through Commit. If fn fails the
// index is left as it was.
func (w *Writer) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}
	return w.index.Rebuild(ctx, w.corpus)
}
