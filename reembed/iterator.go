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

package reembed

import (
	"context"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/storage"
)

const (
	// DefaultBatchSize is the default number of records to fetch in each batch
	DefaultBatchSize = 100
)

// PageFunc fetches up to limit records with ids greater than after, in id order.
type PageFunc[T any] func(ctx context.Context, after core.ID, limit int) ([]T, error)

// PageIterator walks a keyed collection one page at a time, so only a
// single batch is held in memory.
type PageIterator[T any] struct {
	fetch     PageFunc[T]
	id        func(T) core.ID
	batchSize int
}

// NewPageIterator creates an iterator over fetch.
// batchSize: number of records per page (defaults when <= 0)
func NewPageIterator[T any](fetch PageFunc[T], id func(T) core.ID, batchSize int) *PageIterator[T] {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &PageIterator[T]{
		fetch:     fetch,
		id:        id,
		batchSize: batchSize,
	}
}

// NewQuestionIterator pages through every stored question.
func NewQuestionIterator(repo storage.CorpusRepository, batchSize int) *PageIterator[*core.Question] {
	return NewPageIterator(repo.GetQuestionPage, func(q *core.Question) core.ID { return q.Id }, batchSize)
}

// NewAnswerIterator pages through every stored answer.
func NewAnswerIterator(repo storage.CorpusRepository, batchSize int) *PageIterator[*core.Answer] {
	return NewPageIterator(repo.GetAnswerPage, func(a *core.Answer) core.ID { return a.Id }, batchSize)
}

// ForEach calls fn with each page in id order.
// Iteration stops on first error from fn or when all records are processed.
// Context cancellation is checked between pages.
func (it *PageIterator[T]) ForEach(ctx context.Context, fn func([]T) error) error {
	var after core.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := it.fetch(ctx, after, it.batchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		// advance before fn, which may modify the page
		after = it.id(page[len(page)-1])
		if err := fn(page); err != nil {
			return err
		}
		if len(page) < it.batchSize {
			return nil
		}
	}
}
