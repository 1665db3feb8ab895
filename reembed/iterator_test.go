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
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/qamatch/ai/local"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/index"
	"github.com/poiesic/qamatch/ingestion"
	"github.com/poiesic/qamatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestCorpus stores n question/answer pairs embedded with a
// 64-dimensional local embedder.
func setupTestCorpus(t *testing.T, n int) (*badger.Repositories, *ingestion.Writer) {
	t.Helper()
	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Close()
		backend.Close()
	})

	w, err := ingestion.NewWriter(repos.Corpus, local.NewEmbedder(64), index.NewManager())
	require.NoError(t, err)

	if n > 0 {
		raw := make([]ingestion.RawPair, n)
		for i := range raw {
			raw[i] = ingestion.RawPair{
				Question: fmt.Sprintf("Qual é a pergunta número %d?", i+1),
				Answer:   fmt.Sprintf("A resposta número %d.", i+1),
			}
		}
		pairs, err := w.Prepare(context.Background(), raw...)
		require.NoError(t, err)
		_, err = w.AddPairs(context.Background(), pairs...)
		require.NoError(t, err)
	}
	return repos, w
}

func TestQuestionIterator_Batches(t *testing.T) {
	tests := []struct {
		name      string
		records   int
		batchSize int
		want      []int
	}{
		{name: "partial last page", records: 7, batchSize: 3, want: []int{3, 3, 1}},
		{name: "exact multiple", records: 6, batchSize: 3, want: []int{3, 3}},
		{name: "single page", records: 2, batchSize: 10, want: []int{2}},
		{name: "empty corpus", records: 0, batchSize: 3, want: nil},
		{name: "default batch size", records: 5, batchSize: 0, want: []int{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos, _ := setupTestCorpus(t, tt.records)

			var sizes []int
			seen := make(map[core.ID]bool)
			var last core.ID
			err := NewQuestionIterator(repos.Corpus, tt.batchSize).ForEach(context.Background(), func(page []*core.Question) error {
				sizes = append(sizes, len(page))
				for _, q := range page {
					assert.False(t, seen[q.Id], "question %d seen twice", q.Id)
					assert.Greater(t, q.Id, last)
					seen[q.Id] = true
					last = q.Id
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, sizes)
			assert.Len(t, seen, tt.records)
		})
	}
}

func TestAnswerIterator(t *testing.T) {
	repos, _ := setupTestCorpus(t, 5)

	var count int
	err := NewAnswerIterator(repos.Corpus, 2).ForEach(context.Background(), func(page []*core.Answer) error {
		count += len(page)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestPageIterator_StopsOnError(t *testing.T) {
	repos, _ := setupTestCorpus(t, 6)
	boom := errors.New("boom")

	calls := 0
	err := NewQuestionIterator(repos.Corpus, 2).ForEach(context.Background(), func([]*core.Question) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPageIterator_ContextCanceled(t *testing.T) {
	repos, _ := setupTestCorpus(t, 6)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := NewQuestionIterator(repos.Corpus, 2).ForEach(ctx, func([]*core.Question) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPageIterator_FetchError(t *testing.T) {
	boom := errors.New("read failed")
	it := NewPageIterator(func(ctx context.Context, after core.ID, limit int) ([]int, error) {
		return nil, boom
	}, func(int) core.ID { return 0 }, 10)

	err := it.ForEach(context.Background(), func([]int) error { return nil })
	assert.ErrorIs(t, err, boom)
}
