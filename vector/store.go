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

// Package vector holds one embedding per question and ranks questions by
// cosine similarity against a query vector.
package vector

import (
	"maps"
	"math"
	"slices"

	"github.com/poiesic/qamatch/core"
)

// Hit is one semantic match. Similarity is in [-1, 1].
type Hit struct {
	Id         core.ID
	Similarity float64
}

type entry struct {
	vec  []float32
	norm float64
}

// Store is an exact nearest-neighbour store over fixed-dimension vectors.
// Like lexical.Index it is mutated on a Clone and published read-only.
type Store struct {
	dim     int
	entries map[core.ID]entry
}

// NewStore creates a store for vectors of length dim. A dim of 0 adopts
// the length of the first vector stored.
func NewStore(dim int) *Store {
	return &Store{
		dim:     dim,
		entries: make(map[core.ID]entry),
	}
}

// Dim returns the store's dimension, 0 if not yet fixed.
func (s *Store) Dim() int {
	return s.dim
}

// Len returns the number of stored vectors.
func (s *Store) Len() int {
	return len(s.entries)
}

// Put stores vec for id, replacing any previous vector. A vector whose
// length differs from the store's dimension is rejected with a
// *core.DimensionMismatchError and the store is unchanged.
func (s *Store) Put(id core.ID, vec []float32) error {
	if err := s.check(vec); err != nil {
		return err
	}
	if s.dim == 0 {
		s.dim = len(vec)
	}
	s.entries[id] = entry{vec: slices.Clone(vec), norm: norm(vec)}
	return nil
}

// Remove drops the vector for id. Unknown ids are ignored.
func (s *Store) Remove(id core.ID) {
	delete(s.entries, id)
}

// Get returns the stored vector for id.
func (s *Store) Get(id core.ID) ([]float32, bool) {
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.vec, true
}

// Similarity returns the cosine similarity between query and id's vector,
// 0 when id is unknown.
func (s *Store) Similarity(id core.ID, query []float32) float64 {
	e, ok := s.entries[id]
	if !ok || len(query) != len(e.vec) {
		return 0
	}
	return cosine(e, query, norm(query))
}

// Query ranks every stored vector by cosine similarity to query, highest
// first with ties broken by lowest id, truncated to k when k > 0.
// An empty store yields no hits.
func (s *Store) Query(query []float32, k int) ([]Hit, error) {
	if len(s.entries) == 0 {
		return nil, nil
	}
	if err := s.check(query); err != nil {
		return nil, err
	}

	qn := norm(query)
	hits := make([]Hit, 0, len(s.entries))
	for id, e := range s.entries {
		hits = append(hits, Hit{Id: id, Similarity: cosine(e, query, qn)})
	}
	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		}
		return 0
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Clone returns a copy that can be mutated without affecting s. Stored
// vectors are never modified in place, so they are shared.
func (s *Store) Clone() *Store {
	return &Store{
		dim:     s.dim,
		entries: maps.Clone(s.entries),
	}
}

func (s *Store) check(vec []float32) error {
	if s.dim != 0 && len(vec) != s.dim {
		return &core.DimensionMismatchError{Expected: s.dim, Got: len(vec)}
	}
	if len(vec) == 0 {
		return &core.DimensionMismatchError{Expected: s.dim, Got: 0}
	}
	return nil
}

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or with zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return cosine(entry{vec: a, norm: norm(a)}, b, norm(b))
}

func cosine(e entry, q []float32, qn float64) float64 {
	if e.norm == 0 || qn == 0 {
		return 0
	}
	var dot float64
	for i := range q {
		dot += float64(e.vec[i]) * float64(q[i])
	}
	sim := dot / (e.norm * qn)
	// clamp rounding drift
	return math.Max(-1, math.Min(1, sim))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
