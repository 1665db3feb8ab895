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

// Package lexical derives keyword sets from normalized text and ranks
// questions by keyword overlap.
//
// Keyword sets are compared with the Jaccard index |A∩B| / |A∪B|, so a
// question queried with its own keyword set always scores 1.0. An exact
// normalized-text lookup is kept alongside for the exact-match short circuit.
package lexical

import (
	"maps"
	"slices"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/normalize"
)

// MaxKeywords caps the size of a keyword set.
const MaxKeywords = 20

// Keywords derives the keyword set of normalized text: tokens that are not
// stop words and longer than one character, stemmed when stemmer is non-nil,
// without duplicates, sorted. At most MaxKeywords distinct tokens are kept,
// in order of first appearance.
func Keywords(normalized string, stemmer Stemmer) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, tok := range normalize.Tokens(normalized) {
		if len(tok) < 2 || IsStopWord(tok) {
			continue
		}
		if stemmer != nil {
			tok = stemmer.Stem(tok)
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == MaxKeywords {
			break
		}
	}
	slices.Sort(out)
	return out
}

// Hit is one lexical match.
type Hit struct {
	Id    core.ID
	Score float64
}

// Index maps questions to keyword sets. It is not safe for concurrent
// mutation; callers publish an Index and then treat it as read-only,
// making changes on a Clone.
type Index struct {
	stemmer  Stemmer
	sets     map[core.ID][]string
	postings map[string][]core.ID
	exact    map[string][]core.ID
	texts    map[core.ID]string
}

// Option configures an Index.
type Option func(*Index)

// WithStemmer reduces keyword tokens with s.
func WithStemmer(s Stemmer) Option {
	return func(ix *Index) {
		ix.stemmer = s
	}
}

// NewIndex creates an empty index.
func NewIndex(opts ...Option) *Index {
	ix := &Index{
		sets:     make(map[core.ID][]string),
		postings: make(map[string][]core.ID),
		exact:    make(map[string][]core.ID),
		texts:    make(map[core.ID]string),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Keywords derives a keyword set using the index's stemmer.
func (ix *Index) Keywords(normalized string) []string {
	return Keywords(normalized, ix.stemmer)
}

// Put indexes a question by its normalized text, replacing any previous
// entry for id. It returns the keyword set stored.
func (ix *Index) Put(id core.ID, normalized string) []string {
	keywords := ix.Keywords(normalized)
	ix.PutKeywords(id, normalized, keywords)
	return keywords
}

// PutKeywords indexes a question with a precomputed keyword set.
func (ix *Index) PutKeywords(id core.ID, normalized string, keywords []string) {
	ix.Remove(id)

	set := canonical(keywords)
	ix.sets[id] = set
	ix.texts[id] = normalized
	for _, tok := range set {
		ix.postings[tok] = insertSorted(ix.postings[tok], id)
	}
	ix.exact[normalized] = insertSorted(ix.exact[normalized], id)
}

// Remove drops a question from the index. Unknown ids are ignored.
func (ix *Index) Remove(id core.ID) {
	set, ok := ix.sets[id]
	if !ok {
		return
	}
	for _, tok := range set {
		if ids := removeSorted(ix.postings[tok], id); len(ids) > 0 {
			ix.postings[tok] = ids
		} else {
			delete(ix.postings, tok)
		}
	}
	text := ix.texts[id]
	if ids := removeSorted(ix.exact[text], id); len(ids) > 0 {
		ix.exact[text] = ids
	} else {
		delete(ix.exact, text)
	}
	delete(ix.sets, id)
	delete(ix.texts, id)
}

// Len returns the number of indexed questions.
func (ix *Index) Len() int {
	return len(ix.sets)
}

// Exact returns the lowest question id whose normalized text equals normalized.
func (ix *Index) Exact(normalized string) (core.ID, bool) {
	ids := ix.exact[normalized]
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// Score returns the Jaccard score of id's keyword set against keywords.
// Unknown ids score 0.
func (ix *Index) Score(id core.ID, keywords []string) float64 {
	set, ok := ix.sets[id]
	if !ok {
		return 0
	}
	return jaccard(set, canonical(keywords))
}

// Query ranks questions sharing at least one keyword with keywords.
// Results are ordered by score descending, then id ascending, and
// truncated to k when k > 0.
func (ix *Index) Query(keywords []string, k int) []Hit {
	query := canonical(keywords)
	if len(query) == 0 {
		return nil
	}

	candidates := make(map[core.ID]struct{})
	for _, tok := range query {
		for _, id := range ix.postings[tok] {
			candidates[id] = struct{}{}
		}
	}

	hits := make([]Hit, 0, len(candidates))
	for id := range candidates {
		hits = append(hits, Hit{Id: id, Score: jaccard(ix.sets[id], query)})
	}
	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
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
	return hits
}

// Clone returns an independent copy that can be mutated without
// affecting ix.
func (ix *Index) Clone() *Index {
	c := &Index{
		stemmer:  ix.stemmer,
		sets:     maps.Clone(ix.sets),
		postings: make(map[string][]core.ID, len(ix.postings)),
		exact:    make(map[string][]core.ID, len(ix.exact)),
		texts:    maps.Clone(ix.texts),
	}
	for tok, ids := range ix.postings {
		c.postings[tok] = slices.Clone(ids)
	}
	for text, ids := range ix.exact {
		c.exact[text] = slices.Clone(ids)
	}
	return c
}

// jaccard computes |a∩b| / |a∪b| for two sorted, duplicate-free sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			inter++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// canonical returns a sorted, duplicate-free copy of tokens.
func canonical(tokens []string) []string {
	set := slices.Clone(tokens)
	slices.Sort(set)
	return slices.Compact(set)
}

func insertSorted(ids []core.ID, id core.ID) []core.ID {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}

func removeSorted(ids []core.ID, id core.ID) []core.ID {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}
