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

// Package search matches queries against the question corpus.
//
// A query is normalized, reduced to a keyword set and embedded, then
// scored against the published index with two signals:
//   - Lexical: Jaccard overlap of keyword sets
//   - Semantic: cosine similarity of embeddings
//
// The candidate set is the union of the top-K hits of each signal. Each
// candidate gets combined = w_l*L + w_s*S, and Decide accepts the best
// one if it reaches the threshold. An exact normalized-text match always
// wins. If the embedder fails or exceeds its timeout the query is scored
// lexical-only and the response is marked degraded.
package search
