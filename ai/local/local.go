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

// Package local is an in-process embedder that hashes tokens into a
// fixed-size bag-of-words vector. It needs no model or network and is
// deterministic, which makes it the embedder of choice for offline use
// and scenario tests. Similarity reflects shared tokens only.
package local

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/poiesic/qamatch/ai"
)

// ModelName is recorded in the corpus manifest for local embeddings.
const ModelName = "local-fnv-bow"

// Embedder implements ai.Embedder by feature hashing.
type Embedder struct {
	dim int
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates an embedder producing vectors of length dim.
// A non-positive dim uses ai.DefaultLocalDimension.
func NewEmbedder(dim int) *Embedder {
	if dim <= 0 {
		dim = ai.DefaultLocalDimension
	}
	return &Embedder{dim: dim}
}

// Dimension returns the vector length.
func (e *Embedder) Dimension() int {
	return e.dim
}

// EmbedText embeds one text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embedOne(text), nil
}

// EmbedTexts embeds texts in order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results[i] = e.embedOne(text)
	}
	return results, nil
}

func (e *Embedder) embedOne(text string) []float32 {
	vector := make([]float32, e.dim)
	for _, tok := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		vector[h.Sum64()%uint64(e.dim)] += 1
	}
	var norm float32
	for _, v := range vector {
		norm += v * v
	}
	if norm == 0 {
		return vector
	}
	inv := 1 / float32(math.Sqrt(float64(norm)))
	for i := range vector {
		vector[i] *= inv
	}
	return vector
}

func tokenize(text string) []string {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return nil
	}
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsNumber(r))
	})
}

// Provider implements ai.AIProvider around the local Embedder.
type Provider struct {
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider creates a local provider from config. Only Dimension is used.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Provider{
		embedder: NewEmbedder(config.Dimension),
		logger:   slog.Default().With("component", "local-provider"),
	}, nil
}

// Embedder returns the hashing embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// EmbeddingModel returns ModelName.
func (p *Provider) EmbeddingModel() string {
	return ModelName
}

// Close is a no-op.
func (p *Provider) Close() error {
	p.logger.Debug("closing local provider")
	return nil
}
