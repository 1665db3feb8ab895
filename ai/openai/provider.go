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

package openai

import (
	"log/slog"

	"github.com/poiesic/qamatch/ai"
)

// Provider serves embeddings from an OpenAI-compatible endpoint such as
// OpenAI itself, Ollama or llama.cpp.
type Provider struct {
	model    string
	embedder *Embedder
	logger   *slog.Logger
}

var _ ai.AIProvider = (*Provider)(nil)

// NewProvider validates config and connects the embedder. No request is
// made until the first embedding.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		model:    config.EmbeddingModel,
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-provider"),
	}
	p.logger.Debug("embedding provider ready", "host", config.EmbeddingHost, "model", p.model, "dimension", config.Dimension)
	return p, nil
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// EmbeddingModel is the name recorded in the corpus manifest.
func (p *Provider) EmbeddingModel() string {
	return p.model
}

// Close is a no-op; langchaingo holds no connections between requests.
func (p *Provider) Close() error {
	return nil
}
