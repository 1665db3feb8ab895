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

// Package ai defines the embedding collaborator used by qamatch.
//
// Questions and queries are turned into dense vectors by an Embedder. The
// engine only ever talks to these interfaces; a slow or failing embedder
// degrades a query to lexical-only scoring instead of failing it.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embeddings API (OpenAI, Ollama, vLLM)
//   - ai/local: deterministic in-process hashing embedder, no network
//   - ai/mock: test doubles with injectable behavior
//
// Public constructors (openai.NewProvider, local.NewProvider) return
// INTERFACE types. Mock constructors return CONCRETE types so tests can
// inject behavior and count calls.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "qual o maior osso do corpo humano")
package ai
