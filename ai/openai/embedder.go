package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/qamatch/ai"
	"github.com/poiesic/qamatch/core"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyEmbedding is returned when the service answers with no vector,
// or with fewer vectors than texts.
var ErrEmptyEmbedding = errors.New("embedder returned empty result")

// Embedder implements ai.Embedder over an OpenAI-compatible /embeddings
// endpoint through langchaingo. When the config names a dimension every
// returned vector must have exactly that length.
type Embedder struct {
	embedder embeddings.Embedder
	dim      int
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// local OpenAI-compatible servers accept any token
	token := config.APIToken
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		dim:      config.Dimension,
		logger:   slog.Default().With("component", "openai-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates an embedder for config.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a single query or question.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in one request, in order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.logger.Debug("embedding", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("embedding request failed", "count", len(texts), "err", err)
		return nil, err
	}
	if err := e.check(len(texts), vectors); err != nil {
		e.logger.Warn("embedding response rejected", "err", err)
		return nil, err
	}
	return vectors, nil
}

func (e *Embedder) check(want int, vectors [][]float32) error {
	if len(vectors) != want {
		return ErrEmptyEmbedding
	}
	for _, v := range vectors {
		if len(v) == 0 {
			return ErrEmptyEmbedding
		}
		if e.dim > 0 && len(v) != e.dim {
			return &core.DimensionMismatchError{Expected: e.dim, Got: len(v)}
		}
	}
	return nil
}
