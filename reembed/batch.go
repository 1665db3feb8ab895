package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/qamatch/ai"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/storage"
)

// BatchProcessor handles embedding generation for batches of questions and answers.
type BatchProcessor struct {
	repo           storage.CorpusRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.CorpusRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// embed generates unit-length embeddings for texts, retrying failed calls.
func (bp *BatchProcessor) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(embeddings))
	}
	for i := range embeddings {
		embeddings[i] = NormalizeVector(embeddings[i])
	}
	return embeddings, nil
}

// ProcessQuestions re-embeds the normalized text of each question and
// stores the new vectors.
func (bp *BatchProcessor) ProcessQuestions(ctx context.Context, questions []*core.Question) error {
	if len(questions) == 0 {
		return nil
	}

	texts := make([]string, len(questions))
	for i, q := range questions {
		texts[i] = q.Normalized
	}
	embeddings, err := bp.embed(ctx, texts)
	if err != nil {
		return err
	}
	for i := range questions {
		questions[i].Vector = embeddings[i]
	}

	if _, err := bp.repo.UpdateQuestions(ctx, questions...); err != nil {
		return fmt.Errorf("failed to update questions: %w", err)
	}
	return nil
}

// ProcessAnswers re-embeds the normalized text of each answer and stores
// the new vectors.
func (bp *BatchProcessor) ProcessAnswers(ctx context.Context, answers []*core.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	texts := make([]string, len(answers))
	for i, a := range answers {
		texts[i] = a.Normalized
	}
	embeddings, err := bp.embed(ctx, texts)
	if err != nil {
		return err
	}
	for i := range answers {
		answers[i].Vector = embeddings[i]
	}

	if _, err := bp.repo.UpdateAnswers(ctx, answers...); err != nil {
		return fmt.Errorf("failed to update answers: %w", err)
	}
	return nil
}
