package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/qamatch/storage"
)

// embedPairs fills Question.Vector and, for new answers, Answer.Vector
// with one batched embedder call.
func (w *Writer) embedPairs(ctx context.Context, pairs []storage.Pair) error {
	texts := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		texts = append(texts, p.Question.Normalized)
		if p.Answer != nil && p.Answer.Id == 0 {
			texts = append(texts, p.Answer.Normalized)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	w.logger.Debug("generating embeddings", "texts", len(texts))
	vectors, err := w.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		w.logger.Error("error generating embeddings", "err", err)
		return err
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(vectors))
	}

	i := 0
	for _, p := range pairs {
		p.Question.Vector = vectors[i]
		i++
		if p.Answer != nil && p.Answer.Id == 0 {
			p.Answer.Vector = vectors[i]
			i++
		}
	}
	return nil
}
