package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/ingestion"
	"github.com/poiesic/qamatch/storage"
)

// Queue manages PendingReview items and their promotion into the corpus.
type Queue struct {
	repo   storage.ReviewRepository
	writer *ingestion.Writer
	logger *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) error {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger
		return nil
	}
}

// NewQueue creates a review queue. Promotions go through writer so they
// are serialized with other corpus writes and published to its index.
func NewQueue(repo storage.ReviewRepository, writer *ingestion.Writer, opts ...Option) (*Queue, error) {
	if repo == nil {
		return nil, ErrReviewRepositoryRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}

	q := &Queue{
		repo:   repo,
		writer: writer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	q.logger = q.logger.With("component", "review-queue")
	return q, nil
}

// Submit appends proposals to the queue. Question and answer text are
// trimmed and must not be blank; every item starts unapproved.
func (q *Queue) Submit(ctx context.Context, items ...*core.PendingReview) ([]*core.PendingReview, error) {
	for i, item := range items {
		if err := core.ValidatePendingReview(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		item.Question = strings.TrimSpace(item.Question)
		item.Answer = strings.TrimSpace(item.Answer)
		item.Source = strings.TrimSpace(item.Source)
		item.Metadata = maps.Clone(item.Metadata)
	}

	added, err := q.repo.AddItems(ctx, items...)
	if err != nil {
		return nil, err
	}
	q.logger.Debug("items queued", "count", len(added))
	return added, nil
}

// Get returns a single item.
func (q *Queue) Get(ctx context.Context, id core.ID) (*core.PendingReview, error) {
	return q.repo.GetItem(ctx, id)
}

// List returns queued items matching filter, oldest first.
func (q *Queue) List(ctx context.Context, filter storage.ReviewFilter) ([]*core.PendingReview, error) {
	return q.repo.ListItems(ctx, filter)
}

// SetApproved flags an item for a later PromoteApproved, or clears the flag.
// It does not touch the corpus.
func (q *Queue) SetApproved(ctx context.Context, id core.ID, approved bool) error {
	return q.repo.SetApproved(ctx, id, approved)
}

// Reject discards items without touching the corpus.
func (q *Queue) Reject(ctx context.Context, ids ...core.ID) error {
	if err := q.repo.DeleteItems(ctx, ids...); err != nil {
		return err
	}
	q.logger.Debug("items rejected", "ids", ids)
	return nil
}

// Approve promotes an item into the corpus. When answerID is non-zero the
// new question is linked to that existing answer and the item's answer
// text is ignored. Any failure after the item is found is returned as a
// *core.PromotionError and the item stays queued.
func (q *Queue) Approve(ctx context.Context, id core.ID, answerID core.ID) (storage.Pair, error) {
	item, err := q.repo.GetItem(ctx, id)
	if err != nil {
		return storage.Pair{}, err
	}

	pair, err := q.prepare(ctx, item, answerID)
	if err != nil {
		return storage.Pair{}, q.promotionFailed(item.Id, err)
	}

	promotion := storage.Promotion{
		ItemId:   item.Id,
		Question: pair.Question,
		Answer:   pair.Answer,
		Feedback: &core.SearchFeedback{Source: item.Source, Approved: true},
	}
	err = q.writer.Commit(ctx, []*core.Question{pair.Question}, func(ctx context.Context) error {
		return q.repo.Promote(ctx, promotion)
	})
	if err != nil {
		return storage.Pair{}, q.promotionFailed(item.Id, err)
	}

	q.logger.Info("item promoted",
		"item", item.Id,
		"question", pair.Question.Id,
		"answer", pair.Answer.Id,
		"source", item.Source)
	return pair, nil
}

// prepare builds fresh records for one promotion attempt. A failed
// transaction may leave ids on the records it was given, so they are
// never reused.
func (q *Queue) prepare(ctx context.Context, item *core.PendingReview, answerID core.ID) (storage.Pair, error) {
	if answerID != 0 {
		return q.writer.PrepareLinked(ctx, item.Question, answerID)
	}
	pairs, err := q.writer.Prepare(ctx, ingestion.RawPair{Question: item.Question, Answer: item.Answer})
	if err != nil {
		return storage.Pair{}, err
	}
	return pairs[0], nil
}

func (q *Queue) promotionFailed(id core.ID, err error) error {
	q.logger.Warn("promotion failed, item left queued", "item", id, "err", err)
	return &core.PromotionError{ItemID: id, Err: err}
}

// PromoteApproved promotes every item flagged approved, each in its own
// transaction. Items that fail stay queued; their errors are joined.
func (q *Queue) PromoteApproved(ctx context.Context) ([]storage.Pair, error) {
	approved := true
	items, err := q.repo.ListItems(ctx, storage.ReviewFilter{Approved: &approved})
	if err != nil {
		return nil, err
	}

	var promoted []storage.Pair
	var errs []error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		pair, err := q.Approve(ctx, item.Id, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		promoted = append(promoted, pair)
	}
	return promoted, errors.Join(errs...)
}
