package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/storage"
)

// FeedbackRepository implements storage.FeedbackRepository for BadgerDB.
type FeedbackRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.FeedbackRepository = (*FeedbackRepository)(nil)

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(backend *Backend) (*FeedbackRepository, error) {
	idSeq, err := backend.GetSequence(feedbackIDSeq)
	if err != nil {
		return nil, err
	}
	return &FeedbackRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *FeedbackRepository) Close() error {
	return r.idSeq.Release()
}

// AddFeedback appends feedback records.
func (r *FeedbackRepository) AddFeedback(ctx context.Context, records ...*core.SearchFeedback) ([]*core.SearchFeedback, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, fb := range records {
			if err := r.putFeedback(tx, fb); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return records, err
}

func (r *FeedbackRepository) putFeedback(tx *badger.Txn, fb *core.SearchFeedback) error {
	var err error
	if fb.Id, err = nextID(r.idSeq); err != nil {
		return err
	}
	fb.CreatedAt = now()
	if err := tx.Set(makeKey(feedbackPrefix, fb.Id), storage.MarshalSearchFeedback(fb)); err != nil {
		return err
	}
	return tx.Set(makeCompositeKey(feedbackQuestionPrefix, fb.QuestionId, fb.Id), nil)
}

// ListFeedback returns all feedback records in ID order.
func (r *FeedbackRepository) ListFeedback(ctx context.Context) ([]*core.SearchFeedback, error) {
	var results []*core.SearchFeedback
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makePrefix(feedbackPrefix), nil, storage.UnmarshalSearchFeedback,
			func(fb *core.SearchFeedback) (bool, error) {
				results = append(results, fb)
				return true, ctx.Err()
			})
	}, false)
	return results, err
}

// GetFeedbackByQuestion returns the feedback records for a question.
func (r *FeedbackRepository) GetFeedbackByQuestion(ctx context.Context, questionID core.ID) ([]*core.SearchFeedback, error) {
	var results []*core.SearchFeedback
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeKey(feedbackQuestionPrefix, questionID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id := compositeSecond(iter.Item().Key())
			fb, err := readRecord(tx, makeKey(feedbackPrefix, id), storage.UnmarshalSearchFeedback)
			if err != nil {
				return err
			}
			if fb != nil {
				results = append(results, fb)
			}
		}
		return nil
	}, false)
	return results, err
}
