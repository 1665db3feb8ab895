package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/storage"
)

// ReviewRepository implements storage.ReviewRepository for BadgerDB.
// Promotion writes corpus and feedback records, so it shares their sequences.
type ReviewRepository struct {
	backend  *Backend
	idSeq    *badger.Sequence
	corpus   *CorpusRepository
	feedback *FeedbackRepository

	// failPoint, when set, is called between promotion steps. A non-nil
	// return aborts the transaction.
	failPoint func(stage string) error
}

var _ storage.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository(backend *Backend, corpus *CorpusRepository, feedback *FeedbackRepository) (*ReviewRepository, error) {
	if corpus == nil || feedback == nil {
		return nil, fmt.Errorf("%w: review repository needs corpus and feedback repositories", storage.ErrInvalidArgument)
	}
	idSeq, err := backend.GetSequence(reviewIDSeq)
	if err != nil {
		return nil, err
	}

	return &ReviewRepository{
		backend:  backend,
		idSeq:    idSeq,
		corpus:   corpus,
		feedback: feedback,
	}, nil
}

// Close releases the ID sequence.
func (r *ReviewRepository) Close() error {
	return r.idSeq.Release()
}

// AddItems appends items to the review queue.
func (r *ReviewRepository) AddItems(ctx context.Context, items ...*core.PendingReview) ([]*core.PendingReview, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, item := range items {
			var err error
			if item.Id, err = nextID(r.idSeq); err != nil {
				return err
			}
			item.Approved = false
			item.InsertedAt = now()
			if err := tx.Set(makeKey(reviewPrefix, item.Id), storage.MarshalPendingReview(item)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return items, err
}

// GetItem retrieves a single review item by ID.
func (r *ReviewRepository) GetItem(ctx context.Context, id core.ID) (*core.PendingReview, error) {
	var result *core.PendingReview
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeKey(reviewPrefix, id), storage.UnmarshalPendingReview)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// SetApproved updates the approval flag of an item.
func (r *ReviewRepository) SetApproved(ctx context.Context, id core.ID, approved bool) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeKey(reviewPrefix, id)
		item, err := readRecord(tx, key, storage.UnmarshalPendingReview)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}
		item.Approved = approved
		if err := tx.Set(key, storage.MarshalPendingReview(item)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteItems removes review items by their IDs.
func (r *ReviewRepository) DeleteItems(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := deleteItem(tx, id); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

func deleteItem(tx *badger.Txn, id core.ID) error {
	key := makeKey(reviewPrefix, id)
	if _, err := tx.Get(key); err != nil {
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		return err
	}
	return tx.Delete(key)
}

// ListItems returns queued items matching filter.
func (r *ReviewRepository) ListItems(ctx context.Context, filter storage.ReviewFilter) ([]*core.PendingReview, error) {
	var results []*core.PendingReview
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makePrefix(reviewPrefix), nil, storage.UnmarshalPendingReview,
			func(item *core.PendingReview) (bool, error) {
				if filter.Approved != nil && item.Approved != *filter.Approved {
					return true, nil
				}
				if filter.Source != "" && item.Source != filter.Source {
					return true, nil
				}
				results = append(results, item)
				return true, ctx.Err()
			})
	}, false)
	return results, err
}

// Promote moves a review item into the corpus in a single transaction.
func (r *ReviewRepository) Promote(ctx context.Context, p storage.Promotion) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := readRecord(tx, makeKey(reviewPrefix, p.ItemId), storage.UnmarshalPendingReview)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}

		if err := r.corpus.putPair(tx, storage.Pair{Question: p.Question, Answer: p.Answer}); err != nil {
			return err
		}
		if err := r.fail("pair"); err != nil {
			return err
		}

		if p.Feedback != nil {
			p.Feedback.QuestionId = p.Question.Id
			p.Feedback.AnswerId = p.Answer.Id
			if err := r.feedback.putFeedback(tx, p.Feedback); err != nil {
				return err
			}
		}
		if err := r.fail("feedback"); err != nil {
			return err
		}

		if err := deleteItem(tx, p.ItemId); err != nil {
			return err
		}
		if err := r.fail("commit"); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (r *ReviewRepository) fail(stage string) error {
	if r.failPoint == nil {
		return nil
	}
	return r.failPoint(stage)
}
