package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/storage"
)

// CorpusRepository implements storage.CorpusRepository for BadgerDB.
type CorpusRepository struct {
	backend     *Backend
	questionSeq *badger.Sequence
	answerSeq   *badger.Sequence
}

var _ storage.CorpusRepository = (*CorpusRepository)(nil)

// NewCorpusRepository creates a new CorpusRepository.
func NewCorpusRepository(backend *Backend) (*CorpusRepository, error) {
	questionSeq, err := backend.GetSequence(questionIDSeq)
	if err != nil {
		return nil, err
	}
	answerSeq, err := backend.GetSequence(answerIDSeq)
	if err != nil {
		questionSeq.Release()
		return nil, err
	}

	return &CorpusRepository{
		backend:     backend,
		questionSeq: questionSeq,
		answerSeq:   answerSeq,
	}, nil
}

// Close releases the ID sequences.
func (r *CorpusRepository) Close() error {
	qErr := r.questionSeq.Release()
	aErr := r.answerSeq.Release()
	if qErr != nil {
		return qErr
	}
	return aErr
}

// AddPairs stores question/answer pairs in one transaction.
func (r *CorpusRepository) AddPairs(ctx context.Context, pairs ...storage.Pair) ([]storage.Pair, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, p := range pairs {
			if err := r.putPair(tx, p); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return pairs, err
}

// putPair writes one pair inside tx. A new answer whose normalized text is
// already stored is linked to the stored answer instead of duplicated.
func (r *CorpusRepository) putPair(tx *badger.Txn, p storage.Pair) error {
	if p.Question == nil || p.Answer == nil {
		return fmt.Errorf("%w: pair requires question and answer", storage.ErrInvalidArgument)
	}
	ts := now()
	a := p.Answer

	if a.Id == 0 {
		existing, err := r.answerByText(tx, a.Normalized)
		if err != nil {
			return err
		}
		if existing != nil {
			*a = *existing
		} else {
			if a.Id, err = nextID(r.answerSeq); err != nil {
				return err
			}
			a.InsertedAt = ts
			a.UpdatedAt = ts
			if err := tx.Set(makeKey(answerPrefix, a.Id), storage.MarshalAnswer(a)); err != nil {
				return err
			}
			if err := tx.Set(makeTextKey(answerTextPrefix, a.Normalized), storage.MarshalID(a.Id)); err != nil {
				return err
			}
		}
	} else {
		existing, err := readRecord(tx, makeKey(answerPrefix, a.Id), storage.UnmarshalAnswer)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("answer %d: %w", a.Id, storage.ErrNotFound)
		}
		*a = *existing
	}

	q := p.Question
	dup, err := r.questionByText(tx, q.Normalized)
	if err != nil {
		return err
	}
	if dup != nil {
		return fmt.Errorf("question %q: %w", q.Normalized, storage.ErrDuplicateKey)
	}

	if q.Id, err = nextID(r.questionSeq); err != nil {
		return err
	}
	q.AnswerId = a.Id
	q.InsertedAt = ts
	q.UpdatedAt = ts
	return r.writeQuestion(tx, q)
}

// writeQuestion stores a question with its text and answer indexes.
func (r *CorpusRepository) writeQuestion(tx *badger.Txn, q *core.Question) error {
	if err := tx.Set(makeKey(questionPrefix, q.Id), storage.MarshalQuestion(q)); err != nil {
		return err
	}
	if err := tx.Set(makeTextKey(questionTextPrefix, q.Normalized), storage.MarshalID(q.Id)); err != nil {
		return err
	}
	return tx.Set(makeCompositeKey(answerQuestionPrefix, q.AnswerId, q.Id), nil)
}

// UpdateQuestions updates existing questions.
func (r *CorpusRepository) UpdateQuestions(ctx context.Context, questions ...*core.Question) ([]*core.Question, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, q := range questions {
			old, err := readRecord(tx, makeKey(questionPrefix, q.Id), storage.UnmarshalQuestion)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if old.Normalized != q.Normalized {
				dup, err := r.questionByText(tx, q.Normalized)
				if err != nil {
					return err
				}
				if dup != nil && dup.Id != q.Id {
					return fmt.Errorf("question %q: %w", q.Normalized, storage.ErrDuplicateKey)
				}
				if err := tx.Delete(makeTextKey(questionTextPrefix, old.Normalized)); err != nil {
					return err
				}
			}
			if old.AnswerId != q.AnswerId {
				if err := tx.Delete(makeCompositeKey(answerQuestionPrefix, old.AnswerId, old.Id)); err != nil {
					return err
				}
			}

			q.InsertedAt = old.InsertedAt
			q.UpdatedAt = now()
			if err := r.writeQuestion(tx, q); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return questions, err
}

// UpdateAnswers updates existing answers.
func (r *CorpusRepository) UpdateAnswers(ctx context.Context, answers ...*core.Answer) ([]*core.Answer, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, a := range answers {
			key := makeKey(answerPrefix, a.Id)
			old, err := readRecord(tx, key, storage.UnmarshalAnswer)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if old.Normalized != a.Normalized {
				dup, err := r.answerByText(tx, a.Normalized)
				if err != nil {
					return err
				}
				if dup != nil && dup.Id != a.Id {
					return fmt.Errorf("answer %q: %w", a.Normalized, storage.ErrDuplicateKey)
				}
				if err := tx.Delete(makeTextKey(answerTextPrefix, old.Normalized)); err != nil {
					return err
				}
				if err := tx.Set(makeTextKey(answerTextPrefix, a.Normalized), storage.MarshalID(a.Id)); err != nil {
					return err
				}
			}

			a.InsertedAt = old.InsertedAt
			a.UpdatedAt = now()
			if err := tx.Set(key, storage.MarshalAnswer(a)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return answers, err
}

// RelinkQuestion moves one question onto the answer matching answer's
// normalized text, creating it if needed, in one transaction.
func (r *CorpusRepository) RelinkQuestion(ctx context.Context, questionID core.ID, answer *core.Answer) (*core.Question, *core.Answer, error) {
	if answer == nil || answer.Normalized == "" {
		return nil, nil, fmt.Errorf("%w: answer text is required", storage.ErrInvalidArgument)
	}
	var q *core.Question
	a := *answer
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		q, err = readRecord(tx, makeKey(questionPrefix, questionID), storage.UnmarshalQuestion)
		if err != nil {
			return err
		}
		if q == nil {
			return fmt.Errorf("question %d: %w", questionID, storage.ErrNotFound)
		}

		existing, err := r.answerByText(tx, a.Normalized)
		if err != nil {
			return err
		}
		ts := now()
		if existing != nil {
			a = *existing
		} else {
			if a.Id, err = nextID(r.answerSeq); err != nil {
				return err
			}
			a.InsertedAt = ts
			a.UpdatedAt = ts
			if err := tx.Set(makeKey(answerPrefix, a.Id), storage.MarshalAnswer(&a)); err != nil {
				return err
			}
			if err := tx.Set(makeTextKey(answerTextPrefix, a.Normalized), storage.MarshalID(a.Id)); err != nil {
				return err
			}
		}
		if q.AnswerId == a.Id {
			return nil
		}

		previous := q.AnswerId
		if err := tx.Delete(makeCompositeKey(answerQuestionPrefix, previous, q.Id)); err != nil {
			return err
		}
		q.AnswerId = a.Id
		q.UpdatedAt = ts
		if err := r.writeQuestion(tx, q); err != nil {
			return err
		}

		remaining, err := questionIDsForAnswer(tx, previous)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			if err := r.deleteAnswer(tx, previous); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, nil, err
	}
	return q, &a, nil
}

// DeleteQuestions removes questions and any answers they orphan.
func (r *CorpusRepository) DeleteQuestions(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeKey(questionPrefix, id)
			q, err := readRecord(tx, key, storage.UnmarshalQuestion)
			if err != nil {
				return err
			}
			if q == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
			if err := tx.Delete(makeTextKey(questionTextPrefix, q.Normalized)); err != nil {
				return err
			}
			if err := tx.Delete(makeCompositeKey(answerQuestionPrefix, q.AnswerId, q.Id)); err != nil {
				return err
			}

			remaining, err := questionIDsForAnswer(tx, q.AnswerId)
			if err != nil {
				return err
			}
			if len(remaining) == 0 {
				if err := r.deleteAnswer(tx, q.AnswerId); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

func (r *CorpusRepository) deleteAnswer(tx *badger.Txn, id core.ID) error {
	key := makeKey(answerPrefix, id)
	a, err := readRecord(tx, key, storage.UnmarshalAnswer)
	if err != nil || a == nil {
		return err
	}
	if err := tx.Delete(makeTextKey(answerTextPrefix, a.Normalized)); err != nil {
		return err
	}
	return tx.Delete(key)
}

// GetQuestion retrieves a single question by ID.
func (r *CorpusRepository) GetQuestion(ctx context.Context, id core.ID) (*core.Question, error) {
	var result *core.Question
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeKey(questionPrefix, id), storage.UnmarshalQuestion)
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

// GetAnswer retrieves a single answer by ID.
func (r *CorpusRepository) GetAnswer(ctx context.Context, id core.ID) (*core.Answer, error) {
	var result *core.Answer
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeKey(answerPrefix, id), storage.UnmarshalAnswer)
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

// FindQuestionByText retrieves a question by its normalized text.
func (r *CorpusRepository) FindQuestionByText(ctx context.Context, normalized string) (*core.Question, error) {
	var result *core.Question
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.questionByText(tx, normalized)
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

// FindAnswerByText retrieves an answer by its normalized text.
func (r *CorpusRepository) FindAnswerByText(ctx context.Context, normalized string) (*core.Answer, error) {
	var result *core.Answer
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.answerByText(tx, normalized)
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

func (r *CorpusRepository) questionByText(tx *badger.Txn, normalized string) (*core.Question, error) {
	id, err := readRecord(tx, makeTextKey(questionTextPrefix, normalized), storage.UnmarshalID)
	if err != nil || id == 0 {
		return nil, err
	}
	q, err := readRecord(tx, makeKey(questionPrefix, id), storage.UnmarshalQuestion)
	if err != nil || q == nil || q.Normalized != normalized {
		return nil, err
	}
	return q, nil
}

func (r *CorpusRepository) answerByText(tx *badger.Txn, normalized string) (*core.Answer, error) {
	id, err := readRecord(tx, makeTextKey(answerTextPrefix, normalized), storage.UnmarshalID)
	if err != nil || id == 0 {
		return nil, err
	}
	a, err := readRecord(tx, makeKey(answerPrefix, id), storage.UnmarshalAnswer)
	if err != nil || a == nil || a.Normalized != normalized {
		return nil, err
	}
	return a, nil
}

// GetQuestionsByAnswer retrieves IDs of questions that resolve to an answer.
func (r *CorpusRepository) GetQuestionsByAnswer(ctx context.Context, answerID core.ID) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		ids, err = questionIDsForAnswer(tx, answerID)
		return err
	}, false)
	return ids, err
}

func questionIDsForAnswer(tx *badger.Txn, answerID core.ID) ([]core.ID, error) {
	prefix := makeKey(answerQuestionPrefix, answerID)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		ids = append(ids, compositeSecond(iter.Item().Key()))
	}
	return ids, nil
}

// GetQuestionPage retrieves up to limit questions with ID greater than after.
func (r *CorpusRepository) GetQuestionPage(ctx context.Context, after core.ID, limit int) ([]*core.Question, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidArgument
	}
	var results []*core.Question
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makePrefix(questionPrefix), makeKey(questionPrefix, after+1), storage.UnmarshalQuestion,
			func(q *core.Question) (bool, error) {
				results = append(results, q)
				return len(results) < limit, ctx.Err()
			})
	}, false)
	return results, err
}

// GetAnswerPage retrieves up to limit answers with ID greater than after.
func (r *CorpusRepository) GetAnswerPage(ctx context.Context, after core.ID, limit int) ([]*core.Answer, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidArgument
	}
	var results []*core.Answer
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makePrefix(answerPrefix), makeKey(answerPrefix, after+1), storage.UnmarshalAnswer,
			func(a *core.Answer) (bool, error) {
				results = append(results, a)
				return len(results) < limit, ctx.Err()
			})
	}, false)
	return results, err
}

// ForEachQuestion calls fn for every stored question in ID order.
func (r *CorpusRepository) ForEachQuestion(ctx context.Context, fn func(*core.Question) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makePrefix(questionPrefix), nil, storage.UnmarshalQuestion,
			func(q *core.Question) (bool, error) {
				if err := ctx.Err(); err != nil {
					return false, err
				}
				return true, fn(q)
			})
	}, false)
}

// CountQuestions returns the number of stored questions.
func (r *CorpusRepository) CountQuestions(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePrefix(questionPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}
