package storage

import (
	"context"

	"github.com/poiesic/qamatch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases repository resources. It does not close the backend.
	Close() error
}

// Pair is a question together with the answer it resolves to.
// When Answer.Id is non-zero the answer already exists and is only linked.
type Pair struct {
	Question *core.Question
	Answer   *core.Answer
}

// CorpusRepository stores Questions and Answers.
type CorpusRepository interface {
	Repository

	// AddPairs stores each pair in a single transaction. New answers get
	// sequence IDs; existing answers (non-zero Id) must exist.
	// Questions get sequence IDs and their AnswerId is set.
	// Returns ErrDuplicateKey if a question's normalized text is already stored.
	AddPairs(ctx context.Context, pairs ...Pair) ([]Pair, error)

	// UpdateQuestions replaces stored questions, maintaining the text index.
	// Returns ErrNotFound if any question doesn't exist.
	UpdateQuestions(ctx context.Context, questions ...*core.Question) ([]*core.Question, error)

	// UpdateAnswers replaces stored answers.
	// Returns ErrNotFound if any answer doesn't exist, and ErrDuplicateKey
	// if a new normalized text already belongs to a different answer.
	UpdateAnswers(ctx context.Context, answers ...*core.Answer) ([]*core.Answer, error)

	// RelinkQuestion points one question at the answer whose normalized
	// text matches answer.Normalized, creating that answer when none is
	// stored. The previous answer is removed if no question references it
	// any more. Other questions sharing the previous answer are untouched.
	// Returns the updated question and the answer it now resolves to.
	RelinkQuestion(ctx context.Context, questionID core.ID, answer *core.Answer) (*core.Question, *core.Answer, error)

	// DeleteQuestions removes questions. An answer left with no questions
	// is removed in the same transaction.
	DeleteQuestions(ctx context.Context, ids ...core.ID) error

	// GetQuestion returns ErrNotFound if the question doesn't exist.
	GetQuestion(ctx context.Context, id core.ID) (*core.Question, error)

	// GetAnswer returns ErrNotFound if the answer doesn't exist.
	GetAnswer(ctx context.Context, id core.ID) (*core.Answer, error)

	// FindQuestionByText looks a question up by its normalized text.
	FindQuestionByText(ctx context.Context, normalized string) (*core.Question, error)

	// FindAnswerByText looks an answer up by its normalized text.
	FindAnswerByText(ctx context.Context, normalized string) (*core.Answer, error)

	// GetQuestionsByAnswer returns the IDs of questions linked to an answer.
	GetQuestionsByAnswer(ctx context.Context, answerID core.ID) ([]core.ID, error)

	// GetQuestionPage returns up to limit questions with ID > after, in ID order.
	GetQuestionPage(ctx context.Context, after core.ID, limit int) ([]*core.Question, error)

	// GetAnswerPage returns up to limit answers with ID > after, in ID order.
	GetAnswerPage(ctx context.Context, after core.ID, limit int) ([]*core.Answer, error)

	// ForEachQuestion performs a full scan in ID order.
	ForEachQuestion(ctx context.Context, fn func(*core.Question) error) error

	// CountQuestions returns the number of stored questions.
	CountQuestions(ctx context.Context) (int, error)
}

// ReviewFilter narrows ListItems. Nil/empty fields match everything.
type ReviewFilter struct {
	Approved *bool
	Source   string
}

// Promotion describes the writes performed when a review item is approved.
type Promotion struct {
	ItemId   core.ID
	Question *core.Question
	// Answer is created when its Id is zero, otherwise it must already exist.
	Answer   *core.Answer
	Feedback *core.SearchFeedback
}

// ReviewRepository stores PendingReview items.
type ReviewRepository interface {
	Repository

	// AddItems appends items to the queue. Approved is forced to false.
	AddItems(ctx context.Context, items ...*core.PendingReview) ([]*core.PendingReview, error)

	// GetItem returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id core.ID) (*core.PendingReview, error)

	// SetApproved changes an item's approval flag.
	SetApproved(ctx context.Context, id core.ID, approved bool) error

	// DeleteItems removes items. Returns ErrNotFound if any item doesn't exist.
	DeleteItems(ctx context.Context, ids ...core.ID) error

	// ListItems returns matching items ordered by ID.
	ListItems(ctx context.Context, filter ReviewFilter) ([]*core.PendingReview, error)

	// Promote creates the answer (if new) and question, appends the feedback
	// record and deletes the queue item in one transaction. Nothing is
	// written if any step fails.
	Promote(ctx context.Context, p Promotion) error
}

// MemoryRepository stores personal MemoryEntry records.
type MemoryRepository interface {
	Repository

	// AddEntries assigns IDs and CreatedAt.
	AddEntries(ctx context.Context, entries ...*core.MemoryEntry) ([]*core.MemoryEntry, error)

	// UpdateEntries returns ErrNotFound if any entry doesn't exist.
	UpdateEntries(ctx context.Context, entries ...*core.MemoryEntry) ([]*core.MemoryEntry, error)

	// DeleteEntries returns ErrNotFound if any entry doesn't exist.
	DeleteEntries(ctx context.Context, ids ...core.ID) error

	// GetEntry returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.MemoryEntry, error)

	// ListEntries returns every entry ordered by ID.
	ListEntries(ctx context.Context) ([]*core.MemoryEntry, error)
}

// FeedbackRepository is an append-only log of SearchFeedback.
type FeedbackRepository interface {
	Repository

	// AddFeedback assigns IDs and CreatedAt.
	AddFeedback(ctx context.Context, records ...*core.SearchFeedback) ([]*core.SearchFeedback, error)

	// ListFeedback returns every record ordered by ID.
	ListFeedback(ctx context.Context) ([]*core.SearchFeedback, error)

	// GetFeedbackByQuestion returns the records for one question.
	GetFeedbackByQuestion(ctx context.Context, questionID core.ID) ([]*core.SearchFeedback, error)
}

// ManifestRepository persists the corpus manifest.
type ManifestRepository interface {
	// SaveManifest stores the manifest, setting UpdatedAt.
	SaveManifest(ctx context.Context, manifest *core.Manifest) error

	// LoadManifest returns nil, nil if no manifest has been saved.
	LoadManifest(ctx context.Context) (*core.Manifest, error)
}
