package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/poiesic/qamatch/ai"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/index"
	"github.com/poiesic/qamatch/normalize"
	"github.com/poiesic/qamatch/storage"
)

// Response statuses.
const (
	StatusMatch   = "match"
	StatusNoMatch = "no_match"
)

// DefaultEmbedTimeout bounds the wait for a query embedding.
const DefaultEmbedTimeout = 2 * time.Second

// Request is one query.
type Request struct {
	QueryText string
}

// Response is the outcome of a query. When Status is StatusNoMatch the
// answer fields are empty; Score still carries the best combined score
// seen, if any.
type Response struct {
	Status     string
	AnswerText string
	QuestionId core.ID
	AnswerId   core.ID
	Score      float64
	Lexical    float64
	Semantic   float64
	Exact      bool
	// Degraded is set when the query was scored without its embedding.
	Degraded bool
}

// Matched reports whether an answer was selected.
func (r *Response) Matched() bool {
	return r.Status == StatusMatch
}

// Service answers queries against the published index. Queries never
// mutate the corpus and may run concurrently.
type Service struct {
	index        *index.Manager
	corpus       storage.CorpusRepository
	feedback     storage.FeedbackRepository
	embedder     ai.Embedder
	scorer       *Scorer
	opts         Options
	embedTimeout time.Duration
	cacheSize    int64
	cache        *ristretto.Cache[string, []float32]
	monitor      SearchMonitor
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithWeights sets the lexical and semantic weights.
func WithWeights(lexical, semantic float64) Option {
	return func(s *Service) error {
		s.opts.Weights = Weights{Lexical: lexical, Semantic: semantic}
		return nil
	}
}

// WithTopK sets how many hits each signal contributes to the candidate set.
func WithTopK(k int) Option {
	return func(s *Service) error {
		s.opts.TopK = k
		return nil
	}
}

// WithThreshold sets the minimum combined score for a match.
func WithThreshold(threshold float64) Option {
	return func(s *Service) error {
		s.opts.Threshold = threshold
		return nil
	}
}

// WithEmbedTimeout bounds the wait for the query embedding. Past it the
// query is scored lexical-only.
func WithEmbedTimeout(d time.Duration) Option {
	return func(s *Service) error {
		if d <= 0 {
			return fmt.Errorf("%w: embed timeout must be positive", ErrInvalidOptions)
		}
		s.embedTimeout = d
		return nil
	}
}

// WithEmbeddingCache caches up to size query embeddings. Zero disables the cache.
func WithEmbeddingCache(size int) Option {
	return func(s *Service) error {
		if size < 0 {
			return fmt.Errorf("%w: cache size must not be negative", ErrInvalidOptions)
		}
		s.cacheSize = int64(size)
		return nil
	}
}

// WithMonitor installs a monitor observing every query.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Service) error {
		s.monitor = monitor
		return nil
	}
}

// NewService creates a query service.
func NewService(
	idx *index.Manager,
	corpus storage.CorpusRepository,
	feedback storage.FeedbackRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Service, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if corpus == nil {
		return nil, ErrCorpusRepositoryRequired
	}
	if feedback == nil {
		return nil, ErrFeedbackRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Service{
		index:        idx,
		corpus:       corpus,
		feedback:     feedback,
		embedder:     embedder,
		opts:         DefaultOptions(),
		embedTimeout: DefaultEmbedTimeout,
		monitor:      &noopMonitor{},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	scorer, err := NewScorer(s.opts)
	if err != nil {
		return nil, err
	}
	s.scorer = scorer
	s.logger = s.logger.With("component", "query-service")

	if s.cacheSize > 0 {
		s.cache, err = ristretto.NewCache(&ristretto.Config[string, []float32]{
			NumCounters:        s.cacheSize * 10,
			MaxCost:            s.cacheSize,
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close releases the embedding cache.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// Options returns the scorer options in effect.
func (s *Service) Options() Options {
	return s.opts
}

// Ask answers one query. Empty or whitespace-only text fails with
// core.ErrEmptyInput; a query with no acceptable candidate is a
// StatusNoMatch response, not an error.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	return s.AskWithMonitor(ctx, req, s.monitor)
}

// AskWithMonitor is Ask reporting to monitor instead of the service's own.
func (s *Service) AskWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(req.QueryText)

	normalized, err := normalize.Text(req.QueryText)
	if err != nil {
		return nil, err
	}
	q := Query{Normalized: normalized, Keywords: s.index.Keywords(normalized)}
	monitor.AfterNormalization(q.Normalized, q.Keywords)

	resp := &Response{Status: StatusNoMatch}
	snap := s.index.Current()
	if normalized == "" || snap.Len() == 0 {
		monitor.Finish(resp)
		return resp, nil
	}

	if snap.Vectors.Len() > 0 {
		q.Vector, err = s.embed(ctx, normalized)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("scoring lexical-only", "err", err)
			monitor.EmbeddingDegraded(err)
			resp.Degraded = true
		}
	}

	candidates, err := s.scorer.Score(snap, q)
	if errors.Is(err, core.ErrDimensionMismatch) {
		s.logger.Warn("query embedding does not fit the index, scoring lexical-only", "err", err)
		monitor.EmbeddingDegraded(err)
		resp.Degraded = true
		q.Vector = nil
		candidates, err = s.scorer.Score(snap, q)
	}
	if err != nil {
		return nil, err
	}
	monitor.AfterScoring(candidates)

	best, ok := Decide(candidates, s.opts.Threshold)
	resp.Score = best.Combined
	resp.Lexical = best.Lexical
	resp.Semantic = best.Semantic
	if !ok {
		s.logger.Debug("no match", "query", normalized, "best", best.Combined)
		monitor.Finish(resp)
		return resp, nil
	}

	answer, err := s.corpus.GetAnswer(ctx, best.AnswerId)
	if err != nil {
		s.logger.Error("matched answer could not be loaded", "answer", best.AnswerId, "err", err)
		return nil, err
	}
	resp.Status = StatusMatch
	resp.AnswerText = answer.Text
	resp.QuestionId = best.QuestionId
	resp.AnswerId = best.AnswerId
	resp.Exact = best.Exact
	monitor.Finish(resp)
	return resp, nil
}

// embed returns the query embedding, waiting at most embedTimeout. The
// embedder runs in its own goroutine so one that ignores its context
// still cannot hold the query.
func (s *Service) embed(ctx context.Context, normalized string) ([]float32, error) {
	if s.cache != nil {
		if vec, ok := s.cache.Get(normalized); ok {
			return vec, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	type result struct {
		vec []float32
		err error
	}
	done := make(chan result, 1)
	go func() {
		vec, err := s.embedder.EmbedText(ctx, normalized)
		done <- result{vec: vec, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %w", core.ErrCollaboratorTimeout, r.err)
			}
			return nil, r.err
		}
		if len(r.vec) == 0 {
			return nil, errors.New("embedder returned an empty vector")
		}
		if s.cache != nil {
			s.cache.Set(normalized, r.vec, 1)
		}
		return r.vec, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %s", core.ErrCollaboratorTimeout, s.embedTimeout)
	}
}

// RecordFeedback appends a feedback record for a question/answer pairing.
// A zero answerID records the question's own answer; any other answer must
// exist.
func (s *Service) RecordFeedback(ctx context.Context, questionID, answerID core.ID, source string, approved bool) (*core.SearchFeedback, error) {
	q, err := s.corpus.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if answerID == 0 {
		answerID = q.AnswerId
	} else if _, err := s.corpus.GetAnswer(ctx, answerID); err != nil {
		return nil, fmt.Errorf("answer %d: %w", answerID, err)
	}
	records, err := s.feedback.AddFeedback(ctx, &core.SearchFeedback{
		QuestionId: questionID,
		AnswerId:   answerID,
		Source:     source,
		Approved:   approved,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("feedback recorded", "question", questionID, "answer", answerID, "approved", approved)
	return records[0], nil
}
