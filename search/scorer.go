package search

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/index"
)

// Defaults for Options.
const (
	DefaultLexicalWeight  = 0.5
	DefaultSemanticWeight = 0.5
	DefaultTopK           = 10
	DefaultThreshold      = 0.65
)

// Weights scale the lexical and semantic signals. They are used as given,
// not normalized by their sum.
type Weights struct {
	Lexical  float64
	Semantic float64
}

// Options tunes the hybrid scorer.
type Options struct {
	Weights   Weights
	TopK      int     // hits taken from each signal before fusion
	Threshold float64 // minimum combined score for a match
}

// DefaultOptions returns the default scorer options.
func DefaultOptions() Options {
	return Options{
		Weights:   Weights{Lexical: DefaultLexicalWeight, Semantic: DefaultSemanticWeight},
		TopK:      DefaultTopK,
		Threshold: DefaultThreshold,
	}
}

// Validate checks that weights are non-negative with a positive sum and
// that TopK is positive.
func (o Options) Validate() error {
	w := o.Weights
	if w.Lexical < 0 || w.Semantic < 0 || math.IsNaN(w.Lexical) || math.IsNaN(w.Semantic) {
		return fmt.Errorf("%w: weights must not be negative", ErrInvalidOptions)
	}
	if w.Lexical+w.Semantic <= 0 {
		return fmt.Errorf("%w: weights must sum to a positive value", ErrInvalidOptions)
	}
	if o.TopK < 1 {
		return fmt.Errorf("%w: top-k must be positive, got %d", ErrInvalidOptions, o.TopK)
	}
	if math.IsNaN(o.Threshold) {
		return fmt.Errorf("%w: threshold is NaN", ErrInvalidOptions)
	}
	return nil
}

// Candidate is a question considered for a query with its per-signal scores.
type Candidate struct {
	QuestionId core.ID
	AnswerId   core.ID
	Lexical    float64
	Semantic   float64
	Combined   float64
	Exact      bool
}

// Query is a normalized query ready for scoring. Vector may be nil, in
// which case only the lexical signal contributes.
type Query struct {
	Normalized string
	Keywords   []string
	Vector     []float32
}

// Scorer fuses lexical and semantic scores over one index snapshot.
type Scorer struct {
	opts Options
}

// NewScorer creates a scorer. Options are validated.
func NewScorer(opts Options) (*Scorer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{opts: opts}, nil
}

// Options returns the scorer's options.
func (s *Scorer) Options() Options {
	return s.opts
}

// Score returns the candidates for q ranked best first: an exact normalized
// match first, then combined score descending, then question id ascending.
// The candidate set is the union of the top-K lexical and top-K semantic
// hits, each rescored on both signals.
func (s *Scorer) Score(snap *index.Snapshot, q Query) ([]Candidate, error) {
	ids := make(map[core.ID]struct{})
	for _, hit := range snap.Lexical.Query(q.Keywords, s.opts.TopK) {
		ids[hit.Id] = struct{}{}
	}
	if len(q.Vector) > 0 {
		hits, err := snap.Vectors.Query(q.Vector, s.opts.TopK)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			ids[hit.Id] = struct{}{}
		}
	}
	exactID, exact := snap.Lexical.Exact(q.Normalized)
	if exact {
		ids[exactID] = struct{}{}
	}

	w := s.opts.Weights
	candidates := make([]Candidate, 0, len(ids))
	for id := range ids {
		answerID, ok := snap.AnswerFor(id)
		if !ok {
			continue
		}
		c := Candidate{
			QuestionId: id,
			AnswerId:   answerID,
			Lexical:    snap.Lexical.Score(id, q.Keywords),
		}
		if len(q.Vector) > 0 {
			c.Semantic = snap.Vectors.Similarity(id, q.Vector)
		}
		c.Combined = w.Lexical*c.Lexical + w.Semantic*c.Semantic
		if exact && id == exactID {
			c.Exact = true
			c.Lexical = 1
			c.Combined = 1
		}
		candidates = append(candidates, c)
	}
	slices.SortFunc(candidates, compareCandidates)
	return candidates, nil
}

func compareCandidates(a, b Candidate) int {
	if a.Exact != b.Exact {
		if a.Exact {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(b.Combined, a.Combined); c != 0 {
		return c
	}
	return cmp.Compare(a.QuestionId, b.QuestionId)
}

// Decide picks the winning candidate. An exact match always wins;
// otherwise the highest combined score wins if it reaches threshold,
// ties going to the lowest question id. The boolean is false for
// no match.
func Decide(candidates []Candidate, threshold float64) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := slices.MinFunc(candidates, compareCandidates)
	if best.Exact || best.Combined >= threshold {
		return best, true
	}
	return best, false
}
