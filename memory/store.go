package memory

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/normalize"
	"github.com/poiesic/qamatch/storage"
)

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Type core.MemoryType
	Tag  string
	// Text matches entries whose description or tags contain it, ignoring
	// case and accents.
	Text string
}

func (f Filter) matches(e *core.MemoryEntry) bool {
	if f.Type != 0 && e.Type != f.Type {
		return false
	}
	if f.Tag != "" && !slices.Contains(e.Tags, f.Tag) {
		return false
	}
	if f.Text != "" {
		haystack := normalize.Fold(e.Description + " " + strings.Join(e.Tags, " "))
		if !strings.Contains(haystack, f.Text) {
			return false
		}
	}
	return true
}

// Occurrence is an entry together with the time it next occurs.
type Occurrence struct {
	Entry *core.MemoryEntry
	At    time.Time
}

// Store provides CRUD and next-occurrence queries over memory entries.
type Store struct {
	repo   storage.MemoryRepository
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithClock replaces time.Now as the source of "now".
func WithClock(clock func() time.Time) Option {
	return func(s *Store) error {
		if clock == nil {
			return fmt.Errorf("memory: clock must not be nil")
		}
		s.clock = clock
		return nil
	}
}

// NewStore creates a memory store over repo.
func NewStore(repo storage.MemoryRepository, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, ErrMemoryRepositoryRequired
	}
	s := &Store{
		repo:   repo,
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "memory-store")
	return s, nil
}

// prepare fills defaults and normalizes an entry before it is written.
func prepare(e *core.MemoryEntry) error {
	if e == nil {
		return core.ValidateMemoryEntry(e)
	}
	e.Description = strings.TrimSpace(e.Description)
	e.Tags = core.NormalizeTags(e.Tags)
	if e.Priority == 0 {
		e.Priority = core.PriorityMedium
	}
	return core.ValidateMemoryEntry(e)
}

// Create stores a new entry. Tags are normalized and an unset priority
// becomes medium.
func (s *Store) Create(ctx context.Context, e *core.MemoryEntry) (*core.MemoryEntry, error) {
	if err := prepare(e); err != nil {
		return nil, err
	}
	added, err := s.repo.AddEntries(ctx, e)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("memory created", "id", added[0].Id, "type", e.Type, "annual", e.Annual)
	return added[0], nil
}

// Get returns a single entry.
func (s *Store) Get(ctx context.Context, id core.ID) (*core.MemoryEntry, error) {
	return s.repo.GetEntry(ctx, id)
}

// Update replaces a stored entry, keeping its creation time.
func (s *Store) Update(ctx context.Context, e *core.MemoryEntry) (*core.MemoryEntry, error) {
	if err := prepare(e); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateEntries(ctx, e)
	if err != nil {
		return nil, err
	}
	return updated[0], nil
}

// Delete removes entries. It fails with storage.ErrNotFound, deleting
// nothing, if any id is unknown.
func (s *Store) Delete(ctx context.Context, ids ...core.ID) error {
	return s.repo.DeleteEntries(ctx, ids...)
}

// List returns entries matching filter in id order. The tag and text are
// compared after normalization.
func (s *Store) List(ctx context.Context, filter Filter) ([]*core.MemoryEntry, error) {
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	filter.Text = normalize.Fold(filter.Text)
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// NextOccurrence returns when the entry with id next occurs. ok is false
// for a one-off entry whose time has passed.
func (s *Store) NextOccurrence(ctx context.Context, id core.ID) (next time.Time, ok bool, err error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return time.Time{}, false, err
	}
	next, ok = NextOccurrence(e, s.clock())
	return next, ok, nil
}

// Upcoming returns the entries whose next occurrence falls within
// [now, now+window], ordered by occurrence time, then priority (high
// first), then id.
func (s *Store) Upcoming(ctx context.Context, window time.Duration) ([]Occurrence, error) {
	if window < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	limit := now.Add(window)
	var out []Occurrence
	for _, e := range entries {
		next, ok := NextOccurrence(e, now)
		if !ok || next.After(limit) {
			continue
		}
		out = append(out, Occurrence{Entry: e, At: next})
	}

	slices.SortFunc(out, func(a, b Occurrence) int {
		if c := a.At.Compare(b.At); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Entry.Priority, a.Entry.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Entry.Id, b.Entry.Id)
	})
	return out, nil
}
