package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Default watcher settings.
const (
	DefaultCheckInterval = time.Hour
	DefaultAlertWindow   = 24 * time.Hour
)

// Watcher periodically reports upcoming entries.
type Watcher struct {
	store    *Store
	interval time.Duration
	window   time.Duration
	notify   func(context.Context, []Occurrence)
	logger   *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithInterval sets how often the store is checked.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWindow sets how far ahead each check looks.
func WithWindow(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.window = d
		}
	}
}

// WithWatcherLogger sets a custom logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher calling notify with every non-empty set of
// upcoming entries. A nil notify only logs.
func NewWatcher(store *Store, notify func(context.Context, []Occurrence), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		store:    store,
		interval: DefaultCheckInterval,
		window:   DefaultAlertWindow,
		notify:   notify,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "memory-watcher")
	return w
}

// Run checks immediately and then on every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check runs a single look-ahead and returns what it found.
func (w *Watcher) Check(ctx context.Context) []Occurrence {
	upcoming, err := w.store.Upcoming(ctx, w.window)
	if err != nil {
		w.logger.Error("upcoming check failed", "err", err)
		return nil
	}
	if len(upcoming) == 0 {
		return nil
	}
	w.logger.Info("upcoming memories", "count", len(upcoming), "window", w.window)
	if w.notify != nil {
		w.notify(ctx, upcoming)
	}
	return upcoming
}

// Alerts renders occurrences one per line, in the order given.
func Alerts(occurrences []Occurrence) string {
	if len(occurrences) == 0 {
		return ""
	}
	var b strings.Builder
	for _, o := range occurrences {
		e := o.Entry
		fmt.Fprintf(&b, "[#%d] %s: %s at %s (%s)", e.Id, e.Type, e.Description, o.At.Format(DisplayLayout), e.Priority)
		if e.Annual {
			b.WriteString(" yearly")
		}
		if len(e.Tags) > 0 {
			fmt.Fprintf(&b, " #%s", strings.Join(e.Tags, " #"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
