package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker prints a single, carriage-return refreshed progress
// line for one pass over the corpus. It is safe for concurrent use.
type ProgressTracker struct {
	mu sync.Mutex

	w            io.Writer
	unit         string
	total        int
	interval     int
	done         int
	lastReported int
	start        time.Time
	running      bool
}

// NewProgressTracker reports on w every interval items out of total.
// A nil w discards output.
func NewProgressTracker(w io.Writer, unit string, total, interval int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	return &ProgressTracker{
		w:        w,
		unit:     unit,
		total:    total,
		interval: max(interval, 1),
	}
}

// Start resets the count and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = time.Now()
	p.running = true
	p.done, p.lastReported = 0, 0
}

// Update records that done items are finished, reporting if at least one
// interval has passed since the last report. Calls before Start are ignored.
func (p *ProgressTracker) Update(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.done = min(done, p.total)
	if p.done-p.lastReported >= p.interval {
		p.print()
		p.lastReported = p.done
	}
}

// Finish prints the final line and ends it with a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.done = p.total
	p.print()
	fmt.Fprintln(p.w)
	p.running = false
}

// Elapsed is the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		return 0
	}
	return time.Since(p.start)
}

func (p *ProgressTracker) print() {
	elapsed := time.Since(p.start)
	pct, rate := 0.0, 0.0
	if p.total > 0 {
		pct = 100 * float64(p.done) / float64(p.total)
	}
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	fmt.Fprintf(p.w, "\rProgress: %d/%d %s (%.1f%%) - %.1f %s/s", p.done, p.total, p.unit, pct, rate, p.unit)
	if rate > 0 && p.done < p.total {
		eta := time.Duration(float64(p.total-p.done) / rate * float64(time.Second))
		fmt.Fprintf(p.w, ", eta %s", eta.Round(time.Second))
	}
}
