package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/qamatch/core"
)

// Accepted schedule layouts, day-first and ISO, with optional time.
var scheduleLayouts = []string{
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// DisplayLayout is the layout used when showing a schedule.
const DisplayLayout = "02/01/2006 15:04"

// ParseSchedule parses dd/mm/yyyy [hh:mm] or yyyy-mm-dd [hh:mm[:ss]] in
// loc. A date without a time is midnight. A nil loc means time.Local.
func ParseSchedule(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidSchedule, core.ErrEmptyInput)
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSchedule, s)
}

// NextOccurrence returns when e next occurs at or after now. A one-off
// entry occurs at its scheduled time; ok is false once that time has
// passed. An annual entry advances its scheduled time by whole years
// until it is not before now. A February 29 anniversary falls on March 1
// in common years.
func NextOccurrence(e *core.MemoryEntry, now time.Time) (next time.Time, ok bool) {
	at := e.ScheduledAt
	if !at.Before(now) {
		return at, true
	}
	if !e.Annual {
		return time.Time{}, false
	}

	// always offset from the stored time so day clamping never accumulates
	years := now.Year() - at.Year()
	next = at.AddDate(years, 0, 0)
	for next.Before(now) {
		years++
		next = at.AddDate(years, 0, 0)
	}
	return next, true
}
