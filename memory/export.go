package memory

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/qamatch/core"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var exportHeader = []string{"id", "type", "description", "scheduled_at", "annual", "priority", "tags"}

type exportRecord struct {
	Id          core.ID   `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Annual      bool      `json:"annual"`
	Priority    string    `json:"priority"`
	Tags        []string  `json:"tags"`
}

func toExportRecord(e *core.MemoryEntry) exportRecord {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return exportRecord{
		Id:          e.Id,
		Type:        e.Type.String(),
		Description: e.Description,
		ScheduledAt: e.ScheduledAt,
		Annual:      e.Annual,
		Priority:    e.Priority.String(),
		Tags:        tags,
	}
}

// Export writes every entry to w in id order, as csv or json. Times are
// RFC 3339; csv tags are joined with ";". An empty store still produces a
// csv header or an empty json array.
func (s *Store) Export(ctx context.Context, w io.Writer, format string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatCSV && format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return err
	}
	records := make([]exportRecord, len(entries))
	for i, e := range entries {
		records[i] = toExportRecord(e)
	}

	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(records)
	} else {
		err = writeCSV(w, records)
	}
	if err != nil {
		return fmt.Errorf("exporting memories: %w", err)
	}
	s.logger.Debug("memories exported", "format", format, "entries", len(records))
	return nil
}

func writeCSV(w io.Writer, records []exportRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatUint(uint64(r.Id), 10),
			r.Type,
			r.Description,
			r.ScheduledAt.Format(time.RFC3339),
			strconv.FormatBool(r.Annual),
			r.Priority,
			strings.Join(r.Tags, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
