package memory

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/qamatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedExport(t *testing.T, s *Store) (*core.MemoryEntry, *core.MemoryEntry) {
	t.Helper()
	birthday := create(t, s, &core.MemoryEntry{
		Type:        core.MemoryTypeBirthday,
		Description: "Aniversário da Ana, com bolo",
		ScheduledAt: testNow.Add(24 * time.Hour),
		Annual:      true,
		Priority:    core.PriorityHigh,
		Tags:        []string{"Família", "festa"},
	})
	task := create(t, s, &core.MemoryEntry{
		Type:        core.MemoryTypeTask,
		Description: "Pagar a conta de luz",
		ScheduledAt: testNow.Add(72 * time.Hour),
	})
	return birthday, task
}

func TestStore_ExportCSV(t *testing.T) {
	s := newTestStore(t)
	birthday, task := seedExport(t, s)

	var buf bytes.Buffer
	require.NoError(t, s.Export(context.Background(), &buf, "CSV"))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeader, rows[0])

	assert.Equal(t, []string{fmt.Sprint(birthday.Id), "birthday", "Aniversário da Ana, com bolo"}, rows[1][:3])
	assert.Equal(t, []string{"true", "high", "família;festa"}, rows[1][4:])
	at, err := time.Parse(time.RFC3339, rows[1][3])
	require.NoError(t, err)
	assert.True(t, at.Equal(birthday.ScheduledAt))

	assert.Equal(t, []string{fmt.Sprint(task.Id), "task", "Pagar a conta de luz"}, rows[2][:3])
	assert.Equal(t, []string{"false", "medium", ""}, rows[2][4:])
}

func TestStore_ExportJSON(t *testing.T) {
	s := newTestStore(t)
	birthday, task := seedExport(t, s)

	var buf bytes.Buffer
	require.NoError(t, s.Export(context.Background(), &buf, FormatJSON))

	var records []exportRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)

	assert.Equal(t, birthday.Id, records[0].Id)
	assert.Equal(t, "birthday", records[0].Type)
	assert.Equal(t, "high", records[0].Priority)
	assert.True(t, records[0].Annual)
	assert.Equal(t, []string{"família", "festa"}, records[0].Tags)
	assert.True(t, records[0].ScheduledAt.Equal(birthday.ScheduledAt))

	assert.Equal(t, task.Id, records[1].Id)
	assert.Equal(t, []string{}, records[1].Tags)
	assert.Contains(t, buf.String(), `"tags": []`)
}

func TestStore_ExportEmptyAndInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, &buf, FormatJSON))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, s.Export(ctx, &buf, FormatCSV))
	assert.Equal(t, "id,type,description,scheduled_at,annual,priority,tags\n", buf.String())

	buf.Reset()
	err := s.Export(ctx, &buf, "xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Zero(t, buf.Len())
}
