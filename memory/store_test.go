package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/storage"
	"github.com/poiesic/qamatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Close()
		backend.Close()
	})
	s, err := NewStore(repos.Memory, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return s
}

func create(t *testing.T, s *Store, e *core.MemoryEntry) *core.MemoryEntry {
	t.Helper()
	created, err := s.Create(context.Background(), e)
	require.NoError(t, err)
	return created
}

func TestNewStore(t *testing.T) {
	_, err := NewStore(nil)
	assert.Equal(t, ErrMemoryRepositoryRequired, err)

	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	defer repos.Close()

	_, err = NewStore(repos.Memory, WithClock(nil))
	assert.Error(t, err)
	_, err = NewStore(repos.Memory, WithLogger(nil))
	assert.NoError(t, err)
}

func TestStore_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := create(t, s, &core.MemoryEntry{
		Type:        core.MemoryTypeTask,
		Description: "  Levar o carro na revisão ",
		ScheduledAt: testNow.Add(48 * time.Hour),
		Tags:        []string{" Carro", "carro", "OFICINA", ""},
	})
	assert.NotZero(t, e.Id)
	assert.Equal(t, "Levar o carro na revisão", e.Description)
	assert.Equal(t, core.PriorityMedium, e.Priority)
	assert.Equal(t, []string{"carro", "oficina"}, e.Tags)

	got, err := s.Get(ctx, e.Id)
	require.NoError(t, err)
	assert.Equal(t, e.Description, got.Description)

	got.Priority = core.PriorityHigh
	got.Annual = true
	updated, err := s.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, core.PriorityHigh, updated.Priority)
	assert.Equal(t, e.CreatedAt, updated.CreatedAt)

	require.NoError(t, s.Delete(ctx, e.Id))
	_, err = s.Get(ctx, e.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, e.Id), storage.ErrNotFound)
}

func TestStore_CreateValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry *core.MemoryEntry
		want  error
	}{
		{name: "nil", entry: nil, want: core.ErrInvalidMemoryEntry},
		{
			name:  "blank description",
			entry: &core.MemoryEntry{Type: core.MemoryTypeReminder, Description: "  ", ScheduledAt: testNow},
			want:  core.ErrEmptyInput,
		},
		{
			name:  "unknown type",
			entry: &core.MemoryEntry{Type: 42, Description: "x", ScheduledAt: testNow},
			want:  core.ErrInvalidMemoryType,
		},
		{
			name:  "unknown priority",
			entry: &core.MemoryEntry{Type: core.MemoryTypeEvent, Description: "x", ScheduledAt: testNow, Priority: 9},
			want:  core.ErrInvalidPriority,
		},
		{
			name:  "no schedule",
			entry: &core.MemoryEntry{Type: core.MemoryTypeEvent, Description: "x"},
			want:  core.ErrMissingSchedule,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.entry)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := create(t, s, &core.MemoryEntry{Type: core.MemoryTypeBirthday, Description: "Aniversário da Ana", ScheduledAt: testNow, Annual: true, Tags: []string{"familia"}})
	b := create(t, s, &core.MemoryEntry{Type: core.MemoryTypeTask, Description: "Matrícula", ScheduledAt: testNow, Tags: []string{"escola", "familia"}})
	c := create(t, s, &core.MemoryEntry{Type: core.MemoryTypeTask, Description: "Relatório", ScheduledAt: testNow, Tags: []string{"trabalho"}})

	ids := func(entries []*core.MemoryEntry) []core.ID {
		out := make([]core.ID, len(entries))
		for i, e := range entries {
			out[i] = e.Id
		}
		return out
	}

	tests := []struct {
		name   string
		filter Filter
		want   []core.ID
	}{
		{name: "all", filter: Filter{}, want: []core.ID{a.Id, b.Id, c.Id}},
		{name: "by type", filter: Filter{Type: core.MemoryTypeTask}, want: []core.ID{b.Id, c.Id}},
		{name: "by tag", filter: Filter{Tag: " Familia "}, want: []core.ID{a.Id, b.Id}},
		{name: "by type and tag", filter: Filter{Type: core.MemoryTypeTask, Tag: "familia"}, want: []core.ID{b.Id}},
		{name: "no match", filter: Filter{Tag: "viagem"}, want: []core.ID{}},
		{name: "text in description", filter: Filter{Text: "ANIVERSARIO"}, want: []core.ID{a.Id}},
		{name: "text with accents", filter: Filter{Text: "relatório"}, want: []core.ID{c.Id}},
		{name: "text in tag", filter: Filter{Text: "escol"}, want: []core.ID{b.Id}},
		{name: "text and type", filter: Filter{Type: core.MemoryTypeTask, Text: "famil"}, want: []core.ID{b.Id}},
		{name: "text no match", filter: Filter{Text: "viagem"}, want: []core.ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestStore_NextOccurrence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := create(t, s, &core.MemoryEntry{
		Type:        core.MemoryTypeBirthday,
		Description: "Aniversário do João",
		ScheduledAt: testNow.AddDate(-1, 0, 1),
		Annual:      true,
	})

	next, ok, err := s.NextOccurrence(ctx, e.Id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, testNow.AddDate(0, 0, 1).Equal(next))

	stored, err := s.Get(ctx, e.Id)
	require.NoError(t, err)
	assert.True(t, testNow.AddDate(-1, 0, 1).Equal(stored.ScheduledAt))

	_, _, err = s.NextOccurrence(ctx, 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_Upcoming(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tomorrow := testNow.Add(24 * time.Hour)
	low := create(t, s, &core.MemoryEntry{Type: core.MemoryTypeTask, Description: "Regar plantas", ScheduledAt: tomorrow, Priority: core.PriorityLow})
	high := create(t, s, &core.MemoryEntry{Type: core.MemoryTypeEvent, Description: "Consulta médica", ScheduledAt: tomorrow, Priority: core.PriorityHigh})
	soon := create(t, s, &core.MemoryEntry{Type: core.MemoryTypeReminder, Description: "Tomar remédio", ScheduledAt: testNow.Add(time.Hour)})
	birthday := create(t, s, &core.MemoryEntry{Type: core.MemoryTypeBirthday, Description: "Aniversário da Ana", ScheduledAt: testNow.AddDate(-30, 0, 2), Annual: true})

	// outside the window or expired
	create(t, s, &core.MemoryEntry{Type: core.MemoryTypeTask, Description: "Pagar IPVA", ScheduledAt: testNow.AddDate(0, 1, 0)})
	create(t, s, &core.MemoryEntry{Type: core.MemoryTypeTask, Description: "Reunião passada", ScheduledAt: testNow.Add(-time.Hour)})
	create(t, s, &core.MemoryEntry{Type: core.MemoryTypeBirthday, Description: "Aniversário passado", ScheduledAt: testNow.AddDate(-3, 0, -1), Annual: true})

	upcoming, err := s.Upcoming(ctx, 72*time.Hour)
	require.NoError(t, err)

	var got []core.ID
	for _, o := range upcoming {
		got = append(got, o.Entry.Id)
		assert.False(t, o.At.Before(testNow))
		assert.False(t, o.At.After(testNow.Add(72*time.Hour)))
	}
	assert.Equal(t, []core.ID{soon.Id, high.Id, low.Id, birthday.Id}, got)
	assert.True(t, testNow.AddDate(0, 0, 2).Equal(upcoming[3].At))

	upcoming, err = s.Upcoming(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, upcoming)

	_, err = s.Upcoming(ctx, -time.Hour)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestWatcher_Check(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var notified []Occurrence
	w := NewWatcher(s, func(_ context.Context, o []Occurrence) { notified = o }, WithWindow(24*time.Hour))

	assert.Empty(t, w.Check(ctx))
	assert.Nil(t, notified)

	e := create(t, s, &core.MemoryEntry{
		Type:        core.MemoryTypeBirthday,
		Description: "Aniversário da Ana",
		ScheduledAt: time.Date(1990, 10, 17, 20, 0, 0, 0, time.UTC),
		Annual:      true,
		Priority:    core.PriorityHigh,
		Tags:        []string{"familia"},
	})

	found := w.Check(ctx)
	require.Len(t, found, 1)
	assert.Equal(t, found, notified)

	alerts := Alerts(found)
	want := fmt.Sprintf("[#%d] birthday: Aniversário da Ana at 17/10/2026 20:00 (high) yearly #familia\n", e.Id)
	assert.Equal(t, want, alerts)
	assert.Empty(t, Alerts(nil))
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	s := newTestStore(t)
	create(t, s, &core.MemoryEntry{Type: core.MemoryTypeReminder, Description: "Tomar remédio", ScheduledAt: testNow.Add(time.Hour)})

	calls := make(chan int, 16)
	w := NewWatcher(s, func(_ context.Context, o []Occurrence) {
		select {
		case calls <- len(o):
		default:
		}
	}, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Equal(t, 1, <-calls)
	assert.Equal(t, 1, <-calls)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
