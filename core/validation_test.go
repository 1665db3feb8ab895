package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name    string
		q       *Question
		wantErr error
	}{
		{name: "nil", q: nil, wantErr: ErrInvalidQuestion},
		{name: "empty text", q: &Question{AnswerId: 1}, wantErr: ErrEmptyInput},
		{name: "no answer", q: &Question{Text: "a", Normalized: "a"}, wantErr: ErrMissingAnswer},
		{name: "valid", q: &Question{Text: "A?", Normalized: "a", AnswerId: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuestion(tt.q)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidQuestion)
		})
	}
}

func TestValidateAnswer(t *testing.T) {
	assert.ErrorIs(t, ValidateAnswer(nil), ErrInvalidAnswer)
	assert.ErrorIs(t, ValidateAnswer(&Answer{Text: "   "}), ErrEmptyInput)
	assert.NoError(t, ValidateAnswer(&Answer{Text: "O fêmur."}))
}

func TestValidatePendingReview(t *testing.T) {
	assert.ErrorIs(t, ValidatePendingReview(nil), ErrInvalidReviewItem)
	assert.ErrorIs(t, ValidatePendingReview(&PendingReview{Question: "q"}), ErrEmptyInput)
	assert.NoError(t, ValidatePendingReview(&PendingReview{Question: "q", Answer: "a"}))
}

func TestValidateMemoryEntry(t *testing.T) {
	valid := func() *MemoryEntry {
		return &MemoryEntry{
			Type:        MemoryTypeBirthday,
			Description: "Aniversário da Ana",
			ScheduledAt: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
			Priority:    PriorityHigh,
		}
	}

	require.NoError(t, ValidateMemoryEntry(valid()))

	e := valid()
	e.Description = ""
	assert.ErrorIs(t, ValidateMemoryEntry(e), ErrEmptyInput)

	e = valid()
	e.Type = 0
	assert.ErrorIs(t, ValidateMemoryEntry(e), ErrInvalidMemoryType)

	e = valid()
	e.Priority = 9
	assert.ErrorIs(t, ValidateMemoryEntry(e), ErrInvalidPriority)

	e = valid()
	e.ScheduledAt = time.Time{}
	assert.ErrorIs(t, ValidateMemoryEntry(e), ErrMissingSchedule)
	assert.ErrorIs(t, ValidateMemoryEntry(e), ErrInvalidMemoryEntry)
}

func TestParseMemoryType(t *testing.T) {
	tests := map[string]MemoryType{
		"reminder":    MemoryTypeReminder,
		"Lembrete":    MemoryTypeReminder,
		"aniversário": MemoryTypeBirthday,
		"TASK":        MemoryTypeTask,
		" evento ":    MemoryTypeEvent,
	}
	for in, want := range tests {
		got, err := ParseMemoryType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMemoryType("meeting")
	assert.ErrorIs(t, err, ErrInvalidMemoryType)
}

func TestParsePriority(t *testing.T) {
	tests := map[string]Priority{
		"baixa":  PriorityLow,
		"":       PriorityMedium,
		"média":  PriorityMedium,
		"medium": PriorityMedium,
		"ALTA":   PriorityHigh,
	}
	for in, want := range tests {
		got, err := ParsePriority(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePriority("urgent")
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Familia", "saude", "familia", "", "  "})
	assert.Equal(t, []string{"familia", "saude"}, got)
	assert.Empty(t, NormalizeTags(nil))
}
