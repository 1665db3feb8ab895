// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateQuestion validates a Question according to domain rules.
//
// Validation rules:
//   - Text and Normalized must not be empty
//   - AnswerId must be set
//
// NOT validated:
//   - Vector (can be empty until the embedder runs)
//   - ID (0 is valid before the store assigns one)
func ValidateQuestion(q *Question) error {
	if q == nil {
		return fmt.Errorf("%w: question is nil", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.Text) == "" || q.Normalized == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuestion, ErrEmptyInput)
	}
	if q.AnswerId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidQuestion, ErrMissingAnswer)
	}
	return nil
}

// ValidateAnswer validates an Answer according to domain rules.
func ValidateAnswer(a *Answer) error {
	if a == nil {
		return fmt.Errorf("%w: answer is nil", ErrInvalidAnswer)
	}
	if strings.TrimSpace(a.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAnswer, ErrEmptyInput)
	}
	return nil
}

// ValidatePendingReview requires both proposed texts to be present.
func ValidatePendingReview(item *PendingReview) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidReviewItem)
	}
	if strings.TrimSpace(item.Question) == "" || strings.TrimSpace(item.Answer) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidReviewItem, ErrEmptyInput)
	}
	return nil
}

// ValidateMemoryEntry validates a MemoryEntry according to domain rules.
//
// Validation rules:
//   - Description must not be empty
//   - Type and Priority must be known values
//   - ScheduledAt must be set
func ValidateMemoryEntry(e *MemoryEntry) error {
	if e == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidMemoryEntry)
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMemoryEntry, ErrEmptyInput)
	}
	if err := ValidateMemoryType(e.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMemoryEntry, err)
	}
	if err := ValidatePriority(e.Priority); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMemoryEntry, err)
	}
	if e.ScheduledAt.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidMemoryEntry, ErrMissingSchedule)
	}
	return nil
}

// ValidateMemoryType validates that a MemoryType has a valid value.
func ValidateMemoryType(t MemoryType) error {
	if t < MemoryTypeReminder || t > MemoryTypeEvent {
		return fmt.Errorf("%w: value %d", ErrInvalidMemoryType, t)
	}
	return nil
}

// ValidatePriority validates that a Priority has a valid value.
func ValidatePriority(p Priority) error {
	if p < PriorityLow || p > PriorityHigh {
		return fmt.Errorf("%w: value %d", ErrInvalidPriority, p)
	}
	return nil
}

// ParseMemoryType accepts English or Portuguese type names.
func ParseMemoryType(s string) (MemoryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reminder", "lembrete":
		return MemoryTypeReminder, nil
	case "birthday", "aniversario", "aniversário":
		return MemoryTypeBirthday, nil
	case "task", "tarefa":
		return MemoryTypeTask, nil
	case "event", "evento":
		return MemoryTypeEvent, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMemoryType, s)
}

// ParsePriority accepts English or Portuguese priority names.
// An empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "baixa":
		return PriorityLow, nil
	case "", "medium", "media", "média":
		return PriorityMedium, nil
	case "high", "alta":
		return PriorityHigh, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// NormalizeTags trims and lowercases tags, drops empties and duplicates,
// and returns them sorted.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
