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
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput indicates text that is empty or normalizes to nothing.
	ErrEmptyInput = errors.New("empty input")

	// ErrDimensionMismatch is matched by every *DimensionMismatchError.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCollaboratorTimeout indicates the embedding collaborator did not answer in time.
	ErrCollaboratorTimeout = errors.New("embedding collaborator timed out")

	// ErrPromotionFailure is matched by every *PromotionError.
	ErrPromotionFailure = errors.New("review promotion failed")
)

// Domain validation errors
var (
	// ErrInvalidQuestion indicates a Question failed validation.
	ErrInvalidQuestion = errors.New("invalid question")

	// ErrInvalidAnswer indicates an Answer failed validation.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrInvalidReviewItem indicates a PendingReview failed validation.
	ErrInvalidReviewItem = errors.New("invalid review item")

	// ErrInvalidMemoryEntry indicates a MemoryEntry failed validation.
	ErrInvalidMemoryEntry = errors.New("invalid memory entry")

	// ErrInvalidMemoryType indicates an unknown MemoryType value.
	ErrInvalidMemoryType = errors.New("invalid memory type")

	// ErrInvalidPriority indicates an unknown Priority value.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrMissingSchedule indicates a MemoryEntry without a scheduled time.
	ErrMissingSchedule = errors.New("scheduled time is required")

	// ErrMissingAnswer indicates a Question that does not reference an Answer.
	ErrMissingAnswer = errors.New("question has no answer")
)

// DimensionMismatchError reports a vector whose length differs from the
// dimension already established by a store.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrDimensionMismatch, e.Expected, e.Got)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// PromotionError reports a review item that could not be promoted.
// The item is still queued when this error is returned.
type PromotionError struct {
	ItemID ID
	Err    error
}

func (e *PromotionError) Error() string {
	return fmt.Sprintf("%s: item %d: %v", ErrPromotionFailure, e.ItemID, e.Err)
}

func (e *PromotionError) Is(target error) bool {
	return target == ErrPromotionFailure
}

func (e *PromotionError) Unwrap() error {
	return e.Err
}
