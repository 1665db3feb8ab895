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

package reembed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/qamatch/core"
)

// MaxRetryDelay caps the doubling delay between attempts.
const MaxRetryDelay = 30 * time.Second

// retryable reports whether another attempt could succeed. A vector of
// the wrong length will not change on retry.
func retryable(err error) bool {
	return !errors.Is(err, core.ErrDimensionMismatch)
}

// RetryWithBackoff runs operation up to maxAttempts times, sleeping
// baseDelay before the second attempt and doubling it (up to
// MaxRetryDelay) after that. It gives up early on a dimension mismatch
// or when ctx is done, and otherwise returns the last error.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var err error
	delay := baseDelay
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = operation(); err == nil {
			if attempt > 1 {
				slog.Debug("embedding batch succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		slog.Debug("embedding batch failed", "attempt", attempt, "max_attempts", maxAttempts, "err", err)
		if attempt == maxAttempts || !retryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, MaxRetryDelay)
	}
}
