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

package ingestion

import (
	"context"
	"log/slog"
	"time"
)

// RetryWithBackoff calls operation up to maxAttempts times, sleeping
// baseDelay, 2*baseDelay, 4*baseDelay, ... between failed attempts.
//
// The error of the final attempt is returned unchanged. If the context ends
// while an attempt is failing, that attempt's error is returned without
// further retries; if it ends during a backoff sleep, ctx.Err() is returned.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = operation(); err == nil {
			if attempt > 1 {
				slog.Debug("embedding request recovered", "attempt", attempt)
			}
			return nil
		}
		if attempt == maxAttempts || ctx.Err() != nil {
			return err
		}

		delay := baseDelay << (attempt - 1)
		slog.Debug("embedding request failed, backing off",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay,
			"err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
