package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/shared"
)

// withRetry runs fn, retrying transient provider failures with exponential
// backoff. Only [shared.ErrProviderUnavailable] is retryable; auth failures
// and validation errors surface immediately. Respects context cancellation
// between attempts.
func withRetry(ctx context.Context, logger *log.Logger, maxRetries int, backoff time.Duration, fn func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff << (attempt - 1)
			if logger != nil {
				logger.Warn("retrying after transient provider error", "attempt", attempt, "wait", wait, "err", err)
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err = fn(); err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrProviderUnavailable) {
			return err
		}
	}
	return err
}
