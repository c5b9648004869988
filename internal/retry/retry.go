// Package retry wraps flaky calls (LLM transport, image search HTTP) with a
// bounded attempt loop.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // linear backoff: attempt * Delay
}

// ErrPermanent marks an error that must not be retried. Wrap with
// Permanent() when the failure cannot change on a second attempt
// (e.g. a missing credential).
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err so Do stops immediately.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Do runs fn until it succeeds, the attempts are exhausted, the error is
// permanent, or ctx is cancelled.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, ErrPermanent) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, err)
		}

		delay := cfg.Delay
		if cfg.Backoff {
			delay = time.Duration(attempt) * cfg.Delay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}
