package orchestrator

import (
	"context"
	"fmt"
	"time"
)

// runWithRetry invokes f up to attempts times with a fixed sleep between
// failed attempts. The sleep function is injectable so tests run without
// waiting. Exhaustion returns a terminal error wrapping the last failure.
func runWithRetry(ctx context.Context, attempts int, delay time.Duration, sleep func(time.Duration), f func() error) error {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = f()
		if lastErr == nil {
			return nil
		}
		if attempt < attempts {
			sleep(delay)
		}
	}

	return fmt.Errorf("trading cycle failed after %d attempts: %w", attempts, lastErr)
}
