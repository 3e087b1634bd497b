package chain

import (
	"context"
	"errors"
	"time"
)

// Backoff doubles per attempt but never exceeds this, so a long retry
// budget degrades into steady polling instead of multi-minute sleeps.
const maxRetryDelay = 8 * time.Second

// withRetry runs fn until it succeeds or the attempt budget is spent.
// Only transport-level read failures are worth retrying; a context
// error means the caller is gone, not the RPC, and ends the loop at
// once.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
