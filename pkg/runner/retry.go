package runner

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff runs op up to retries+1 times, doubling the delay after
// each failed attempt. The returned error wraps the last failure and names
// the total attempt count. A cancelled context aborts the wait immediately.
func RetryWithBackoff(ctx context.Context, retries int, delay time.Duration, op func() error) error {
	if retries < 0 {
		retries = 0
	}

	attempts := retries + 1

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
	}

	return fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}
