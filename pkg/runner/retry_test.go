package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/pkg/runner"
)

func TestRetryWithBackoffSucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	start := time.Now()

	err := runner.RetryWithBackoff(context.Background(), 2, 100*time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	// 100ms after the first failure, 200ms after the second.
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestRetryWithBackoffExhaustionNamesAttemptCount(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")

	err := runner.RetryWithBackoff(context.Background(), 1, time.Millisecond, func() error {
		return cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "2 attempts")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRetryWithBackoffNoRetriesRunsOnce(t *testing.T) {
	t.Parallel()

	calls := 0

	err := runner.RetryWithBackoff(context.Background(), 0, time.Second, func() error {
		calls++

		return errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "1 attempts")
}

func TestRetryWithBackoffStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0

	err := runner.RetryWithBackoff(ctx, 5, time.Hour, func() error {
		calls++

		return errors.New("boom")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
