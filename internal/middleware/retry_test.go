package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/artisanmarket/inventory/internal/infrastructure/observability"
	"github.com/artisanmarket/inventory/internal/pkg/errors"
)

func fastRetryPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       maxAttempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	var calls int
	activity := func(ctx context.Context, input []byte) ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, errors.NewTransientError("FLAKY", "temporary failure", nil)
		}
		return []byte(`done`), nil
	}

	wrapped := WithRetry(observability.NewTestLogger(), fastRetryPolicy(5))(activity)
	output, err := wrapped(context.Background(), []byte{})

	assert.NoError(t, err)
	assert.Equal(t, []byte(`done`), output)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_PermanentErrorNotRetried(t *testing.T) {
	var calls int
	activity := func(ctx context.Context, input []byte) ([]byte, error) {
		calls++
		return nil, errors.NewValidationError("bad input")
	}

	wrapped := WithRetry(observability.NewTestLogger(), fastRetryPolicy(5))(activity)
	_, err := wrapped(context.Background(), []byte{})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	var calls int
	activity := func(ctx context.Context, input []byte) ([]byte, error) {
		calls++
		return nil, errors.NewTransientError("FLAKY", "still failing", nil)
	}

	wrapped := WithRetry(observability.NewTestLogger(), fastRetryPolicy(3))(activity)
	_, err := wrapped(context.Background(), []byte{})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.HasCode(err, "FLAKY"))
}

func TestCalculateBackoff_CapsAtMax(t *testing.T) {
	policy := RetryPolicy{
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	}

	assert.Equal(t, 100*time.Millisecond, calculateBackoff(0, policy))
	assert.Equal(t, 200*time.Millisecond, calculateBackoff(1, policy))
	assert.Equal(t, time.Second, calculateBackoff(10, policy))
}

func TestWithTimeout_Expires(t *testing.T) {
	activity := func(ctx context.Context, input []byte) ([]byte, error) {
		select {
		case <-time.After(time.Second):
			return []byte(`too late`), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	wrapped := WithTimeout(10 * time.Millisecond)(activity)
	_, err := wrapped(context.Background(), []byte{})

	assert.Error(t, err)
	customErr, ok := err.(*errors.CustomError)
	assert.True(t, ok)
	assert.True(t, customErr.IsTimeout())
}

func TestWithTimeout_CompletesInTime(t *testing.T) {
	activity := func(ctx context.Context, input []byte) ([]byte, error) {
		return []byte(`ok`), nil
	}

	wrapped := WithTimeout(time.Second)(activity)
	output, err := wrapped(context.Background(), []byte{})

	assert.NoError(t, err)
	assert.Equal(t, []byte(`ok`), output)
}
