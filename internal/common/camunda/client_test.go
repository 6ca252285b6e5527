package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "dealmatch-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestExecuteWithRetry_RecoversFromTransientErrors(t *testing.T) {
	calls := 0
	got, err := ExecuteWithRetry(context.Background(), fastRetry, "topology", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	calls := 0
	_, err := ExecuteWithRetry(context.Background(), fastRetry, "topology", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("context deadline exceeded")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEngineTimeout))
}

func TestExecuteWithRetry_DoesNotRetryRejections(t *testing.T) {
	calls := 0
	_, err := ExecuteWithRetry(context.Background(), fastRetry, "complete", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("rpc error: code = NotFound desc = job not found")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEngineRejected))
}

func TestExecuteWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	_, err := ExecuteWithRetry(ctx, slow, "topology", func(context.Context) (int, error) {
		return 0, errors.New("unavailable")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
