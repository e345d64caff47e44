package bootstrap

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"delivery-notifier/internal/common/config"
	"delivery-notifier/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_EventuallySucceeds(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return stderrors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond, logger.NewTestLogger(t), "test op")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return stderrors.New("connection refused")
	}, 3, time.Millisecond, logger.NewNoOpLogger(), "test op")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "test op failed after 3 attempts")
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return stderrors.New("connection refused")
	}, 5, time.Hour, logger.NewNoOpLogger(), "test op")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_RejectsMissingVAPIDKeys(t *testing.T) {
	_, err := Build(context.Background(), &config.Config{}, "test", logger.NewNoOpLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid push configuration")
}
