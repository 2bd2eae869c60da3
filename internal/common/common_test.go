package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shintopc/UPI-voice-alert/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	fast := service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return ErrEngineNotReady
			}
			return nil
		}, fast)

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return ErrEngineNotReady
		}, fast)

		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, ErrEngineNotReady)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
		}{
			{name: "marked permanent", err: &RetryableError{Err: errors.New("binary missing"), Retryable: false}},
			{name: "permanent engine error", err: &RetryableError{Err: fmt.Errorf("%w: espeak-ng not found", ErrEngineNotReady), Retryable: false}},
			{name: "unclassified error", err: errors.New("disk full")},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				calls := 0
				err := WithRetry(context.Background(), func() error {
					calls++
					return tt.err
				}, fast)

				assert.Equal(t, tt.err, err)
				assert.Equal(t, 1, calls)
			})
		}
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := WithRetry(ctx, func() error { return ErrEngineNotReady },
			service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Second})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrEngineNotReady))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(&RetryableError{Err: ErrEngineNotReady, Retryable: false}))
}

func TestUserError(t *testing.T) {
	err := NewUserError("could not open database", ErrDatabaseCorrupted)

	assert.Equal(t, "could not open database: database corrupted", err.Error())
	assert.ErrorIs(t, err, ErrDatabaseCorrupted)
	assert.Equal(t, "just a message", NewUserError("just a message", nil).Error())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown", "amount", "500")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"amount":"500"`)

	_, err = NewLogger(&buf, slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
