package util

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryReturnsLastError(t *testing.T) {
	sentinel := errors.New("down")
	calls := 0
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, calls)
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 5, 50*time.Millisecond, func() error {
		return errors.New("always")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "warn", "json")

	log.Info("should be dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept", "k", "v")
	assert.Contains(t, buf.String(), `"kept"`)
}

func TestNewLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "info", "text")
	log.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestRateLimiterWait(t *testing.T) {
	rl := NewRateLimiter(6000) // 100/sec, fast enough for a test
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx))
	}
}

func TestRateLimiterCancelled(t *testing.T) {
	rl := NewRateLimiter(1) // one per minute: second Wait must block
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
