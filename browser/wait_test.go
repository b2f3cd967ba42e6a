package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikshitha/greythr-attendance/browser"
)

func TestPoll_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := browser.Poll(context.Background(), time.Second, 10*time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPoll_EventualSuccess(t *testing.T) {
	calls := 0
	err := browser.Poll(context.Background(), time.Second, 5*time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPoll_TimeoutKeepsLastError(t *testing.T) {
	cause := errors.New("node detached")
	start := time.Now()
	err := browser.Poll(context.Background(), 50*time.Millisecond, 5*time.Millisecond, func(context.Context) (bool, error) {
		return false, cause
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.ErrorIs(t, err, cause)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPoll_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := browser.Poll(ctx, time.Second, 5*time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, browser.ErrTimeout)
}
