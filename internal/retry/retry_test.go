package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "OpenMCP-ABI/internal/errors"
)

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0

	got, err := Do(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("attempt %d failed", calls)
		}
		return "ok", nil
	}, Options{MaxRetries: 3, InitialBackoff: time.Second, LogPrefix: "Read balanceOf", Sleep: sleeper.sleep})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.waits)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	sleeper := &recordingSleeper{}
	var lastErr error
	calls := 0

	_, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		lastErr = fmt.Errorf("attempt %d failed", calls)
		return 0, lastErr
	}, Options{Sleep: sleeper.sleep})

	require.Error(t, err)
	assert.Same(t, lastErr, err, "the final error must be returned unmodified")
	assert.Equal(t, DefaultMaxRetries, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.waits)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	permanent := xerrors.New(xerrors.CodeInvalidArgument, "bad selector")

	_, err := Do(context.Background(), func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, permanent
	}, Options{MaxRetries: 5, Sleep: sleeper.sleep})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.waits)
}

func TestDoOnRetryHook(t *testing.T) {
	var attempts []int
	_, _ = Do(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("boom")
	}, Options{
		MaxRetries: 4,
		Sleep:      func(context.Context, time.Duration) error { return nil },
		OnRetry:    func(attempt int, _ error) { attempts = append(attempts, attempt) },
	})
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDoHonoursCancelledContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	boom := errors.New("boom")
	_, err := Do(ctx, func(context.Context) (int, error) {
		calls++
		return 0, boom
	}, Options{InitialBackoff: time.Hour})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
