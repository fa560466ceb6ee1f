// Package retry runs an operation until it succeeds or an attempt budget is
// spent, waiting with exponential backoff between attempts.
package retry

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	xerrors "OpenMCP-ABI/internal/errors"
	"OpenMCP-ABI/pkg/logger"
)

const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
	defaultLogPrefix      = "Operation"
)

// Options tunes a single Do call. Zero values fall back to the defaults.
type Options struct {
	// MaxRetries is the total number of attempts, including the first one.
	MaxRetries     int
	InitialBackoff time.Duration
	LogPrefix      string
	Logger         *slog.Logger

	// Sleep waits between attempts. Tests replace it to observe delays.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry runs after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)
	// ShouldRetry reports whether a failure may be retried. The default
	// stops on context cancellation and on errors marked non-retryable.
	ShouldRetry func(err error) bool
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = DefaultInitialBackoff
	}
	if o.LogPrefix == "" {
		o.LogPrefix = defaultLogPrefix
	}
	if o.Logger == nil {
		o.Logger = logger.Named("retry")
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = defaultShouldRetry
	}
	return o
}

// Do invokes op until it succeeds or MaxRetries attempts have failed. The
// error of the last attempt is returned unchanged.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	var zero T
	delay := opts.InitialBackoff
	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if attempt >= opts.MaxRetries || !opts.ShouldRetry(err) {
			opts.Logger.Error("operation failed",
				slog.String("operation", opts.LogPrefix),
				slog.Int("attempt", attempt),
				slog.Int("max_retries", opts.MaxRetries),
				slog.Any("error", err),
			)
			return zero, err
		}

		opts.Logger.Info("attempt failed, retrying",
			slog.String("operation", opts.LogPrefix),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.Any("error", err),
		)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}

		if sleepErr := opts.Sleep(ctx, delay); sleepErr != nil {
			return zero, err
		}
		delay *= 2
	}
}

func defaultShouldRetry(err error) bool {
	if stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !xerrors.IsPermanent(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
