package apperr

import (
	"context"
	"time"
)

// RetryOptions configures Retry. Zero values mean 3 attempts and 1s delay.
type RetryOptions struct {
	Attempts int
	Delay    time.Duration
}

// Retry runs op until it succeeds, returns a permanent error, or the attempts
// run out. The wait before attempt n+1 is Delay*n. Only use it for
// idempotent reads.
func Retry(ctx context.Context, opts RetryOptions, op func(ctx context.Context) error) error {
	_, err := RetryValue(ctx, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// RetryValue is Retry for operations that produce a value.
func RetryValue[T any](ctx context.Context, opts RetryOptions, op func(ctx context.Context) (T, error)) (T, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}

	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if isPermanent(err) || attempt == opts.Attempts {
			break
		}

		t := time.NewTimer(opts.Delay * time.Duration(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}
	return zero, lastErr
}
