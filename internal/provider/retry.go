package provider

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy bounds how often a delivery is retried and how long to wait
// between attempts.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Backoff returns the exponential backoff delay for the given attempt
// number, doubling BaseDelay each time.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// Do calls fn until it succeeds or MaxRetries retries have been used. After
// every failure next is asked how to continue: a non-nil error ends the loop
// with that error, otherwise Do sleeps for the returned delay and tries again.
func (p RetryPolicy) Do(
	ctx context.Context,
	fn func(ctx context.Context) error,
	next func(err error, attempt int) (time.Duration, error),
) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		delay, stop := next(err, attempt)
		if stop != nil {
			return stop
		}
		if attempt == p.MaxRetries {
			break
		}
		if err := Sleep(ctx, delay); err != nil {
			return fmt.Errorf("context cancelled during retry wait: %w", err)
		}
	}
	return fmt.Errorf("failed after %d retries: %w", p.MaxRetries, lastErr)
}

// Sleep waits for the specified duration or until the context is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
