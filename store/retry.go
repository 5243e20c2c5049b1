// ABOUTME: Timeout and retry policy applied to every remote call
// ABOUTME: Not-found and cancellation are returned immediately, other errors back off
package store

import (
	"context"
	"errors"
	"time"

	"github.com/joalcobiz/mylifeos/models"
)

// RetryPolicy bounds a remote call.
type RetryPolicy struct {
	// Attempts is the total number of tries, at least 1.
	Attempts int
	// Backoff is the wait before the second try; it doubles afterwards.
	Backoff time.Duration
	// Timeout bounds each try. Zero means no deadline.
	Timeout time.Duration
}

// DefaultRetryPolicy returns 3 attempts, 500ms doubling backoff, 30s per try.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Backoff:  500 * time.Millisecond,
		Timeout:  30 * time.Second,
	}
}

func retryable(err error) bool {
	return !errors.Is(err, models.ErrNotFound) && !errors.Is(err, context.Canceled)
}

// Do runs fn until it succeeds, fails permanently, or attempts run out.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.Backoff

	var err error
	for i := 0; i < attempts; i++ {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		err = fn(callCtx)
		cancel()

		if err == nil || !retryable(err) || i == attempts-1 {
			return err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return err
		}
		backoff *= 2
	}
	return err
}
