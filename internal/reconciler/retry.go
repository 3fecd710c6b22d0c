package reconciler

import (
	"context"
	"time"
)

// RetryPolicy bounds how long the reconciler waits for the synchronous
// checkout flow to write its order before creating one from the event.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy mirrors the storefront's five one-second attempts.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, Delay: time.Second}

// wait sleeps for one delay, honoring ctx cancellation.
func (p RetryPolicy) wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
