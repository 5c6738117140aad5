package resilience

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError reports a call that ran past its own limit. It unwraps to
// context.DeadlineExceeded.
type TimeoutError struct {
	Name  string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %v", e.Name, e.Limit)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// WithTimeout runs fn under a per-call deadline. fn must honour ctx. When the
// parent context is already done the error is marked Permanent so Retry
// stops instead of burning attempts.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(callCtx)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return Permanent(fmt.Errorf("%s: %w", name, ctx.Err()))
	case callCtx.Err() == context.DeadlineExceeded:
		return &TimeoutError{Name: name, Limit: timeout}
	}
	return err
}
