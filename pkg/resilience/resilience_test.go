package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), "tag", RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryStopsOnPermanent(t *testing.T) {
	sentinel := errors.New("bad request")
	attempts := 0
	err := Retry(context.Background(), "tag", RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}, func() error {
		attempts++
		return Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryExhausted(t *testing.T) {
	sentinel := errors.New("down")
	err := Retry(context.Background(), "tag", RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}, func() error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("exhausted retry should wrap last error, got %v", err)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	var transitions []State
	cb := NewCircuitBreaker("tagger", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     20 * time.Millisecond,
		OnStateChange: func(name string, s State) {
			transitions = append(transitions, s)
		},
	})
	fail := func() error { return errors.New("boom") }
	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("half-open probe: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreakerIgnoresPermanentErrors(t *testing.T) {
	cb := NewCircuitBreaker("tagger", CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Execute(func() error { return Permanent(errors.New("bad caption")) })
	if cb.State() != StateClosed {
		t.Fatalf("permanent error tripped the breaker")
	}
	_ = cb.Execute(func() error { return errors.New("connection refused") })
	err := cb.Execute(func() error { return nil })
	if !errors.Is(err, apperrors.ErrUnavailable) {
		t.Errorf("open breaker error = %v, want ErrUnavailable", err)
	}

	calls := 0
	_ = Retry(context.Background(), "tag", RetryConfig{MaxAttempts: 4, InitialDelay: time.Millisecond}, func() error {
		calls++
		return cb.Execute(func() error { return nil })
	})
	if calls != 1 {
		t.Errorf("retry kept calling an open breaker: %d calls", calls)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	var te *TimeoutError
	if !errors.As(err, &te) || te.Limit != 10*time.Millisecond {
		t.Errorf("expected TimeoutError, got %#v", err)
	}
}

func TestWithTimeoutParentCancelledIsPermanent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Retry(context.Background(), "op", RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, func() error {
		calls++
		return WithTimeout(ctx, time.Second, "op", func(ctx context.Context) error {
			return ctx.Err()
		})
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("retried %d times after parent cancellation", calls)
	}
}
