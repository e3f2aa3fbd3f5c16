package resilience

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

type statusErr struct{ status int }

func (e *statusErr) Error() string { return fmt.Sprintf("status %d", e.status) }

func retryOn5xx(err error) bool {
	var se *statusErr
	return errors.As(err, &se) && se.status >= 500
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), DefaultPolicy(), func(_ context.Context, _ int) (string, error) {
		calls++
		return "success", nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_TwoServerErrorsThenSuccess(t *testing.T) {
	p := Policy{MaxRetries: 3, Delay: time.Millisecond, BackoffMultiplier: 2, RetryIf: retryOn5xx}
	calls := 0
	var attempts []int

	result, err := Retry(context.Background(), p, func(_ context.Context, attempt int) (string, error) {
		calls++
		attempts = append(attempts, attempt)
		if calls <= 2 {
			return "", &statusErr{500}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected ok, got %s", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !reflect.DeepEqual(attempts, []int{0, 1, 2}) {
		t.Errorf("unexpected attempts %v", attempts)
	}
}

func TestRetry_ClientErrorIsTerminal(t *testing.T) {
	p := Policy{MaxRetries: 3, Delay: time.Millisecond, BackoffMultiplier: 2, RetryIf: retryOn5xx}
	calls := 0
	want := &statusErr{400}

	_, err := Retry(context.Background(), p, func(_ context.Context, _ int) (string, error) {
		calls++
		return "", want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected the 400 error back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}

func TestRetry_ExhaustsBudget(t *testing.T) {
	p := Policy{MaxRetries: 2, Delay: time.Millisecond, BackoffMultiplier: 1}
	calls := 0
	testErr := errors.New("persistent error")

	_, err := Retry(context.Background(), p, func(_ context.Context, _ int) (int, error) {
		calls++
		return 0, testErr
	})
	if !errors.Is(err, testErr) {
		t.Errorf("expected testErr, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 1 attempt + 2 retries, got %d", calls)
	}
}

func TestRetry_ZeroBudgetRunsOnce(t *testing.T) {
	calls := 0
	_ = RetryFunc(context.Background(), NoRetry(), func(_ context.Context, _ int) error {
		calls++
		return errors.New("x")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_BackoffTiming(t *testing.T) {
	p := Policy{MaxRetries: 1, Delay: 50 * time.Millisecond, BackoffMultiplier: 2}
	calls := 0
	start := time.Now()
	var secondAt time.Duration

	_, _ = Retry(context.Background(), p, func(_ context.Context, _ int) (int, error) {
		calls++
		if calls == 2 {
			secondAt = time.Since(start)
		}
		return 0, errors.New("fail")
	})
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if secondAt < 50*time.Millisecond {
		t.Errorf("expected retry after >= 50ms, got %v", secondAt)
	}
}

func TestPolicy_Backoff(t *testing.T) {
	p := Policy{Delay: 100 * time.Millisecond, BackoffMultiplier: 2}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond}
	for attempt, w := range want {
		if got := p.Backoff(attempt); got != w {
			t.Errorf("attempt %d: expected %v, got %v", attempt, w, got)
		}
	}

	flat := Policy{Delay: 10 * time.Millisecond}
	if flat.Backoff(5) != 10*time.Millisecond {
		t.Errorf("multiplier <= 0 should behave as 1, got %v", flat.Backoff(5))
	}
	if (Policy{}).Backoff(3) != 0 {
		t.Error("zero delay should produce zero backoff")
	}
	huge := Policy{Delay: time.Hour, BackoffMultiplier: 10}
	if huge.Backoff(100) <= 0 {
		t.Error("backoff must saturate, not overflow")
	}
}

func TestPolicy_Remaining(t *testing.T) {
	p := Policy{MaxRetries: 3}
	if p.Remaining(0) != 3 || p.Remaining(2) != 1 || p.Remaining(3) != 0 || p.Remaining(7) != 0 {
		t.Error("unexpected remaining budget")
	}
}

func TestRetry_OnRetryReportsDelays(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxRetries:        2,
		Delay:             time.Millisecond,
		BackoffMultiplier: 3,
		OnRetry: func(_ int, _ error, d time.Duration) {
			delays = append(delays, d)
		},
	}
	_, _ = Retry(context.Background(), p, func(_ context.Context, _ int) (int, error) {
		return 0, errors.New("fail")
	})
	want := []time.Duration{time.Millisecond, 3 * time.Millisecond}
	if !reflect.DeepEqual(delays, want) {
		t.Errorf("expected %v, got %v", want, delays)
	}
}

func TestRetry_StateMachine(t *testing.T) {
	var states []State
	p := Policy{
		MaxRetries:        1,
		Delay:             time.Millisecond,
		BackoffMultiplier: 1,
		OnState:           func(s State) { states = append(states, s) },
	}
	calls := 0
	_, _ = Retry(context.Background(), p, func(_ context.Context, _ int) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("fail")
		}
		return 1, nil
	})
	want := []State{StateIdle, StateAttempting, StateWaiting, StateAttempting, StateSucceeded}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("expected %v, got %v", want, states)
	}

	states = nil
	_, _ = Retry(context.Background(), Policy{OnState: p.OnState}, func(_ context.Context, _ int) (int, error) {
		return 0, errors.New("fail")
	})
	want = []State{StateIdle, StateAttempting, StateFailed}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("expected %v, got %v", want, states)
	}
}

func TestRetry_RespectsContextDuringWait(t *testing.T) {
	p := Policy{MaxRetries: 10, Delay: 100 * time.Millisecond, BackoffMultiplier: 2}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := Retry(ctx, p, func(_ context.Context, _ int) (string, error) {
		calls++
		return "", errors.New("error")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before the deadline, got %d", calls)
	}
}

func TestRetry_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := Retry(ctx, DefaultPolicy(), func(_ context.Context, _ int) (int, error) {
		calls++
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Errorf("expected cancellation without calls, got %v after %d calls", err, calls)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	if DefaultRetryIf(context.Canceled) {
		t.Error("context.Canceled should not be retried")
	}
	if !DefaultRetryIf(errors.New("boom")) {
		t.Error("plain errors should be retried")
	}
}

func TestState_String(t *testing.T) {
	if StateWaiting.String() != "waiting" || State(99).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
