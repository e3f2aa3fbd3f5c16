package resilience

import (
	"context"
	"errors"
	"math"
	"time"
)

// State is a step of the retry state machine:
//
//	Idle -> Attempting -> Succeeded
//	                   -> Waiting -> Attempting
//	                   -> Failed
type State int

const (
	StateIdle State = iota
	StateAttempting
	StateWaiting
	StateSucceeded
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateWaiting:
		return "waiting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Policy configures retry behavior.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Delay is the wait before the first retry.
	Delay time.Duration
	// BackoffMultiplier scales the delay for every further retry.
	BackoffMultiplier float64
	// RetryIf determines if an error should be retried. Defaults to DefaultRetryIf.
	RetryIf func(error) bool
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
	// OnState is called on every state transition.
	OnState func(State)
}

// DefaultPolicy returns 3 retries starting at 1s, doubling each time.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        3,
		Delay:             time.Second,
		BackoffMultiplier: 2.0,
		RetryIf:           DefaultRetryIf,
	}
}

// NoRetry is a policy that never retries.
func NoRetry() Policy {
	return Policy{MaxRetries: 0}
}

// DefaultRetryIf retries all errors except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Backoff returns the wait before retrying after the given zero-based
// attempt: Delay * BackoffMultiplier^attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	mult := p.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}
	d := float64(p.Delay) * math.Pow(mult, float64(attempt))
	if d <= 0 {
		return 0
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Remaining returns the retry budget left after the given attempt.
func (p Policy) Remaining(attempt int) int {
	if n := p.MaxRetries - attempt; n > 0 {
		return n
	}
	return 0
}

// Retry executes fn, re-issuing it while the failure is retryable and the
// budget allows. attempt starts at 0. The error of the last attempt is
// returned unchanged.
func Retry[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if p.RetryIf == nil {
		p.RetryIf = DefaultRetryIf
	}
	transition := func(s State) {
		if p.OnState != nil {
			p.OnState(s)
		}
	}
	transition(StateIdle)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			transition(StateFailed)
			return zero, err
		}

		transition(StateAttempting)
		result, err := fn(ctx, attempt)
		if err == nil {
			transition(StateSucceeded)
			return result, nil
		}

		if !p.RetryIf(err) || attempt >= p.MaxRetries {
			transition(StateFailed)
			return zero, err
		}

		delay := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		transition(StateWaiting)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				transition(StateFailed)
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	_, err := Retry(ctx, p, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, fn(ctx, attempt)
	})
	return err
}
