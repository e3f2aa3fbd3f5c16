package resilience

import (
	"errors"
	"sync"
	"time"
)

// Common rate limiter errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Clock supplies the current time. Tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// WindowConfig configures a window limiter.
type WindowConfig struct {
	// Name identifies this limiter for metrics/logging.
	Name string
	// Window is the length of one counting window.
	Window time.Duration
	// MaxRequests is the number of sends admitted per window.
	MaxRequests int
	// Clock overrides the time source. Defaults to SystemClock.
	Clock Clock
	// OnLimit is called when admission is denied.
	OnLimit func(name string)
}

// DefaultWindowConfig returns 100 requests per minute.
func DefaultWindowConfig(name string) WindowConfig {
	return WindowConfig{
		Name:        name,
		Window:      time.Minute,
		MaxRequests: 100,
	}
}

// WindowLimiter counts sends in a fixed window that only rolls over when
// admission is checked. There is no background timer: after a long idle
// period the next check starts a fresh window.
type WindowLimiter struct {
	config WindowConfig

	mu          sync.Mutex
	count       int
	windowStart time.Time
}

// NewWindowLimiter creates a new window limiter.
func NewWindowLimiter(config WindowConfig) *WindowLimiter {
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 100
	}
	if config.Clock == nil {
		config.Clock = SystemClock
	}
	return &WindowLimiter{
		config:      config,
		windowStart: config.Clock.Now(),
	}
}

// Admit reports whether one more send fits in the current window, rotating
// the window first if it has expired. It does not count the send.
func (rl *WindowLimiter) Admit() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	ok := rl.admitLocked()
	if !ok {
		rl.onLimit()
	}
	return ok
}

// Record counts one send against the current window.
func (rl *WindowLimiter) Record() {
	rl.mu.Lock()
	rl.count++
	rl.mu.Unlock()
}

// Acquire admits and records one send atomically. Concurrent callers cannot
// both pass admission for the last slot of a window.
func (rl *WindowLimiter) Acquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.admitLocked() {
		rl.onLimit()
		return false
	}
	rl.count++
	return true
}

// Execute runs fn if a send is admitted, otherwise returns ErrRateLimited.
func (rl *WindowLimiter) Execute(fn func() error) error {
	if !rl.Acquire() {
		return ErrRateLimited
	}
	return fn()
}

func (rl *WindowLimiter) admitLocked() bool {
	now := rl.config.Clock.Now()
	if now.Sub(rl.windowStart) > rl.config.Window {
		rl.count = 0
		rl.windowStart = now
	}
	return rl.count < rl.config.MaxRequests
}

func (rl *WindowLimiter) onLimit() {
	if rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}
}

// Count returns the sends recorded in the current window.
func (rl *WindowLimiter) Count() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.count
}

// Remaining returns how many sends the current window still admits. The
// window is not rotated by this call.
func (rl *WindowLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if n := rl.config.MaxRequests - rl.count; n > 0 {
		return n
	}
	return 0
}

// ResetAt returns the earliest time the current window can rotate.
func (rl *WindowLimiter) ResetAt() time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.windowStart.Add(rl.config.Window)
}

// Window returns the window length.
func (rl *WindowLimiter) Window() time.Duration {
	return rl.config.Window
}

// MaxRequests returns the per-window limit.
func (rl *WindowLimiter) MaxRequests() int {
	return rl.config.MaxRequests
}
