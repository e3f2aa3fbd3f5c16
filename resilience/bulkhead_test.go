package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	var rejected int32
	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 1,
		OnReject:      func(string) { atomic.AddInt32(&rejected, 1) },
	})

	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected first acquire to succeed, got %v", err)
	}

	_, err = b.Acquire(context.Background())
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	if atomic.LoadInt32(&rejected) != 1 {
		t.Errorf("expected 1 reject callback, got %d", rejected)
	}

	release()
	if b.InUse() != 0 || b.Available() != 1 {
		t.Errorf("expected slot released, in use %d", b.InUse())
	}
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 1,
		MaxWait:       time.Second,
	})

	release, _ := b.Acquire(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	start := time.Now()
	err := b.Execute(context.Background(), func() error { return nil })
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("expected some wait time, got %v", elapsed)
	}
}

func TestBulkhead_TimesOutWaiting(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 1,
		MaxWait:       10 * time.Millisecond,
	})

	release, _ := b.Acquire(context.Background())
	defer release()

	err := b.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}
}

func TestBulkhead_RespectsContext(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 1,
		MaxWait:       time.Second,
	})

	release, _ := b.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := b.Execute(ctx, func() error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestBulkhead_DefaultsMaxConcurrent(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{})
	if b.Available() != 10 {
		t.Errorf("expected 10 slots, got %d", b.Available())
	}
}
