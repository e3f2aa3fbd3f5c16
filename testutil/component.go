package testutil

import "context"

// TestComponent is a test dependency with a start/stop lifecycle and a way
// to return to its initial state between cases.
type TestComponent interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Reset restores the component to its initial state.
	Reset(ctx context.Context) error
}
