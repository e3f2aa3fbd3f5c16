package credential

import (
	"context"
	"sync/atomic"
)

// Store reads and writes the bearer token.
type Store interface {
	// GetToken returns the current token, or "" when none is stored.
	GetToken(ctx context.Context) (string, error)
	// SetToken replaces the current token.
	SetToken(ctx context.Context, token string) error
	// ClearToken removes the current token. Clearing an empty store is not
	// an error.
	ClearToken(ctx context.Context) error
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	token atomic.Pointer[string]
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewStaticStore returns a MemoryStore holding token.
func NewStaticStore(token string) *MemoryStore {
	s := &MemoryStore{}
	s.token.Store(&token)
	return s
}

func (s *MemoryStore) GetToken(context.Context) (string, error) {
	if p := s.token.Load(); p != nil {
		return *p, nil
	}
	return "", nil
}

func (s *MemoryStore) SetToken(_ context.Context, token string) error {
	s.token.Store(&token)
	return nil
}

func (s *MemoryStore) ClearToken(context.Context) error {
	s.token.Store(nil)
	return nil
}

var _ Store = (*MemoryStore)(nil)
