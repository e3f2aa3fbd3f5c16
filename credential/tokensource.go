package credential

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// TokenSourceStore serves tokens minted by an oauth2.TokenSource, such as a
// client-credentials config. Tokens are cached until they expire.
//
// SetToken pins an explicit token in front of the source. ClearToken drops
// both the pin and the cache, so the next GetToken mints a fresh token.
type TokenSourceStore struct {
	base oauth2.TokenSource

	mu     sync.Mutex
	cached oauth2.TokenSource
	pinned string
}

// NewTokenSourceStore wraps src.
func NewTokenSourceStore(src oauth2.TokenSource) *TokenSourceStore {
	return &TokenSourceStore{base: src, cached: oauth2.ReuseTokenSource(nil, src)}
}

func (s *TokenSourceStore) GetToken(context.Context) (string, error) {
	s.mu.Lock()
	pinned, src := s.pinned, s.cached
	s.mu.Unlock()

	if pinned != "" {
		return pinned, nil
	}
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("token source: %w", err)
	}
	return tok.AccessToken, nil
}

func (s *TokenSourceStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned = token
	return nil
}

func (s *TokenSourceStore) ClearToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned = ""
	s.cached = oauth2.ReuseTokenSource(nil, s.base)
	return nil
}

var _ Store = (*TokenSourceStore)(nil)
