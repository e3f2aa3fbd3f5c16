package credential

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps the token encrypted in a file readable only by the owner.
type FileStore struct {
	path   string
	cipher *Cipher
	mu     sync.Mutex
}

// NewFileStore returns a store writing to path, encrypted with a key derived
// from passphrase.
func NewFileStore(path, passphrase string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file credential store: path is required")
	}
	c, err := NewCipher(passphrase)
	if err != nil {
		return nil, fmt.Errorf("file credential store: %w", err)
	}
	return &FileStore{path: path, cipher: c}, nil
}

func (s *FileStore) GetToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential file: %w", err)
	}
	encoded := strings.TrimSpace(string(data))
	if encoded == "" {
		return "", nil
	}
	token, err := s.cipher.Open(encoded)
	if err != nil {
		return "", fmt.Errorf("open credential file: %w", err)
	}
	return token, nil
}

// SetToken writes through a temp file and rename so readers never see a
// partial write.
func (s *FileStore) SetToken(_ context.Context, token string) error {
	sealed, err := s.cipher.Seal(token)
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(sealed + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credential file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod credential file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename credential file: %w", err)
	}
	return nil
}

func (s *FileStore) ClearToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
