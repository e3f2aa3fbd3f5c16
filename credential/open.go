package credential

import (
	"context"
	"fmt"

	"github.com/kbukum/apiguard/config"
	"github.com/kbukum/apiguard/logger"
)

// Open builds the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.CredentialConfig, log *logger.Logger) (Store, error) {
	switch cfg.Backend {
	case "", config.CredentialMemory:
		return NewMemoryStore(), nil
	case config.CredentialRedis:
		s, err := NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.Key,
			TTL:      cfg.TTL,
		}, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.CredentialFile:
		s, err := NewFileStore(cfg.FilePath, cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q", cfg.Backend)
	}
}
