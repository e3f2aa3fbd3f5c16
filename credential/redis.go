package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/apiguard/logger"
)

// RedisStore keeps the token under one Redis key so several processes share
// a session.
type RedisStore struct {
	rdb goredis.UniversalClient
	key string
	ttl time.Duration
	now func() time.Time
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Key is the Redis key holding the token.
	Key string
	// TTL is the key expiration. Zero uses the token's exp claim, and no
	// expiration for opaque tokens.
	TTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions, log *logger.Logger) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis credential store: addr is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	log.Info("Redis credential store connected", map[string]interface{}{
		"addr": opts.Addr,
		"db":   opts.DB,
		"key":  opts.Key,
	})
	return NewRedisStoreFromClient(rdb, opts.Key, opts.TTL), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb goredis.UniversalClient, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{rdb: rdb, key: key, ttl: ttl, now: time.Now}
}

// DefaultKey is the Redis key used when none is configured.
const DefaultKey = "apiguard:token"

func (s *RedisStore) GetToken(ctx context.Context) (string, error) {
	token, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis credential get %q: %w", s.key, err)
	}
	return token, nil
}

func (s *RedisStore) SetToken(ctx context.Context, token string) error {
	ttl := ttlFor(token, s.now(), s.ttl)
	if err := s.rdb.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis credential set %q: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) ClearToken(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis credential clear %q: %w", s.key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

var _ Store = (*RedisStore)(nil)
