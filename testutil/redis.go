package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

// Redis is an in-memory Redis test component backed by miniredis.
type Redis struct {
	mini    *miniredis.Miniredis
	client  *goredis.Client
	started bool
	mu      sync.RWMutex
}

var _ TestComponent = (*Redis)(nil)

// NewRedis creates a new in-memory Redis test component.
func NewRedis() *Redis {
	return &Redis{}
}

// Client returns the go-redis client, or nil if not started.
func (c *Redis) Client() *goredis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Addr returns the listen address, or "" if not started.
func (c *Redis) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini == nil {
		return ""
	}
	return c.mini.Addr()
}

// FastForward advances key expirations.
func (c *Redis) FastForward(d time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mini != nil {
		c.mini.FastForward(d)
	}
}

func (c *Redis) Name() string { return "redis-test" }

// Start launches the in-memory Redis server.
func (c *Redis) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("component already started")
	}
	mini, err := miniredis.Run()
	if err != nil {
		return fmt.Errorf("failed to start miniredis: %w", err)
	}
	c.mini = mini
	c.client = goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	c.started = true
	return nil
}

// Stop shuts down the in-memory Redis server.
func (c *Redis) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	_ = c.client.Close()
	c.mini.Close()
	c.started = false
	return nil
}

// Reset flushes all keys.
func (c *Redis) Reset(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started {
		return fmt.Errorf("component not started")
	}
	c.mini.FlushAll()
	return nil
}
