package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCooldown = errors.New("record was alerted recently")

// Cooldown suppresses repeat alerts for the same record within a window.
// Acquire reports false when the key is still cooling down. Release clears a
// key whose alert was never delivered.
type Cooldown interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisCooldown holds one SET NX key per alerted record.
type RedisCooldown struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func NewRedisCooldown(addr, pass string, db int, ttl time.Duration) *RedisCooldown {
	return &RedisCooldown{
		Client: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		TTL:    ttl,
		Prefix: "lankasafe:notify:",
	}
}

func (c *RedisCooldown) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := c.Client.SetNX(ctx, c.Prefix+key, time.Now().UnixMilli(), c.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis cooldown %s: %w", key, err)
	}
	return ok, nil
}

func (c *RedisCooldown) Release(ctx context.Context, key string) error {
	if err := c.Client.Del(ctx, c.Prefix+key).Err(); err != nil {
		return fmt.Errorf("redis cooldown release %s: %w", key, err)
	}
	return nil
}

func (c *RedisCooldown) Close() error { return c.Client.Close() }
