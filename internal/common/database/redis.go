// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"delivery-notifier/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the profile user-type cache. It is optional; callers treat
// a nil *RedisClient as "no cache".
type RedisClient struct {
	Client *redis.Client
}

// NewRedis uses short timeouts: a slow cache must not slow a dispatch down more
// than the database lookup it stands in front of.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	return &RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	})}
}

// ConnectRedis returns a pinged client, or an error with the client already closed.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	rc := NewRedis(cfg)
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, err
	}
	return rc, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Cache returns the underlying client, or nil when c is nil.
func (c *RedisClient) Cache() *redis.Client {
	if c == nil {
		return nil
	}
	return c.Client
}

func (c *RedisClient) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
