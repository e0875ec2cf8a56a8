// Package cache holds the Redis-backed helpers shared by the service layer:
// per-team ingestion locks and the cached stat sheets. Each helper has an
// in-process fallback used when Redis is disabled.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every key this service writes.
const keyPrefix = "scorebook:"

// RedisCache wraps the shared Redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache parses url, connects and pings once.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

// Client returns the underlying Redis client.
func (rc *RedisCache) Client() *redis.Client { return rc.client }

// Ping satisfies the readiness probe interface.
func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisCache) Close() error { return rc.client.Close() }
