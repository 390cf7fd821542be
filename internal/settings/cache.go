package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "harapan:settings:all"
	cacheTTL = 10 * time.Minute
)

// ErrCacheMiss reports that nothing is cached.
var ErrCacheMiss = errors.New("settings: cache miss")

// RedisCache keeps the full settings list in one Redis key.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache builds a cache on client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, ttl: cacheTTL}
}

// Get returns the cached list or ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context) ([]Setting, error) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("settings: cache get: %w", err)
	}
	var out []Setting
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, ErrCacheMiss
	}
	return out, nil
}

// Set stores list.
func (c *RedisCache) Set(ctx context.Context, list []Setting) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, cacheKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("settings: cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached list.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("settings: cache invalidate: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
