package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis_v9 "github.com/redis/go-redis/v9"
)

// RedisStatsCache holds JSON snapshots of statistics rows for display
// reads. Entries expire on their own; writers also drop the key after an
// aggregate update so the next read refreshes.
type RedisStatsCache struct {
	client *redis_v9.Client
}

func NewRedisStatsCache(client *redis_v9.Client) *RedisStatsCache {
	return &RedisStatsCache{client: client}
}

func (c *RedisStatsCache) SaveStruct(ctx context.Context, key string, model any, ttl time.Duration) error {
	val, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("error saving struct to cache: %w", err)
	}
	if err := c.client.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("error saving struct to cache: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) GetStruct(ctx context.Context, key string, model any) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis_v9.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error get struct in cache: %w", err)
	}
	return json.Unmarshal(raw, model)
}

func (c *RedisStatsCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
