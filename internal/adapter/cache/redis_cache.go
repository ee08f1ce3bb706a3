package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantex/matching-engine/internal/domain"
	"github.com/quantex/matching-engine/internal/port"
	"github.com/redis/go-redis/v9"
)

var _ port.DepthCache = (*RedisCache)(nil)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func key(symbol string, depth int) string {
	return fmt.Sprintf("depth:%s:%d", symbol, depth)
}

func (c *RedisCache) SetDepth(ctx context.Context, symbol string, depth int, snap *domain.DepthSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(symbol, depth), b, c.ttl).Err()
}

func (c *RedisCache) GetDepth(ctx context.Context, symbol string, depth int) (*domain.DepthSnapshot, error) {
	b, err := c.client.Get(ctx, key(symbol, depth)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.DepthSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Invalidate removes every depth key for the symbol. Reset goes through here
// so a cleared book is never served from a stale snapshot.
func (c *RedisCache) Invalidate(ctx context.Context, symbol string) error {
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("depth:%s:*", symbol), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
