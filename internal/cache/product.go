package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
)

const productKeyPrefix = "storefront:product:"

// ProductCache is a read-through cache of product detail documents. A nil
// detail with a nil error from Get is a miss.
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.ProductDetail, error)
	Set(ctx context.Context, detail *domain.ProductDetail) error
	Invalidate(ctx context.Context, ids ...string) error
}

// RedisProductCache stores product details as JSON in Redis.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProductCache creates a Redis-backed product cache.
func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl}
}

func productKey(id string) string {
	return productKeyPrefix + id
}

// Get returns the cached detail for id, or nil on a miss.
func (c *RedisProductCache) Get(ctx context.Context, id string) (*domain.ProductDetail, error) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get product: %w", err)
	}

	var detail domain.ProductDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &detail, nil
}

// Set stores detail with the configured TTL.
func (c *RedisProductCache) Set(ctx context.Context, detail *domain.ProductDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	if err := c.client.Set(ctx, productKey(detail.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product: %w", err)
	}
	return nil
}

// Invalidate drops the cached details for ids.
func (c *RedisProductCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del products: %w", err)
	}
	return nil
}

// NoopProductCache is used when Redis is not configured. Every Get misses.
type NoopProductCache struct{}

func (NoopProductCache) Get(context.Context, string) (*domain.ProductDetail, error) {
	return nil, nil
}

func (NoopProductCache) Set(context.Context, *domain.ProductDetail) error { return nil }

func (NoopProductCache) Invalidate(context.Context, ...string) error { return nil }
