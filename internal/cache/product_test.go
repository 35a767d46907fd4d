package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisProductCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisProductCache(client, 5*time.Minute), mr
}

func sampleDetail(id string) *domain.ProductDetail {
	return &domain.ProductDetail{
		Product: domain.Product{
			ID:           id,
			Name:         "Cannon EOS 80D",
			Price:        decimal.RequireFromString("929.99"),
			CountInStock: 5,
			Rating:       decimal.RequireFromString("3.50"),
			NumReviews:   2,
		},
		Reviews: []domain.Review{{ID: "r-1", Name: "Ann", Rating: 3}},
		Media:   []domain.ProductMedia{{ID: "m-1", URL: "/m.jpg"}},
	}
}

func TestRedisProductCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	got, err := c.Get(context.Background(), "p-1")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisProductCache_SetGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleDetail("p-1")))
	assert.True(t, mr.Exists("storefront:product:p-1"))
	assert.Equal(t, 5*time.Minute, mr.TTL("storefront:product:p-1"))

	got, err := c.Get(ctx, "p-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Cannon EOS 80D", got.Name)
	assert.True(t, decimal.RequireFromString("929.99").Equal(got.Price))
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, "Ann", got.Reviews[0].Name)
	require.Len(t, got.Media, 1)
}

func TestRedisProductCache_Expires(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleDetail("p-1")))
	mr.FastForward(6 * time.Minute)

	got, err := c.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisProductCache_Invalidate(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleDetail("p-1")))
	require.NoError(t, c.Set(ctx, sampleDetail("p-2")))
	require.NoError(t, c.Set(ctx, sampleDetail("p-3")))

	require.NoError(t, c.Invalidate(ctx, "p-1", "p-2"))
	require.NoError(t, c.Invalidate(ctx))

	assert.False(t, mr.Exists("storefront:product:p-1"))
	assert.False(t, mr.Exists("storefront:product:p-2"))
	assert.True(t, mr.Exists("storefront:product:p-3"))
}

func TestRedisProductCache_CorruptEntry(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("storefront:product:p-1", "{not json"))

	_, err := c.Get(context.Background(), "p-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal product")
}

func TestRedisProductCache_ServerDown(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "p-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get product")
}

func TestNoopProductCache(t *testing.T) {
	var c ProductCache = NoopProductCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleDetail("p-1")))
	got, err := c.Get(ctx, "p-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.Invalidate(ctx, "p-1"))
}
