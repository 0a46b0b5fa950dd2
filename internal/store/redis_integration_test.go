//go:build integration

package store_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shorturl/internal/registry"
	"github.com/serroba/shorturl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	return client
}

func TestRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	s := store.NewRedisStore(client)

	cleanup := func(code int64, url string) {
		client.Del(ctx, "record:"+itoa(code))
		client.HDel(ctx, "record_urls", url)
	}

	t.Run("create and get", func(t *testing.T) {
		record := &registry.Record{ShortCode: 800001, OriginalURL: "https://example.com/redis", CreatedAt: time.Now().UTC()}
		defer cleanup(record.ShortCode, record.OriginalURL)

		require.NoError(t, s.Create(ctx, record))

		byURL, err := s.GetByURL(ctx, record.OriginalURL)
		require.NoError(t, err)
		assert.Equal(t, record.ShortCode, byURL.ShortCode)
		assert.True(t, record.CreatedAt.Equal(byURL.CreatedAt))
	})

	t.Run("duplicate url releases the claimed code", func(t *testing.T) {
		first := &registry.Record{ShortCode: 800002, OriginalURL: "https://example.com/redis-dup", CreatedAt: time.Now().UTC()}
		defer cleanup(first.ShortCode, first.OriginalURL)

		require.NoError(t, s.Create(ctx, first))

		second := &registry.Record{ShortCode: 800003, OriginalURL: first.OriginalURL, CreatedAt: time.Now().UTC()}
		assert.ErrorIs(t, s.Create(ctx, second), registry.ErrDuplicateURL)

		_, err := s.GetByCode(ctx, second.ShortCode)
		assert.ErrorIs(t, err, registry.ErrNotFound)
	})

	t.Run("duplicate code", func(t *testing.T) {
		first := &registry.Record{ShortCode: 800004, OriginalURL: "https://example.com/redis-code", CreatedAt: time.Now().UTC()}
		defer cleanup(first.ShortCode, first.OriginalURL)

		require.NoError(t, s.Create(ctx, first))

		second := &registry.Record{ShortCode: first.ShortCode, OriginalURL: "https://example.com/redis-code-2", CreatedAt: time.Now().UTC()}
		assert.ErrorIs(t, s.Create(ctx, second), registry.ErrDuplicateCode)
	})

	t.Run("get non-existent returns ErrNotFound", func(t *testing.T) {
		record, err := s.GetByURL(ctx, "https://example.com/never")

		assert.Nil(t, record)
		assert.ErrorIs(t, err, registry.ErrNotFound)
	})
}

func TestRedisCacheRepositoryIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	backing := store.NewMemoryStore()
	cache := store.NewRedisCacheRepository(backing, client, time.Minute)

	record := &registry.Record{ShortCode: 700001, OriginalURL: "https://example.com/cached", CreatedAt: time.Now().UTC()}
	defer client.Del(ctx, "cache:record:"+itoa(record.ShortCode), "cache:url:"+record.OriginalURL)

	require.NoError(t, cache.Create(ctx, record))

	t.Run("read-through populates cache", func(t *testing.T) {
		got, err := cache.GetByCode(ctx, record.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, record.OriginalURL, got.OriginalURL)

		exists, err := client.Exists(ctx, "cache:record:"+itoa(record.ShortCode)).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)
	})

	t.Run("warmed entry answers url lookups", func(t *testing.T) {
		err := cache.HandleRegistered(ctx, &registry.RegisteredEvent{
			ShortCode:   record.ShortCode,
			OriginalURL: record.OriginalURL,
			CreatedAt:   record.CreatedAt,
		})
		require.NoError(t, err)

		got, err := cache.GetByURL(ctx, record.OriginalURL)
		require.NoError(t, err)
		assert.Equal(t, record.ShortCode, got.ShortCode)
	})

	t.Run("miss falls through to ErrNotFound", func(t *testing.T) {
		_, err := cache.GetByCode(ctx, 700999)

		assert.ErrorIs(t, err, registry.ErrNotFound)
	})
}

func itoa(code int64) string {
	return strconv.FormatInt(code, 10)
}
