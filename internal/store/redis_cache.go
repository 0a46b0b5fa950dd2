package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shorturl/internal/registry"
)

// RedisCacheRepository wraps a Repository with Redis caching for reads.
type RedisCacheRepository struct {
	store     registry.Repository
	client    *redis.Client
	prefix    string
	urlPrefix string
	ttl       time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store registry.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:     store,
		client:    client,
		prefix:    "cache:record:",
		urlPrefix: "cache:url:",
		ttl:       ttl,
	}
}

// Create stores the record in the underlying store. The cache is filled by
// Warm or on the first read.
func (r *RedisCacheRepository) Create(ctx context.Context, record *registry.Record) error {
	return r.store.Create(ctx, record)
}

// GetByCode retrieves a record by its code, checking cache first.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code int64) (*registry.Record, error) {
	if record, err := r.getFromCache(ctx, code); err == nil {
		return record, nil
	}

	record, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.Warm(ctx, record)

	return record, nil
}

// GetByURL retrieves a record by its original URL, checking cache first.
func (r *RedisCacheRepository) GetByURL(ctx context.Context, originalURL string) (*registry.Record, error) {
	raw, err := r.client.Get(ctx, r.urlPrefix+originalURL).Result()
	if err == nil {
		if code, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if record, err := r.getFromCache(ctx, code); err == nil {
				return record, nil
			}
		}
	}

	record, err := r.store.GetByURL(ctx, originalURL)
	if err != nil {
		return nil, err
	}

	r.Warm(ctx, record)

	return record, nil
}

// Warm writes a record into the cache. Failures are ignored; the next read
// falls through to the store.
func (r *RedisCacheRepository) Warm(ctx context.Context, record *registry.Record) {
	pipe := r.client.Pipeline()
	code := strconv.FormatInt(record.ShortCode, 10)
	key := r.prefix + code
	urlKey := r.urlPrefix + record.OriginalURL

	pipe.HSet(ctx, key, map[string]interface{}{
		"short_url":    code,
		"original_url": record.OriginalURL,
		"created_at":   record.CreatedAt.UnixNano(),
	})
	pipe.Set(ctx, urlKey, code, r.ttl)

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// HandleRegistered warms the cache from a registration event.
func (r *RedisCacheRepository) HandleRegistered(ctx context.Context, event *registry.RegisteredEvent) error {
	r.Warm(ctx, event.Record())

	return nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code int64) (*registry.Record, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+strconv.FormatInt(code, 10)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, registry.ErrNotFound
	}

	var createdAt time.Time

	if ts, ok := result["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = unixNanoUTC(nanos)
		}
	}

	return &registry.Record{
		ShortCode:   code,
		OriginalURL: result["original_url"],
		CreatedAt:   createdAt,
	}, nil
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

func unixNanoUTC(nanos int64) time.Time {
	if nanos == 0 {
		return time.Time{}
	}

	return time.Unix(0, nanos).UTC()
}

// Compile-time check.
var _ registry.Repository = (*RedisCacheRepository)(nil)
