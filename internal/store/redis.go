package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shorturl/internal/registry"
)

// RedisStore is a Redis implementation of registry.Repository.
type RedisStore struct {
	client   *redis.Client
	prefix   string // "record:" for code -> JSON record (string keys)
	urlIndex string // "record_urls" for url -> code (hash map)
}

// NewRedisStore creates a new Redis-backed record store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:   client,
		prefix:   "record:",
		urlIndex: "record_urls",
	}
}

type redisRecord struct {
	ShortCode   int64  `json:"short_url"`
	OriginalURL string `json:"original_url"`
	CreatedAt   int64  `json:"created_at"`
}

// Create claims the code first and the url second. A failed url claim
// releases the code so the loser leaves nothing behind.
func (r *RedisStore) Create(ctx context.Context, record *registry.Record) error {
	payload, err := json.Marshal(redisRecord{
		ShortCode:   record.ShortCode,
		OriginalURL: record.OriginalURL,
		CreatedAt:   record.CreatedAt.UnixNano(),
	})
	if err != nil {
		return err
	}

	key := r.codeKey(record.ShortCode)

	claimed, err := r.client.SetNX(ctx, key, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("claim short code: %w", err)
	}

	if !claimed {
		return registry.ErrDuplicateCode
	}

	indexed, err := r.client.HSetNX(ctx, r.urlIndex, record.OriginalURL, record.ShortCode).Result()
	if err != nil || !indexed {
		if delErr := r.client.Del(ctx, key).Err(); delErr != nil {
			err = errors.Join(err, delErr)
		}

		if err != nil {
			return fmt.Errorf("claim original url: %w", err)
		}

		return registry.ErrDuplicateURL
	}

	return nil
}

func (r *RedisStore) GetByCode(ctx context.Context, code int64) (*registry.Record, error) {
	payload, err := r.client.Get(ctx, r.codeKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, registry.ErrNotFound
		}

		return nil, err
	}

	var stored redisRecord
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("decode record %d: %w", code, err)
	}

	return &registry.Record{
		ShortCode:   stored.ShortCode,
		OriginalURL: stored.OriginalURL,
		CreatedAt:   unixNanoUTC(stored.CreatedAt),
	}, nil
}

func (r *RedisStore) GetByURL(ctx context.Context, originalURL string) (*registry.Record, error) {
	raw, err := r.client.HGet(ctx, r.urlIndex, originalURL).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, registry.ErrNotFound
		}

		return nil, err
	}

	code, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode indexed code %q: %w", raw, err)
	}

	return r.GetByCode(ctx, code)
}

func (r *RedisStore) codeKey(code int64) string {
	return r.prefix + strconv.FormatInt(code, 10)
}

var _ registry.Repository = (*RedisStore)(nil)
