package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/serroba/shorturl/internal/messaging"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the number of candidate codes tried per creation.
const DefaultMaxAttempts = 10

// Registry owns the mapping between normalized URLs and short codes.
type Registry struct {
	store        Repository
	generateCode CodeGenerator
	maxAttempts  int
	publish      messaging.Publish[RegisteredEvent]
	logger       *zap.Logger
	now          func() time.Time
}

// NewRegistry creates a registry backed by store. A maxAttempts below one
// falls back to DefaultMaxAttempts.
func NewRegistry(
	store Repository,
	generator CodeGenerator,
	maxAttempts int,
	publish messaging.Publish[RegisteredEvent],
	logger *zap.Logger,
) *Registry {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Registry{
		store:        store,
		generateCode: generator,
		maxAttempts:  maxAttempts,
		publish:      publish,
		logger:       logger,
		now:          time.Now,
	}
}

// LookupOrCreate returns the record registered for normalizedURL, minting a
// new code when the URL has not been seen before.
func (r *Registry) LookupOrCreate(ctx context.Context, normalizedURL string) (*Record, error) {
	existing, err := r.store.GetByURL(ctx, normalizedURL)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup by url: %w", err)
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		code := r.generateCode()

		taken, err := r.codeTaken(ctx, code)
		if err != nil {
			return nil, err
		}

		if taken {
			r.logger.Debug("short code collision",
				zap.Int64("code", code),
				zap.Int("attempt", attempt),
			)

			continue
		}

		record := &Record{
			ShortCode:   code,
			OriginalURL: normalizedURL,
			CreatedAt:   r.now().UTC(),
		}

		err = r.store.Create(ctx, record)

		switch {
		case err == nil:
			r.announce(record)

			return record, nil
		case errors.Is(err, ErrDuplicateCode):
			continue
		case errors.Is(err, ErrDuplicateURL):
			// Lost a concurrent creation for the same URL; the winner's record is authoritative.
			winner, err := r.store.GetByURL(ctx, normalizedURL)
			if err != nil {
				return nil, fmt.Errorf("lookup after url conflict: %w", err)
			}

			return winner, nil
		default:
			return nil, fmt.Errorf("create record: %w", err)
		}
	}

	r.logger.Warn("no free short code found",
		zap.String("url", normalizedURL),
		zap.Int("attempts", r.maxAttempts),
	)

	return nil, ErrExhaustedCodeSpace
}

// Resolve looks up the record for a code taken verbatim from a request path.
// Input that is not a positive integer is reported as ErrNotFound.
func (r *Registry) Resolve(ctx context.Context, rawCode string) (*Record, error) {
	code, err := ParseCode(rawCode)
	if err != nil {
		return nil, err
	}

	return r.store.GetByCode(ctx, code)
}

// ParseCode converts a path segment into a short code.
func ParseCode(raw string) (int64, error) {
	code, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || code <= 0 {
		return 0, ErrNotFound
	}

	return code, nil
}

func (r *Registry) codeTaken(ctx context.Context, code int64) (bool, error) {
	_, err := r.store.GetByCode(ctx, code)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return false, fmt.Errorf("lookup by code: %w", err)
}

func (r *Registry) announce(record *Record) {
	if r.publish == nil {
		return
	}

	event := &RegisteredEvent{
		ShortCode:   record.ShortCode,
		OriginalURL: record.OriginalURL,
		CreatedAt:   record.CreatedAt,
	}

	if err := r.publish(event); err != nil {
		r.logger.Error("failed to publish registration event",
			zap.Int64("code", record.ShortCode),
			zap.Error(err),
		)
	}
}
