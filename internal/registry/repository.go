package registry

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record matches the given code or URL.
	ErrNotFound = errors.New("url record not found")

	// ErrDuplicateURL is returned by Repository.Create when a record for the
	// same original URL already exists.
	ErrDuplicateURL = errors.New("original url already registered")

	// ErrDuplicateCode is returned by Repository.Create when the short code
	// is already taken.
	ErrDuplicateCode = errors.New("short code already taken")

	// ErrExhaustedCodeSpace is returned when no free code was found within
	// the configured number of attempts.
	ErrExhaustedCodeSpace = errors.New("exhausted short code space")
)

// Repository persists records. Implementations must enforce uniqueness of
// both ShortCode and OriginalURL on Create.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByCode(ctx context.Context, code int64) (*Record, error)
	GetByURL(ctx context.Context, originalURL string) (*Record, error)
}
