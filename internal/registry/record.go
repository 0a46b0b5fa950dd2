package registry

import "time"

// Record maps a normalized URL to its short code. Records are never mutated
// once created.
type Record struct {
	ShortCode   int64
	OriginalURL string
	CreatedAt   time.Time
}
