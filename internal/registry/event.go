package registry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TopicRegistered carries a RegisteredEvent for every newly minted record.
const TopicRegistered = "url.registered"

// RegisteredEvent is emitted after a new record has been persisted.
type RegisteredEvent struct {
	ShortCode   int64     `json:"shortUrl"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Record rebuilds the record the event was emitted for.
func (e *RegisteredEvent) Record() *Record {
	return &Record{
		ShortCode:   e.ShortCode,
		OriginalURL: e.OriginalURL,
		CreatedAt:   e.CreatedAt,
	}
}

// AuditLog returns an event handler that writes one log line per registration.
func AuditLog(logger *zap.Logger) func(ctx context.Context, event *RegisteredEvent) error {
	return func(_ context.Context, event *RegisteredEvent) error {
		logger.Info("url registered",
			zap.Int64("short_url", event.ShortCode),
			zap.String("original_url", event.OriginalURL),
			zap.Time("created_at", event.CreatedAt),
		)

		return nil
	}
}
