package store

import (
	"context"
	"sync"

	"github.com/serroba/shorturl/internal/registry"
)

// MemoryStore is an in-memory implementation of registry.Repository.
// Records do not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	byCode map[int64]registry.Record
	byURL  map[string]int64 // original url -> code
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byCode: make(map[int64]registry.Record),
		byURL:  make(map[string]int64),
	}
}

func (m *MemoryStore) Create(_ context.Context, record *registry.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byURL[record.OriginalURL]; ok {
		return registry.ErrDuplicateURL
	}

	if _, ok := m.byCode[record.ShortCode]; ok {
		return registry.ErrDuplicateCode
	}

	m.byCode[record.ShortCode] = *record
	m.byURL[record.OriginalURL] = record.ShortCode

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code int64) (*registry.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byCode[code]
	if !ok {
		return nil, registry.ErrNotFound
	}

	return &record, nil
}

func (m *MemoryStore) GetByURL(_ context.Context, originalURL string) (*registry.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.byURL[originalURL]
	if !ok {
		return nil, registry.ErrNotFound
	}

	record := m.byCode[code]

	return &record, nil
}

// Len reports how many records are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byCode)
}

var _ registry.Repository = (*MemoryStore)(nil)
