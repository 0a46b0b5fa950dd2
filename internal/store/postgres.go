package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/serroba/shorturl/internal/registry"
)

const (
	constraintOriginalURL = "url_records_original_url_key"

	schema = `
		CREATE TABLE IF NOT EXISTS url_records (
			short_url    BIGINT PRIMARY KEY CHECK (short_url > 0),
			original_url TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT url_records_original_url_key UNIQUE (original_url)
		)
	`
)

// Pool is the subset of *pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore is a PostgreSQL implementation of registry.Repository.
type PostgresStore struct {
	pool Pool
}

// NewPostgresStore creates a new PostgreSQL-backed record store.
func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the records table and its unique indexes if missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create url_records table: %w", err)
	}

	return nil
}

func (p *PostgresStore) Create(ctx context.Context, record *registry.Record) error {
	query := `
		INSERT INTO url_records (short_url, original_url, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := p.pool.Exec(ctx, query, record.ShortCode, record.OriginalURL, record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == constraintOriginalURL {
				return registry.ErrDuplicateURL
			}

			return registry.ErrDuplicateCode
		}

		return fmt.Errorf("insert url record: %w", err)
	}

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code int64) (*registry.Record, error) {
	query := `
		SELECT short_url, original_url, created_at
		FROM url_records
		WHERE short_url = $1
	`

	return p.scanOne(ctx, query, code)
}

func (p *PostgresStore) GetByURL(ctx context.Context, originalURL string) (*registry.Record, error) {
	query := `
		SELECT short_url, original_url, created_at
		FROM url_records
		WHERE original_url = $1
	`

	return p.scanOne(ctx, query, originalURL)
}

func (p *PostgresStore) scanOne(ctx context.Context, query string, arg any) (*registry.Record, error) {
	var record registry.Record

	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&record.ShortCode,
		&record.OriginalURL,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, registry.ErrNotFound
		}

		return nil, fmt.Errorf("select url record: %w", err)
	}

	return &record, nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

var _ registry.Repository = (*PostgresStore)(nil)
