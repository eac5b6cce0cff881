package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"italiancorner/mydata_core/internal/core/kv"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store implements kv.Store on the kv_store table.
type Store struct {
	db DB
}

// NewStore creates a PostgreSQL backed key-value store.
func NewStore(db DB) kv.Store {
	return &Store{db: db}
}

// Get returns the JSON value and version of key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, int64, error) {
	query := `SELECT value, version FROM kv_store WHERE key = $1`

	var (
		value   []byte
		version int64
	)
	err := s.db.QueryRow(ctx, query, key).Scan(&value, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("select %s: %w", key, err)
	}
	return value, version, nil
}

// CompareAndSwap inserts the key when expectedVersion is 0, otherwise updates
// it only if the stored version still matches.
func (s *Store) CompareAndSwap(ctx context.Context, key string, expectedVersion int64, value []byte) (bool, error) {
	if expectedVersion == 0 {
		query := `
			INSERT INTO kv_store (key, value, version)
			VALUES ($1, $2, 1)
			ON CONFLICT (key) DO NOTHING
		`
		tag, err := s.db.Exec(ctx, query, key, value)
		if err != nil {
			return false, fmt.Errorf("insert %s: %w", key, err)
		}
		return tag.RowsAffected() == 1, nil
	}

	query := `
		UPDATE kv_store
		SET value = $2, version = version + 1, updated_at = NOW()
		WHERE key = $1 AND version = $3
	`
	tag, err := s.db.Exec(ctx, query, key, value, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}
