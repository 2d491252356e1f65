package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore is a PostgreSQL implementation of Store over the sessions table.
// It uses database/sql with parameterized queries.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore creates a store over an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

var (
	_ Store  = (*PostgresStore)(nil)
	_ Pinger = (*PostgresStore)(nil)
)

// Get fetches the value for key.
func (p *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM sessions WHERE key = $1`
	var v string
	if err := p.db.QueryRowContext(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("select session: %w", err)
	}
	return v, nil
}

// Set upserts the value for key.
func (p *PostgresStore) Set(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO sessions (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := p.db.ExecContext(ctx, q, key, value, p.now().UTC()); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Remove deletes the row for key. It does not return an error if the row does not exist.
func (p *PostgresStore) Remove(ctx context.Context, key string) error {
	const q = `DELETE FROM sessions WHERE key = $1`
	if _, err := p.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
