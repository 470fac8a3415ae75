// Package repository provides PostgreSQL persistence for the key-value
// contract used by the entitlement engine.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/lib/pq"
)

// PostgresKVRepository implements the flat key-value store against a PostgreSQL table.
type PostgresKVRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresKVRepository creates a new PostgresKVRepository using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance with the kv_store table.
func NewPostgresKVRepository(db *sql.DB) *PostgresKVRepository {
	return &PostgresKVRepository{DB: db}
}

// Get retrieves a single value by key.
// The boolean result is false when the key does not exist.
func (r *PostgresKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("Get failed: %w", err)
	}
	return value, true, nil
}

// MultiGet fetches all requested keys with one query. Absent keys are omitted.
func (r *PostgresKVRepository) MultiGet(ctx context.Context, keys ...string) (map[string]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT key, value FROM kv_store WHERE key = ANY($1)`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("MultiGet: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MultiGet rows: %w", err)
	}
	return out, nil
}

// Set upserts a single key.
func (r *PostgresKVRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO kv_store (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("Set failed: %w", err)
	}
	return nil
}

// MultiSet upserts all pairs within one transaction.
// Keys are written in sorted order so concurrent writers lock rows consistently.
func (r *PostgresKVRepository) MultiSet(ctx context.Context, pairs map[string]string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv_store (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		`, k, pairs[k])
		if err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Clear removes every key.
func (r *PostgresKVRepository) Clear(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM kv_store`); err != nil {
		return fmt.Errorf("Clear failed: %w", err)
	}
	return nil
}
