package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/playmate/internal/repository"
)

var _ repository.SettingsRepository = (*DB)(nil)

// Get returns the value for key, or "" if the key is absent.
func (db *DB) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: reading setting %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a key-value pair.
func (db *DB) Set(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing setting %s: %w", key, err)
	}
	return nil
}

// Unset removes a key. Removing an absent key is a no-op.
func (db *DB) Unset(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM settings WHERE key = ?`, key,
	); err != nil {
		return fmt.Errorf("sqlite: deleting setting %s: %w", key, err)
	}
	return nil
}
