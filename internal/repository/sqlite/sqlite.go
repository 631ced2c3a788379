// Package sqlite implements the repository interfaces on an embedded
// SQLite database. modernc.org/sqlite is a pure-Go driver, so the binary
// needs no C toolchain and tests can run against ":memory:".
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DB wraps the connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool, flushing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// Roster. steam_id is unique but nullable-by-convention: provisional
	// accounts carry '' until platform verification back-fills the id, and
	// the partial index only enforces uniqueness on verified accounts.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			steam_id       TEXT NOT NULL DEFAULT '',
			username       TEXT NOT NULL UNIQUE,
			email          TEXT NOT NULL,
			password_hash  TEXT NOT NULL DEFAULT '',
			avatar_url     TEXT NOT NULL DEFAULT '',
			email_verified INTEGER NOT NULL DEFAULT 0,
			verify_token   TEXT NOT NULL DEFAULT '',
			preferences    TEXT NOT NULL DEFAULT '{}',
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_steam_id
			ON users(steam_id) WHERE steam_id != '';
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Recent searches. position is a monotonically increasing insertion
	// counter; ordering by it descending yields most-recent-first.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS recent_searches (
			steam_id TEXT PRIMARY KEY,
			position INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating recent_searches table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating settings table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS gaming_sessions (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL REFERENCES users(id),
			game_type       TEXT NOT NULL,
			start_time      DATETIME NOT NULL,
			end_time        DATETIME,
			break_count     INTEGER NOT NULL DEFAULT 0,
			last_break_time DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_user_start
			ON gaming_sessions(user_id, start_time);
	`)
	if err != nil {
		return fmt.Errorf("creating gaming_sessions table: %w", err)
	}

	return nil
}
