package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/repository"
)

var _ repository.SearchRepository = (*DB)(nil)

const lastSearchedKey = "last_searched_id"

// Recent returns the recent-search list, most recent first.
func (db *DB) Recent(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT steam_id FROM recent_searches ORDER BY position DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recent searches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recent search: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recent searches: %w", err)
	}

	return ids, nil
}

// Add records steamID as the most recent search. An existing entry moves to
// the front; the list is then trimmed to MaxRecentSearches.
func (db *DB) Add(ctx context.Context, steamID string) error {
	if steamID == "" {
		return apperror.ValidationFailed("steamId", "steam id is required")
	}

	// The position counter only grows, so upserting with max+1 moves an
	// existing row to the front.
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO recent_searches (steam_id, position)
		 VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM recent_searches))
		 ON CONFLICT(steam_id) DO UPDATE SET position = excluded.position`,
		steamID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding recent search %s: %w", steamID, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`DELETE FROM recent_searches WHERE steam_id NOT IN (
			SELECT steam_id FROM recent_searches ORDER BY position DESC LIMIT ?
		)`,
		repository.MaxRecentSearches,
	)
	if err != nil {
		return fmt.Errorf("sqlite: trimming recent searches: %w", err)
	}

	return nil
}

// Clear empties the recent-search list. The last-searched identifier is
// kept — it feeds the next Authenticate, not the search history UI.
func (db *DB) Clear(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM recent_searches`); err != nil {
		return fmt.Errorf("sqlite: clearing recent searches: %w", err)
	}
	return nil
}

// LastSearched returns the last-searched identifier, or "" if none was
// ever recorded.
func (db *DB) LastSearched(ctx context.Context) (string, error) {
	var id string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, lastSearchedKey,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: reading last searched id: %w", err)
	}
	return id, nil
}

// SetLastSearched persists the last-searched identifier.
func (db *DB) SetLastSearched(ctx context.Context, steamID string) error {
	return db.Set(ctx, lastSearchedKey, steamID)
}
