package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/model"
	"github.com/sakif/playmate/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// Start inserts a new gaming session, generating its id. Any session still
// open for the same user is closed first so at most one stays open.
func (db *DB) Start(ctx context.Context, session *model.GamingSession) error {
	session.ID = xid.New().String()
	if session.StartTime.IsZero() {
		session.StartTime = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`UPDATE gaming_sessions SET end_time = ? WHERE user_id = ? AND end_time IS NULL`,
		session.StartTime, session.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: closing stale sessions for user %s: %w", session.UserID, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO gaming_sessions (id, user_id, game_type, start_time, break_count)
		 VALUES (?, ?, ?, ?, 0)`,
		session.ID,
		session.UserID,
		session.GameType,
		session.StartTime,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session for user %s: %w", session.UserID, err)
	}

	return nil
}

// End closes a session. Ending an already-ended session is a no-op.
func (db *DB) End(ctx context.Context, id string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE gaming_sessions SET end_time = ? WHERE id = ? AND end_time IS NULL`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: ending session %s: %w", id, err)
	}
	return nil
}

// RecordBreak increments the break counter and stamps the break time for
// an open session.
func (db *DB) RecordBreak(ctx context.Context, id string, at time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE gaming_sessions
		 SET break_count = break_count + 1, last_break_time = ?
		 WHERE id = ? AND end_time IS NULL`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording break for session %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking break for session %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("session", id)
	}

	return nil
}

// Open returns the user's currently open session, or apperror.ErrNotFound
// if none is open.
func (db *DB) Open(ctx context.Context, userID string) (*model.GamingSession, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, game_type, start_time, end_time, break_count, last_break_time
		 FROM gaming_sessions WHERE user_id = ? AND end_time IS NULL`,
		userID,
	)

	s, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", userID)
		}
		return nil, err
	}
	return s, nil
}

// OnDay returns all of the user's sessions that started on the given
// calendar day, oldest first.
func (db *DB) OnDay(ctx context.Context, userID string, day time.Time) ([]model.GamingSession, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, game_type, start_time, end_time, break_count, last_break_time
		 FROM gaming_sessions
		 WHERE user_id = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time ASC`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sessions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var sessions []model.GamingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating sessions: %w", err)
	}

	return sessions, nil
}

func scanSession(row rowScanner) (*model.GamingSession, error) {
	var s model.GamingSession
	var endTime, lastBreak sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.GameType,
		&s.StartTime,
		&endTime,
		&s.BreakCount,
		&lastBreak,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scanning session: %w", err)
	}

	if endTime.Valid {
		t := endTime.Time
		s.EndTime = &t
	}
	if lastBreak.Valid {
		t := lastBreak.Time
		s.LastBreakTime = &t
	}

	return &s, nil
}
