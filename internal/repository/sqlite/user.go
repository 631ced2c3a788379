package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/model"
	"github.com/sakif/playmate/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, steam_id, username, email, password_hash, avatar_url,
	email_verified, verify_token, preferences, created_at, last_login`

// Create inserts a new roster entry, generating the id and timestamps.
// A username collision surfaces as apperror.ErrConflict.
func (db *DB) Create(ctx context.Context, user *model.UserAccount) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.LastLogin = now

	prefs, err := json.Marshal(user.Preferences)
	if err != nil {
		return fmt.Errorf("sqlite: encoding preferences: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, steam_id, username, email, password_hash, avatar_url,
			email_verified, verify_token, preferences, created_at, last_login)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.SteamID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.AvatarURL,
		user.EmailVerified,
		user.VerifyToken,
		string(prefs),
		user.CreatedAt,
		user.LastLogin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a roster entry by internal id.
func (db *DB) GetByID(ctx context.Context, id string) (*model.UserAccount, error) {
	return db.getUserWhere(ctx, "id = ?", id)
}

// GetBySteamID retrieves the roster entry whose verified platform id
// matches. Provisional accounts (empty steam_id) never match.
func (db *DB) GetBySteamID(ctx context.Context, steamID string) (*model.UserAccount, error) {
	if steamID == "" {
		return nil, apperror.NotFound("user", steamID)
	}
	return db.getUserWhere(ctx, "steam_id = ?", steamID)
}

// GetByUsername retrieves a roster entry by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.UserAccount, error) {
	return db.getUserWhere(ctx, "username = ?", username)
}

// GetByEmail retrieves a roster entry by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.UserAccount, error) {
	return db.getUserWhere(ctx, "email = ?", email)
}

// List returns the whole roster, oldest account first.
func (db *DB) List(ctx context.Context) ([]model.UserAccount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	var users []model.UserAccount
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Update persists all mutable fields of an existing roster entry.
func (db *DB) Update(ctx context.Context, user *model.UserAccount) error {
	prefs, err := json.Marshal(user.Preferences)
	if err != nil {
		return fmt.Errorf("sqlite: encoding preferences: %w", err)
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET steam_id = ?, username = ?, email = ?, password_hash = ?,
			avatar_url = ?, email_verified = ?, verify_token = ?, preferences = ?,
			last_login = ?
		 WHERE id = ?`,
		user.SteamID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.AvatarURL,
		user.EmailVerified,
		user.VerifyToken,
		string(prefs),
		user.LastLogin,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes a roster entry. Used only by sign-up rollback when
// platform verification fails for a provisional account.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking delete of user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) getUserWhere(ctx context.Context, where string, arg any) (*model.UserAccount, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprintf("%v", arg))
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row rowScanner) (*model.UserAccount, error) {
	var u model.UserAccount
	var prefs string

	err := row.Scan(
		&u.ID,
		&u.SteamID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.AvatarURL,
		&u.EmailVerified,
		&u.VerifyToken,
		&prefs,
		&u.CreatedAt,
		&u.LastLogin,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scanning user: %w", err)
	}

	if err := json.Unmarshal([]byte(prefs), &u.Preferences); err != nil {
		return nil, fmt.Errorf("sqlite: decoding preferences for user %s: %w", u.ID, err)
	}

	return &u, nil
}

// isUniqueViolation sniffs the driver error text for a UNIQUE constraint
// failure. modernc.org/sqlite does not export a typed error for this.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
