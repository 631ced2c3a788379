// Package model defines the data structures used throughout the application.
package model

import "time"

// UserAccount is a locally registered account — the "roster" is the list of
// every account that has ever signed in on this device.
//
// SteamID stays empty on a provisional account created during sign-up and is
// back-filled once the claimed Steam identity has been verified against the
// Web API. Once set, a SteamID identifies at most one roster entry.
//
// Accounts are never hard-deleted by sign-out; sign-out only clears the
// current-user pointer.
type UserAccount struct {
	ID            string      `json:"id"            db:"id"`
	SteamID       string      `json:"steamId"       db:"steam_id"` // canonical 64-bit id, empty until verified
	Username      string      `json:"username"      db:"username"`
	Email         string      `json:"email"         db:"email"`
	PasswordHash  string      `json:"-"             db:"password_hash"` // bcrypt, never serialized
	AvatarURL     string      `json:"avatarUrl"     db:"avatar_url"`
	EmailVerified bool        `json:"emailVerified" db:"email_verified"`
	VerifyToken   string      `json:"-"             db:"verify_token"`
	Preferences   Preferences `json:"preferences"   db:"preferences"`
	CreatedAt     time.Time   `json:"createdAt"     db:"created_at"`
	LastLogin     time.Time   `json:"lastLogin"     db:"last_login"`
}

// Preferences is the per-account settings bundle, stored as a JSON blob.
type Preferences struct {
	Notifications bool   `json:"notifications"`
	BreakReminder bool   `json:"breakReminder"`
	FavoriteGame  string `json:"favoriteGame,omitempty"`
}

// DefaultPreferences are applied to every newly created account.
func DefaultPreferences() Preferences {
	return Preferences{Notifications: true, BreakReminder: true}
}
