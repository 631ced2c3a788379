// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"
	"time"

	"github.com/sakif/playmate/internal/model"
)

// UserRepository stores the roster — every account ever signed in on this
// device. Lookups by steam id, username, and email are all equality
// matches; steam id and username are unique.
type UserRepository interface {
	Create(ctx context.Context, user *model.UserAccount) error
	GetByID(ctx context.Context, id string) (*model.UserAccount, error)
	GetBySteamID(ctx context.Context, steamID string) (*model.UserAccount, error)
	GetByUsername(ctx context.Context, username string) (*model.UserAccount, error)
	GetByEmail(ctx context.Context, email string) (*model.UserAccount, error)
	List(ctx context.Context) ([]model.UserAccount, error)
	Update(ctx context.Context, user *model.UserAccount) error
	Delete(ctx context.Context, id string) error
}

// SearchRepository persists the recent-search identifier list (most recent
// first, deduplicated, capped at MaxRecentSearches) and the last-searched
// identifier.
type SearchRepository interface {
	Recent(ctx context.Context) ([]string, error)
	Add(ctx context.Context, steamID string) error
	Clear(ctx context.Context) error
	LastSearched(ctx context.Context) (string, error)
	SetLastSearched(ctx context.Context, steamID string) error
}

// MaxRecentSearches caps the recent-search list; inserting an existing
// entry moves it to the front instead of duplicating it.
const MaxRecentSearches = 5

// SettingsRepository is a flat key-value store for small pieces of state,
// such as the current-user pointer. Get returns ("", nil) for a missing key.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Unset(ctx context.Context, key string) error
}

// CurrentUserKey is the settings key holding the signed-in account's id.
const CurrentUserKey = "current_user_id"

// SessionRepository stores gaming sessions. A user has at most one open
// session at a time.
type SessionRepository interface {
	Start(ctx context.Context, session *model.GamingSession) error
	End(ctx context.Context, id string, at time.Time) error
	RecordBreak(ctx context.Context, id string, at time.Time) error
	Open(ctx context.Context, userID string) (*model.GamingSession, error)
	OnDay(ctx context.Context, userID string, day time.Time) ([]model.GamingSession, error)
}
