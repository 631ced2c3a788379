// Package service is the orchestration layer. It coordinates identity
// resolution, Steam Web API fetches, fallback data, and the local store,
// and publishes every result to the shared state surface.
//
// The fetch chain for one profile is strictly sequential: profile, then
// games, then per-title stats. Any soft failure along the chain swaps in
// synthetic data instead of surfacing a dead end; only validation and
// credential errors are returned without fallback.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/model"
	"github.com/sakif/playmate/internal/notify"
	"github.com/sakif/playmate/internal/repository"
	"github.com/sakif/playmate/internal/state"
	"github.com/sakif/playmate/internal/steam"
)

// DefaultSteamID is the well-known public profile used when no identifier
// has ever been searched on this device.
const DefaultSteamID = "76561197960435530"

// FlagshipAppID is the title all per-game statistics target.
const FlagshipAppID = 730

const (
	// AuthTimeout bounds the whole authenticate flow, covering the profile
	// fetch plus roster bookkeeping.
	AuthTimeout = 30 * time.Second

	// maxRecentGames caps the published recent-games list. When Steam
	// reports fewer, the list is backfilled from the owned library.
	maxRecentGames = 5

	matchHistoryMode  = "competitive"
	matchHistoryLimit = 8
)

// Gateway is the slice of the Steam client the service depends on.
type Gateway interface {
	PlayerSummary(ctx context.Context, steamID string) (*model.Profile, error)
	RecentlyPlayed(ctx context.Context, steamID string, count int) ([]model.Game, error)
	OwnedGames(ctx context.Context, steamID string) ([]model.Game, error)
	Achievements(ctx context.Context, appID int, steamID string) ([]steam.Achievement, error)
	GameStats(ctx context.Context, appID int, steamID string) (steam.GameStats, error)
	MatchHistory(ctx context.Context, steamID, mode string, limit int) ([]model.MatchRecord, error)
	ServerStatus(ctx context.Context) model.ServerStatus
}

var _ Gateway = (*steam.Client)(nil)

// Reminders schedules break reminders and delivers playtime warnings.
type Reminders interface {
	ScheduleBreakReminders() error
	ScheduleSessionLimit(start time.Time) error
	NotifyPlaytimeWarning(ctx context.Context, w model.PlaytimeWarning)
	CancelSessionReminders()
}

var _ Reminders = (*notify.Scheduler)(nil)

// PasswordHasher derives and verifies stored credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// Service is the session/authentication orchestrator. One instance is
// constructed at startup and lives for the process lifetime; all state
// writes flow through it.
type Service struct {
	users     repository.UserRepository
	searches  repository.SearchRepository
	settings  repository.SettingsRepository
	sessions  repository.SessionRepository
	gateway   Gateway
	passwords PasswordHasher
	reminders Reminders
	surface   *state.Surface
	logger    *slog.Logger

	// Active playtime warnings, keyed by game name. At most one warning
	// per game; cleared on sign-out.
	warnMu   sync.Mutex
	warnings map[string]model.PlaytimeWarning

	now func() time.Time
}

type Deps struct {
	Users     repository.UserRepository
	Searches  repository.SearchRepository
	Settings  repository.SettingsRepository
	Sessions  repository.SessionRepository
	Gateway   Gateway
	Passwords PasswordHasher
	Reminders Reminders
	Surface   *state.Surface
	Logger    *slog.Logger
}

func New(deps Deps) *Service {
	s := &Service{
		users:     deps.Users,
		searches:  deps.Searches,
		settings:  deps.Settings,
		sessions:  deps.Sessions,
		gateway:   deps.Gateway,
		passwords: deps.Passwords,
		reminders: deps.Reminders,
		surface:   deps.Surface,
		logger:    deps.Logger,
		warnings:  make(map[string]model.PlaytimeWarning),
		now:       time.Now,
	}
	s.restore(context.Background())
	return s
}

// restore seeds the published state from the persistent store. The store
// is read once here at process start; every later change flows through
// the orchestrator's own writes.
func (s *Service) restore(ctx context.Context) {
	ids, err := s.searches.Recent(ctx)
	if err != nil {
		s.logger.Warn("restoring recent searches", "error", err)
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		user = nil
		if !apperror.IsSoft(err) {
			s.logger.Warn("restoring current user", "error", err)
		}
	}

	if len(ids) == 0 && user == nil {
		return
	}
	s.surface.Update(func(snap *state.Snapshot) {
		snap.RecentSearches = ids
		snap.CurrentUser = user
	})
}

// Surface exposes the observable state for subscribers.
func (s *Service) Surface() *state.Surface {
	return s.surface
}

// CurrentUser returns the signed-in account, or apperror.ErrNotFound when
// nobody is signed in.
func (s *Service) CurrentUser(ctx context.Context) (*model.UserAccount, error) {
	id, err := s.settings.Get(ctx, repository.CurrentUserKey)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errNoCurrentUser()
	}
	return s.users.GetByID(ctx, id)
}

// UserByID looks up a roster account by its opaque id.
func (s *Service) UserByID(ctx context.Context, id string) (*model.UserAccount, error) {
	return s.users.GetByID(ctx, id)
}

// RefreshServerStatus probes Steam API health and publishes the result.
func (s *Service) RefreshServerStatus(ctx context.Context) model.ServerStatus {
	status := s.gateway.ServerStatus(ctx)
	s.surface.Update(func(snap *state.Snapshot) {
		snap.ServerStatus = status
	})
	return status
}

func (s *Service) setCurrentUser(ctx context.Context, user *model.UserAccount) error {
	if err := s.settings.Set(ctx, repository.CurrentUserKey, user.ID); err != nil {
		return err
	}
	s.surface.Update(func(snap *state.Snapshot) {
		snap.CurrentUser = user
	})
	return nil
}

func (s *Service) publishError(message string) {
	s.surface.Update(func(snap *state.Snapshot) {
		snap.Err = message
		snap.Loading = false
	})
}

func (s *Service) publishRecentSearches(ctx context.Context) {
	ids, err := s.searches.Recent(ctx)
	if err != nil {
		s.logger.Warn("loading recent searches", "error", err)
		return
	}
	s.surface.Update(func(snap *state.Snapshot) {
		snap.RecentSearches = ids
	})
}
