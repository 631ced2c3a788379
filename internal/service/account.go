package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/model"
	"github.com/sakif/playmate/internal/repository"
	"github.com/sakif/playmate/internal/state"
	"github.com/sakif/playmate/internal/steamid"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

const minPasswordLength = 8

// SignUp registers a new local account and verifies the claimed Steam
// identity. The account is created provisionally with an empty steam id;
// only after the profile fetch succeeds is the id back-filled and the
// account set current. Verification failure rolls the provisional account
// back out of the roster.
func (s *Service) SignUp(ctx context.Context, username, email, identifier, password string) (*model.UserAccount, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperror.ValidationFailed("email", "invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	// Duplicate checks happen before any roster mutation so a rejected
	// sign-up leaves the roster untouched.
	if err := s.checkAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.UserAccount{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		VerifyToken:  xid.New().String(),
		Preferences:  model.DefaultPreferences(),
		LastLogin:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	profile, err := s.verifyIdentity(ctx, identifier)
	if err != nil {
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("rolling back provisional account",
				"user_id", user.ID, "error", delErr)
		}
		return nil, err
	}

	if existing, lookupErr := s.users.GetBySteamID(ctx, profile.SteamID); lookupErr == nil && existing.ID != user.ID {
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("rolling back provisional account",
				"user_id", user.ID, "error", delErr)
		}
		return nil, &apperror.AppError{
			Err:     apperror.ErrConflict,
			Message: "this Steam account is already registered",
		}
	}

	user.SteamID = profile.SteamID
	user.AvatarURL = profile.AvatarFull
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.setCurrentUser(ctx, user); err != nil {
		return nil, err
	}

	s.surface.Update(func(snap *state.Snapshot) {
		snap.Profile = profile
		snap.Err = ""
	})
	s.fetchGames(ctx, profile.SteamID)

	return user, nil
}

func (s *Service) checkAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return apperror.ValidationFailed("username", "username is already taken")
	} else if !apperror.IsSoft(err) {
		return err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperror.ValidationFailed("email", "email is already registered")
	} else if !apperror.IsSoft(err) {
		return err
	}

	return nil
}

// verifyIdentity resolves the identifier and fetches its live profile. No
// fallback here: an unverifiable identity must fail the sign-up.
func (s *Service) verifyIdentity(ctx context.Context, identifier string) (*model.Profile, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperror.ValidationFailed("steamId", "a Steam ID is required")
	}

	id := steamid.Normalize(identifier)
	if !steamid.IsValid(id) {
		return nil, apperror.ValidationFailed("steamId", "not a numeric Steam ID")
	}

	return s.gateway.PlayerSummary(ctx, id)
}

// Login checks username and password against the roster and sets the
// account current. The error is the same for an unknown username and a
// wrong password.
func (s *Service) Login(ctx context.Context, username, password string) (*model.UserAccount, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperror.IsSoft(err) {
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, err
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	user.LastLogin = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.setCurrentUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignOut clears the current-user pointer and all published state derived
// from it. The roster and recent searches are untouched; signing back in
// finds the account again.
func (s *Service) SignOut(ctx context.Context) error {
	if err := s.settings.Unset(ctx, repository.CurrentUserKey); err != nil {
		return err
	}

	s.warnMu.Lock()
	s.warnings = make(map[string]model.PlaytimeWarning)
	s.warnMu.Unlock()

	if s.reminders != nil {
		s.reminders.CancelSessionReminders()
	}

	s.surface.Reset()
	return nil
}

// ClearRecentSearches empties the recent-search list. The last-searched
// identifier survives so the next authenticate still has a working id.
func (s *Service) ClearRecentSearches(ctx context.Context) error {
	if err := s.searches.Clear(ctx); err != nil {
		return err
	}
	s.surface.Update(func(snap *state.Snapshot) {
		snap.RecentSearches = nil
	})
	return nil
}

func errNoCurrentUser() error {
	return &apperror.AppError{
		Err:     apperror.ErrNotFound,
		Message: "no user is signed in",
	}
}
