package service

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/await"
	"github.com/sakif/playmate/internal/model"
	"github.com/sakif/playmate/internal/sample"
	"github.com/sakif/playmate/internal/state"
	"github.com/sakif/playmate/internal/steamid"
)

// Authenticate runs the startup sign-in flow: it resolves the working
// identifier (last searched, or the well-known default), fetches the
// profile, matches or creates a roster account for it, and chains the
// games and stats fetches. The whole flow is bounded by AuthTimeout; on
// timeout or any soft failure it degrades to synthetic data.
func (s *Service) Authenticate(ctx context.Context) error {
	workingID, err := s.searches.LastSearched(ctx)
	if err != nil {
		return err
	}
	if workingID == "" {
		workingID = DefaultSteamID
	}

	s.surface.Update(func(snap *state.Snapshot) {
		snap.Loading = true
		snap.Err = ""
	})

	_, err = await.Do(ctx, "authentication", AuthTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.authenticate(ctx, workingID)
	})
	if err != nil {
		if apperror.IsSoft(err) {
			return s.fallback(ctx, workingID, err)
		}
		s.publishError(err.Error())
		return err
	}
	return nil
}

func (s *Service) authenticate(ctx context.Context, workingID string) error {
	profile, err := s.gateway.PlayerSummary(ctx, workingID)
	if err != nil {
		return err
	}

	user, err := s.users.GetBySteamID(ctx, profile.SteamID)
	switch {
	case err == nil:
		user.AvatarURL = profile.AvatarFull
		user.LastLogin = s.now()
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
	case apperror.IsSoft(err): // not in the roster yet
		user = &model.UserAccount{
			SteamID:     profile.SteamID,
			Username:    profile.PersonaName,
			AvatarURL:   profile.AvatarFull,
			Preferences: model.DefaultPreferences(),
			LastLogin:   s.now(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
	default:
		return err
	}

	if err := s.setCurrentUser(ctx, user); err != nil {
		return err
	}

	s.surface.Update(func(snap *state.Snapshot) {
		snap.Profile = profile
		snap.Loading = false
		snap.Err = ""
	})

	s.fetchGames(ctx, profile.SteamID)
	return nil
}

// FetchProfile looks up an identifier the user typed: a canonical id, a
// legacy STEAM_X:Y:Z triplet, or a profile URL. The identifier is recorded
// as last-searched whether or not the fetch succeeds, so the next app
// launch retries the same profile. Soft failures degrade to synthetic data.
func (s *Service) FetchProfile(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		err := apperror.ValidationFailed("steamId", "enter a Steam ID, profile URL, or STEAM_X:Y:Z id")
		s.publishError(err.Message)
		return err
	}

	id := steamid.Normalize(raw)

	s.surface.Update(func(snap *state.Snapshot) {
		snap.Loading = true
		snap.Err = ""
	})

	if !steamid.IsValid(id) {
		return s.fallback(ctx, id, apperror.ValidationFailed("steamId", "not a numeric Steam ID"))
	}

	profile, err := s.gateway.PlayerSummary(ctx, id)
	if err != nil {
		if apperror.IsSoft(err) {
			return s.fallback(ctx, id, err)
		}
		s.publishError(err.Error())
		return err
	}

	if err := s.searches.Add(ctx, id); err != nil {
		s.logger.Warn("recording recent search", "steam_id", id, "error", err)
	}
	if err := s.searches.SetLastSearched(ctx, id); err != nil {
		s.logger.Warn("recording last search", "steam_id", id, "error", err)
	}
	s.publishRecentSearches(ctx)

	s.surface.Update(func(snap *state.Snapshot) {
		snap.Profile = profile
		snap.Loading = false
		snap.Err = ""
	})

	s.fetchGames(ctx, id)
	return nil
}

// fetchGames loads the recently played list, backfills it from the owned
// library up to maxRecentGames, publishes it, and chains the stats fetch.
func (s *Service) fetchGames(ctx context.Context, steamID string) {
	games, err := s.gateway.RecentlyPlayed(ctx, steamID, maxRecentGames)
	if err != nil {
		if apperror.IsSoft(err) {
			s.fallbackGames(ctx, steamID, err)
			return
		}
		s.publishError(err.Error())
		return
	}

	if len(games) < maxRecentGames {
		games = s.backfillFromLibrary(ctx, steamID, games)
	}

	if len(games) == 0 {
		s.surface.Update(func(snap *state.Snapshot) {
			snap.Games = nil
			snap.Err = "No games found"
		})
		return
	}

	s.surface.Update(func(snap *state.Snapshot) {
		snap.Games = games
	})

	s.checkPlaytimeWarnings(ctx, games)
	s.FetchStats(ctx, steamID)
}

// backfillFromLibrary pads games up to maxRecentGames with the
// highest-playtime owned titles not already present. A failure of the
// owned-games call just leaves the shorter list.
func (s *Service) backfillFromLibrary(ctx context.Context, steamID string, games []model.Game) []model.Game {
	owned, err := s.gateway.OwnedGames(ctx, steamID)
	if err != nil {
		s.logger.Warn("owned games fetch failed, skipping backfill",
			"steam_id", steamID, "error", err)
		return games
	}

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].PlaytimeForever > owned[j].PlaytimeForever
	})

	for _, g := range owned {
		if len(games) >= maxRecentGames {
			break
		}
		if containsGame(games, g) {
			continue
		}
		games = append(games, g)
	}
	return games
}

func containsGame(games []model.Game, g model.Game) bool {
	for _, have := range games {
		if have.Same(g) {
			return true
		}
	}
	return false
}

// FetchStats rebuilds the flagship-title snapshot from three calls:
// achievements, the detailed stat list, and the recency list. Fields the
// detailed call leaves at zero are substituted from the recency entry for
// the same app id. Any soft failure swaps in the synthetic snapshot.
func (s *Service) FetchStats(ctx context.Context, steamID string) {
	snapshot, err := s.buildStats(ctx, steamID)
	if err != nil {
		if apperror.IsSoft(err) {
			bundle := sample.Generate(steamID)
			s.surface.Update(func(snap *state.Snapshot) {
				snap.Stats = &bundle.Stats
				snap.Err = err.Error()
			})
			return
		}
		s.publishError(err.Error())
		return
	}

	s.surface.Update(func(snap *state.Snapshot) {
		snap.Stats = snapshot
	})
}

func (s *Service) buildStats(ctx context.Context, steamID string) (*model.StatsSnapshot, error) {
	achievements, err := s.gateway.Achievements(ctx, FlagshipAppID, steamID)
	if err != nil {
		return nil, err
	}

	achieved := 0
	for _, a := range achievements {
		if a.Achieved != 0 {
			achieved++
		}
	}

	detailed, err := s.gateway.GameStats(ctx, FlagshipAppID, steamID)
	if err != nil {
		return nil, err
	}

	snapshot := &model.StatsSnapshot{
		AppID:             FlagshipAppID,
		TotalPlaytime:     detailed.TotalTimePlayed,
		RecentPlaytime:    detailed.TimePlayed2Weeks,
		LastPlayed:        detailed.LastPlayed,
		AchievementCount:  achieved,
		TotalAchievements: len(achievements),
	}

	// The detailed stat list frequently omits playtime keys; fill the gaps
	// from the recency call's entry for the same title.
	if snapshot.TotalPlaytime == 0 || snapshot.RecentPlaytime == 0 || snapshot.LastPlayed == 0 {
		recent, err := s.gateway.RecentlyPlayed(ctx, steamID, 0)
		if err != nil {
			return nil, err
		}
		for _, g := range recent {
			if g.AppID != FlagshipAppID {
				continue
			}
			if snapshot.TotalPlaytime == 0 {
				snapshot.TotalPlaytime = g.PlaytimeForever
			}
			if snapshot.RecentPlaytime == 0 {
				snapshot.RecentPlaytime = g.RecentMinutes()
			}
			if snapshot.LastPlayed == 0 {
				snapshot.LastPlayed = g.LastPlayed
			}
			break
		}
	}

	return snapshot, nil
}

// FetchMatches loads recent competitive matches. Any failure replaces the
// list with the fixed sample records; this call never returns an error.
func (s *Service) FetchMatches(ctx context.Context, steamID string) {
	matches, err := s.gateway.MatchHistory(ctx, steamID, matchHistoryMode, matchHistoryLimit)
	if err != nil || len(matches) == 0 {
		if err != nil {
			s.logger.Warn("match history fetch failed, using samples",
				"steam_id", steamID, "error", err)
		}
		matches = sample.Matches(s.now())
	}

	s.surface.Update(func(snap *state.Snapshot) {
		snap.Matches = matches
	})
}

// fallback swaps the whole fetch chain's output for the synthetic bundle,
// still records the identifier as last-searched, and makes sure a roster
// entry exists so the rest of the app has a current user to work with.
func (s *Service) fallback(ctx context.Context, steamID string, cause error) error {
	s.logger.Info("degrading to sample data",
		"steam_id", steamID, "cause", cause.Error())

	bundle := sample.Generate(steamID)

	if err := s.searches.SetLastSearched(ctx, steamID); err != nil {
		s.logger.Warn("recording last search", "steam_id", steamID, "error", err)
	}

	user, err := s.users.GetBySteamID(ctx, steamID)
	if err != nil {
		if !apperror.IsSoft(err) {
			return err
		}
		user = &model.UserAccount{
			SteamID:     steamID,
			Username:    bundle.Profile.PersonaName,
			AvatarURL:   bundle.Profile.AvatarFull,
			Preferences: model.DefaultPreferences(),
			LastLogin:   s.now(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
	}
	if err := s.setCurrentUser(ctx, user); err != nil {
		return err
	}

	s.surface.Update(func(snap *state.Snapshot) {
		snap.Profile = bundle.Profile
		snap.Games = bundle.Games
		snap.Stats = &bundle.Stats
		snap.Loading = false
		snap.Err = cause.Error()
	})
	return nil
}

// fallbackGames substitutes only the games and stats portion of the chain.
func (s *Service) fallbackGames(ctx context.Context, steamID string, cause error) {
	s.logger.Info("degrading games to sample data",
		"steam_id", steamID, "cause", cause.Error())

	bundle := sample.Generate(steamID)
	s.surface.Update(func(snap *state.Snapshot) {
		snap.Games = bundle.Games
		snap.Stats = &bundle.Stats
		snap.Err = cause.Error()
	})
}

// checkPlaytimeWarnings raises a warning for every game whose trailing
// two-week playtime crosses the threshold. Idempotent per game name; a
// repeated check never duplicates a warning.
func (s *Service) checkPlaytimeWarnings(ctx context.Context, games []model.Game) {
	var raised []model.PlaytimeWarning

	s.warnMu.Lock()
	for _, g := range games {
		minutes := g.RecentMinutes()
		if minutes <= model.PlaytimeWarningThreshold {
			continue
		}
		if _, exists := s.warnings[g.Name]; exists {
			continue
		}
		w := model.PlaytimeWarning{
			ID:             xid.New().String(),
			GameName:       g.Name,
			RecentPlaytime: minutes,
			Threshold:      model.PlaytimeWarningThreshold,
			RaisedAt:       s.now(),
		}
		s.warnings[g.Name] = w
		raised = append(raised, w)
	}
	all := make([]model.PlaytimeWarning, 0, len(s.warnings))
	for _, w := range s.warnings {
		all = append(all, w)
	}
	s.warnMu.Unlock()

	if len(raised) == 0 {
		return
	}

	sort.Slice(all, func(i, j int) bool { return all[i].RaisedAt.Before(all[j].RaisedAt) })
	s.surface.Update(func(snap *state.Snapshot) {
		snap.Warnings = all
	})

	if s.reminders != nil {
		for _, w := range raised {
			s.reminders.NotifyPlaytimeWarning(ctx, w)
		}
	}
}
