package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/model"
	"github.com/sakif/playmate/internal/steam"
)

const testSteamID = "76561197960287930"

func TestFetchProfileSuccess(t *testing.T) {
	f := newFixture(t)
	f.gateway.summary = func(id string) (*model.Profile, error) {
		return &model.Profile{SteamID: id, PersonaName: "gaben"}, nil
	}
	f.gateway.recent = func(string, int) ([]model.Game, error) {
		return []model.Game{{AppID: 730, Name: "Counter-Strike 2", Playtime2Weeks: intp(100), PlaytimeForever: 5000}}, nil
	}

	require.NoError(t, f.svc.FetchProfile(context.Background(), testSteamID))

	snap := f.snapshot()
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "gaben", snap.Profile.PersonaName)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)
	assert.Equal(t, []string{testSteamID}, snap.RecentSearches)

	last, err := f.searches.LastSearched(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testSteamID, last)
}

func TestFetchProfileEmptyIdentifier(t *testing.T) {
	f := newFixture(t)

	err := f.svc.FetchProfile(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	// Validation failures must not substitute synthetic data.
	assert.Nil(t, f.snapshot().Profile)
}

func TestFetchProfileLegacyID(t *testing.T) {
	f := newFixture(t)
	var asked string
	f.gateway.summary = func(id string) (*model.Profile, error) {
		asked = id
		return &model.Profile{SteamID: id}, nil
	}

	require.NoError(t, f.svc.FetchProfile(context.Background(), "STEAM_0:0:11101"))
	assert.Equal(t, testSteamID, asked)
}

func TestFetchProfileSoftFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	f.gateway.summary = func(string) (*model.Profile, error) {
		return nil, apperror.Unavailable("network error reaching the Steam API")
	}

	require.NoError(t, f.svc.FetchProfile(context.Background(), testSteamID))

	snap := f.snapshot()
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Steam Player", snap.Profile.PersonaName)
	require.Len(t, snap.Games, 1)
	assert.Equal(t, 730, snap.Games[0].AppID)
	require.NotNil(t, snap.Stats)
	assert.Equal(t, 3600, snap.Stats.TotalPlaytime)
	assert.NotEmpty(t, snap.Err)
	assert.False(t, snap.Loading)

	// Failed searches are still remembered for the next launch.
	last, err := f.searches.LastSearched(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testSteamID, last)

	// A roster entry for the identifier exists and is current.
	user, err := f.svc.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testSteamID, user.SteamID)
}

func TestFetchProfileFallbackDeterministic(t *testing.T) {
	f := newFixture(t)
	f.gateway.summary = func(string) (*model.Profile, error) {
		return nil, apperror.Timeout("profile fetch")
	}

	require.NoError(t, f.svc.FetchProfile(context.Background(), testSteamID))
	first := f.snapshot()
	require.NoError(t, f.svc.FetchProfile(context.Background(), testSteamID))
	second := f.snapshot()

	assert.Equal(t, first.Profile.PersonaName, second.Profile.PersonaName)
	require.Len(t, second.Games, 1)
	assert.Equal(t, first.Games[0].AppID, second.Games[0].AppID)
}

func TestGameBackfill(t *testing.T) {
	f := newFixture(t)
	f.gateway.recent = func(string, int) ([]model.Game, error) {
		return []model.Game{
			{AppID: 1, Name: "Recent A", PlaytimeForever: 10},
			{AppID: 2, Name: "Recent B", PlaytimeForever: 20},
		}, nil
	}
	f.gateway.owned = func(string) ([]model.Game, error) {
		owned := make([]model.Game, 0, 10)
		for i := 0; i < 10; i++ {
			owned = append(owned, model.Game{
				AppID:           100 + i,
				Name:            fmt.Sprintf("Owned %d", i),
				PlaytimeForever: 1000 - i*100,
			})
		}
		return owned, nil
	}

	f.svc.fetchGames(context.Background(), testSteamID)

	games := f.snapshot().Games
	require.Len(t, games, 5)
	assert.Equal(t, 1, games[0].AppID)
	assert.Equal(t, 2, games[1].AppID)
	// Backfill takes the three highest-playtime owned titles.
	assert.Equal(t, 100, games[2].AppID)
	assert.Equal(t, 101, games[3].AppID)
	assert.Equal(t, 102, games[4].AppID)
}

func TestGameBackfillSkipsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.gateway.recent = func(string, int) ([]model.Game, error) {
		return []model.Game{{AppID: 730, Name: "Counter-Strike 2", PlaytimeForever: 500}}, nil
	}
	f.gateway.owned = func(string) ([]model.Game, error) {
		return []model.Game{
			{AppID: 730, Name: "Counter-Strike 2", PlaytimeForever: 500},
			{AppID: 570, Name: "Dota 2", PlaytimeForever: 400},
		}, nil
	}

	f.svc.fetchGames(context.Background(), testSteamID)

	games := f.snapshot().Games
	require.Len(t, games, 2)
	assert.Equal(t, 730, games[0].AppID)
	assert.Equal(t, 570, games[1].AppID)
}

func TestGamesEmptyLibrary(t *testing.T) {
	f := newFixture(t)

	f.svc.fetchGames(context.Background(), testSteamID)

	snap := f.snapshot()
	assert.Empty(t, snap.Games)
	assert.Equal(t, "No games found", snap.Err)
}

func TestStatsMergeRule(t *testing.T) {
	f := newFixture(t)
	f.gateway.achievements = func(int, string) ([]steam.Achievement, error) {
		return []steam.Achievement{
			{APIName: "a", Achieved: 1},
			{APIName: "b", Achieved: 0},
			{APIName: "c", Achieved: 1},
		}, nil
	}
	f.gateway.stats = func(int, string) (steam.GameStats, error) {
		// Steam often omits the playtime keys from the stat list.
		return steam.GameStats{TotalTimePlayed: 0, TimePlayed2Weeks: 0}, nil
	}
	f.gateway.recent = func(string, int) ([]model.Game, error) {
		return []model.Game{{AppID: 730, PlaytimeForever: 4321, Playtime2Weeks: intp(222), LastPlayed: 1700000000}}, nil
	}

	f.svc.FetchStats(context.Background(), testSteamID)

	snap := f.snapshot()
	require.NotNil(t, snap.Stats)
	assert.Equal(t, 4321, snap.Stats.TotalPlaytime)
	assert.Equal(t, 222, snap.Stats.RecentPlaytime)
	assert.Equal(t, int64(1700000000), snap.Stats.LastPlayed)
	assert.Equal(t, 2, snap.Stats.AchievementCount)
	assert.Equal(t, 3, snap.Stats.TotalAchievements)
}

func TestStatsDetailedValuesWin(t *testing.T) {
	f := newFixture(t)
	f.gateway.stats = func(int, string) (steam.GameStats, error) {
		return steam.GameStats{TotalTimePlayed: 999, TimePlayed2Weeks: 111, LastPlayed: 5}, nil
	}
	f.gateway.recent = func(string, int) ([]model.Game, error) {
		t.Fatal("recency call should be skipped when detailed stats are complete")
		return nil, nil
	}

	f.svc.FetchStats(context.Background(), testSteamID)

	snap := f.snapshot()
	require.NotNil(t, snap.Stats)
	assert.Equal(t, 999, snap.Stats.TotalPlaytime)
	assert.Equal(t, 111, snap.Stats.RecentPlaytime)
}

func TestStatsSoftFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	f.gateway.achievements = func(int, string) ([]steam.Achievement, error) {
		return nil, apperror.RateLimited("invalid Steam API key or rate limited")
	}

	f.svc.FetchStats(context.Background(), testSteamID)

	snap := f.snapshot()
	require.NotNil(t, snap.Stats)
	assert.Equal(t, 25, snap.Stats.AchievementCount)
	assert.Equal(t, 100, snap.Stats.TotalAchievements)
	assert.NotEmpty(t, snap.Err)
}

func TestPlaytimeWarningIdempotent(t *testing.T) {
	f := newFixture(t)
	games := []model.Game{{AppID: 730, Name: "Counter-Strike 2", Playtime2Weeks: intp(901)}}

	f.svc.checkPlaytimeWarnings(context.Background(), games)
	f.svc.checkPlaytimeWarnings(context.Background(), games)

	warnings := f.snapshot().Warnings
	require.Len(t, warnings, 1)
	assert.Equal(t, "Counter-Strike 2", warnings[0].GameName)
	assert.Equal(t, 901, warnings[0].RecentPlaytime)
	assert.Len(t, f.reminders.warnings, 1)
}

func TestPlaytimeWarningThresholdNotCrossed(t *testing.T) {
	f := newFixture(t)
	games := []model.Game{{AppID: 730, Name: "Counter-Strike 2", Playtime2Weeks: intp(900)}}

	f.svc.checkPlaytimeWarnings(context.Background(), games)

	assert.Empty(t, f.snapshot().Warnings)
}

func TestFetchMatchesSuccess(t *testing.T) {
	f := newFixture(t)
	f.gateway.matches = func(string) ([]model.MatchRecord, error) {
		return []model.MatchRecord{{MatchID: "m1", Map: "Mirage"}}, nil
	}

	f.svc.FetchMatches(context.Background(), testSteamID)

	matches := f.snapshot().Matches
	require.Len(t, matches, 1)
	assert.Equal(t, "Mirage", matches[0].Map)
}

func TestFetchMatchesFallback(t *testing.T) {
	f := newFixture(t)
	f.gateway.matches = func(string) ([]model.MatchRecord, error) {
		return nil, apperror.Unavailable("steam api returned status 500")
	}

	f.svc.FetchMatches(context.Background(), testSteamID)

	matches := f.snapshot().Matches
	require.Len(t, matches, 2)
	assert.Equal(t, "Nuke", matches[0].Map)
	assert.Equal(t, "Victory", matches[0].Result)
	assert.Equal(t, "Inferno", matches[1].Map)
	assert.Equal(t, "Defeat", matches[1].Result)
}

func TestAuthenticateUsesDefaultID(t *testing.T) {
	f := newFixture(t)
	var asked string
	f.gateway.summary = func(id string) (*model.Profile, error) {
		asked = id
		return &model.Profile{SteamID: id, PersonaName: "default player"}, nil
	}

	require.NoError(t, f.svc.Authenticate(context.Background()))
	assert.Equal(t, DefaultSteamID, asked)

	user, err := f.svc.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSteamID, user.SteamID)
	assert.Equal(t, "default player", user.Username)
}

func TestAuthenticateUsesLastSearched(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.searches.SetLastSearched(context.Background(), testSteamID))

	var asked string
	f.gateway.summary = func(id string) (*model.Profile, error) {
		asked = id
		return &model.Profile{SteamID: id}, nil
	}

	require.NoError(t, f.svc.Authenticate(context.Background()))
	assert.Equal(t, testSteamID, asked)
}

func TestAuthenticateExistingAccountSignsIn(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Create(context.Background(), &model.UserAccount{
		SteamID:  DefaultSteamID,
		Username: "already here",
	}))

	require.NoError(t, f.svc.Authenticate(context.Background()))

	assert.Equal(t, 1, f.users.count())
	user, err := f.svc.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "already here", user.Username)
	assert.False(t, user.LastLogin.IsZero())
}

func TestAuthenticateSoftFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	f.gateway.summary = func(string) (*model.Profile, error) {
		return nil, apperror.Timeout("profile fetch")
	}

	require.NoError(t, f.svc.Authenticate(context.Background()))

	snap := f.snapshot()
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Steam Player", snap.Profile.PersonaName)
	assert.NotEmpty(t, snap.Err)

	user, err := f.svc.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSteamID, user.SteamID)
}

func TestRefreshServerStatus(t *testing.T) {
	f := newFixture(t)
	f.gateway.status = model.StatusIssues

	got := f.svc.RefreshServerStatus(context.Background())
	assert.Equal(t, model.StatusIssues, got)
	assert.Equal(t, model.StatusIssues, f.snapshot().ServerStatus)
}
