// Package sample generates deterministic placeholder data for when the
// Steam Web API cannot be reached within budget. The read paths of the app
// never dead-end: whatever fails, the orchestrator swaps in this synthetic
// bundle so the rendering layer always has something to show.
//
// Generation is pure: the same identifier always yields the same records,
// and nothing here can fail.
package sample

import (
	"time"

	"github.com/sakif/playmate/internal/model"
)

// Flagship title used for all synthetic game data.
const (
	FlagshipAppID = 730
	FlagshipName  = "Counter-Strike 2"
)

// Synthetic playtime and achievement figures, in minutes / counts.
const (
	sampleLifetimeMinutes  = 3600
	sampleRecentMinutes    = 1200
	sampleAchievementsDone = 25
	sampleAchievementsAll  = 100
)

const placeholderAvatar = "https://avatars.steamstatic.com/fef49e7fa7e1997310d705b2a6158ff8dc1cdfeb"

// Bundle is the full synthetic replacement for one failed fetch chain.
type Bundle struct {
	Profile *model.Profile
	Games   []model.Game
	Stats   model.StatsSnapshot
}

// Generate builds the synthetic bundle for an identifier.
func Generate(steamID string) Bundle {
	recent := sampleRecentMinutes

	game := model.Game{
		AppID:           FlagshipAppID,
		Name:            FlagshipName,
		Playtime2Weeks:  &recent,
		PlaytimeForever: sampleLifetimeMinutes,
		ImgIconURL:      "",
	}

	return Bundle{
		Profile: &model.Profile{
			SteamID:                  steamID,
			PersonaName:              "Steam Player",
			ProfileURL:               "https://steamcommunity.com/profiles/" + steamID,
			Avatar:                   placeholderAvatar,
			AvatarMedium:             placeholderAvatar,
			AvatarFull:               placeholderAvatar,
			PersonaState:             0,
			CommunityVisibilityState: 3,
			ProfileState:             1,
		},
		Games: []model.Game{game},
		Stats: model.StatsSnapshot{
			AppID:             FlagshipAppID,
			TotalPlaytime:     sampleLifetimeMinutes,
			RecentPlaytime:    sampleRecentMinutes,
			AchievementCount:  sampleAchievementsDone,
			TotalAchievements: sampleAchievementsAll,
		},
	}
}

// Matches returns the fixed two-entry match list substituted whenever the
// match-history call fails to produce a usable result.
func Matches(now time.Time) []model.MatchRecord {
	return []model.MatchRecord{
		{
			ID:        "1",
			MatchID:   "sample1",
			Timestamp: now.Unix(),
			Map:       "Nuke",
			Score:     "16-14",
			Result:    "Victory",
			Kills:     25,
			Deaths:    18,
			Assists:   5,
			Headshots: 12,
			Damage:    3200,
			MVP:       true,
		},
		{
			ID:        "2",
			MatchID:   "sample2",
			Timestamp: now.Add(-time.Hour).Unix(),
			Map:       "Inferno",
			Score:     "13-16",
			Result:    "Defeat",
			Kills:     20,
			Deaths:    22,
			Assists:   3,
			Headshots: 8,
			Damage:    2800,
			MVP:       false,
		},
	}
}
