package steam

import "github.com/sakif/playmate/internal/model"

// Wire envelopes for the Steam Web API. Steam nests every payload under a
// "response" or "playerstats" object; these types exist only to peel that
// wrapper off and are not exposed outside the package except where the
// payload itself is the useful record (Achievement, GameStats).

type playerSummariesResponse struct {
	Response struct {
		Players []model.Profile `json:"players"`
	} `json:"response"`
}

type recentGamesResponse struct {
	Response struct {
		TotalCount int          `json:"total_count"`
		Games      []model.Game `json:"games"`
	} `json:"response"`
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []ownedGame `json:"games"`
	} `json:"response"`
}

// ownedGame is the owned-games endpoint's slimmer game shape; name and icon
// are optional there.
type ownedGame struct {
	AppID           int     `json:"appid"`
	Name            *string `json:"name"`
	PlaytimeForever int     `json:"playtime_forever"`
	ImgIconURL      *string `json:"img_icon_url"`
}

func (og ownedGame) toGame() model.Game {
	g := model.Game{
		AppID:           og.AppID,
		Name:            "Unknown Game",
		PlaytimeForever: og.PlaytimeForever,
	}
	if og.Name != nil {
		g.Name = *og.Name
	}
	if og.ImgIconURL != nil {
		g.ImgIconURL = *og.ImgIconURL
	}
	return g
}

// Achievement is one entry of the player-achievements list.
type Achievement struct {
	APIName    string `json:"apiname"`
	Achieved   int    `json:"achieved"`
	UnlockTime int64  `json:"unlocktime"`
}

type achievementsResponse struct {
	PlayerStats struct {
		SteamID      string        `json:"steamID"`
		GameName     string        `json:"gameName"`
		Achievements []Achievement `json:"achievements"`
	} `json:"playerstats"`
}

// GameStats is the projection of the loosely-typed per-title stat list onto
// the keys this application reads.
type GameStats struct {
	TotalTimePlayed  int   // minutes
	TimePlayed2Weeks int   // minutes
	LastPlayed       int64 // unix seconds
}

type userStatsResponse struct {
	PlayerStats struct {
		SteamID  string `json:"steamID"`
		GameName string `json:"gameName"`
		Stats    []struct {
			Name  string `json:"name"`
			Value int    `json:"value"`
		} `json:"stats"`
	} `json:"playerstats"`
}

type matchHistoryResponse struct {
	Success bool                `json:"success"`
	Matches []model.MatchRecord `json:"matches"`
}
