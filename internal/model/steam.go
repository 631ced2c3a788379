package model

// Profile is a player summary as returned by the Steam Web API.
// The JSON field names follow Steam's wire format so the gateway can decode
// responses directly into this struct. A Profile is never mutated in place —
// each fetch replaces it wholesale.
type Profile struct {
	SteamID                  string `json:"steamid"`
	PersonaName              string `json:"personaname"`
	ProfileURL               string `json:"profileurl"`
	Avatar                   string `json:"avatar"`
	AvatarMedium             string `json:"avatarmedium"`
	AvatarFull               string `json:"avatarfull"`
	PersonaState             int    `json:"personastate"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	ProfileState             int    `json:"profilestate"`
	LastLogoff               int64  `json:"lastlogoff"`
	RealName                 string `json:"realname,omitempty"`
	PrimaryClanID            string `json:"primaryclanid,omitempty"`
	TimeCreated              int64  `json:"timecreated,omitempty"`
	GameID                   string `json:"gameid,omitempty"`
	GameExtraInfo            string `json:"gameextrainfo,omitempty"`
	CountryCode              string `json:"loccountrycode,omitempty"`
	StateCode                string `json:"locstatecode,omitempty"`
}

// Game is one library entry. Playtime values are minutes. Playtime2Weeks is a
// pointer because Steam omits the field for games not played recently.
type Game struct {
	AppID           int    `json:"appid"`
	Name            string `json:"name"`
	Playtime2Weeks  *int   `json:"playtime_2weeks,omitempty"`
	PlaytimeForever int    `json:"playtime_forever"`
	ImgIconURL      string `json:"img_icon_url"`
	ImgLogoURL      string `json:"img_logo_url,omitempty"`
	LastPlayed      int64  `json:"last_played,omitempty"`
}

// RecentMinutes returns the trailing-two-week playtime, zero when Steam
// omitted the field.
func (g Game) RecentMinutes() int {
	if g.Playtime2Weeks == nil {
		return 0
	}
	return *g.Playtime2Weeks
}

// Same reports whether two entries refer to the same game. Equality is by
// app id only; names and playtimes drift between endpoints.
func (g Game) Same(other Game) bool {
	return g.AppID == other.AppID
}

// StatsSnapshot is the merged per-title statistics view (CS2 in practice).
// It is rebuilt from scratch on every fetch by combining the achievements,
// detailed-stats, and recency calls.
type StatsSnapshot struct {
	AppID             int   `json:"appid"`
	TotalPlaytime     int   `json:"totalPlaytime"`  // minutes
	RecentPlaytime    int   `json:"recentPlaytime"` // minutes, trailing 2 weeks
	AchievementCount  int   `json:"achievementCount"`
	TotalAchievements int   `json:"totalAchievements"`
	LastPlayed        int64 `json:"lastPlayed"` // unix seconds
}

// MatchRecord is one entry of the match-history feed. Immutable once
// fetched; the whole list is replaced per fetch.
type MatchRecord struct {
	ID        string `json:"id"`
	MatchID   string `json:"match_id"`
	Timestamp int64  `json:"timestamp"`
	Map       string `json:"map_name"`
	Score     string `json:"score"`
	Result    string `json:"result"`
	Kills     int    `json:"kills"`
	Deaths    int    `json:"deaths"`
	Assists   int    `json:"assists"`
	Headshots int    `json:"headshots"`
	Damage    int    `json:"damage"`
	MVP       bool   `json:"mvp"`
}

// ServerStatus is the coarse health of the Steam Web API, derived from the
// status code of a probe against a well-known profile.
type ServerStatus int

const (
	StatusUnknown ServerStatus = iota
	StatusOnline
	StatusIssues
	StatusOffline
)

func (s ServerStatus) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusIssues:
		return "issues"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}
