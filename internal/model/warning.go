package model

import "time"

// PlaytimeWarningThreshold is the trailing-two-week playtime, in minutes,
// above which a warning is raised (15 hours).
const PlaytimeWarningThreshold = 900

// PlaytimeWarning is raised when a game's recent playtime crosses the
// threshold. At most one warning exists per game name at a time.
type PlaytimeWarning struct {
	ID             string    `json:"id"`
	GameName       string    `json:"gameName"`
	RecentPlaytime int       `json:"recentPlaytime"` // minutes
	Threshold      int       `json:"threshold"`
	RaisedAt       time.Time `json:"raisedAt"`
}
