package model

import "time"

// Break policy constants, all per gaming session unless noted.
const (
	BreakInterval      = 45 * time.Minute // first break, and spacing between breaks
	MaxSessionDuration = 4 * time.Hour
	MaxDailyPlaytime   = 3 * time.Hour // across all of today's sessions
)

// GamingSession is one continuous play interval for a user. EndTime is nil
// while the session is open.
type GamingSession struct {
	ID            string     `json:"id"        db:"id"`
	UserID        string     `json:"userId"    db:"user_id"`
	GameType      string     `json:"gameType"  db:"game_type"`
	StartTime     time.Time  `json:"startTime" db:"start_time"`
	EndTime       *time.Time `json:"endTime,omitempty" db:"end_time"`
	BreakCount    int        `json:"breakCount" db:"break_count"`
	LastBreakTime *time.Time `json:"lastBreakTime,omitempty" db:"last_break_time"`
}

// Duration is the elapsed session time, measured to now for open sessions.
func (s GamingSession) Duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// Active reports whether the session is still open.
func (s GamingSession) Active() bool {
	return s.EndTime == nil
}

// ShouldTakeBreak applies the break policy: a break is due once the session
// exceeds its maximum, or once BreakInterval has passed since the last break
// (or since the start, for the first break).
func (s GamingSession) ShouldTakeBreak() bool {
	if s.Duration() >= MaxSessionDuration {
		return true
	}
	if s.LastBreakTime != nil {
		return time.Since(*s.LastBreakTime) >= BreakInterval
	}
	return s.Duration() >= BreakInterval
}
