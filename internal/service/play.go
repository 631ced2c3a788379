package service

import (
	"context"
	"time"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/model"
)

// StartPlaySession opens a gaming session for the account and schedules
// break reminders. An already-open session is closed first.
func (s *Service) StartPlaySession(ctx context.Context, userID, gameType string) (*model.GamingSession, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	session := &model.GamingSession{
		UserID:    user.ID,
		GameType:  gameType,
		StartTime: s.now(),
	}
	if err := s.sessions.Start(ctx, session); err != nil {
		return nil, err
	}

	if s.reminders != nil && user.Preferences.BreakReminder {
		if err := s.reminders.ScheduleBreakReminders(); err != nil {
			s.logger.Warn("scheduling break reminders", "error", err)
		}
		if err := s.reminders.ScheduleSessionLimit(session.StartTime); err != nil {
			s.logger.Warn("scheduling session limit", "error", err)
		}
	}

	return session, nil
}

// EndPlaySession closes the account's open session and cancels its
// reminders. Ending with no open session is not an error.
func (s *Service) EndPlaySession(ctx context.Context, userID string) error {
	if s.reminders != nil {
		s.reminders.CancelSessionReminders()
	}

	open, err := s.sessions.Open(ctx, userID)
	if err != nil {
		if apperror.IsSoft(err) {
			return nil
		}
		return err
	}

	return s.sessions.End(ctx, open.ID, s.now())
}

// TakeBreak records a break on the open session and restarts the break
// reminder interval.
func (s *Service) TakeBreak(ctx context.Context, userID string) error {
	open, err := s.sessions.Open(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.sessions.RecordBreak(ctx, open.ID, s.now()); err != nil {
		return err
	}

	if s.reminders != nil {
		if err := s.reminders.ScheduleBreakReminders(); err != nil {
			s.logger.Warn("rescheduling break reminders", "error", err)
		}
	}
	return nil
}

// DailyPlaytime sums today's session durations for the account and
// reports whether the daily cap has been exceeded.
func (s *Service) DailyPlaytime(ctx context.Context, userID string) (time.Duration, bool, error) {
	sessions, err := s.sessions.OnDay(ctx, userID, s.now())
	if err != nil {
		return 0, false, err
	}

	var total time.Duration
	for _, ses := range sessions {
		total += ses.Duration()
	}
	return total, total >= model.MaxDailyPlaytime, nil
}
