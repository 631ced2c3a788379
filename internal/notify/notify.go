// Package notify schedules break reminders and playtime warnings. Delivery
// is pluggable through the Notifier interface; the default sink logs.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/sakif/playmate/internal/model"
)

// Notifier delivers a notification to the user.
type Notifier interface {
	Notify(ctx context.Context, title, body string)
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, title, body string) {
	n.logger.Info("notification", "title", title, "body", body)
}

// Scheduler manages timed reminders for one running app instance. Jobs are
// keyed by purpose so rescheduling replaces rather than stacks.
type Scheduler struct {
	scheduler gocron.Scheduler
	notifier  Notifier
	logger    *slog.Logger

	mu   sync.Mutex
	jobs map[string]uuid.UUID
}

func NewScheduler(notifier Notifier, logger *slog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("notify: creating scheduler: %w", err)
	}
	sched.Start()

	return &Scheduler{
		scheduler: sched,
		notifier:  notifier,
		logger:    logger,
		jobs:      make(map[string]uuid.UUID),
	}, nil
}

// ScheduleBreakReminders fires a reminder every break interval until
// cancelled. Called when a gaming session starts.
func (s *Scheduler) ScheduleBreakReminders() error {
	return s.replace("break", gocron.DurationJob(model.BreakInterval), gocron.NewTask(func() {
		s.notifier.Notify(context.Background(), "Time for a break",
			fmt.Sprintf("You have been playing for another %d minutes. Stand up and stretch.",
				int(model.BreakInterval.Minutes())))
	}))
}

// ScheduleSessionLimit fires once when the current session reaches the
// maximum session duration.
func (s *Scheduler) ScheduleSessionLimit(start time.Time) error {
	at := start.Add(model.MaxSessionDuration)
	return s.replace("session-limit",
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(func() {
			s.notifier.Notify(context.Background(), "Session limit reached",
				fmt.Sprintf("You have been playing for %s. Consider stopping for today.",
					model.MaxSessionDuration))
		}))
}

// NotifyPlaytimeWarning delivers an immediate warning for a game whose
// recent playtime crossed the threshold.
func (s *Scheduler) NotifyPlaytimeWarning(ctx context.Context, w model.PlaytimeWarning) {
	s.notifier.Notify(ctx, "High recent playtime",
		fmt.Sprintf("%s: %d minutes in the last two weeks (threshold %d).",
			w.GameName, w.RecentPlaytime, w.Threshold))
}

// CancelSessionReminders removes the break and session-limit jobs. Called
// when a gaming session ends.
func (s *Scheduler) CancelSessionReminders() {
	s.remove("break")
	s.remove("session-limit")
}

// Shutdown stops the scheduler and discards all jobs.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	s.jobs = make(map[string]uuid.UUID)
	s.mu.Unlock()
	return s.scheduler.Shutdown()
}

func (s *Scheduler) replace(key string, def gocron.JobDefinition, task gocron.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[key]; ok {
		if err := s.scheduler.RemoveJob(id); err != nil {
			s.logger.Warn("removing stale job", "key", key, "error", err)
		}
		delete(s.jobs, key)
	}

	job, err := s.scheduler.NewJob(def, task)
	if err != nil {
		return fmt.Errorf("notify: scheduling %s: %w", key, err)
	}
	s.jobs[key] = job.ID()
	return nil
}

func (s *Scheduler) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[key]; ok {
		if err := s.scheduler.RemoveJob(id); err != nil {
			s.logger.Warn("removing job", "key", key, "error", err)
		}
		delete(s.jobs, key)
	}
}
