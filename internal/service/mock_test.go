package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rs/xid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/auth"
	"github.com/sakif/playmate/internal/model"
	"github.com/sakif/playmate/internal/state"
	"github.com/sakif/playmate/internal/steam"
)

// In-memory repository doubles. Behavior mirrors the sqlite package where
// the service depends on it: NotFound errors, unique steam ids, the
// recent-search LRU discipline.

type memUsers struct {
	mu    sync.Mutex
	users []*model.UserAccount
}

func (m *memUsers) Create(_ context.Context, user *model.UserAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
		if user.SteamID != "" && u.SteamID == user.SteamID {
			return apperror.Conflict("user", user.SteamID)
		}
	}
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.users = append(m.users, &cp)
	return nil
}

func (m *memUsers) find(match func(*model.UserAccount) bool) (*model.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.UserAccount, error) {
	return m.find(func(u *model.UserAccount) bool { return u.ID == id })
}

func (m *memUsers) GetBySteamID(_ context.Context, steamID string) (*model.UserAccount, error) {
	if steamID == "" {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
	}
	return m.find(func(u *model.UserAccount) bool { return u.SteamID == steamID })
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.UserAccount, error) {
	return m.find(func(u *model.UserAccount) bool { return u.Username == username })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.UserAccount, error) {
	return m.find(func(u *model.UserAccount) bool { return u.Email == email })
}

func (m *memUsers) List(_ context.Context) ([]model.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.UserAccount, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, user *model.UserAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.ID == user.ID {
			cp := *user
			m.users[i] = &cp
			return nil
		}
	}
	return &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type memSearches struct {
	mu   sync.Mutex
	ids  []string
	last string
}

func (m *memSearches) Recent(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ids...), nil
}

func (m *memSearches) Add(_ context.Context, steamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{steamID}
	for _, id := range m.ids {
		if id != steamID {
			out = append(out, id)
		}
	}
	if len(out) > 5 {
		out = out[:5]
	}
	m.ids = out
	return nil
}

func (m *memSearches) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = nil
	return nil
}

func (m *memSearches) LastSearched(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

func (m *memSearches) SetLastSearched(_ context.Context, steamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = steamID
	return nil
}

type memSettings struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memSettings) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memSettings) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func (m *memSettings) Unset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions []*model.GamingSession
}

func (m *memSessions) Start(_ context.Context, session *model.GamingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := session.StartTime
	for _, s := range m.sessions {
		if s.UserID == session.UserID && s.EndTime == nil {
			end := now
			s.EndTime = &end
		}
	}
	if session.ID == "" {
		session.ID = xid.New().String()
	}
	cp := *session
	m.sessions = append(m.sessions, &cp)
	return nil
}

func (m *memSessions) End(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == id && s.EndTime == nil {
			end := at
			s.EndTime = &end
		}
	}
	return nil
}

func (m *memSessions) RecordBreak(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == id && s.EndTime == nil {
			s.BreakCount++
			t := at
			s.LastBreakTime = &t
			return nil
		}
	}
	return &apperror.AppError{Err: apperror.ErrNotFound, Message: "no open session"}
}

func (m *memSessions) Open(_ context.Context, userID string) (*model.GamingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.EndTime == nil {
			cp := *s
			return &cp, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "no open session"}
}

func (m *memSessions) OnDay(_ context.Context, userID string, day time.Time) ([]model.GamingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	y, mo, d := day.Date()
	var out []model.GamingSession
	for _, s := range m.sessions {
		sy, smo, sd := s.StartTime.Date()
		if s.UserID == userID && sy == y && smo == mo && sd == d {
			out = append(out, *s)
		}
	}
	return out, nil
}

// fakeGateway answers from function fields; nil fields return zero values.
type fakeGateway struct {
	summary      func(steamID string) (*model.Profile, error)
	recent       func(steamID string, count int) ([]model.Game, error)
	owned        func(steamID string) ([]model.Game, error)
	achievements func(appID int, steamID string) ([]steam.Achievement, error)
	stats        func(appID int, steamID string) (steam.GameStats, error)
	matches      func(steamID string) ([]model.MatchRecord, error)
	status       model.ServerStatus
}

func (g *fakeGateway) PlayerSummary(_ context.Context, steamID string) (*model.Profile, error) {
	if g.summary == nil {
		return &model.Profile{SteamID: steamID, PersonaName: "tester"}, nil
	}
	return g.summary(steamID)
}

func (g *fakeGateway) RecentlyPlayed(_ context.Context, steamID string, count int) ([]model.Game, error) {
	if g.recent == nil {
		return nil, nil
	}
	return g.recent(steamID, count)
}

func (g *fakeGateway) OwnedGames(_ context.Context, steamID string) ([]model.Game, error) {
	if g.owned == nil {
		return nil, nil
	}
	return g.owned(steamID)
}

func (g *fakeGateway) Achievements(_ context.Context, appID int, steamID string) ([]steam.Achievement, error) {
	if g.achievements == nil {
		return nil, nil
	}
	return g.achievements(appID, steamID)
}

func (g *fakeGateway) GameStats(_ context.Context, appID int, steamID string) (steam.GameStats, error) {
	if g.stats == nil {
		return steam.GameStats{}, nil
	}
	return g.stats(appID, steamID)
}

func (g *fakeGateway) MatchHistory(_ context.Context, steamID, _ string, _ int) ([]model.MatchRecord, error) {
	if g.matches == nil {
		return nil, nil
	}
	return g.matches(steamID)
}

func (g *fakeGateway) ServerStatus(_ context.Context) model.ServerStatus {
	return g.status
}

type fakeReminders struct {
	mu       sync.Mutex
	breaks   int
	limits   int
	cancels  int
	warnings []model.PlaytimeWarning
}

func (f *fakeReminders) ScheduleBreakReminders() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breaks++
	return nil
}

func (f *fakeReminders) ScheduleSessionLimit(time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits++
	return nil
}

func (f *fakeReminders) NotifyPlaytimeWarning(_ context.Context, w model.PlaytimeWarning) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, w)
}

func (f *fakeReminders) CancelSessionReminders() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

type fixture struct {
	svc       *Service
	users     *memUsers
	searches  *memSearches
	settings  *memSettings
	sessions  *memSessions
	gateway   *fakeGateway
	reminders *fakeReminders
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:     &memUsers{},
		searches:  &memSearches{},
		settings:  &memSettings{},
		sessions:  &memSessions{},
		gateway:   &fakeGateway{},
		reminders: &fakeReminders{},
	}
	f.svc = New(Deps{
		Users:     f.users,
		Searches:  f.searches,
		Settings:  f.settings,
		Sessions:  f.sessions,
		Gateway:   f.gateway,
		Passwords: auth.NewPasswordServiceWithCost(bcrypt.MinCost),
		Reminders: f.reminders,
		Surface:   state.NewSurface(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func (f *fixture) snapshot() state.Snapshot {
	return f.svc.Surface().Snapshot()
}

func intp(v int) *int { return &v }
