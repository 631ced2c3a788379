package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/playmate/internal/apperror"
	"github.com/sakif/playmate/internal/model"
)

func startTestSession(t *testing.T, db *DB, userID string) *model.GamingSession {
	t.Helper()
	session := &model.GamingSession{UserID: userID, GameType: "CS2"}
	if err := db.Start(context.Background(), session); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return session
}

func TestSessionStartAndOpen(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "robin", "111")

	session := startTestSession(t, db, user.ID)
	if session.ID == "" {
		t.Error("Start() did not set session.ID")
	}

	open, err := db.Open(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if open.ID != session.ID {
		t.Errorf("Open() ID = %q, want %q", open.ID, session.ID)
	}
	if !open.Active() {
		t.Error("Open() returned an inactive session")
	}
}

func TestSessionStartClosesPreviousOpen(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "robin", "111")

	first := startTestSession(t, db, user.ID)
	second := startTestSession(t, db, user.ID)

	open, err := db.Open(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if open.ID != second.ID {
		t.Errorf("Open() ID = %q, want the newer session %q", open.ID, second.ID)
	}
	_ = first
}

func TestSessionEndIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "robin", "111")
	session := startTestSession(t, db, user.ID)

	now := time.Now()
	if err := db.End(context.Background(), session.ID, now); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := db.End(context.Background(), session.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("End() twice error = %v", err)
	}

	if _, err := db.Open(context.Background(), user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Open() after End() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRecordBreak(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "robin", "111")
	session := startTestSession(t, db, user.ID)

	if err := db.RecordBreak(context.Background(), session.ID, time.Now()); err != nil {
		t.Fatalf("RecordBreak() error = %v", err)
	}

	open, err := db.Open(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if open.BreakCount != 1 {
		t.Errorf("BreakCount = %d, want 1", open.BreakCount)
	}
	if open.LastBreakTime == nil {
		t.Error("LastBreakTime not set after RecordBreak()")
	}
}

func TestSessionRecordBreak_ClosedSession(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "robin", "111")
	session := startTestSession(t, db, user.ID)

	if err := db.End(context.Background(), session.ID, time.Now()); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	err := db.RecordBreak(context.Background(), session.ID, time.Now())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("RecordBreak() on closed session error = %v, want ErrNotFound", err)
	}
}

func TestSessionOnDay(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "robin", "111")

	session := startTestSession(t, db, user.ID)
	if err := db.End(context.Background(), session.ID, time.Now()); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	startTestSession(t, db, user.ID)

	today, err := db.OnDay(context.Background(), user.ID, time.Now())
	if err != nil {
		t.Fatalf("OnDay() error = %v", err)
	}
	if len(today) != 2 {
		t.Fatalf("OnDay() returned %d sessions, want 2", len(today))
	}

	yesterday, err := db.OnDay(context.Background(), user.ID, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("OnDay() error = %v", err)
	}
	if len(yesterday) != 0 {
		t.Errorf("OnDay(yesterday) returned %d sessions, want 0", len(yesterday))
	}
}
