package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/model"
)

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	session := &model.Session{
		ID:        "sess-1",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.CreatedAt.IsZero() {
		t.Error("CreateSession() did not set CreatedAt")
	}

	fetched, err := db.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if fetched.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", fetched.UserID, user.ID)
	}
	if !fetched.ExpiresAt.Equal(session.ExpiresAt.UTC()) {
		t.Errorf("ExpiresAt = %v, want %v", fetched.ExpiresAt, session.ExpiresAt)
	}

	if err := db.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := db.GetSession(ctx, "sess-1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: expected ErrNotFound, got %v", err)
	}

	// Deleting again is fine.
	if err := db.DeleteSession(ctx, "sess-1"); err != nil {
		t.Errorf("second DeleteSession() error = %v", err)
	}
}

func TestGetSession_Expired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }

	err := db.CreateSession(ctx, &model.Session{ID: "old", UserID: user.ID, ExpiresAt: now.Add(time.Minute)})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := db.GetSession(ctx, "old"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound at expiry, got %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }

	for id, ttl := range map[string]time.Duration{"a": time.Minute, "b": 2 * time.Minute, "c": time.Hour} {
		if err := db.CreateSession(ctx, &model.Session{ID: id, UserID: user.ID, ExpiresAt: now.Add(ttl)}); err != nil {
			t.Fatalf("CreateSession(%s) error = %v", id, err)
		}
	}

	now = now.Add(5 * time.Minute)
	removed, err := db.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, err := db.GetSession(ctx, "c"); err != nil {
		t.Errorf("live session was pruned: %v", err)
	}
}
