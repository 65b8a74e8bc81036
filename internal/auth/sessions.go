package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/model"
	"github.com/sakif/devhelper/internal/repository"
)

// SessionCookieName is the cookie carrying the signed session reference.
const SessionCookieName = "devhelper_session"

// DefaultSessionTTL is used when NewSessions is given a non-positive TTL.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Sessions ties the session store to the cookie on the wire.
//
// The store is an interface, so the same manager works against the SQLite
// sessions table and the Redis store. Sessions never slide: the expiry is
// fixed when Start runs.
type Sessions struct {
	store  repository.SessionRepository
	tokens *TokenService
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessions builds a session manager. secure sets the cookie's Secure
// flag and should be on whenever the site is served over HTTPS.
func NewSessions(store repository.SessionRepository, tokens *TokenService, ttl time.Duration, secure bool) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		store:  store,
		tokens: tokens,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Start logs userID in: any session the request already carries is
// destroyed first, then a fresh record is stored and its cookie set.
func (s *Sessions) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) (*model.Session, error) {
	if id, err := s.sessionID(r); err == nil {
		if err := s.store.DeleteSession(ctx, id); err != nil {
			return nil, fmt.Errorf("auth: dropping previous session: %w", err)
		}
	}

	now := s.now()
	session := &model.Session{
		ID:        xid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl).UTC(),
		CreatedAt: now.UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("auth: storing session: %w", err)
	}

	token, err := s.tokens.Generate(session.ID, session.ExpiresAt)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// Current returns the live session the request carries.
//
// A missing, forged or expired cookie and a record that no longer exists
// all come back as apperror.ErrUnauthenticated. Only store faults are
// reported as other errors.
func (s *Sessions) Current(r *http.Request) (*model.Session, error) {
	id, err := s.sessionID(r)
	if err != nil {
		return nil, apperror.Unauthenticated("You must be logged in")
	}

	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("You must be logged in")
		}
		return nil, fmt.Errorf("auth: loading session: %w", err)
	}
	if session.Expired(s.now()) {
		return nil, apperror.Unauthenticated("You must be logged in")
	}
	return session, nil
}

// Destroy ends the request's session, if it has one, and clears the cookie.
// Calling it without a session is not an error.
func (s *Sessions) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if id, err := s.sessionID(r); err == nil {
		if err := s.store.DeleteSession(ctx, id); err != nil {
			return fmt.Errorf("auth: destroying session: %w", err)
		}
	}
	s.clearCookie(w)
	return nil
}

// Prune removes expired records from the store.
func (s *Sessions) Prune(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx)
}

// sessionID extracts the session id from a verified, unexpired cookie.
func (s *Sessions) sessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return s.tokens.Validate(cookie.Value)
}

func (s *Sessions) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
