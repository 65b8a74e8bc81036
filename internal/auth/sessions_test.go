package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/model"
)

// memoryStore is a hand-written SessionRepository fake.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	now      func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]model.Session{}, now: time.Now}
}

func (m *memoryStore) CreateSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memoryStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Expired(m.now()) {
		return nil, apperror.NotFound("session", id)
	}
	return &s, nil
}

func (m *memoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memoryStore) DeleteExpiredSessions(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.Expired(m.now()) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func newTestSessions(t *testing.T) (*Sessions, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	return NewSessions(store, newTestTokenService(t), time.Hour, false), store
}

// startSession logs userID in and returns the cookie the browser would keep.
func startSession(t *testing.T, s *Sessions, userID string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	_, err := s.Start(context.Background(), rec, req, userID)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessionsStart_SetsCookieAndRecord(t *testing.T) {
	s, store := newTestSessions(t)

	cookie := startSession(t, s, "user-1")

	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 1, store.count())

	req := httptest.NewRequest(http.MethodGet, "/snippets", nil)
	req.AddCookie(cookie)
	session, err := s.Current(req)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
}

func TestSessionsStart_ReplacesPreviousSession(t *testing.T) {
	s, store := newTestSessions(t)
	old := startSession(t, s, "user-1")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(old)
	_, err := s.Start(context.Background(), rec, req, "user-2")
	require.NoError(t, err)

	assert.Equal(t, 1, store.count(), "the old record should be gone")

	stale := httptest.NewRequest(http.MethodGet, "/", nil)
	stale.AddCookie(old)
	_, err = s.Current(stale)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestSessionsCurrent_NoCookie(t *testing.T) {
	s, _ := newTestSessions(t)

	_, err := s.Current(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestSessionsCurrent_ForgedCookie(t *testing.T) {
	s, _ := newTestSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	_, err := s.Current(req)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestSessionsCurrent_ExpiredRecord(t *testing.T) {
	s, store := newTestSessions(t)
	cookie := startSession(t, s, "user-1")

	// The cookie itself is still within its exp, but the server clock has
	// moved past the record's expiry.
	later := time.Now().Add(2 * time.Hour)
	s.now = func() time.Time { return later }
	store.now = s.now

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	_, err := s.Current(req)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestSessionsDestroy(t *testing.T) {
	s, store := newTestSessions(t)
	cookie := startSession(t, s, "user-1")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	require.NoError(t, s.Destroy(context.Background(), rec, req))

	assert.Equal(t, 0, store.count())
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, SessionCookieName, cleared[0].Name)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestSessionsDestroy_WithoutSession(t *testing.T) {
	s, _ := newTestSessions(t)

	rec := httptest.NewRecorder()
	err := s.Destroy(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/logout", nil))
	assert.NoError(t, err)
}

func TestSessionsPrune(t *testing.T) {
	s, store := newTestSessions(t)
	startSession(t, s, "user-1")
	startSession(t, s, "user-2")

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	n, err := s.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
