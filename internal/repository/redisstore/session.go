// Package redisstore keeps login sessions in Redis instead of SQLite.
//
// Each session is one JSON value under "devhelper:session:<id>" with a TTL
// equal to the time left until its expiry, so Redis drops dead sessions on
// its own and DeleteExpiredSessions has nothing to do.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/model"
	"github.com/sakif/devhelper/internal/repository"
)

const keyPrefix = "devhelper:session:"

var _ repository.SessionRepository = (*SessionStore)(nil)

// Options mirrors the subset of redis.Options the config exposes.
type Options struct {
	Addr     string
	Password string
	DB       int
}

type SessionStore struct {
	client *redis.Client
	now    func() time.Time
}

// Connect dials Redis and pings it so a bad address fails at start-up.
func Connect(ctx context.Context, opts Options) (*SessionStore, error) {
	const op = "redisstore.Connect"
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &SessionStore{client: client, now: time.Now}, nil
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) CreateSession(ctx context.Context, session *model.Session) error {
	const op = "redisstore.CreateSession"
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now().UTC()
	}

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("%s: session %s already expired", op, session.ID)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.client.Set(ctx, keyPrefix+session.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	const op = "redisstore.GetSession"
	val, err := s.client.Get(ctx, keyPrefix+id).Result()
	if err == redis.Nil {
		return nil, apperror.NotFound("session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var session model.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// Redis expiry has millisecond granularity; the record's own expiry is
	// the authority.
	if session.Expired(s.now()) {
		return nil, apperror.NotFound("session", id)
	}
	return &session, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	const op = "redisstore.DeleteSession"
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteExpiredSessions is a no-op: key TTLs already evict expired sessions.
func (s *SessionStore) DeleteExpiredSessions(context.Context) (int64, error) {
	return 0, nil
}

// Ping reports whether Redis is reachable. Used by /healthz.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
