package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/model"
	"github.com/sakif/devhelper/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession stores a session record. The caller generates the ID and
// expiry; the store only persists them.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = db.now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		toUnixNano(session.ExpiresAt),
		toUnixNano(session.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating session for user %s: %w", session.UserID, err)
	}
	return nil
}

// GetSession returns the live session with the given ID.
//
// Expiry is checked in the query, so a record the janitor has not pruned
// yet still reads as NotFound once its time is up.
func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var (
		s                    model.Session
		expiresAt, createdAt int64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at
		 FROM sessions
		 WHERE id = ? AND expires_at > ?`,
		id, toUnixNano(db.now()),
	).Scan(&s.ID, &s.UserID, &expiresAt, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}

	s.ExpiresAt = fromUnixNano(expiresAt)
	s.CreatedAt = fromUnixNano(createdAt)
	return &s, nil
}

// DeleteSession removes the session. Deleting an unknown ID is a no-op, so
// logging out twice is harmless.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions prunes every session whose expiry has passed.
func (db *DB) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`,
		toUnixNano(db.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: pruning sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
