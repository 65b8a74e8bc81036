package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/model"
	"github.com/sakif/devhelper/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new account.
//
// UNIQUENESS LIVES IN THE SCHEMA:
// The service checks for an existing username first so it can answer with
// a friendly message, but two concurrent registrations can both pass that
// check. The UNIQUE constraint on users.username is what actually decides,
// and a violation comes back here as apperror.ErrConflict.
//
// A zero GitHubID is written as NULL: SQLite allows any number of NULLs in
// a UNIQUE column, so only linked accounts compete for github_id.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = db.now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, github_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		nullableGitHubID(user.GitHubID),
		toUnixNano(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "User already exists")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, "id", id, `WHERE id = ?`, id)
}

// GetUserByUsername is the login lookup. Usernames are matched exactly.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username", username, `WHERE username = ?`, username)
}

func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.getUser(ctx, "github id", fmt.Sprint(githubID), `WHERE github_id = ?`, githubID)
}

// getUser runs the shared SELECT with the given WHERE clause. The clause is
// always one of the constants above, never user input.
func (db *DB) getUser(ctx context.Context, key, display, where string, arg any) (*model.User, error) {
	var (
		u         model.User
		githubID  sql.NullInt64
		createdAt int64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, github_id, created_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&githubID,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", display)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s %s: %w", key, display, err)
	}

	u.GitHubID = githubID.Int64
	u.CreatedAt = fromUnixNano(createdAt)
	return &u, nil
}

func nullableGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
