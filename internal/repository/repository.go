package repository

import (
	"context"

	"github.com/sakif/devhelper/internal/model"
)

// SnippetFilter narrows a List call. UserID is mandatory: snippets are
// always listed per owner. Tag, when set, must already be normalized.
type SnippetFilter struct {
	UserID string
	Tag    string
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, filter SnippetFilter) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	// DeleteOwned removes the snippet only when it belongs to userID and
	// reports whether a row was removed.
	DeleteOwned(ctx context.Context, id, userID string) (bool, error)
}

type UserRepository interface {
	// CreateUser fails with apperror.ErrConflict when the username (or the
	// linked GitHub ID) is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	// GetSession returns apperror.ErrNotFound for unknown and expired ids.
	GetSession(ctx context.Context, id string) (*model.Session, error)
	// DeleteSession is idempotent: deleting an unknown id is not an error.
	DeleteSession(ctx context.Context, id string) error
	// DeleteExpiredSessions prunes records past their expiry and returns how
	// many were removed.
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
