// Authentication business logic.
//
// AuthService is the business logic layer for accounts. It sits between
// the HTTP handlers (and the CLI) and the user store:
//
//	AuthHandler (HTTP) ─┐
//	                    ├→ AuthService (business rules) → UserRepository (DB)
//	"user add" (CLI)  ──┘                               ↘ PasswordService (bcrypt)
//
// Sessions are NOT created here: starting a session means setting a cookie,
// which is an HTTP concern, so the handler does it with auth.Sessions after
// Login returns a user.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator"
	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/auth"
	"github.com/sakif/devhelper/internal/model"
	"github.com/sakif/devhelper/internal/repository"
)

// PasswordHasher is the part of auth.PasswordService the service needs.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

type credentials struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required"`
}

// AuthService handles registration and login.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - passwords  PasswordHasher            → bcrypt hashing
//   - logger     *slog.Logger              → structured logging
type AuthService struct {
	users     repository.UserRepository
	passwords PasswordHasher
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(users repository.UserRepository, passwords PasswordHasher, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		validate:  newValidator(),
		logger:    logger,
	}
}

// Register creates a local account.
//
// Usernames are trimmed and otherwise matched exactly. A taken username is
// an apperror.ErrConflict with the message "User already exists". The
// lookup below answers the common case; the UNIQUE constraint behind
// CreateUser settles two registrations racing for the same name.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	in := credentials{Username: strings.TrimSpace(username), Password: password}
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be %d bytes or less", auth.MaxPasswordBytes))
	}

	_, err := s.users.GetUserByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return nil, apperror.Conflict("user", "User already exists")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("checking username: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{Username: in.Username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to register user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login checks a username and password.
//
// An unknown username and a wrong password produce the same
// apperror.ErrInvalidCredentials, so the response never reveals which
// usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			// A malformed stored hash is worth knowing about, but the
			// user still just sees "invalid credentials".
			s.logger.Warn("password check failed",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.InvalidCredentials()
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return user, nil
}

// LoginWithGitHub finds or creates the account linked to a GitHub profile.
//
// First sign-in creates a user named after the GitHub login, with no
// password. If a local account already holds that username the sign-in is
// refused with a Conflict rather than silently linking the two.
func (s *AuthService) LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	if gh == nil || gh.ID == 0 {
		return nil, fmt.Errorf("service/auth: GitHub profile must not be empty")
	}

	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	if err == nil {
		s.logger.Info("user authenticated via GitHub", slog.String("userID", user.ID))
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("looking up GitHub user %d: %w", gh.ID, err)
	}

	user = &model.User{Username: gh.Login, GitHubID: gh.ID}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict("user",
				fmt.Sprintf("The username %q is already taken by a local account", gh.Login))
		}
		return nil, fmt.Errorf("creating GitHub user %d: %w", gh.ID, err)
	}

	s.logger.Info("user registered via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// GetUserByID returns the user for the given internal ID. The page renderer
// uses it to show "Signed in as <username>" in the navigation.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}
