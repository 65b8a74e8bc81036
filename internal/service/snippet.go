// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
// In a well-structured Go web app, code is organised into three layers:
//
//   Handler (HTTP layer)    → parses requests, writes responses
//   Service (Business layer) → validates, enforces rules, orchestrates
//   Repository (Data layer) → reads/writes to the database
//
// WHY A SEPARATE SERVICE LAYER?
//
//   1. TESTING: To test business logic, you'd need to create HTTP requests.
//      With a service layer, you test business logic with plain Go function calls.
//
//   2. REUSE: The CLI's "user add" registers accounts through the same
//      AuthService the register form uses.
//
//   3. SEPARATION: Handlers only know about HTTP (status codes, forms, pages).
//      Services only know about business rules (validation, ownership).
//      Neither knows about SQL.
//
// DEPENDENCY INJECTION:
// SnippetService takes a repository.SnippetRepository (interface), NOT a
// *sqlite.DB (concrete type). In tests we pass a hand-written fake.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator"
	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/model"
	"github.com/sakif/devhelper/internal/repository"
)

// SnippetInput is what the add and edit forms submit. Tags is the raw
// comma-separated text; the service normalizes it.
type SnippetInput struct {
	Title    string
	Language string
	Content  string
	Tags     string
}

// snippetFields is SnippetInput after tag parsing, with the limits attached.
// validator's max counts runes, so Content's byte limit is checked in prepare.
type snippetFields struct {
	Title    string   `validate:"max=200"`
	Language string   `validate:"max=50"`
	Content  string
	Tags     []string `validate:"max=20,dive,max=50"`
}

// SnippetService handles business logic for code snippets.
//
// Every method takes the acting user's ID. A snippet that exists but
// belongs to someone else is treated exactly like one that does not exist,
// so ids of other users' snippets can't be probed.
type SnippetService struct {
	repo     repository.SnippetRepository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewSnippetService creates a new SnippetService.
//
// CONSTRUCTOR PATTERN IN GO:
// Convention: NewXxx returns *Xxx and takes all dependencies as parameters.
// The caller decides WHICH repository implementation to use (SQLite, fake
// for tests).
func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:     repo,
		validate: newValidator(),
		logger:   logger,
	}
}

// List returns userID's snippets, newest first. A non-empty tag keeps only
// snippets carrying that tag after the same normalization used on save, so
// "?tag= Go " matches a snippet saved with "go".
func (s *SnippetService) List(ctx context.Context, userID, tag string) ([]model.Snippet, error) {
	snippets, err := s.repo.List(ctx, repository.SnippetFilter{
		UserID: userID,
		Tag:    model.NormalizeTag(tag),
	})
	if err != nil {
		s.logger.Error("failed to list snippets",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// GetForEdit loads a snippet for its owner. Missing and foreign snippets
// both come back as apperror.ErrNotFound.
func (s *SnippetService) GetForEdit(ctx context.Context, id, userID string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.NotFound("snippet", id)
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// NotFound is already a proper apperror; anything else is a store fault.
		return nil, err
	}
	if snippet.UserID != userID {
		return nil, apperror.NotFound("snippet", id)
	}
	return snippet, nil
}

// Create validates and saves a new snippet owned by userID.
//
// Both "/add-snippet" and "/save-snippet" (the generate page's Save button)
// end up here, so there is exactly one set of rules for new snippets.
func (s *SnippetService) Create(ctx context.Context, userID string, in SnippetInput) (*model.Snippet, error) {
	fields, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:    fields.Title,
		Language: fields.Language,
		Content:  fields.Content,
		Tags:     fields.Tags,
		UserID:   userID,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("userID", userID),
		slog.Int("tags", len(snippet.Tags)),
	)
	return snippet, nil
}

// Update overwrites title, language, content and tags of the owner's
// snippet. created_at is left alone.
//
// STRATEGY: "Fetch then update"
// Fetching first gives a NotFound for missing and foreign ids before any
// write happens; the repository's owner-scoped UPDATE backs that up.
func (s *SnippetService) Update(ctx context.Context, id, userID string, in SnippetInput) (*model.Snippet, error) {
	snippet, err := s.GetForEdit(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	fields, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	snippet.Title = fields.Title
	snippet.Language = fields.Language
	snippet.Content = fields.Content
	snippet.Tags = fields.Tags

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", snippet.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated",
		slog.String("id", snippet.ID),
		slog.String("userID", userID),
	)
	return snippet, nil
}

// Delete removes the owner's snippet. Deleting an id that does not exist,
// or that belongs to another user, changes nothing and still succeeds.
func (s *SnippetService) Delete(ctx context.Context, id, userID string) error {
	deleted, err := s.repo.DeleteOwned(ctx, strings.TrimSpace(id), userID)
	if err != nil {
		s.logger.Error("failed to delete snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting snippet: %w", err)
	}

	if deleted {
		s.logger.Info("snippet deleted", slog.String("id", id), slog.String("userID", userID))
	} else {
		s.logger.Debug("delete matched no snippet", slog.String("id", id), slog.String("userID", userID))
	}
	return nil
}

func (s *SnippetService) prepare(in SnippetInput) (snippetFields, error) {
	fields := snippetFields{
		Title:    strings.TrimSpace(in.Title),
		Language: strings.TrimSpace(in.Language),
		Content:  in.Content,
		Tags:     model.ParseTags(in.Tags),
	}
	if err := s.validate.Struct(fields); err != nil {
		return snippetFields{}, validationError(err)
	}
	if len(fields.Content) > MaxContentBytes {
		return snippetFields{}, apperror.ValidationFailed("content",
			fmt.Sprintf("Content must be %d bytes or less", MaxContentBytes))
	}
	return fields, nil
}
