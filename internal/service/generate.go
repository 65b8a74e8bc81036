package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devhelper/internal/apperror"
	"github.com/sakif/devhelper/internal/generator"
)

// Generation outcomes reported to a GenerationRecorder.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// GenerationRecorder counts generation attempts by outcome. The metrics
// middleware implements it; nil means "don't record".
type GenerationRecorder interface {
	ObserveGeneration(outcome string)
}

// GenerateService forwards prompts to the text-generation provider.
//
// Nothing is saved here. The generate page shows the result with a Save
// form, and saving goes through SnippetService.Create like any other new
// snippet.
type GenerateService struct {
	gen      generator.Generator
	recorder GenerationRecorder
	logger   *slog.Logger
}

func NewGenerateService(gen generator.Generator, recorder GenerationRecorder, logger *slog.Logger) *GenerateService {
	return &GenerateService{gen: gen, recorder: recorder, logger: logger}
}

// Generate returns the provider's text for prompt.
//
// A blank prompt is rejected before the provider is contacted. Otherwise
// the prompt is sent exactly as typed, surrounding whitespace included.
func (s *GenerateService) Generate(ctx context.Context, userID, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		s.observe(OutcomeRejected)
		return "", apperror.ValidationFailed("prompt", "Prompt cannot be empty")
	}

	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.observe(OutcomeError)
		s.logger.Error("snippet generation failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("generating snippet: %w", err)
	}

	s.observe(OutcomeSuccess)
	s.logger.Info("snippet generated",
		slog.String("userID", userID),
		slog.Int("promptChars", len(prompt)),
		slog.Int("outputChars", len(out)),
	)
	return out, nil
}

func (s *GenerateService) observe(outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveGeneration(outcome)
	}
}
