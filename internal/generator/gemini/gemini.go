// Package gemini implements generator.Generator on top of the Gemini API
// using the official google.golang.org/genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/devhelper/internal/generator"
	"google.golang.org/genai"
)

var _ generator.Generator = (*Generator)(nil)

// ErrEmptyResponse means the model answered without any text, e.g. when
// the response was blocked by a safety filter.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Generator sends prompts to Gemini.
type Generator struct {
	client *genai.Client
	config Config
	logger *slog.Logger
}

// New creates a Gemini-backed generator. Defaults from DefaultConfig fill
// an empty Model or Timeout.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	defaults := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Generator{client: client, config: cfg, logger: logger}, nil
}

// Generate forwards prompt to the configured model and returns its text.
// There are no retries: a failed call is reported to the user as is.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generating content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}

	g.logger.Debug("generation complete",
		slog.String("model", g.config.Model),
		slog.Duration("duration", time.Since(start)),
		slog.Int("chars", len(text)),
	)
	return text, nil
}
