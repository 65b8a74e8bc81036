package gemini

import (
	"time"
)

// Config holds the configuration for the Gemini provider.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string
	// Model is the model name passed to GenerateContent.
	Model string
	// Timeout bounds a single generation call.
	Timeout time.Duration
	// BaseURL overrides the API endpoint. Empty means Google's default;
	// tests point it at an httptest server.
	BaseURL string
}

// DefaultConfig provides the defaults used when the environment leaves
// model and timeout unset.
func DefaultConfig() Config {
	return Config{
		Model: "gemini-2.0-flash-001",
		// Generation is slow compared to everything else on the page, but
		// a request should not hang forever on a stuck upstream.
		Timeout: 30 * time.Second,
	}
}
