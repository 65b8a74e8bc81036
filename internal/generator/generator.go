// Package generator defines the text-generation provider the generate page
// talks to. Implementations live in subpackages (see generator/gemini).
package generator

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("generator: no text-generation provider configured")

// Generator turns a prompt into generated text.
//
// The prompt is passed through as the user typed it. Implementations must
// honour ctx cancellation and must not retry.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Unavailable is the Generator used when no API key is set. Every call
// fails with ErrUnavailable, so the rest of the app runs normally and only
// the generate page reports an error.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

// Func adapts an ordinary function to the Generator interface.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
