package handler

// RESPONSE HELPERS:
// Pages are rendered by Renderer; everything that is not a page (errors,
// the health probe) goes through the helpers here.
//
// ERROR FORMAT:
// Errors are sent as short plain-text bodies, e.g.
//   400 "User already exists"
//   404 "snippet not found with id abc123"
//   500 "Error in saving the snippet"
// The browser shows them as-is; there is no client script to parse JSON.

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/sakif/devhelper/internal/apperror"
)

// maxFormBytes caps request bodies. The largest legitimate form is a
// snippet at the content limit plus a few short fields.
const maxFormBytes = 1 << 20

// statusFor maps a domain error to its HTTP status.
//
// ERROR MAPPING:
// This is where domain errors (from the service layer) get translated to HTTP.
// The service layer returns apperror.ErrValidation, apperror.ErrNotFound, etc.
// and never knows about status codes.
//
// errors.Is() walks the whole chain (via Unwrap()), so a service error
// wrapped with fmt.Errorf("...: %w", err) still maps correctly.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrInvalidCredentials),
		errors.Is(err, apperror.ErrConflict):
		return http.StatusBadRequest // 400
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized // 401
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, apperror.ErrRateLimited):
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}

// writeError sends err as a plain-text response.
//
// Client errors (4xx) carry the AppError's message. Anything else is an
// internal fault: it is logged with its full chain and the client only sees
// fallback, a fixed message naming the operation that failed.
// NEVER expose internal error details to the client: the raw error might
// contain SQL, file paths or provider responses.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	status := statusFor(err)

	message := fallback
	var appErr *apperror.AppError
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error(fallback,
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	case errors.As(err, &appErr):
		message = appErr.Message
	default:
		message = http.StatusText(status)
	}

	render.Status(r, status)
	render.PlainText(w, r, message)
}

// parseForm reads an urlencoded form body no larger than maxFormBytes.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return apperror.ValidationFailed("form", "Invalid form data")
	}
	return nil
}
