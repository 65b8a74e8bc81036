package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/sakif/devhelper/internal/apperror"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "userID", id), ANY package that knows the string "userID"
// can read or shadow your value. Using a package-private type prevents collisions.
type contextKey string

const userIDKey contextKey = "userID"

// LoginPath is where the guard sends anonymous page views.
const LoginPath = "/login"

// Require is the session guard for protected routes.
//
// It resolves the session cookie and stores the user id in the request
// context. Without a live session it stops the chain:
//   - GET and HEAD (page views) are redirected to /login with 302
//   - anything else (form posts) gets 401 and a plain-text message
//
// The guard only talks to the session store. Handlers behind it can rely on
// UserIDFromContext returning a user.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func (s *Sessions) Require(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := s.Current(r)
			if err != nil {
				if !errors.Is(err, apperror.ErrUnauthenticated) {
					logger.Error("session lookup failed",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
					render.Status(r, http.StatusInternalServerError)
					render.PlainText(w, r, "Internal Server Error")
					return
				}

				if r.Method == http.MethodGet || r.Method == http.MethodHead {
					http.Redirect(w, r, LoginPath, http.StatusFound)
					return
				}
				render.Status(r, http.StatusUnauthorized)
				render.PlainText(w, r, err.Error())
				return
			}

			ctx := WithUserID(r.Context(), session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Optional resolves the session if there is one but never blocks the
// request. Public pages use it to show the right navigation links.
// Handlers check for the user via UserIDFromContext; ("", false) means
// the request is anonymous.
func (s *Sessions) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session, err := s.Current(r); err == nil {
			r = r.WithContext(WithUserID(r.Context(), session.UserID))
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID returns a copy of ctx carrying the authenticated user's ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
//
// Returns ("", false) if the request is anonymous.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
