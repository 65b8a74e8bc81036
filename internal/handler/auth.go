package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/sakif/devhelper/internal/auth"
	"github.com/sakif/devhelper/internal/service"
)

// GitHubAuthenticator is the part of auth.GitHubProvider the callback
// needs. Tests swap in a fake so no request leaves the process.
type GitHubAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler manages registration, password login, logout and the
// optional GitHub sign-in.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister       → create a local account
//   - HandleLogin          → check the password and start a session
//   - HandleLogout         → destroy the session
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, find or create the user, start a session
//
// DEPENDENCY CHAIN:
//   - users    *service.AuthService  → account rules and password checks
//   - sessions *auth.Sessions        → server-side session + signed cookie
//   - github   GitHubAuthenticator   → nil when GitHub sign-in is not configured
//   - state    *auth.StateCookie     → signed OAuth state cookie
type AuthHandler struct {
	users    *service.AuthService
	sessions *auth.Sessions
	github   GitHubAuthenticator
	state    *auth.StateCookie
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github and state may be nil, in
// which case the GitHub routes answer 404.
func NewAuthHandler(
	users *service.AuthService,
	sessions *auth.Sessions,
	github GitHubAuthenticator,
	state *auth.StateCookie,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		github:   github,
		state:    state,
		logger:   logger,
	}
}

// HandleRegister creates a local account and sends the user to the login
// page. It does not log the new user in.
//
// HTTP: POST /register
// FORM: username, password
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, r, h.logger, err, "Error in registering the user")
		return
	}

	_, err := h.users.Register(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		writeError(w, r, h.logger, err, "Error in registering the user")
		return
	}

	http.Redirect(w, r, auth.LoginPath, http.StatusFound)
}

// HandleLogin checks the credentials and starts a session.
//
// HTTP: POST /login
// FORM: username, password
//
// Unknown user and wrong password get the same 400 and the same message,
// and no cookie is set in either case.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, r, h.logger, err, "Error in logging in")
		return
	}

	user, err := h.users.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		writeError(w, r, h.logger, err, "Error in logging in")
		return
	}

	if _, err := h.sessions.Start(r.Context(), w, r, user.ID); err != nil {
		writeError(w, r, h.logger, err, "Error in logging in")
		return
	}

	http.Redirect(w, r, "/snippets", http.StatusFound)
}

// HandleLogout destroys the current session, if any, and redirects to the
// login page.
//
// HTTP: GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		writeError(w, r, h.logger, err, "Error in logging out")
		return
	}
	http.Redirect(w, r, auth.LoginPath, http.StatusFound)
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// We issue a random state value and keep a signed copy in a short-lived
// cookie. When GitHub calls back, HandleGitHubCallback checks the two
// match. This proves the callback was initiated by this browser, not by
// an attacker's link.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil || h.state == nil {
		http.NotFound(w, r)
		return
	}

	state, err := h.state.Issue(w)
	if err != nil {
		writeError(w, r, h.logger, err, "Error in logging in")
		return
	}

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusFound)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Find or create the local user
//  4. Start a session exactly as a password login does
//  5. Redirect to the snippet list
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil || h.state == nil {
		http.NotFound(w, r)
		return
	}

	// --- Step 1: Validate CSRF state ---
	query := r.URL.Query()
	if err := h.state.Verify(w, r, query.Get("state")); err != nil {
		h.logger.Warn("auth callback: state mismatch", slog.String("error", err.Error()))
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "Invalid OAuth state")
		return
	}

	// The user pressed "Cancel" on GitHub's consent screen.
	if errParam := query.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return
	}

	// --- Step 2: Exchange code for GitHub user profile ---
	code := query.Get("code")
	if code == "" {
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "Missing OAuth code")
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("github exchange: %w", err), "Error in logging in")
		return
	}

	// --- Step 3: Find or create the user ---
	user, err := h.users.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, r, h.logger, err, "Error in logging in")
		return
	}

	// --- Step 4: Start the session ---
	if _, err := h.sessions.Start(r.Context(), w, r, user.ID); err != nil {
		writeError(w, r, h.logger, err, "Error in logging in")
		return
	}

	// --- Step 5: Redirect to the app ---
	http.Redirect(w, r, "/snippets", http.StatusFound)
}
