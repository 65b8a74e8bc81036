// Package handler contains the HTTP request handlers of the web app.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Or more commonly, we use http.HandlerFunc — a function with the right signature
// that automatically satisfies the Handler interface. Chi's router accepts these directly.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path params, query, form body)
// 2. Call the service layer
// 3. Write the HTTP response: a rendered page, a redirect or a plain-text error
//
// Handlers should NOT contain business logic — they are the "glue" between HTTP and your app.
package handler

import (
	"log/slog"
	"net/http"
)

// PageHandler serves the static form pages: home, login, register and add.
//
// WHY A STRUCT?
// By using a struct, we can:
// 1. Share the parsed templates (parsed once at startup) across requests
// 2. Inject dependencies (renderer, logger) without global variables
// 3. Group related handlers together
type PageHandler struct {
	renderer      *Renderer
	githubEnabled bool
	logger        *slog.Logger
}

// NewPageHandler creates a PageHandler. githubEnabled shows the
// "Sign in with GitHub" button on the login page.
func NewPageHandler(renderer *Renderer, githubEnabled bool, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		renderer:      renderer,
		githubEnabled: githubEnabled,
		logger:        logger,
	}
}

type loginPage struct {
	GitHubEnabled bool
}

// HandleHome serves the landing page.
//
// HTTP: GET /
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, PageHome, "Home", nil)
}

// HandleLoginForm serves the login form.
//
// HTTP: GET /login
func (h *PageHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, PageLogin, "Log in", loginPage{GitHubEnabled: h.githubEnabled})
}

// HandleRegisterForm serves the registration form.
//
// HTTP: GET /register
func (h *PageHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, PageRegister, "Register", nil)
}

// HandleAddForm serves the empty snippet form. The page itself is public;
// submitting it goes through the session guard.
//
// HTTP: GET /add-snippet
func (h *PageHandler) HandleAddForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, PageAdd, "Add snippet", nil)
}
