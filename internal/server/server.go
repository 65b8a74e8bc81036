// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (server_test.go drives the full router over httptest)
// - Reusable (the CLI and the tests build the same server)
// - Clean (the CLI only opens connections and calls New/Start)
//
// DEPENDENCY INJECTION FLOW:
// The CLI opens:
//   sqlite.DB, optionally redisstore.SessionStore, the Gemini generator
// Server.New() creates:
//   auth.Sessions → services → handlers → routes
//
// This is the "composition root" pattern — all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/devhelper/internal/auth"
	"github.com/sakif/devhelper/internal/generator"
	"github.com/sakif/devhelper/internal/handler"
	"github.com/sakif/devhelper/internal/middleware"
	"github.com/sakif/devhelper/internal/repository"
	"github.com/sakif/devhelper/internal/service"
	"github.com/sakif/devhelper/web"
)

// Config holds server configuration.
// Using a struct for config (instead of individual parameters) makes it easy to:
// - Add new config options without changing function signatures
// - Pass config around as a single value
type Config struct {
	Addr          string
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool // set the Secure flag on cookies (HTTPS deployments)

	GenerateRate  float64 // generations per second per user, on average
	GenerateBurst int

	// JanitorInterval is how often expired sessions are pruned. Zero
	// means every 10 minutes.
	JanitorInterval time.Duration
}

// Store is the document store: users and snippets, plus sessions unless
// Deps.Sessions overrides them. *sqlite.DB satisfies it.
type Store interface {
	repository.UserRepository
	repository.SnippetRepository
	repository.SessionRepository
	Ping(ctx context.Context) error
}

// Deps are the collaborators the CLI opens and owns. The server uses them
// but never closes them.
type Deps struct {
	Store Store
	// Sessions replaces Store as the session store, e.g. Redis.
	Sessions repository.SessionRepository
	// Generator is the text-generation provider. Nil means unavailable.
	Generator generator.Generator
	// Passwords defaults to bcrypt at the default cost.
	Passwords service.PasswordHasher
	// GitHub enables "Sign in with GitHub". Nil leaves it off.
	GitHub handler.GitHubAuthenticator
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	sessions *auth.Sessions
}

// New builds a Server with every route wired.
//
// DEPENDENCY INJECTION & WIRING:
// This is where the entire dependency chain is assembled:
//  1. Session manager on top of the chosen session store
//  2. Services on top of the repositories and the generator
//  3. Handlers on top of the services and the renderer
//  4. Routes on top of the handlers
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete sqlite.DB)
// - Handlers get services (not the repository or DB)
func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: a store is required")
	}
	if deps.Generator == nil {
		deps.Generator = generator.Unavailable{}
	}
	if deps.Passwords == nil {
		deps.Passwords = auth.NewPasswordService()
	}
	sessionStore := repository.SessionRepository(deps.Store)
	if deps.Sessions != nil {
		sessionStore = deps.Sessions
	}

	tokens, err := auth.NewTokenService(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		sessions: auth.NewSessions(sessionStore, tokens, cfg.SessionTTL, cfg.SecureCookies),
	}

	if err := s.setupRoutes(deps, sessionStore); err != nil {
		return nil, fmt.Errorf("server: setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                        → home page                         (public)
// GET    /login, /register        → forms                             (public)
// POST   /login, /register        → authenticate / create account     (public)
// GET    /logout                  → destroy session                   (public)
// GET    /add-snippet             → add form                          (public)
// GET    /snippets                → list, ?tag= filter                (guard)
// GET    /edit-snippet/{id}       → edit form                         (guard)
// POST   /edit-snippet/{id}       → update                            (guard)
// POST   /add-snippet             → create                            (guard)
// POST   /save-snippet            → create, from the generate page    (guard)
// POST   /delete-snippet/{id}     → delete                            (guard)
// GET    /generate                → prompt form                       (guard)
// POST   /generate                → generate, rate limited per user   (guard)
// GET    /auth/github/*           → GitHub sign-in, when configured   (public)
// GET    /healthz, /metrics       → probes
// GET    /static/*                → embedded CSS
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info
// 5. Metrics: counts requests by route pattern
func (s *Server) setupRoutes(deps Deps, sessionStore repository.SessionRepository) error {
	metrics := middleware.NewMetrics()

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Middleware)

	// === Static Files & Probes ===
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))
	s.router.Handle("/metrics", metrics.Handler())

	probes := map[string]handler.Pinger{"database": deps.Store}
	if p, ok := sessionStore.(handler.Pinger); ok && deps.Sessions != nil {
		probes["sessions"] = p
	}
	s.router.Get("/healthz", handler.NewHealthHandler(probes, s.logger).HandleHealth)

	// === Services ===
	authService := service.NewAuthService(deps.Store, deps.Passwords, s.logger)
	snippetService := service.NewSnippetService(deps.Store, s.logger)
	generateService := service.NewGenerateService(deps.Generator, metrics, s.logger)

	// === Handlers ===
	renderer, err := handler.NewRenderer(authService, s.logger)
	if err != nil {
		return err
	}

	var state *auth.StateCookie
	if deps.GitHub != nil {
		state = auth.NewStateCookie(s.config.SessionSecret, s.config.SecureCookies)
	}

	pages := handler.NewPageHandler(renderer, deps.GitHub != nil, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.sessions, deps.GitHub, state, s.logger)
	snippets := handler.NewSnippetHandler(snippetService, renderer, s.logger)
	generate := handler.NewGenerateHandler(generateService, renderer, s.logger)

	limiter := middleware.NewRateLimiter(s.config.GenerateRate, s.config.GenerateBurst)

	// === Public Routes ===
	// Optional only resolves the session so the navigation shows the right
	// links; nothing here requires a login.
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions.Optional)

		r.Get("/", pages.HandleHome)
		r.Get("/login", pages.HandleLoginForm)
		r.Get("/register", pages.HandleRegisterForm)
		r.Get("/add-snippet", pages.HandleAddForm)

		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)

		if deps.GitHub != nil {
			r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	// === Protected Routes ===
	// The guard redirects page views to /login and answers 401 to posts.
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions.Require(s.logger))

		r.Get("/snippets", snippets.HandleList)
		r.Get("/edit-snippet/{id}", snippets.HandleEditForm)
		r.Post("/edit-snippet/{id}", snippets.HandleUpdate)
		r.Post("/add-snippet", snippets.HandleCreate)
		r.Post("/save-snippet", snippets.HandleCreate)
		r.Post("/delete-snippet/{id}", snippets.HandleDelete)

		r.Get("/generate", generate.HandleForm)
		r.With(limiter.Middleware(userKey, s.logger)).Post("/generate", generate.HandleGenerate)
	})

	return nil
}

// userKey buckets rate limits by the logged-in user.
func userKey(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
//
// The CLI cancels ctx on SIGINT/SIGTERM and closes the stores after Start
// returns, so no request ever sees a closed database.
func (s *Server) Start(ctx context.Context) error {
	// Create the HTTP server with sensible timeouts.
	// WriteTimeout leaves room for a slow generation call.
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.runJanitor(janitorCtx)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine (so it doesn't block)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.config.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Block until we are told to stop or the server fails
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		// Give in-flight requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// runJanitor prunes expired sessions until ctx is done. GetSession already
// ignores expired rows; this only keeps the table from growing.
func (s *Server) runJanitor(ctx context.Context) {
	interval := s.config.JanitorInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pruneSessions(ctx)
		}
	}
}

func (s *Server) pruneSessions(ctx context.Context) {
	n, err := s.sessions.Prune(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("pruning sessions failed", slog.String("error", err.Error()))
		}
		return
	}
	if n > 0 {
		s.logger.Debug("pruned expired sessions", slog.Int64("count", n))
	}
}
