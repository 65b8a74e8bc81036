package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/devhelper/internal/auth"
	"github.com/sakif/devhelper/internal/config"
	"github.com/sakif/devhelper/internal/generator/gemini"
	"github.com/sakif/devhelper/internal/repository/redisstore"
	"github.com/sakif/devhelper/internal/server"
)

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web app",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.OutOrStdout())

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return serve(ctx, cfg, migrate, logger)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "create or upgrade the database schema on startup")
	return cmd
}

// serve opens every store and provider, runs the server until ctx is
// cancelled, then closes them in reverse order.
func serve(ctx context.Context, cfg *config.Config, migrate bool, logger *slog.Logger) error {
	db, err := openStore(ctx, cfg.DBPath, migrate)
	if err != nil {
		return err
	}
	defer db.Close()

	deps := server.Deps{
		Store:     db,
		Passwords: auth.NewPasswordService(),
	}

	if cfg.RedisSessions() {
		sessions, err := redisstore.Connect(ctx, redisstore.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		if err != nil {
			return err
		}
		defer sessions.Close()
		deps.Sessions = sessions
		logger.Info("sessions stored in redis", slog.String("addr", cfg.Session.RedisAddr))
	}

	if cfg.Gemini.APIKey != "" {
		gen, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			Timeout: cfg.Gemini.Timeout,
		}, logger)
		if err != nil {
			return err
		}
		deps.Generator = gen
	} else {
		logger.Warn("GEMINI_API_KEY not set, snippet generation is unavailable")
	}

	if cfg.GitHubEnabled() {
		deps.GitHub = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	}

	srv, err := server.New(server.Config{
		Addr:          cfg.Addr(),
		SessionSecret: cfg.Session.Secret,
		SessionTTL:    cfg.Session.TTL,
		SecureCookies: cfg.IsProduction(),
		GenerateRate:  cfg.Generate.Rate,
		GenerateBurst: cfg.Generate.Burst,
	}, deps, logger)
	if err != nil {
		return err
	}

	logger.Info("starting devhelper",
		slog.String("version", Version),
		slog.String("env", cfg.Env),
		slog.String("database", cfg.DBPath),
		slog.Bool("github", cfg.GitHubEnabled()),
	)
	return srv.Start(ctx)
}
