// Package config loads the application settings from the environment,
// optionally layered over a YAML file named by CONFIG_PATH.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is everything the server and the CLI need to start.
type Config struct {
	Env      string `yaml:"env"       env:"APP_ENV"   env-default:"development"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Port     int    `yaml:"port"      env:"PORT"      env-default:"4000"`
	DBPath   string `yaml:"db_path"   env:"DB_PATH"   env-default:"data/devhelper.db"`

	Session  Session  `yaml:"session"`
	Gemini   Gemini   `yaml:"gemini"`
	Generate Generate `yaml:"generate"`
	GitHub   GitHub   `yaml:"github"`
}

// Session configures the login session cookie and where sessions live.
type Session struct {
	Secret        string        `yaml:"secret"         env:"SESSION_SECRET"         env-required:"true"`
	TTL           time.Duration `yaml:"ttl"            env:"SESSION_TTL"            env-default:"168h"`
	RedisAddr     string        `yaml:"redis_addr"     env:"SESSION_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"SESSION_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db"       env:"SESSION_REDIS_DB"       env-default:"0"`
}

// Gemini configures the text-generation provider. An empty APIKey leaves
// generation unavailable.
type Gemini struct {
	APIKey  string        `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model   string        `yaml:"model"   env:"GEMINI_MODEL"   env-default:"gemini-2.0-flash-001"`
	Timeout time.Duration `yaml:"timeout" env:"GEMINI_TIMEOUT" env-default:"30s"`
}

// Generate is the per-user limit on POST /generate.
type Generate struct {
	Rate  float64 `yaml:"rate"  env:"GENERATE_RATE"  env-default:"0.2"`
	Burst int     `yaml:"burst" env:"GENERATE_BURST" env-default:"5"`
}

// GitHub enables "Sign in with GitHub" when both client values are set.
type GitHub struct {
	ClientID     string `yaml:"client_id"     env:"GITHUB_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GITHUB_CLIENT_SECRET"`
	CallbackURL  string `yaml:"callback_url"  env:"GITHUB_CALLBACK_URL"`
}

// MinSecretLength matches auth.NewTokenService.
const MinSecretLength = 16

// Load reads the configuration. With CONFIG_PATH set, the YAML file is read
// first and environment variables override it; otherwise only the
// environment is used.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values cleanenv cannot express as tags.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Session.Secret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d characters", MinSecretLength))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Generate.Rate <= 0 {
		errs = append(errs, errors.New("GENERATE_RATE must be positive"))
	}
	if c.Generate.Burst < 1 {
		errs = append(errs, errors.New("GENERATE_BURST must be at least 1"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// IsProduction switches on JSON logs and Secure cookies.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// GitHubEnabled reports whether both OAuth client values are set.
func (c *Config) GitHubEnabled() bool {
	return c.GitHub.ClientID != "" && c.GitHub.ClientSecret != ""
}

// RedisSessions reports whether sessions live in Redis instead of SQLite.
func (c *Config) RedisSessions() bool {
	return c.Session.RedisAddr != ""
}

// Addr is the listen address for net/http.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SlogLevel is LogLevel as a slog.Level. Validate has already rejected
// unknown names, so this falls back to Info only for a zero Config.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", s)
	}
	return level, nil
}
