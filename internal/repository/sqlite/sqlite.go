// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Single-server deployments (which is most apps, honestly)
// - Development and testing (use ":memory:" for in-memory DB)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// TABLES:
//   - users         : accounts (username UNIQUE, optional github_id UNIQUE)
//   - snippets      : one row per snippet, user_id REFERENCES users(id)
//   - snippet_tags  : one row per tag, position keeps the user's order
//   - sessions      : server-side login sessions with a fixed expiry
//
// TIMESTAMPS:
// Times are stored as INTEGER unix nanoseconds (UTC). Integer columns sort
// numerically, so ORDER BY created_at is exact regardless of how a driver
// would format a DATETIME string.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// DRIVER IMPORT:
	// The sqlite package's init() registers itself with database/sql as a
	// driver named "sqlite". Usually that is a blank import; here we also
	// need its Error type to recognise constraint violations, so it gets a
	// name (aliased, since this package is also called sqlite).
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
//
// It implements SnippetRepository, UserRepository and SessionRepository from
// repository.go. The lifecycle is explicit: the CLI calls New at start-up and
// Close at shutdown, and everything in between receives the *DB (or one of
// its interfaces) as an injected dependency.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New opens the SQLite database and applies the connection PRAGMAs.
// Call Migrate before using a fresh database.
//
// dbPath examples:
//   - "data/devhelper.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (great for tests, lost on close)
//
// ONE CONNECTION:
// SQLite allows a single writer at a time, and PRAGMAs plus ":memory:"
// databases are per-connection. Capping the pool at one connection keeps
// foreign keys enforced on every statement and keeps an in-memory database
// alive for the lifetime of the *DB.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	// Ping verifies the connection actually works.
	// Without this, a bad path or permissions issue would only surface
	// on the first query — which is much harder to debug.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight. In-memory
	// databases report "memory" here, which is fine.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (for backwards compatibility).
	// snippets.user_id must point at a real user, so we turn them on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	return &DB{conn: conn, now: time.Now}, nil
}

// Close closes the database connection pool.
//
// ALWAYS DEFER CLOSE:
// Wherever you call New(), immediately defer Close():
//
//	db, err := sqlite.New("data/devhelper.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is still reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Migrate creates the schema. New does not call it; the CLI runs it before
// serving (unless --migrate=false) and before "user add".
//
// CREATE TABLE IF NOT EXISTS is idempotent, so running it on every start is safe.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.migrate(ctx); err != nil {
		return fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			created_at    INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snippets (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title      TEXT NOT NULL DEFAULT '',
			language   TEXT NOT NULL DEFAULT '',
			content    TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_user_created
			ON snippets(user_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	// Tags get their own table so "snippets tagged X" is an indexed lookup
	// instead of a LIKE over a serialised column.
	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snippet_tags (
			snippet_id TEXT    NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			position   INTEGER NOT NULL,
			tag        TEXT    NOT NULL,
			PRIMARY KEY (snippet_id, position)
		);
		CREATE INDEX IF NOT EXISTS idx_snippet_tags_tag ON snippet_tags(tag);
	`)
	if err != nil {
		return fmt.Errorf("creating snippet_tags table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate
// value for a UNIQUE or PRIMARY KEY column.
func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func toUnixNano(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
