package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/devhelper/internal/repository/sqlite"
)

// openStore opens the SQLite database, creating its directory first, and
// migrates it when migrate is set. The caller closes it.
func openStore(ctx context.Context, dbPath string, migrate bool) (*sqlite.DB, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, err
	}

	if migrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
