package sqlite

import (
	"context"
	"testing"
)

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	// newTestDB already migrated once; a second run must be a no-op.
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	createTestUser(t, db, "alice")
}

func TestNew_WithoutMigrateHasNoTables(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	if _, err := db.GetUserByUsername(context.Background(), "alice"); err == nil {
		t.Fatal("expected an error querying an unmigrated database")
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := newTestDB(t)

	_, err := db.conn.Exec(
		`INSERT INTO snippets (id, user_id, title, language, content, created_at) VALUES ('s1', 'ghost', '', '', '', 0)`,
	)
	if err == nil {
		t.Fatal("inserting a snippet for a missing user should violate the foreign key")
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
