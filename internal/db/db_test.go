package db_test

import (
	"testing"

	"github.com/vrsandeep/stockpile-go/internal/db"
	"github.com/vrsandeep/stockpile-go/internal/testutil"
)

func TestMigrationsCreateTables(t *testing.T) {
	database := testutil.SetupTestDB(t)

	for _, table := range []string{"collections", "download_runs"} {
		var name string
		err := database.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("Expected table '%s' to exist: %v", table, err)
		}
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database := testutil.SetupTestDB(t)

	// A second run finds nothing to apply.
	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

func TestInitDB(t *testing.T) {
	path := t.TempDir() + "/stockpile.db"
	database, err := db.InitDB(path)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	if _, err := database.Exec("INSERT INTO collections (provider, state, updated_at) VALUES ('pexels', '{}', datetime('now'))"); err != nil {
		t.Fatalf("Failed to insert into collections: %v", err)
	}
}
