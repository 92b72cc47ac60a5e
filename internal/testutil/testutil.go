package testutil

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/rogrs/loja/internal/datastore"
	"github.com/rogrs/loja/internal/migrations"
	_ "modernc.org/sqlite"
)

var dsnReplacer = strings.NewReplacer("/", "_", " ", "_", "?", "_", "#", "_")

// NewTestDSN returns a shared-cache in-memory SQLite DSN named after the test.
// Subtest separators are replaced so t.Name() can be passed as is.
func NewTestDSN(testName string) string {
	return "file:" + dsnReplacer.Replace(testName) + "?mode=memory&cache=shared"
}

// SetupTestDB creates an in-memory database with the primary schema applied.
// The database is closed when the test finishes.
func SetupTestDB(t *testing.T, testName string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", NewTestDSN(testName))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	migrator := migrations.NewMigrator(db, migrations.GetPrimaryMigrations()...)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

// SetupTestDatastore creates an in-memory primary store and search index pair.
func SetupTestDatastore(t *testing.T, testName string) *datastore.Datastore {
	t.Helper()

	ds, err := datastore.New(context.Background(),
		NewTestDSN(testName+"_primary"),
		NewTestDSN(testName+"_index"),
	)
	if err != nil {
		t.Fatalf("Failed to create test datastore: %v", err)
	}
	t.Cleanup(func() { ds.Close() })

	return ds
}
