// Package dbtest provides shared test helpers for creating test databases.
// The backend is controlled by the HOSTPANEL_TEST_DB_TYPE environment
// variable ("sqlite" or "postgres").
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jscorp/hostpanel/internal/db"
)

// testDBType returns the configured test database type (default: "sqlite").
func testDBType() string {
	if v := os.Getenv("HOSTPANEL_TEST_DB_TYPE"); v != "" {
		return v
	}
	return "sqlite"
}

// NewTestDB creates a test database appropriate for the current backend.
//
// For SQLite (default): creates a temp-file database in t.TempDir().
// For Postgres: connects using HOSTPANEL_TEST_POSTGRES_DSN and empties
// kv_slots. Skips the test if no DSN is set.
//
// Cleanup (Close) is registered via t.Cleanup automatically.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	switch dbType := testDBType(); dbType {
	case "sqlite":
		return newSQLiteTestDB(t)
	case "postgres":
		return newPostgresTestDB(t)
	default:
		t.Fatalf("unsupported HOSTPANEL_TEST_DB_TYPE: %s", dbType)
		return nil
	}
}

func newSQLiteTestDB(t *testing.T) *db.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.OpenDB("sqlite", dbPath)
	if err != nil {
		t.Fatalf("dbtest: failed to open SQLite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func newPostgresTestDB(t *testing.T) *db.DB {
	t.Helper()

	dsn := os.Getenv("HOSTPANEL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HOSTPANEL_TEST_POSTGRES_DSN not set; skipping Postgres test")
	}

	database, err := db.OpenDB("postgres", dsn)
	if err != nil {
		t.Fatalf("dbtest: failed to open Postgres database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.Truncate(context.Background()); err != nil {
		t.Fatalf("dbtest: failed to truncate kv_slots: %v", err)
	}
	return database
}
