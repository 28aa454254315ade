// Package storagetest opens migrated databases for store tests.
package storagetest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"innercircle/internal/adapters/storage"
)

// PostgresURLEnv names the variable that enables Postgres store tests.
const PostgresURLEnv = "INNERCIRCLE_TEST_DATABASE_URL"

// OpenSQLite returns a migrated in-memory SQLite database closed at test end.
// A single connection keeps every statement on the same in-memory database.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// OpenPostgres connects to the database named by INNERCIRCLE_TEST_DATABASE_URL,
// applies the schema and empties every table. The test is skipped when the variable is unset.
func OpenPostgres(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(PostgresURLEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresURLEnv)
	}
	ctx := context.Background()
	db, err := storage.OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigratePostgres(ctx, db); err != nil {
		t.Fatalf("migrate postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`TRUNCATE app_user, invitation, recipe_download, recipe, lead, account, audit_event, outbox CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}
