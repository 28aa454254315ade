package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed pgschema/schema.sql
var postgresSchema string

// SQLSTATE codes raised by the schema's procedures.
const (
	PgCodeNotFound    = "IC404"
	PgCodeNotPending  = "IC409"
	PgCodeExpired     = "IC410"
	pgUniqueViolation = "23505"
)

// OpenPostgres connects to a Postgres database and sizes the pool.
// PRE: dsn is a lib/pq connection string or URL
// POST: Returns a pinged connection or an error
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// MigratePostgres applies the embedded schema and procedures.
// PRE: db is connected
// POST: All tables and functions exist; safe to run on every boot
func MigratePostgres(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

// PgCode returns the SQLSTATE of a Postgres error, or "".
func PgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique-constraint failure from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if PgCode(err) == pgUniqueViolation {
		return true
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
