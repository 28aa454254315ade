package storage

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations is the ordered chain. Append only; never edit a released step.
var migrations = []migration{
	{
		version: 1,
		name:    "baseline",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS account (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				created_at TEXT NOT NULL,
				failed_logins INTEGER NOT NULL DEFAULT 0,
				locked_until TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS lead (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				phone TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'new',
				reviewed_by TEXT NOT NULL DEFAULT '',
				reviewed_at TEXT,
				notes TEXT NOT NULL DEFAULT '',
				source TEXT NOT NULL DEFAULT '',
				utm_source TEXT NOT NULL DEFAULT '',
				utm_medium TEXT NOT NULL DEFAULT '',
				utm_campaign TEXT NOT NULL DEFAULT '',
				answers TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS recipe (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				file_url TEXT NOT NULL,
				file_name TEXT NOT NULL,
				file_size INTEGER NOT NULL DEFAULT 0,
				download_count INTEGER NOT NULL DEFAULT 0,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS recipe_download (
				id TEXT PRIMARY KEY,
				recipe_id TEXT NOT NULL,
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				source TEXT NOT NULL DEFAULT 'recipe-page',
				utm_source TEXT NOT NULL DEFAULT '',
				utm_medium TEXT NOT NULL DEFAULT '',
				utm_campaign TEXT NOT NULL DEFAULT '',
				landing_page_url TEXT NOT NULL DEFAULT '',
				referrer TEXT NOT NULL DEFAULT '',
				user_agent TEXT NOT NULL DEFAULT '',
				ip_address TEXT NOT NULL DEFAULT '',
				downloaded_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				FOREIGN KEY (recipe_id) REFERENCES recipe(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE IF NOT EXISTS invitation (
				id TEXT PRIMARY KEY,
				lead_id TEXT NOT NULL,
				token TEXT NOT NULL UNIQUE,
				status TEXT NOT NULL DEFAULT 'pending',
				expires_at TEXT NOT NULL,
				used_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				FOREIGN KEY (lead_id) REFERENCES lead(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE IF NOT EXISTS app_user (
				id TEXT PRIMARY KEY,
				lead_id TEXT NOT NULL,
				invitation_id TEXT NOT NULL,
				account_id TEXT NOT NULL UNIQUE,
				is_active INTEGER NOT NULL DEFAULT 1,
				last_login TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				FOREIGN KEY (invitation_id) REFERENCES invitation(id) ON DELETE RESTRICT,
				FOREIGN KEY (account_id) REFERENCES account(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_lead_created_at ON lead(created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_recipe_download_recipe ON recipe_download(recipe_id)`,
			`CREATE INDEX IF NOT EXISTS idx_recipe_download_at ON recipe_download(downloaded_at)`,
			`CREATE INDEX IF NOT EXISTS idx_invitation_lead ON invitation(lead_id)`,
			`CREATE INDEX IF NOT EXISTS idx_app_user_lead ON app_user(lead_id)`,
		},
	},
	{
		version: 2,
		name:    "audit_and_outbox",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS audit_event (
				id TEXT PRIMARY KEY,
				timestamp TEXT NOT NULL,
				category TEXT NOT NULL,
				action TEXT NOT NULL,
				severity TEXT NOT NULL DEFAULT 'info',
				actor_id TEXT NOT NULL DEFAULT '',
				actor_email TEXT NOT NULL DEFAULT '',
				actor_role TEXT NOT NULL DEFAULT '',
				resource_id TEXT NOT NULL DEFAULT '',
				resource_type TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				ip_address TEXT NOT NULL DEFAULT '',
				user_agent TEXT NOT NULL DEFAULT '',
				metadata TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_audit_event_timestamp ON audit_event(timestamp)`,
			`CREATE TABLE IF NOT EXISTS outbox (
				id TEXT PRIMARY KEY,
				kind TEXT NOT NULL,
				recipient TEXT NOT NULL,
				payload TEXT NOT NULL,
				status TEXT NOT NULL,
				attempts INTEGER NOT NULL DEFAULT 0,
				max_attempts INTEGER NOT NULL DEFAULT 5,
				next_attempt_at TEXT NOT NULL,
				last_attempted_at TEXT,
				created_at TEXT NOT NULL,
				provider_id TEXT NOT NULL DEFAULT '',
				last_error TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_outbox_due ON outbox(status, next_attempt_at)`,
		},
	},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, or 0 for an untracked database.
// PRE: db is a valid SQLite connection
// POST: Returns the highest recorded version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// A file-backed database that already holds data is copied to <path>.bak-v<N> first.
// PRE: db is a valid SQLite connection; dbPath is the file path or ":memory:"
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := ensureVersionTable(db); err != nil {
		return err
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}
	if current > 0 {
		if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			return fmt.Errorf("checkpoint before backup: %w", err)
		}
		if err := backupDB(dbPath, current); err != nil {
			return err
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name)
	}
	return nil
}

func ensureVersionTable(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`)
	if err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.version, err)
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("migration %d: record version: %w", m.version, err)
	}
	return tx.Commit()
}

// backupDB copies the database file before a schema change.
func backupDB(dbPath string, version int) error {
	if dbPath == "" || dbPath == ":memory:" {
		return nil
	}
	src, err := os.Open(dbPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open db for backup: %w", err)
	}
	defer src.Close()

	backupPath := fmt.Sprintf("%s.bak-v%d", dbPath, version)
	dst, err := os.Create(backupPath)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy backup: %w", err)
	}
	slog.Info("schema_backup", "path", backupPath, "version", version)
	return dst.Sync()
}
