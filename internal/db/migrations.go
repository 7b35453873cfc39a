package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// Visits keep a plain client_id column: a deleted client leaves its visits
// behind, the same way the in-memory store does.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id                TEXT    PRIMARY KEY,
		name              TEXT    NOT NULL,
		address           TEXT    NOT NULL DEFAULT '',
		area              TEXT    NOT NULL DEFAULT '',
		category          TEXT    NOT NULL DEFAULT '',
		classification    TEXT    NOT NULL DEFAULT 'cold',
		contact_person    TEXT    NOT NULL DEFAULT '',
		contact_role      TEXT    NOT NULL DEFAULT '',
		phone             TEXT    NOT NULL DEFAULT '',
		email             TEXT    NOT NULL DEFAULT '',
		prospecting_count INTEGER NOT NULL DEFAULT 0 CHECK (prospecting_count >= 0),
		notes             TEXT    NOT NULL DEFAULT '',
		lat               REAL,
		lng               REAL,
		created_at        DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at        DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS visits (
		id               TEXT PRIMARY KEY,
		client_id        TEXT NOT NULL,
		visit_date       TEXT NOT NULL,
		visit_time       TEXT NOT NULL,
		status           TEXT NOT NULL CHECK (status IN ('scheduled', 'completed', 'cancelled')),
		visit_type       TEXT NOT NULL,
		planned_services TEXT NOT NULL DEFAULT '[]',
		opportunities    TEXT NOT NULL DEFAULT '[]',
		notes            TEXT NOT NULL DEFAULT '',
		created_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at       DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visits_client_id ON visits(client_id)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id                TEXT    PRIMARY KEY,
		title             TEXT    NOT NULL,
		due_date          TEXT    NOT NULL,
		priority          TEXT    NOT NULL CHECK (priority IN ('low', 'medium', 'high')),
		completed         INTEGER NOT NULL DEFAULT 0,
		related_client_id TEXT    NOT NULL DEFAULT '',
		created_at        DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		level      TEXT    NOT NULL,
		title      TEXT    NOT NULL,
		body       TEXT    NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		name         TEXT     NOT NULL,
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent: checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"tasks", "updated_at", "DATETIME"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) (err error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	found := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating columns: %w", err)
	}
	if found {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
