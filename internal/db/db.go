// Package db opens the SQLite file that backs clients, visits, tasks, the
// notification feed and API keys.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// busyTimeoutMS is how long a writer waits on a locked database. The sync
// worker and the API key middleware write concurrently.
const busyTimeoutMS = 5000

// DefaultPath is ~/.config/fv/visits.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "fv", "visits.db"), nil
}

// Open creates the parent directory if needed, opens the database and
// brings the schema up to date.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := configure(conn); err != nil {
		return nil, closeWith(conn, err)
	}
	if err := migrate(conn); err != nil {
		return nil, closeWith(conn, fmt.Errorf("running migrations: %w", err))
	}
	return conn, nil
}

// dsn carries foreign keys and the busy timeout so every pooled connection
// gets them, not only the one the pragmas ran on.
func dsn(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d", path, busyTimeoutMS)
}

// configure switches the file to WAL so the API can read while the sync
// worker writes.
func configure(conn *sql.DB) error {
	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS),
	} {
		if _, err := conn.Exec(p); err != nil {
			return fmt.Errorf("executing %s: %w", p, err)
		}
	}
	return nil
}

func closeWith(conn *sql.DB, err error) error {
	if cerr := conn.Close(); cerr != nil {
		return fmt.Errorf("%w (also failed to close: %v)", err, cerr)
	}
	return err
}
