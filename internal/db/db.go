// Package db opens the SQLite store behind every repository.
//
// The database plays the role of a document store: every entity lives in its
// own table keyed by a UUID string, and set-valued fields are JSON arrays.
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath returns the default database path: ~/.roomly/roomly.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".roomly", "roomly.db"), nil
}

// Open opens (or creates) the database at path and brings its schema up to
// date. Every pooled connection runs in WAL mode with foreign keys enforced,
// so deleting a property cascades to its bills and maintenance.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", filepath.Dir(path), err)
	}

	d, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := d.Ping(); err != nil {
		return nil, closeWith(d, fmt.Errorf("connecting to %s: %w", path, err))
	}
	if err := migrate(d); err != nil {
		return nil, closeWith(d, fmt.Errorf("running migrations: %w", err))
	}
	return d, nil
}

// dsn appends the go-sqlite3 connection parameters to path. Transactions take
// the write lock up front because set updates read then rewrite a row.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "5000")
	q.Set("_txlock", "immediate")
	return path + "?" + q.Encode()
}

func closeWith(d *sql.DB, err error) error {
	if closeErr := d.Close(); closeErr != nil {
		return fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
	}
	return err
}
