package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT     PRIMARY KEY,
		name          TEXT     NOT NULL,
		email         TEXT     NOT NULL UNIQUE COLLATE NOCASE,
		role          TEXT     NOT NULL CHECK (role IN ('tenant', 'landlord')),
		property_ids  TEXT     NOT NULL DEFAULT '[]',
		password_hash TEXT     NOT NULL DEFAULT '',
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id                TEXT    PRIMARY KEY,
		address           TEXT    NOT NULL,
		rent              TEXT    NOT NULL DEFAULT '0',
		bedrooms          INTEGER NOT NULL DEFAULT 0,
		bathrooms         REAL    NOT NULL DEFAULT 0,
		area_sqft         INTEGER NOT NULL DEFAULT 0,
		tenant_ids        TEXT    NOT NULL DEFAULT '[]',
		landlord_id       TEXT    NOT NULL,
		maintenance_count INTEGER NOT NULL DEFAULT 0,
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS bills (
		id          TEXT     PRIMARY KEY,
		property_id TEXT     NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		description TEXT     NOT NULL DEFAULT '',
		amount      TEXT     NOT NULL,
		due_date    DATETIME NOT NULL,
		status      TEXT     NOT NULL CHECK (status IN ('due', 'overdue', 'paid')),
		pdf_url     TEXT     NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS maintenance (
		id           TEXT     PRIMARY KEY,
		property_id  TEXT     NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		description  TEXT     NOT NULL,
		notes        TEXT     NOT NULL DEFAULT '',
		scheduled_at DATETIME NOT NULL,
		status       TEXT     NOT NULL CHECK (status IN ('scheduled', 'completed', 'cancelled')),
		created_by   TEXT     NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_landlord ON properties(landlord_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bills_property_due ON bills(property_id, due_date)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_property_date ON maintenance(property_id, scheduled_at)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	return nil
}
