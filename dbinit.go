package main

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func dbInit(db *sql.DB) error {
	var dbVersion int
	err := db.QueryRow("SELECT version FROM db_version WHERE name='tourneysync'").Scan(&dbVersion)
	if err != nil {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS db_version (
			name TEXT PRIMARY KEY,
			version INTEGER
		)`)
		if err != nil {
			return fmt.Errorf("error creating db_version table: %w", err)
		}
		_, err = db.Exec(`INSERT OR IGNORE INTO db_version (name, version) VALUES ('tourneysync', 0)`)
		if err != nil {
			return fmt.Errorf("error initializing db_version table: %w", err)
		}
		dbVersion = 0
	}

	if dbVersion == 0 {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		account_name TEXT PRIMARY KEY,
		token TEXT)`)
		if err != nil {
			return fmt.Errorf("error creating tokens table: %w", err)
		}

		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS calendars (
		source_id TEXT PRIMARY KEY,
		calendar_id TEXT NOT NULL,
		calendar_name TEXT,
		provider TEXT,
		updated_at TEXT)`)
		if err != nil {
			return fmt.Errorf("error creating calendars table: %w", err)
		}

		dbVersion = schemaVersion
		_, err = db.Exec(`UPDATE db_version SET version = ? WHERE name = 'tourneysync'`, dbVersion)
		if err != nil {
			return fmt.Errorf("error updating db_version table: %w", err)
		}
	}
	return nil
}
