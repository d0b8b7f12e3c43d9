package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createCacheTables(tx); err != nil {
			return err
		}
		if err := createSnapshotTable(tx); err != nil {
			return err
		}
		if err := createManifestTable(tx); err != nil {
			return err
		}

		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})

		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}

	if version == 0 {
		// Database predates version tracking, rebuild the schema in place
		return db.initializeSchema()
	}

	db.logger.Info("Running database migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Migration functions are added here as the schema evolves

	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to clear schema version: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// createCacheTables creates the persistent-tier tables:
// file_cache holds scanned source blobs (the resource sub-store),
// analysis_cache holds TTL'd serialized analysis values,
// session_state holds per-codebase ephemeral state.
func createCacheTables(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS file_cache (
			path TEXT PRIMARY KEY,
			content TEXT,
			hash TEXT,
			language TEXT,
			size INTEGER,
			cached_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS analysis_cache (
			key TEXT PRIMARY KEY,
			data TEXT,
			cached_at TIMESTAMP,
			ttl INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS session_state (
			codebase_id TEXT PRIMARY KEY,
			state TEXT,
			updated_at TIMESTAMP
		)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create cache table: %w", err)
		}
	}
	return nil
}

// createSnapshotTable creates the per-file snapshot table used for
// incremental reuse decisions. The analysis payload is zstd-compressed JSON.
func createSnapshotTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS file_snapshots (
			path TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			analysis BLOB,
			updated_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create file_snapshots table: %w", err)
	}
	return nil
}

// createManifestTable creates the scan manifest table
func createManifestTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS scan_manifests (
			codebase_id TEXT PRIMARY KEY,
			root TEXT NOT NULL,
			files TEXT NOT NULL,
			scanned_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scan_manifests table: %w", err)
	}
	return nil
}
