package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"coursegen/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: logging.ErrorLevel})
}

func TestOpenCreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "analysis.db")

	db, err := Open(dbPath, testLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	tables := []string{"file_cache", "analysis_cache", "session_state", "file_snapshots", "scan_manifests", "schema_version"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s: %v", table, err)
		}
	}
}

func TestOpenExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "analysis.db")

	db, err := Open(dbPath, testLogger())
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO analysis_cache (key, data, cached_at, ttl) VALUES ('k', 'v', 0, 0)`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Reopen and verify data survived
	db2, err := Open(dbPath, testLogger())
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer func() { _ = db2.Close() }()

	var data string
	if err := db2.QueryRow(`SELECT data FROM analysis_cache WHERE key='k'`).Scan(&data); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if data != "v" {
		t.Errorf("expected v, got %q", data)
	}
}

func TestWithTxCommit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "analysis.db")
	db, err := Open(dbPath, testLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	err = db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO analysis_cache (key, data, cached_at, ttl) VALUES ('tx', 'ok', 0, 0)`)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	var data string
	if err := db.QueryRow(`SELECT data FROM analysis_cache WHERE key='tx'`).Scan(&data); err != nil {
		t.Fatalf("expected committed row: %v", err)
	}
}

func TestWithTxRollback(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "analysis.db")
	db, err := Open(dbPath, testLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	wantErr := sql.ErrTxDone // any sentinel works here
	err = db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO analysis_cache (key, data, cached_at, ttl) VALUES ('rb', 'no', 0, 0)`); err != nil {
			return err
		}
		return wantErr
	})
	if err == nil {
		t.Fatal("expected error from WithTx")
	}

	var data string
	err = db.QueryRow(`SELECT data FROM analysis_cache WHERE key='rb'`).Scan(&data)
	if err != sql.ErrNoRows {
		t.Errorf("expected rollback to discard row, got err=%v data=%q", err, data)
	}
}
