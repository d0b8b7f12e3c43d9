// Package snapshot persists per-file analysis results keyed by path, so a
// later run can reuse work for files whose fingerprint has not changed.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"coursegen/internal/analyze"
	"coursegen/internal/storage"
)

// Store reads and writes file snapshots. Analysis payloads are stored as
// zstd-compressed JSON; concurrent writers for the same path resolve
// last-writer-wins.
type Store struct {
	db      *storage.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	now     func() time.Time
}

// NewStore creates a snapshot store over an open database.
func NewStore(db *storage.DB) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Store{db: db, encoder: enc, decoder: dec, now: time.Now}, nil
}

// Get returns the stored analysis for a path, or nil when none exists or the
// stored fingerprint differs from the given one. Pass an empty fingerprint
// to accept any stored snapshot.
func (s *Store) Get(path, fingerprint string) (*analyze.FileAnalysis, error) {
	row := s.db.QueryRow(
		`SELECT fingerprint, analysis FROM file_snapshots WHERE path = ?`, path)

	var storedFP string
	var blob []byte
	if err := row.Scan(&storedFP, &blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot for %s: %w", path, err)
	}
	if fingerprint != "" && storedFP != fingerprint {
		return nil, nil
	}

	raw, err := s.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot for %s: %w", path, err)
	}
	var fa analyze.FileAnalysis
	if err := json.Unmarshal(raw, &fa); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", path, err)
	}
	return &fa, nil
}

// Save stores or replaces the snapshot for the analysis' path.
func (s *Store) Save(fa *analyze.FileAnalysis) error {
	raw, err := json.Marshal(fa)
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", fa.FilePath, err)
	}
	blob := s.encoder.EncodeAll(raw, nil)

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO file_snapshots (path, fingerprint, analysis, updated_at)
		 VALUES (?, ?, ?, ?)`,
		fa.FilePath, fa.Fingerprint, blob, s.now().Unix())
	if err != nil {
		return fmt.Errorf("write snapshot for %s: %w", fa.FilePath, err)
	}
	return nil
}

// Delete removes the snapshot for a path, if present.
func (s *Store) Delete(path string) error {
	_, err := s.db.Exec(`DELETE FROM file_snapshots WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("delete snapshot for %s: %w", path, err)
	}
	return nil
}

// Prune drops snapshots for paths not in the keep set. The orchestrator
// calls this after a scan so deleted files do not accumulate.
func (s *Store) Prune(keep map[string]bool) (int, error) {
	rows, err := s.db.Query(`SELECT path FROM file_snapshots`)
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return 0, err
		}
		if !keep[path] {
			stale = append(stale, path)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	for _, path := range stale {
		if err := s.Delete(path); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// Count returns the number of stored snapshots.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM file_snapshots`).Scan(&n)
	return n, err
}
