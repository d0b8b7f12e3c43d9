package codebase

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"coursegen/internal/apperr"
	"coursegen/internal/cache"
	"coursegen/internal/config"
	"coursegen/internal/logging"
	"coursegen/internal/parser"
	"coursegen/internal/pipeline"
	"coursegen/internal/storage"
)

const scanKeyPrefix = "scan:"

// ignoreDirs are never descended into during a scan.
var ignoreDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
	"__pycache__":  true,
	".next":        true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".coursegen":   true,
}

// CodebaseID derives the stable identifier for a repository root. The same
// root always maps to the same ID.
func CodebaseID(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:])[:12]
}

// Scanner discovers analyzable files and records the result as a manifest.
type Scanner struct {
	cfg    *config.Config
	db     *storage.DB
	cache  *cache.TieredCache
	logger *logging.Logger
	now    func() time.Time
}

// NewScanner creates a scanner. The cache may be nil.
func NewScanner(cfg *config.Config, db *storage.DB, c *cache.TieredCache, logger *logging.Logger) *Scanner {
	return &Scanner{cfg: cfg, db: db, cache: c, logger: logger, now: time.Now}
}

// Scan walks the repository root and persists a fresh manifest. Hidden
// directories, ignore-listed directories, and files with unsupported
// extensions are skipped.
func (s *Scanner) Scan(ctx context.Context) (*ScanManifest, error) {
	root, err := filepath.Abs(s.cfg.RepoRoot)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "resolve repo root", err)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (ignoreDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !supportedFile(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "scan walk failed", err)
	}
	sort.Strings(files)

	manifest := &ScanManifest{
		CodebaseID: CodebaseID(root),
		Root:       root,
		Files:      files,
		ScannedAt:  s.now(),
	}
	if err := s.save(ctx, manifest); err != nil {
		return nil, err
	}

	s.logger.Info("scan complete", map[string]interface{}{
		"codebase_id": manifest.CodebaseID,
		"files":       len(files),
	})
	return manifest, nil
}

func supportedFile(path string) bool {
	if parser.IsNotebook(path) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := parser.LanguageFromExtension(ext)
	return ok
}

func (s *Scanner) save(ctx context.Context, m *ScanManifest) error {
	filesJSON, err := json.Marshal(m.Files)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "encode manifest", err)
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO scan_manifests (codebase_id, root, files, scanned_at)
		VALUES (?, ?, ?, ?)
	`, m.CodebaseID, m.Root, string(filesJSON), m.ScannedAt.Unix())
	if err != nil {
		return apperr.Wrap(apperr.Internal, "persist manifest", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(m); err == nil {
			// manifests never expire; a rescan replaces them
			s.cache.Set(ctx, scanKeyPrefix+m.CodebaseID, raw, 0)
		}
	}
	return nil
}

// LoadManifest returns the stored manifest for a codebase, checking the
// cache before the database. A missing manifest means the repository has
// never been scanned.
func (s *Scanner) LoadManifest(ctx context.Context, codebaseID string) (*ScanManifest, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, scanKeyPrefix+codebaseID); ok {
			var m ScanManifest
			if err := json.Unmarshal(raw, &m); err == nil {
				return &m, nil
			}
		}
	}

	var root, filesJSON string
	var scannedAt int64
	err := s.db.QueryRow(`
		SELECT root, files, scanned_at FROM scan_manifests WHERE codebase_id = ?
	`, codebaseID).Scan(&root, &filesJSON, &scannedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.ManifestMissing,
			fmt.Sprintf("no scan manifest for codebase %s, run a scan first", codebaseID))
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load manifest", err)
	}

	m := &ScanManifest{
		CodebaseID: codebaseID,
		Root:       root,
		ScannedAt:  time.Unix(scannedAt, 0),
	}
	if err := json.Unmarshal([]byte(filesJSON), &m.Files); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode manifest", err)
	}
	return m, nil
}

// WarmResources loads manifest files into the file resource cache so later
// reads hit memory instead of disk. Oversized and unreadable files are
// skipped.
func (s *Scanner) WarmResources(ctx context.Context, m *ScanManifest) int {
	if s.cache == nil {
		return 0
	}
	warmed := 0
	for _, rel := range m.Files {
		if ctx.Err() != nil {
			break
		}
		path := filepath.Join(m.Root, filepath.FromSlash(rel))
		info, err := os.Stat(path)
		if err != nil || info.Size() > s.cfg.MaxFileSizeBytes() {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		lang, _ := parser.DetectLanguage(path, content)
		res := &cache.FileResource{
			Path:     rel,
			Content:  content,
			Hash:     pipeline.Fingerprint(content),
			Language: string(lang),
			Size:     info.Size(),
		}
		if err := s.cache.SetResource(res); err != nil {
			s.logger.Warn("resource warm failed", map[string]interface{}{
				"path":  rel,
				"error": err.Error(),
			})
			continue
		}
		warmed++
	}
	return warmed
}
