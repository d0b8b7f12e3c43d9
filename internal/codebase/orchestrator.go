package codebase

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"coursegen/internal/analyze"
	"coursegen/internal/apperr"
	"coursegen/internal/cache"
	"coursegen/internal/config"
	"coursegen/internal/logging"
	"coursegen/internal/pipeline"
	"coursegen/internal/snapshot"
)

const codebaseKeyPrefix = "codebase:"

// AnalyzeOptions controls one orchestrated run.
type AnalyzeOptions struct {
	// Force disables every form of reuse: previous runs, snapshots, and
	// the content-addressed cache. Every file is recomputed.
	Force bool
}

// Orchestrator coordinates full-codebase analysis runs. It remembers the
// previous run in memory so unchanged files are reused as the same result
// values, and falls back to persisted snapshots across restarts.
type Orchestrator struct {
	cfg       *config.Config
	cache     *cache.TieredCache
	snaps     *snapshot.Store
	scanner   *Scanner
	scheduler *pipeline.Scheduler
	logger    *logging.Logger
	now       func() time.Time
	newRunID  func() string

	mu      sync.Mutex
	lastRun map[string]*analyze.FileAnalysis // rel path -> previous result
}

// NewOrchestrator wires the orchestrator. Cache and snapshots may be nil;
// reuse then degrades gracefully to re-analysis.
func NewOrchestrator(cfg *config.Config, c *cache.TieredCache, snaps *snapshot.Store, scanner *Scanner, scheduler *pipeline.Scheduler, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		cache:     c,
		snaps:     snaps,
		scanner:   scanner,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
		newRunID:  uuid.NewString,
		lastRun:   make(map[string]*analyze.FileAnalysis),
	}
}

// Analyze runs the full pipeline for the configured repository. It requires
// a prior scan; the only errors it returns are a missing manifest, invalid
// configuration, or a scheduler-level fault. Per-file problems are embedded
// in the result.
func (o *Orchestrator) Analyze(ctx context.Context, opts AnalyzeOptions) (*CodebaseAnalysis, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	started := o.now()

	codebaseID := CodebaseID(o.cfg.RepoRoot)
	manifest, err := o.scanner.LoadManifest(ctx, codebaseID)
	if err != nil {
		return nil, err
	}

	reused, toRun := o.partition(manifest, opts)

	schedResult, err := o.scheduler.Run(ctx, toRun, opts.Force)
	if err != nil {
		return nil, err
	}

	files := make(map[string]*analyze.FileAnalysis, len(manifest.Files))
	for rel, fa := range reused {
		files[rel] = fa
	}
	for rel, fa := range schedResult.Analyses {
		files[rel] = fa
	}
	if len(files) != len(manifest.Files) {
		return nil, apperr.New(apperr.Internal, "result set does not cover the manifest")
	}

	patterns := dedupePatterns(files)
	metrics := computeMetrics(files)
	metrics.TotalPatterns = len(patterns)
	// identity-reused results keep the CacheHit flag of the run that made
	// them, so the per-file tally misses them; add those here
	for rel := range reused {
		if !files[rel].CacheHit {
			metrics.CacheHits++
		}
	}
	if len(files) > 0 {
		metrics.CacheHitRate = float64(len(reused)) / float64(len(files))
	}
	completed := o.now()
	metrics.DurationMS = completed.Sub(started).Milliseconds()

	analysis := &CodebaseAnalysis{
		RunID:       o.newRunID(),
		CodebaseID:  codebaseID,
		Root:        manifest.Root,
		Files:       files,
		Graph:       BuildGraph(files),
		Metrics:     metrics,
		Patterns:    patterns,
		TopFiles:    rankFiles(files, o.cfg.TopFiles),
		StartedAt:   started,
		CompletedAt: completed,
		Incremental: o.cfg.EnableIncremental && !opts.Force,
		ReusedFiles: len(reused),
	}

	o.persist(ctx, analysis)

	o.mu.Lock()
	o.lastRun = files
	o.mu.Unlock()

	if o.snaps != nil {
		keep := make(map[string]bool, len(files))
		for rel := range files {
			keep[rel] = true
		}
		if _, err := o.snaps.Prune(keep); err != nil {
			o.logger.Warn("snapshot prune failed", map[string]interface{}{"error": err.Error()})
		}
	}

	o.logger.Info("codebase analysis complete", map[string]interface{}{
		"codebase_id": codebaseID,
		"run_id":      analysis.RunID,
		"files":       len(files),
		"reused":      analysis.ReusedFiles,
		"failed":      analysis.Metrics.FailedFiles,
	})
	return analysis, nil
}

// partition splits manifest files into reusable previous results and paths
// that need fresh analysis. Reuse requires an unchanged fingerprint; a file
// whose content cannot be read is handed to the scheduler so the failure is
// recorded uniformly.
func (o *Orchestrator) partition(manifest *ScanManifest, opts AnalyzeOptions) (map[string]*analyze.FileAnalysis, []string) {
	reused := make(map[string]*analyze.FileAnalysis)
	var toRun []string

	incremental := o.cfg.EnableIncremental && !opts.Force

	o.mu.Lock()
	previous := o.lastRun
	o.mu.Unlock()

	for _, rel := range manifest.Files {
		if !incremental {
			toRun = append(toRun, rel)
			continue
		}
		abs := filepath.Join(manifest.Root, filepath.FromSlash(rel))
		content, err := os.ReadFile(abs)
		if err != nil {
			toRun = append(toRun, rel)
			continue
		}
		fp := pipeline.Fingerprint(content)

		// the historical result is reused as the same value, so repeated
		// runs over unchanged files return identical analyses
		if prev, ok := previous[rel]; ok && prev.Fingerprint == fp {
			reused[rel] = prev
			continue
		}
		if o.snaps != nil {
			if snap, err := o.snaps.Get(rel, fp); err == nil && snap != nil {
				snap.CacheHit = true
				reused[rel] = snap
				continue
			}
		}
		toRun = append(toRun, rel)
	}
	return reused, toRun
}

func (o *Orchestrator) persist(ctx context.Context, analysis *CodebaseAnalysis) {
	if o.cache == nil {
		return
	}
	if raw, err := json.Marshal(analysis); err == nil {
		o.cache.Set(ctx, codebaseKeyPrefix+analysis.CodebaseID, raw, o.cfg.CacheTTLSeconds)
	}

	state, err := json.Marshal(map[string]interface{}{
		"last_run_id":  analysis.RunID,
		"completed_at": analysis.CompletedAt.Unix(),
		"files":        len(analysis.Files),
		"failed":       analysis.Metrics.FailedFiles,
	})
	if err == nil {
		if err := o.cache.SetSession(analysis.CodebaseID, state); err != nil {
			o.logger.Warn("session state write failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// CachedAnalysis returns the stored result of the most recent run, if any.
func (o *Orchestrator) CachedAnalysis(ctx context.Context, codebaseID string) (*CodebaseAnalysis, bool) {
	if o.cache == nil {
		return nil, false
	}
	raw, ok := o.cache.Get(ctx, codebaseKeyPrefix+codebaseID)
	if !ok {
		return nil, false
	}
	var analysis CodebaseAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, false
	}
	return &analysis, true
}

func computeMetrics(files map[string]*analyze.FileAnalysis) CodebaseMetrics {
	m := CodebaseMetrics{
		TotalFiles:        len(files),
		LanguageBreakdown: make(map[string]int),
	}
	var cxSum, docSum float64
	for _, fa := range files {
		if fa.CacheHit {
			m.CacheHits++
		}
		if fa.HasErrors {
			m.FailedFiles++
			continue
		}
		m.AnalyzedFiles++
		m.TotalFunctions += len(fa.Symbols.Functions)
		m.TotalClasses += len(fa.Symbols.Classes)
		for _, cls := range fa.Symbols.Classes {
			m.TotalFunctions += len(cls.Methods)
		}
		if fa.Language != "" {
			m.LanguageBreakdown[string(fa.Language)]++
		}
		cxSum += fa.Complexity.AverageComplexity
		docSum += fa.DocCoverage
	}
	if m.AnalyzedFiles > 0 {
		m.AverageComplexity = cxSum / float64(m.AnalyzedFiles)
		m.AvgDocCoverage = docSum / float64(m.AnalyzedFiles)
	}
	return m
}

// dedupePatterns merges per-file patterns into one codebase-wide list. Two
// detections collide when they share a type, file, and first line; order is
// type, then file, then line.
func dedupePatterns(files map[string]*analyze.FileAnalysis) []analyze.DetectedPattern {
	type patternKey struct {
		Type string
		File string
		Line int
	}
	seen := make(map[patternKey]bool)
	patterns := make([]analyze.DetectedPattern, 0)
	for _, fa := range files {
		for _, p := range fa.Patterns {
			line := 0
			if len(p.Lines) > 0 {
				line = p.Lines[0]
			}
			k := patternKey{Type: p.PatternType, File: p.FilePath, Line: line}
			if seen[k] {
				continue
			}
			seen[k] = true
			patterns = append(patterns, p)
		}
	}
	sort.Slice(patterns, func(i, j int) bool {
		a, b := patterns[i], patterns[j]
		if a.PatternType != b.PatternType {
			return a.PatternType < b.PatternType
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		al, bl := 0, 0
		if len(a.Lines) > 0 {
			al = a.Lines[0]
		}
		if len(b.Lines) > 0 {
			bl = b.Lines[0]
		}
		return al < bl
	})
	return patterns
}

// rankFiles orders error-free files by teaching value, highest first, with
// the path as tiebreaker so equal scores rank deterministically.
func rankFiles(files map[string]*analyze.FileAnalysis, topN int) []RankedFile {
	ranked := make([]RankedFile, 0, len(files))
	for rel, fa := range files {
		if fa.HasErrors {
			continue
		}
		ranked = append(ranked, RankedFile{Path: rel, Score: fa.TeachingValue.TotalScore})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Path < ranked[j].Path
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
