// Package codebase orchestrates whole-repository analysis: scanning,
// scheduling per-file work, dependency graph construction, pattern
// aggregation, and incremental reuse of unchanged results.
package codebase

import (
	"time"

	"coursegen/internal/analyze"
)

// ScanManifest is the durable record of one repository scan. Analysis runs
// resolve files through the manifest, never by re-walking the tree.
type ScanManifest struct {
	CodebaseID string    `json:"codebase_id"`
	Root       string    `json:"root"`
	Files      []string  `json:"files"` // paths relative to Root, sorted
	ScannedAt  time.Time `json:"scanned_at"`
}

// GraphEdge is one import relation between two analyzed files. Count is the
// number of import statements in From that resolve to To.
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

// GraphNode lists one file's direct import relations, both directions,
// sorted.
type GraphNode struct {
	Imports    []string `json:"imports"`
	ImportedBy []string `json:"imported_by"`
}

// DependencyGraph captures intra-codebase import structure. External imports
// are counted but not materialized as nodes.
type DependencyGraph struct {
	Nodes          map[string]*GraphNode `json:"nodes"`
	Edges          []GraphEdge           `json:"edges"`
	Cycles         [][]string            `json:"cycles,omitempty"` // each cycle in canonical rotation
	ExternalCounts map[string]int        `json:"external_counts,omitempty"`
}

// CodebaseMetrics aggregates across every analyzed file.
type CodebaseMetrics struct {
	TotalFiles        int            `json:"total_files"`
	AnalyzedFiles     int            `json:"analyzed_files"`
	FailedFiles       int            `json:"failed_files"`
	TotalFunctions    int            `json:"total_functions"`
	TotalClasses      int            `json:"total_classes"`
	LanguageBreakdown map[string]int `json:"language_breakdown"`
	AverageComplexity float64        `json:"average_complexity"`
	AvgDocCoverage    float64        `json:"average_doc_coverage"`
	TotalPatterns     int            `json:"total_patterns"`
	DurationMS        int64          `json:"duration_ms"`
	CacheHits         int            `json:"cache_hits"`
	CacheHitRate      float64        `json:"cache_hit_rate"` // reused files / total files
}

// RankedFile pairs a path with its teaching value for the top-N list.
type RankedFile struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// CodebaseAnalysis is the result of one full analysis run.
type CodebaseAnalysis struct {
	RunID       string                           `json:"run_id"`
	CodebaseID  string                           `json:"codebase_id"`
	Root        string                           `json:"root"`
	Files       map[string]*analyze.FileAnalysis `json:"files"`
	Graph       *DependencyGraph                 `json:"graph"`
	Metrics     CodebaseMetrics                  `json:"metrics"`
	Patterns    []analyze.DetectedPattern        `json:"patterns"` // deduplicated, deterministic order
	TopFiles    []RankedFile                     `json:"top_files"`
	StartedAt   time.Time                        `json:"started_at"`
	CompletedAt time.Time                        `json:"completed_at"`
	Incremental bool                             `json:"incremental"`
	ReusedFiles int                              `json:"reused_files"`
}
