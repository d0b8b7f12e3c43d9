// Package analyze extracts structural and semantic facts from parse trees:
// symbols, detected patterns, complexity metrics, documentation coverage, and
// a deterministic teaching-value score.
package analyze

import (
	"time"

	"coursegen/internal/parser"
)

// FunctionInfo describes one function or method.
type FunctionInfo struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
	ReturnType string   `json:"return_type,omitempty"`
	Docstring  string   `json:"docstring,omitempty"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	Complexity int      `json:"complexity"` // cyclomatic, >= 1
	IsAsync    bool     `json:"is_async"`
	Decorators []string `json:"decorators,omitempty"`
}

// ClassInfo describes one class or type declaration.
type ClassInfo struct {
	Name        string         `json:"name"`
	Docstring   string         `json:"docstring,omitempty"`
	StartLine   int            `json:"start_line"`
	EndLine     int            `json:"end_line"`
	Methods     []FunctionInfo `json:"methods,omitempty"`
	BaseClasses []string       `json:"base_classes,omitempty"` // ordered, may be empty
	Decorators  []string       `json:"decorators,omitempty"`
}

// ImportInfo describes one import.
type ImportInfo struct {
	Module string   `json:"module"`
	Names  []string `json:"names,omitempty"` // imported symbols, for from-imports
	Line   int      `json:"line"`
}

// SymbolInfo aggregates the symbols of one file. Order follows source
// position; it matters only for display.
type SymbolInfo struct {
	Functions []FunctionInfo `json:"functions"`
	Classes   []ClassInfo    `json:"classes"`
	Imports   []ImportInfo   `json:"imports"`
	Exports   []string       `json:"exports,omitempty"`
}

// DetectedPattern is one detected code pattern. PatternType is an open tag;
// downstream consumers must tolerate unknown values.
type DetectedPattern struct {
	PatternType string                 `json:"pattern_type"`
	FilePath    string                 `json:"file_path"`
	Confidence  float64                `json:"confidence"` // in [0,1]
	Evidence    []string               `json:"evidence,omitempty"`
	Lines       []int                  `json:"lines,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ComplexityMetrics summarizes cyclomatic complexity across a file.
type ComplexityMetrics struct {
	AverageComplexity   float64  `json:"average_complexity"`
	MaxComplexity       int      `json:"max_complexity"`
	MinComplexity       int      `json:"min_complexity"`
	HighComplexityFuncs []string `json:"high_complexity_funcs,omitempty"`
	TrivialFuncs        []string `json:"trivial_funcs,omitempty"`
	AverageNestingDepth float64  `json:"average_nesting_depth"`
}

// TeachingValueScore is the deterministic composite quality score. Scoring
// the same file content always yields bit-identical results: the inputs are
// extracted facts only, never the clock or any randomness.
type TeachingValueScore struct {
	TotalScore         float64 `json:"total_score"` // in [0,1]
	DocumentationScore float64 `json:"documentation_score"`
	ComplexityScore    float64 `json:"complexity_score"`
	PatternScore       float64 `json:"pattern_score"`
	StructureScore     float64 `json:"structure_score"`
	Explanation        string  `json:"explanation"`
}

// LintIssue is one issue reported by the external linter.
type LintIssue struct {
	Line     int    `json:"line"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
}

// FileAnalysis is the complete result for one (file, fingerprint) pair.
// It is immutable after creation; a changed file produces a new value.
type FileAnalysis struct {
	FilePath      string             `json:"file_path"`
	Language      parser.Language    `json:"language"`
	Fingerprint   string             `json:"fingerprint"`
	Symbols       SymbolInfo         `json:"symbols"`
	Patterns      []DetectedPattern  `json:"patterns"`
	Complexity    ComplexityMetrics  `json:"complexity"`
	DocCoverage   float64            `json:"doc_coverage"` // in [0,1]
	TeachingValue TeachingValueScore `json:"teaching_value"`
	LintIssues    []LintIssue        `json:"lint_issues,omitempty"`
	HasErrors     bool               `json:"has_errors"`
	Errors        []string           `json:"errors,omitempty"`
	AnalyzedAt    time.Time          `json:"analyzed_at"`
	CacheHit      bool               `json:"cache_hit"`
	IsNotebook    bool               `json:"is_notebook"`
}

// Facts bundles everything the extractors produce for one parse tree.
type Facts struct {
	Symbols       SymbolInfo
	Patterns      []DetectedPattern
	Complexity    ComplexityMetrics
	DocCoverage   float64
	TeachingValue TeachingValueScore
}

// Analyzer turns a parse tree into facts. Implementations must be pure: the
// same tree always yields identical facts.
type Analyzer interface {
	Analyze(path string, tree *parser.Tree) *Facts
}
