// Package pipeline runs the per-file analysis flow: fingerprint, cache
// lookup, parse, fact extraction, packaging, cache write-back. File-level
// faults are captured into the result, never returned as errors, so one bad
// file cannot fail a codebase run.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coursegen/internal/analyze"
	"coursegen/internal/apperr"
	"coursegen/internal/cache"
	"coursegen/internal/config"
	"coursegen/internal/logging"
	"coursegen/internal/parser"
	"coursegen/internal/snapshot"
)

const astKeyPrefix = "ast:"

// Linter produces lint issues for a file. Implementations must never block
// analysis: a linter failure yields zero issues.
type Linter interface {
	Lint(ctx context.Context, path, language string) []analyze.LintIssue
}

// Pipeline analyzes single files. Safe for concurrent use.
type Pipeline struct {
	cfg      *config.Config
	cache    *cache.TieredCache
	snaps    *snapshot.Store
	parser   parser.Parser
	analyzer analyze.Analyzer
	linter   Linter
	logger   *logging.Logger
	now      func() time.Time
}

// Options carries the pipeline's collaborators. Cache and Snapshots may be
// nil, which disables the corresponding stage. Linter is consulted only when
// the config enables linting.
type Options struct {
	Cache     *cache.TieredCache
	Snapshots *snapshot.Store
	Parser    parser.Parser
	Analyzer  analyze.Analyzer
	Linter    Linter
}

// New creates a pipeline.
func New(cfg *config.Config, opts Options, logger *logging.Logger) *Pipeline {
	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer = analyze.NewAnalyzer()
	}
	return &Pipeline{
		cfg:      cfg,
		cache:    opts.Cache,
		snaps:    opts.Snapshots,
		parser:   opts.Parser,
		analyzer: analyzer,
		linter:   opts.Linter,
		logger:   logger,
		now:      time.Now,
	}
}

// Fingerprint returns the content hash used for cache keys and incremental
// comparison.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// AnalyzeFile analyzes one file. A relative path is resolved against the
// configured repository root and kept as the result's identity. Force skips
// the cache read so the file is recomputed; the fresh result still replaces
// the cached one. The result is always non-nil; faults are recorded on it
// with HasErrors set.
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string, force bool) *analyze.FileAnalysis {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.cfg.RepoRoot, filepath.FromSlash(path))
	}

	info, err := os.Stat(abs)
	if err != nil {
		return p.errorResult(path, apperr.FileNotFound, fmt.Sprintf("stat %s: %v", path, err))
	}
	if info.Size() > p.cfg.MaxFileSizeBytes() {
		return p.errorResult(path, apperr.FileTooLarge,
			fmt.Sprintf("%s is %d bytes, limit %d", path, info.Size(), p.cfg.MaxFileSizeBytes()))
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return p.errorResult(path, apperr.FileNotFound, fmt.Sprintf("read %s: %v", path, err))
	}
	fingerprint := Fingerprint(content)

	if !force {
		if cached := p.fromCache(ctx, path, fingerprint); cached != nil {
			return cached
		}
	}

	result := p.analyzeContent(ctx, path, content, fingerprint)

	if p.cfg.EnableLint && p.linter != nil && !result.HasErrors {
		result.LintIssues = p.linter.Lint(ctx, abs, string(result.Language))
	}

	// timeouts are transient; caching them would pin a bad result to a
	// content hash that might analyze fine next run
	if ctx.Err() == nil {
		p.store(ctx, result)
	}
	return result
}

// analyzeContent parses and extracts facts. Identical content always yields
// identical facts; only AnalyzedAt differs between runs.
func (p *Pipeline) analyzeContent(ctx context.Context, path string, content []byte, fingerprint string) *analyze.FileAnalysis {
	isNotebook := parser.IsNotebook(path)
	if isNotebook {
		src, err := notebookSource(content)
		if err != nil {
			res := p.errorResult(path, apperr.ParseError, fmt.Sprintf("decode notebook %s: %v", path, err))
			res.Fingerprint = fingerprint
			res.IsNotebook = true
			return res
		}
		content = src
	}

	lang, _ := parser.DetectLanguage(path, content)
	result := &analyze.FileAnalysis{
		FilePath:    path,
		Language:    lang,
		Fingerprint: fingerprint,
		AnalyzedAt:  p.now(),
		IsNotebook:  isNotebook,
	}
	if lang == parser.LangUnknown {
		// unsupported language is not a fault, just an empty result
		result.Symbols = analyze.SymbolInfo{
			Functions: []analyze.FunctionInfo{},
			Classes:   []analyze.ClassInfo{},
			Imports:   []analyze.ImportInfo{},
		}
		result.Patterns = []analyze.DetectedPattern{}
		return result
	}

	tree, err := p.parser.Parse(ctx, content, lang)
	if err != nil {
		if ctx.Err() != nil {
			result.HasErrors = true
			result.Errors = append(result.Errors, string(apperr.Timeout)+": "+ctx.Err().Error())
			return result
		}
		result.HasErrors = true
		result.Errors = append(result.Errors, string(apperr.ParseError)+": "+err.Error())
		return result
	}
	if tree.HasError {
		// the grammar recovered, facts below cover the parseable regions
		result.HasErrors = true
		result.Errors = append(result.Errors, string(apperr.ParseError)+": source contains syntax errors")
	}

	facts := p.analyzer.Analyze(path, tree)
	result.Symbols = facts.Symbols
	result.Patterns = facts.Patterns
	result.Complexity = facts.Complexity
	result.DocCoverage = facts.DocCoverage
	result.TeachingValue = facts.TeachingValue
	return result
}

// fromCache retrieves a previous analysis by fingerprint. A hit for the same
// content under a different path is rewritten to the current path.
func (p *Pipeline) fromCache(ctx context.Context, path, fingerprint string) *analyze.FileAnalysis {
	if p.cache == nil {
		return nil
	}
	raw, ok := p.cache.Get(ctx, astKeyPrefix+fingerprint)
	if !ok {
		return nil
	}
	var fa analyze.FileAnalysis
	if err := json.Unmarshal(raw, &fa); err != nil {
		p.logger.Warn("discarding undecodable cache entry", map[string]interface{}{
			"key":   astKeyPrefix + fingerprint,
			"error": err.Error(),
		})
		p.cache.Delete(ctx, astKeyPrefix+fingerprint)
		return nil
	}
	fa.FilePath = path
	fa.CacheHit = true
	return &fa
}

func (p *Pipeline) store(ctx context.Context, result *analyze.FileAnalysis) {
	if p.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			p.cache.Set(ctx, astKeyPrefix+result.Fingerprint, raw, p.cfg.CacheTTLSeconds)
		}
	}
	if p.snaps != nil {
		if err := p.snaps.Save(result); err != nil {
			p.logger.Warn("snapshot write failed", map[string]interface{}{
				"path":  result.FilePath,
				"error": err.Error(),
			})
		}
	}
}

func (p *Pipeline) errorResult(path string, code apperr.Code, message string) *analyze.FileAnalysis {
	return &analyze.FileAnalysis{
		FilePath:   path,
		Language:   parser.LangUnknown,
		AnalyzedAt: p.now(),
		HasErrors:  true,
		Errors:     []string{string(code) + ": " + message},
	}
}

// notebookSource concatenates the code cells of a Jupyter notebook into one
// python source blob. Markdown and raw cells are skipped.
func notebookSource(content []byte) ([]byte, error) {
	var nb struct {
		Cells []struct {
			CellType string          `json:"cell_type"`
			Source   json.RawMessage `json:"source"`
		} `json:"cells"`
	}
	if err := json.Unmarshal(content, &nb); err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, cell := range nb.Cells {
		if cell.CellType != "code" {
			continue
		}
		// source is either a string or a list of lines
		var lines []string
		if err := json.Unmarshal(cell.Source, &lines); err != nil {
			var s string
			if err := json.Unmarshal(cell.Source, &s); err != nil {
				return nil, err
			}
			lines = []string{s}
		}
		for _, line := range lines {
			b.WriteString(line)
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	return []byte(b.String()), nil
}
