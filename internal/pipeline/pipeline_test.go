package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"coursegen/internal/cache"
	"coursegen/internal/config"
	"coursegen/internal/logging"
	"coursegen/internal/parser"
	"coursegen/internal/storage"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: logging.ErrorLevel})
}

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.RepoRoot = root
	return cfg
}

// fakeParser returns a minimal valid tree and records call counts. A delay
// lets scheduler tests force timeouts without real grammars.
type fakeParser struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
	err   error
}

func (f *fakeParser) Parse(ctx context.Context, source []byte, lang parser.Language) (*parser.Tree, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	root := &parser.Node{Type: "module", StartLine: 1, EndLine: 1, Children: []*parser.Node{
		{Type: "function_definition", StartLine: 1, EndLine: 1, Children: []*parser.Node{
			{Type: "identifier", Field: "name", Text: "f1", StartLine: 1, EndLine: 1},
		}},
	}}
	return &parser.Tree{Language: lang, Root: root}, nil
}

func (f *fakeParser) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testCache(t *testing.T, root string) *cache.TieredCache {
	t.Helper()
	db, err := storage.Open(filepath.Join(root, "analysis.db"), testLogger())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	c := cache.New(db, cache.Options{MaxMemoryBytes: 1 << 20}, testLogger())
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("cache init: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAnalyzeFileMissing(t *testing.T) {
	dir := t.TempDir()
	p := New(testConfig(dir), Options{Parser: &fakeParser{}}, testLogger())

	fa := p.AnalyzeFile(context.Background(), filepath.Join(dir, "absent.py"), false)
	if !fa.HasErrors {
		t.Fatal("expected HasErrors for missing file")
	}
	if len(fa.Errors) == 0 || !contains(fa.Errors[0], "FILE_NOT_FOUND") {
		t.Errorf("errors = %v, want FILE_NOT_FOUND", fa.Errors)
	}
}

func TestAnalyzeFileTooLarge(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.MaxFileSizeMB = 0
	p := New(cfg, Options{Parser: &fakeParser{}}, testLogger())

	path := writeFile(t, dir, "big.py", "x = 1\n")
	fa := p.AnalyzeFile(context.Background(), path, false)
	if !fa.HasErrors || !contains(fa.Errors[0], "FILE_TOO_LARGE") {
		t.Errorf("errors = %v, want FILE_TOO_LARGE", fa.Errors)
	}
}

func TestAnalyzeFileCacheHit(t *testing.T) {
	dir := t.TempDir()
	fp := &fakeParser{}
	p := New(testConfig(dir), Options{Parser: fp, Cache: testCache(t, dir)}, testLogger())
	path := writeFile(t, dir, "mod.py", "def f1():\n    pass\n")

	first := p.AnalyzeFile(context.Background(), path, false)
	if first.HasErrors {
		t.Fatalf("unexpected errors: %v", first.Errors)
	}
	if first.CacheHit {
		t.Error("first analysis should not be a cache hit")
	}

	second := p.AnalyzeFile(context.Background(), path, false)
	if !second.CacheHit {
		t.Error("second analysis should be a cache hit")
	}
	if fp.callCount() != 1 {
		t.Errorf("parser called %d times, want 1", fp.callCount())
	}
	if second.Fingerprint != first.Fingerprint {
		t.Errorf("fingerprint changed: %s vs %s", first.Fingerprint, second.Fingerprint)
	}
}

func TestAnalyzeFileForceBypassesCache(t *testing.T) {
	dir := t.TempDir()
	fp := &fakeParser{}
	p := New(testConfig(dir), Options{Parser: fp, Cache: testCache(t, dir)}, testLogger())
	path := writeFile(t, dir, "mod.py", "def f1():\n    pass\n")

	p.AnalyzeFile(context.Background(), path, false)

	forced := p.AnalyzeFile(context.Background(), path, true)
	if forced.CacheHit {
		t.Error("forced analysis should not be served from cache")
	}
	if fp.callCount() != 2 {
		t.Errorf("parser called %d times, want recompute on force", fp.callCount())
	}

	// the forced result still lands in the cache for later runs
	again := p.AnalyzeFile(context.Background(), path, false)
	if !again.CacheHit {
		t.Error("expected cache hit after forced recompute")
	}
	if fp.callCount() != 2 {
		t.Errorf("parser called %d times after cached read, want 2", fp.callCount())
	}
}

func TestAnalyzeFileSharedContent(t *testing.T) {
	dir := t.TempDir()
	p := New(testConfig(dir), Options{Parser: &fakeParser{}, Cache: testCache(t, dir)}, testLogger())
	a := writeFile(t, dir, "a.py", "def f1():\n    pass\n")
	b := writeFile(t, dir, "b.py", "def f1():\n    pass\n")

	p.AnalyzeFile(context.Background(), a, false)
	got := p.AnalyzeFile(context.Background(), b, false)
	if !got.CacheHit {
		t.Error("identical content should hit the cache")
	}
	if got.FilePath != b {
		t.Errorf("cached result path = %q, want %q", got.FilePath, b)
	}
}

func TestAnalyzeFileParseError(t *testing.T) {
	dir := t.TempDir()
	fp := &fakeParser{err: errors.New("bad syntax")}
	p := New(testConfig(dir), Options{Parser: fp}, testLogger())
	path := writeFile(t, dir, "broken.py", "def (\n")

	fa := p.AnalyzeFile(context.Background(), path, false)
	if !fa.HasErrors || !contains(fa.Errors[0], "PARSE_ERROR") {
		t.Errorf("errors = %v, want PARSE_ERROR", fa.Errors)
	}
	if fa.Fingerprint == "" {
		t.Error("parse failures should still carry a fingerprint")
	}
}

func TestAnalyzeFileUnknownLanguage(t *testing.T) {
	dir := t.TempDir()
	fp := &fakeParser{}
	p := New(testConfig(dir), Options{Parser: fp}, testLogger())
	path := writeFile(t, dir, "notes.txt", "just some prose\n")

	fa := p.AnalyzeFile(context.Background(), path, false)
	if fa.HasErrors {
		t.Errorf("unknown language is not an error: %v", fa.Errors)
	}
	if fp.callCount() != 0 {
		t.Error("unknown language should not be parsed")
	}
	if len(fa.Symbols.Functions) != 0 {
		t.Errorf("expected empty symbols, got %+v", fa.Symbols)
	}
}

func TestNotebookSource(t *testing.T) {
	nb := `{
		"cells": [
			{"cell_type": "markdown", "source": ["# Title"]},
			{"cell_type": "code", "source": ["def f1():\n", "    pass\n"]},
			{"cell_type": "code", "source": "x = 1"}
		]
	}`
	src, err := notebookSource([]byte(nb))
	if err != nil {
		t.Fatalf("notebookSource failed: %v", err)
	}
	want := "def f1():\n    pass\nx = 1\n"
	if string(src) != want {
		t.Errorf("source = %q, want %q", src, want)
	}
}

func TestAnalyzeNotebook(t *testing.T) {
	dir := t.TempDir()
	p := New(testConfig(dir), Options{Parser: &fakeParser{}}, testLogger())
	path := writeFile(t, dir, "nb.ipynb", `{"cells":[{"cell_type":"code","source":["def f1():\n","    pass\n"]}]}`)

	fa := p.AnalyzeFile(context.Background(), path, false)
	if !fa.IsNotebook {
		t.Error("expected IsNotebook")
	}
	if fa.Language != parser.LangPython {
		t.Errorf("language = %s, want python", fa.Language)
	}
}

func TestAnalyzeNotebookMalformed(t *testing.T) {
	dir := t.TempDir()
	p := New(testConfig(dir), Options{Parser: &fakeParser{}}, testLogger())
	path := writeFile(t, dir, "bad.ipynb", "{not json")

	fa := p.AnalyzeFile(context.Background(), path, false)
	if !fa.HasErrors || !contains(fa.Errors[0], "PARSE_ERROR") {
		t.Errorf("errors = %v, want PARSE_ERROR", fa.Errors)
	}
}

func TestSchedulerRun(t *testing.T) {
	dir := t.TempDir()
	p := New(testConfig(dir), Options{Parser: &fakeParser{}}, testLogger())
	s := NewScheduler(p, testLogger())

	var paths []string
	for _, name := range []string{"a.py", "b.py", "c.py"} {
		paths = append(paths, writeFile(t, dir, name, "def f1():\n    pass\n# "+name+"\n"))
	}

	res, err := s.Run(context.Background(), paths, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Analyses) != 3 {
		t.Fatalf("got %d analyses, want 3", len(res.Analyses))
	}
	if res.Succeeded != 3 || res.Failed != 0 {
		t.Errorf("succeeded=%d failed=%d, want 3/0", res.Succeeded, res.Failed)
	}
	for _, path := range paths {
		if res.Analyses[path] == nil {
			t.Errorf("missing analysis for %s", path)
		}
	}
}

func TestSchedulerErrorIsolation(t *testing.T) {
	dir := t.TempDir()
	p := New(testConfig(dir), Options{Parser: &fakeParser{}}, testLogger())
	s := NewScheduler(p, testLogger())

	good := writeFile(t, dir, "good.py", "def f1():\n    pass\n")
	missing := filepath.Join(dir, "missing.py")

	res, err := s.Run(context.Background(), []string{good, missing}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 1 {
		t.Errorf("succeeded=%d failed=%d, want 1/1", res.Succeeded, res.Failed)
	}
	if fa := res.Analyses[missing]; fa == nil || !fa.HasErrors {
		t.Errorf("failed file should appear with HasErrors: %+v", fa)
	}
	if fa := res.Analyses[good]; fa == nil || fa.HasErrors {
		t.Errorf("good file should be unaffected: %+v", fa)
	}
}

func TestSchedulerTimeout(t *testing.T) {
	dir := t.TempDir()
	p := New(testConfig(dir), Options{Parser: &fakeParser{delay: time.Second}}, testLogger())
	s := NewScheduler(p, testLogger())
	s.timeout = 50 * time.Millisecond

	path := writeFile(t, dir, "slow.py", "def f1():\n    pass\n")
	res, err := s.Run(context.Background(), []string{path}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	fa := res.Analyses[path]
	if fa == nil || !fa.HasErrors || !contains(fa.Errors[0], "TIMEOUT") {
		t.Errorf("expected TIMEOUT result, got %+v", fa)
	}
	if res.Failed != 1 {
		t.Errorf("failed = %d, want 1", res.Failed)
	}
}

func TestSchedulerEmpty(t *testing.T) {
	dir := t.TempDir()
	p := New(testConfig(dir), Options{Parser: &fakeParser{}}, testLogger())
	s := NewScheduler(p, testLogger())

	res, err := s.Run(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Analyses) != 0 {
		t.Errorf("expected empty result, got %+v", res.Analyses)
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
