package snapshot

import (
	"path/filepath"
	"testing"

	"coursegen/internal/analyze"
	"coursegen/internal/logging"
	"coursegen/internal/storage"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "analysis.db"),
		logging.New(logging.Config{Level: logging.ErrorLevel}))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func sample(path, fingerprint string) *analyze.FileAnalysis {
	return &analyze.FileAnalysis{
		FilePath:    path,
		Language:    "python",
		Fingerprint: fingerprint,
		Symbols: analyze.SymbolInfo{
			Functions: []analyze.FunctionInfo{{Name: "f1", StartLine: 1, EndLine: 3, Complexity: 2}},
		},
		DocCoverage: 0.5,
	}
}

func TestSaveAndGet(t *testing.T) {
	s := testStore(t)

	fa := sample("pkg/mod.py", "abc123")
	if err := s.Save(fa); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Get("pkg/mod.py", "abc123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if got.FilePath != fa.FilePath || got.Fingerprint != fa.Fingerprint {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Symbols.Functions) != 1 || got.Symbols.Functions[0].Name != "f1" {
		t.Errorf("symbols lost in round trip: %+v", got.Symbols)
	}
}

func TestGetMissing(t *testing.T) {
	s := testStore(t)
	got, err := s.Get("nope.py", "abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing snapshot, got %+v", got)
	}
}

func TestGetFingerprintMismatch(t *testing.T) {
	s := testStore(t)
	if err := s.Save(sample("a.py", "old")); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get("a.py", "new")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("stale fingerprint should miss, got %+v", got)
	}

	// empty fingerprint accepts whatever is stored
	got, err = s.Get("a.py", "")
	if err != nil || got == nil {
		t.Fatalf("Get with empty fingerprint = %+v, %v", got, err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := testStore(t)
	if err := s.Save(sample("a.py", "v1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(sample("a.py", "v2")); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get("a.py", "v2")
	if err != nil || got == nil {
		t.Fatalf("Get after overwrite = %+v, %v", got, err)
	}
	if n, _ := s.Count(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestPrune(t *testing.T) {
	s := testStore(t)
	for _, p := range []string{"a.py", "b.py", "c.py"} {
		if err := s.Save(sample(p, "fp")); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := s.Prune(map[string]bool{"a.py": true})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if got, _ := s.Get("a.py", ""); got == nil {
		t.Error("kept snapshot should survive prune")
	}
	if got, _ := s.Get("b.py", ""); got != nil {
		t.Error("pruned snapshot should be gone")
	}
}
