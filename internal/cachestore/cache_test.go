package cachestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dedupstore/dedupstore/internal/digest"
	"github.com/dedupstore/dedupstore/internal/logging"
)

func persistPlain(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}

func sampleRecord(chunks ...string) *FileRecord {
	return &FileRecord{
		Size:    int64(len(chunks)) * 4 << 20,
		ModTime: ModTimeFrom(ModTime{Seconds: 1700000000, Nanos: 123}.Time()),
		Chunks:  chunks,
	}
}

// TestSaveLoadRoundTrip verifies that a cache survives a save/load cycle
// with every entry intact (Testable Property 1 in essence, applied to
// the cache format rather than the chunk format).
func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	cache := New(digest.AlgorithmSHA1, 2)
	cache.Set("a.txt", sampleRecord("aaaa"))
	cache.Set("nested/b.txt", sampleRecord("bbbb", "cccc"))

	if err := Save(path, cache, logging.RootLogger); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadLayered([]string{path}, digest.AlgorithmSHA1, 2, logging.RootLogger)
	if err != nil {
		t.Fatalf("LoadLayered failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("got %d entries, want 2", loaded.Len())
	}
	record, ok := loaded.Get("nested/b.txt")
	if !ok {
		t.Fatal("expected nested/b.txt to be present")
	}
	if len(record.Chunks) != 2 || record.Chunks[0] != "bbbb" || record.Chunks[1] != "cccc" {
		t.Fatalf("unexpected chunks: %v", record.Chunks)
	}
}

// TestLayeredOverlayPrimaryWins verifies S5: a missing primary seeded by
// a fallback, and a primary that does carry an entry overriding the
// fallback's version of that same path.
func TestLayeredOverlayPrimaryWins(t *testing.T) {
	dir := t.TempDir()
	primaryPath := filepath.Join(dir, "new.json")
	fallbackPath := filepath.Join(dir, "yesterday.json")

	fallback := New(digest.AlgorithmSHA1, 0)
	fallback.Set("shared.txt", sampleRecord("old"))
	fallback.Set("only-in-fallback.txt", sampleRecord("keep"))
	if err := Save(fallbackPath, fallback, logging.RootLogger); err != nil {
		t.Fatalf("Save fallback failed: %v", err)
	}

	merged, err := LoadLayered([]string{primaryPath, fallbackPath}, digest.AlgorithmSHA1, 0, logging.RootLogger)
	if err != nil {
		t.Fatalf("LoadLayered failed: %v", err)
	}
	if merged.Len() != 2 {
		t.Fatalf("got %d entries, want 2", merged.Len())
	}
	record, _ := merged.Get("shared.txt")
	if record.Chunks[0] != "old" {
		t.Fatalf("expected fallback entry to seed missing primary, got %v", record.Chunks)
	}

	merged.Set("shared.txt", sampleRecord("new"))
	if err := Save(primaryPath, merged, logging.RootLogger); err != nil {
		t.Fatalf("Save primary failed: %v", err)
	}

	reloaded, err := LoadLayered([]string{primaryPath, fallbackPath}, digest.AlgorithmSHA1, 0, logging.RootLogger)
	if err != nil {
		t.Fatalf("LoadLayered failed: %v", err)
	}
	record, _ = reloaded.Get("shared.txt")
	if record.Chunks[0] != "new" {
		t.Fatalf("expected primary entry to win over fallback, got %v", record.Chunks)
	}
	if _, ok := reloaded.Get("only-in-fallback.txt"); !ok {
		t.Fatal("expected fallback-only entry to survive the overlay")
	}
}

// TestLoadLayeredMissingNonPrimaryIsNotFatal verifies that an absent
// fallback file is skipped with a warning rather than failing the load.
func TestLoadLayeredMissingNonPrimaryIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	primaryPath := filepath.Join(dir, "primary.json")
	cache := New(digest.AlgorithmSHA1, 0)
	cache.Set("a.txt", sampleRecord("aaaa"))
	if err := Save(primaryPath, cache, logging.RootLogger); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	missingFallback := filepath.Join(dir, "does-not-exist.json")
	loaded, err := LoadLayered([]string{primaryPath, missingFallback}, digest.AlgorithmSHA1, 0, logging.RootLogger)
	if err != nil {
		t.Fatalf("LoadLayered failed: %v", err)
	}
	if loaded.Len() != 1 {
		t.Fatalf("got %d entries, want 1", loaded.Len())
	}
}

// TestLoadLayeredAlgorithmMismatchIsFatal verifies that a cache file
// declaring a different hash algorithm than the run fails the load.
func TestLoadLayeredAlgorithmMismatchIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	cache := New(digest.AlgorithmMD5, 0)
	cache.Set("a.txt", sampleRecord("aaaa"))
	if err := Save(path, cache, logging.RootLogger); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := LoadLayered([]string{path}, digest.AlgorithmSHA256, 0, logging.RootLogger); err == nil {
		t.Fatal("expected algorithm mismatch to be fatal")
	}
}

// TestLoadLayeredCorruptCacheIsFatal verifies that an unparseable cache
// file fails the load with a descriptive error.
func TestLoadLayeredCorruptCacheIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	if err := persistPlain(path, []byte("{not valid json")); err != nil {
		t.Fatalf("unable to write fixture: %v", err)
	}

	if _, err := LoadLayered([]string{path}, digest.AlgorithmSHA1, 0, logging.RootLogger); err == nil {
		t.Fatal("expected corrupt cache file to be fatal")
	}
}

// TestLoadLayeredRecoversDeclutterLevelFromDisk verifies that a cache
// saved with a given declutter level reports that level after being
// loaded again with a different (placeholder) level passed in, so that
// a hydrate invoked without an explicit level can recover the one the
// dedupe run actually used.
func TestLoadLayeredRecoversDeclutterLevelFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	cache := New(digest.AlgorithmSHA1, 3)
	cache.Set("a.txt", sampleRecord("aaaa"))
	if err := Save(path, cache, logging.RootLogger); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadLayered([]string{path}, digest.AlgorithmSHA1, 0, logging.RootLogger)
	if err != nil {
		t.Fatalf("LoadLayered failed: %v", err)
	}
	if loaded.DeclutterLevel() != 3 {
		t.Fatalf("got declutter level %d, want 3", loaded.DeclutterLevel())
	}
}

// TestCacheClone verifies that cloning produces an independent copy.
func TestCacheClone(t *testing.T) {
	cache := New(digest.AlgorithmSHA1, 0)
	cache.Set("a.txt", sampleRecord("aaaa"))

	clone := cache.Clone()
	clone.Set("a.txt", sampleRecord("bbbb"))

	original, _ := cache.Get("a.txt")
	if original.Chunks[0] != "aaaa" {
		t.Fatalf("mutating clone affected original: %v", original.Chunks)
	}
}
