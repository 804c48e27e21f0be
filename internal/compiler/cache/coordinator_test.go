package cache

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func createTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
	return path
}

const gaugeSource = `
public class Gauge : FrameworkElement
{
    public static readonly DependencyProperty ValueProperty = DependencyProperty.Register(
        "Value", typeof(double), typeof(Gauge));
}`

func TestCoordinator_ParseFiles(t *testing.T) {
	dir := t.TempDir()
	gauge := createTestFile(t, dir, "Gauge.cs", gaugeSource)
	broken := createTestFile(t, dir, "Broken.cs", `public class Broken { public int X = ; }`)
	missing := filepath.Join(dir, "Missing.cs")

	c := NewCoordinator(2)
	results, metrics, err := c.ParseFiles(context.Background(), []string{gauge, broken, missing})
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	if results[0].Err != nil || results[0].File == nil {
		t.Fatalf("Gauge.cs not parsed: %v", results[0].Err)
	}
	if got := results[0].File.Types[0].Name.Name; got != "Gauge" {
		t.Errorf("Expected type Gauge, got %s", got)
	}
	if len(results[1].Errors) == 0 {
		t.Error("Expected syntax errors for Broken.cs")
	}
	if results[1].File == nil {
		t.Error("A file with syntax errors should still be lowered")
	}
	if results[2].Err == nil {
		t.Error("Expected an error for a missing file")
	}

	if metrics.TotalFiles != 3 {
		t.Errorf("Expected 3 total files, got %d", metrics.TotalFiles)
	}
	if metrics.CacheHits != 0 {
		t.Errorf("Expected 0 cache hits on first parse, got %d", metrics.CacheHits)
	}
	if metrics.FilesParsed != 2 {
		t.Errorf("Expected 2 files parsed, got %d", metrics.FilesParsed)
	}
}

func TestCoordinator_CacheHitsAndInvalidation(t *testing.T) {
	dir := t.TempDir()
	gauge := createTestFile(t, dir, "Gauge.cs", gaugeSource)

	c := NewCoordinator(0)
	first, _, err := c.ParseFiles(context.Background(), []string{gauge})
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}

	second, metrics, err := c.ParseFiles(context.Background(), []string{gauge})
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}
	if !second[0].Cached || metrics.CacheHits != 1 {
		t.Errorf("Expected a cache hit, got cached=%v hits=%d", second[0].Cached, metrics.CacheHits)
	}
	if second[0].File != first[0].File {
		t.Error("Cache hit should return the same parsed file")
	}
	if metrics.CacheHitRate() != 100.0 {
		t.Errorf("Expected 100%% hit rate, got %.1f", metrics.CacheHitRate())
	}

	// Changed content is re-parsed.
	createTestFile(t, dir, "Gauge.cs", gaugeSource+"\n// edited\n")
	third, _, _ := c.ParseFiles(context.Background(), []string{gauge})
	if third[0].Cached {
		t.Error("Edited file should not be served from cache")
	}

	c.Invalidate(gauge)
	if c.CacheSize() != 0 {
		t.Errorf("Expected empty cache after Invalidate, got %d", c.CacheSize())
	}
}

func TestCoordinator_Cancelled(t *testing.T) {
	dir := t.TempDir()
	gauge := createTestFile(t, dir, "Gauge.cs", gaugeSource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCoordinator(1)
	if _, _, err := c.ParseFiles(ctx, []string{gauge}); err == nil {
		t.Error("Expected an error for a cancelled context")
	}
}

func TestFileCache_LookupDropsStaleEntries(t *testing.T) {
	fc := NewFileCache()
	fc.Set("/src/A.cs", "h1", nil, nil)

	if _, ok := fc.Lookup("/src/A.cs", "h1"); !ok {
		t.Error("Lookup() with matching hash should hit")
	}
	if _, ok := fc.Lookup("/src/A.cs", "h2"); ok {
		t.Error("Lookup() with a different hash should miss")
	}
	if _, ok := fc.Get("/src/A.cs"); ok {
		t.Error("Stale entry should have been dropped")
	}
}

func TestFileCache_Prune(t *testing.T) {
	fc := NewFileCache()
	fc.Set("/src/Old.cs", "h1", nil, nil)
	fc.Set("/src/New.cs", "h2", nil, nil)

	old, _ := fc.Get("/src/Old.cs")
	old.LastChecked = time.Now().Add(-2 * time.Hour)

	if pruned := fc.Prune(time.Hour); pruned != 1 {
		t.Errorf("Prune() = %d, want 1", pruned)
	}
	if fc.Size() != 1 {
		t.Errorf("Size() = %d, want 1", fc.Size())
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("a")) == Hash([]byte("b")) {
		t.Error("Different content should hash differently")
	}
	if len(Hash(nil)) != 64 {
		t.Errorf("Expected a hex SHA-256, got %q", Hash(nil))
	}
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "Controls/Gauge.cs", gaugeSource)
	createTestFile(t, dir, "Controls/Gauge.g.cs", gaugeSource)
	createTestFile(t, dir, "Generated/Auto.cs", gaugeSource)
	createTestFile(t, dir, "obj/Debug/Temp.cs", gaugeSource)
	createTestFile(t, dir, "README.md", "# docs")

	files, err := ScanDirectory(dir, nil, []string{"*.g.cs", "Generated/"})
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}
	rel := relPaths(t, dir, files)
	if len(rel) != 1 || rel[0] != "Controls/Gauge.cs" {
		t.Errorf("ScanDirectory() = %v, want [Controls/Gauge.cs]", rel)
	}

	files, err = ScanDirectory(dir, []string{"Generated/*.cs"}, nil)
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}
	rel = relPaths(t, dir, files)
	if len(rel) != 1 || rel[0] != "Generated/Auto.cs" {
		t.Errorf("ScanDirectory() = %v, want [Generated/Auto.cs]", rel)
	}
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(r))
	}
	sort.Strings(out)
	return out
}
