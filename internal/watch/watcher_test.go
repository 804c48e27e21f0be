package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// startWatcher watches dir for C# files and returns the channel receiving change batches
func startWatcher(t *testing.T, dir string) <-chan []string {
	t.Helper()
	changes := make(chan []string, 16)

	watcher, err := NewFileWatcher(dir, []string{"*.cs"}, []string{"*.g.cs"}, func(files []string) error {
		changes <- files
		return nil
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	watcher.SetDebounce(50 * time.Millisecond)
	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	t.Cleanup(func() { _ = watcher.Stop() })
	return changes
}

// waitFor waits until a batch containing path arrives
func waitFor(t *testing.T, changes <-chan []string, path string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case files := <-changes:
			for _, f := range files {
				if f == path {
					return
				}
			}
		case <-timeout:
			t.Fatalf("no change reported for %s", path)
		}
	}
}

func TestFileWatcher_Start(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "Gauge.cs")
	if err := os.WriteFile(testFile, []byte("class Gauge {}"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	changes := startWatcher(t, tmpDir)

	if err := os.WriteFile(testFile, []byte("class Gauge { }"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}
	waitFor(t, changes, testFile)
}

func TestFileWatcher_Remove(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "Gauge.cs")
	if err := os.WriteFile(testFile, []byte("class Gauge {}"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	changes := startWatcher(t, tmpDir)

	if err := os.Remove(testFile); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}
	waitFor(t, changes, testFile)
}

func TestFileWatcher_NewDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	changes := startWatcher(t, tmpDir)

	sub := filepath.Join(tmpDir, "Controls")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	// Give the watcher time to register the new directory.
	time.Sleep(200 * time.Millisecond)

	testFile := filepath.Join(sub, "Dial.cs")
	if err := os.WriteFile(testFile, []byte("class Dial {}"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	waitFor(t, changes, testFile)
}

func TestFileWatcher_FindDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	for _, dir := range []string{"Controls", "obj/Debug", "bin", ".git", "Controls/Themes"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, dir), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	watcher := &FileWatcher{}
	dirs, err := watcher.findDirectories(tmpDir)
	if err != nil {
		t.Fatalf("findDirectories() failed: %v", err)
	}

	want := map[string]bool{
		tmpDir:                                     true,
		filepath.Join(tmpDir, "Controls"):          true,
		filepath.Join(tmpDir, "Controls", "Themes"): true,
	}
	if len(dirs) != len(want) {
		t.Fatalf("Expected %d directories, got %v", len(want), dirs)
	}
	for _, d := range dirs {
		if !want[d] {
			t.Errorf("Unexpected directory %s", d)
		}
	}
}

func TestDebouncer_Add(t *testing.T) {
	var mu sync.Mutex
	var called bool
	var files []string

	debouncer := NewDebouncer(50 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
		files = f
	})

	debouncer.Add("Gauge.cs")
	debouncer.Add("Dial.cs")
	debouncer.Add("Gauge.cs") // Duplicate

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if !called {
		t.Error("Expected callback to be called")
	}
	if len(files) != 2 {
		t.Errorf("Expected 2 unique files, got %d", len(files))
	}
}

func TestDebouncer_MultipleFlushes(t *testing.T) {
	var mu sync.Mutex
	var callCount int

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	})

	debouncer.Add("Gauge.cs")
	time.Sleep(100 * time.Millisecond)

	debouncer.Add("Dial.cs")
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if callCount != 2 {
		t.Errorf("Expected 2 callback calls, got %d", callCount)
	}
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	var mu sync.Mutex
	var called bool

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
	})

	debouncer.Add("Gauge.cs")
	debouncer.Stop()
	debouncer.Add("Dial.cs")
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if called {
		t.Error("Expected no callback after Stop")
	}
}

func TestFileWatcher_ShouldIgnore(t *testing.T) {
	watcher := &FileWatcher{
		ignored: []string{"*.g.cs", "*.swp"},
	}

	tests := []struct {
		path     string
		expected bool
	}{
		{"Gauge.cs", false},
		{"Gauge.g.cs", true},
		{"Gauge.cs.swp", true},
		{".hidden.cs", true},
		{"Controls/Dial.cs", false},
	}

	for _, tt := range tests {
		result := watcher.shouldIgnore(tt.path)
		if result != tt.expected {
			t.Errorf("shouldIgnore(%q) = %v, expected %v", tt.path, result, tt.expected)
		}
	}
}

func TestFileWatcher_MatchesPattern(t *testing.T) {
	tests := []struct {
		patterns []string
		path     string
		expected bool
	}{
		{[]string{"*.cs"}, "Gauge.cs", true},
		{[]string{"*.cs"}, "Gauge.CS", true},
		{[]string{"*.cs"}, "Gauge.xaml", false},
		{[]string{"*.cs", "*.xaml"}, "Generic.xaml", true},
		{[]string{"Gauge*.cs"}, "GaugeBase.cs", true},
		{[]string{}, "anything.txt", true}, // No patterns = match all
	}

	for _, tt := range tests {
		watcher := &FileWatcher{patterns: tt.patterns}
		result := watcher.matchesPattern(tt.path)
		if result != tt.expected {
			t.Errorf("matchesPattern(%v, %q) = %v, expected %v",
				tt.patterns, tt.path, result, tt.expected)
		}
	}
}

func TestFileWatcher_Stop(t *testing.T) {
	watcher, err := NewFileWatcher(t.TempDir(), []string{"*.cs"}, nil, func(files []string) error { return nil }, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}

	// Second stop is a no-op
	if err := watcher.Stop(); err != nil {
		t.Errorf("second Stop() returned error: %v", err)
	}
}

func BenchmarkDebouncer_Add(b *testing.B) {
	debouncer := NewDebouncer(100 * time.Millisecond)
	debouncer.SetCallback(func(files []string) {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		debouncer.Add("Gauge.cs")
	}
}
