package cache

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/parser"
)

// Metrics tracks one ParseFiles call
type Metrics struct {
	TotalFiles      int
	CacheHits       int
	CacheMisses     int
	FilesParsed     int
	TotalDuration   time.Duration
	ParsingDuration time.Duration
	StartTime       time.Time
	EndTime         time.Time
}

// CacheHitRate returns the cache hit rate as a percentage
func (m *Metrics) CacheHitRate() float64 {
	if m.TotalFiles == 0 {
		return 0.0
	}
	return float64(m.CacheHits) / float64(m.TotalFiles) * 100.0
}

// Result is the outcome of loading one file
type Result struct {
	Path   string
	File   *ast.File
	Errors []parser.ParseError
	Hash   string
	Err    error
	Cached bool
}

// Coordinator loads C# files through the cache, parsing misses concurrently
type Coordinator struct {
	files   *FileCache
	workers int

	mu      sync.Mutex
	metrics *Metrics
}

// NewCoordinator creates a coordinator parsing with up to workers goroutines.
// workers <= 0 means one per CPU.
func NewCoordinator(workers int) *Coordinator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Coordinator{
		files:   NewFileCache(),
		workers: workers,
		metrics: &Metrics{},
	}
}

// ParseFiles loads every path. Per-file failures are reported in the results;
// the error is only set when ctx is cancelled. Results keep the order of paths.
func (c *Coordinator) ParseFiles(ctx context.Context, paths []string) ([]*Result, *Metrics, error) {
	metrics := &Metrics{TotalFiles: len(paths), StartTime: time.Now()}
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.parseFile(gctx, path, metrics)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	metrics.EndTime = time.Now()
	metrics.TotalDuration = metrics.EndTime.Sub(metrics.StartTime)
	c.metrics = metrics
	snapshot := *metrics
	c.mu.Unlock()

	return results, &snapshot, nil
}

func (c *Coordinator) parseFile(ctx context.Context, path string, metrics *Metrics) *Result {
	content, hash, err := readHashed(path)
	if err != nil {
		return &Result{Path: path, Err: err}
	}

	if entry, ok := c.files.Lookup(path, hash); ok {
		c.mu.Lock()
		metrics.CacheHits++
		c.mu.Unlock()
		return &Result{Path: path, File: entry.File, Errors: entry.Errors, Hash: hash, Cached: true}
	}

	start := time.Now()
	file, errs, err := parser.ParseFile(ctx, path, content)
	elapsed := time.Since(start)

	c.mu.Lock()
	metrics.CacheMisses++
	metrics.ParsingDuration += elapsed
	if err == nil {
		metrics.FilesParsed++
	}
	c.mu.Unlock()

	if err != nil {
		return &Result{Path: path, Hash: hash, Err: err}
	}
	c.files.Set(path, hash, file, errs)
	return &Result{Path: path, File: file, Errors: errs, Hash: hash}
}

// Invalidate drops the cached parse of each path.
func (c *Coordinator) Invalidate(paths ...string) {
	for _, p := range paths {
		c.files.Invalidate(p)
	}
}

// Metrics returns a copy of the metrics of the last ParseFiles call
func (c *Coordinator) Metrics() *Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := *c.metrics
	return &m
}

// CacheSize returns the number of cached files
func (c *Coordinator) CacheSize() int {
	return c.files.Size()
}

// Clear empties the cache
func (c *Coordinator) Clear() {
	c.files.InvalidateAll()
	c.mu.Lock()
	c.metrics = &Metrics{}
	c.mu.Unlock()
}

// skippedDirs are build output and tooling directories never holding sources to check.
var skippedDirs = map[string]bool{
	"bin":          true,
	"obj":          true,
	".git":         true,
	".vs":          true,
	"node_modules": true,
}

// ScanDirectory lists the .cs files under root. Patterns are matched against the
// slash separated path relative to root and against the base name; a pattern
// ending in "/" matches a directory prefix. With include patterns a file must
// match one of them. Excludes always win.
func ScanDirectory(root string, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && (skippedDirs[d.Name()] || matchAny(exclude, rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".cs" || matchAny(exclude, rel) {
			return nil
		}
		if len(include) > 0 && !matchAny(include, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return files, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(rel, p) || strings.Contains(rel, "/"+p) {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, pathBase(rel)); ok {
			return true
		}
	}
	return false
}

func pathBase(rel string) string {
	if i := strings.LastIndexByte(strings.TrimSuffix(rel, "/"), '/'); i >= 0 {
		return rel[i+1:]
	}
	return rel
}
