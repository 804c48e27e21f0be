package cache

import (
	"sync"
	"time"

	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/parser"
)

// Entry is one parsed file with its syntax errors
type Entry struct {
	File        *ast.File
	Errors      []parser.ParseError
	Hash        string
	Path        string
	CachedAt    time.Time
	LastChecked time.Time
}

// FileCache stores parsed files by path. It is safe for concurrent use.
type FileCache struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

// NewFileCache creates an empty cache
func NewFileCache() *FileCache {
	return &FileCache{
		entries: make(map[string]*Entry),
	}
}

// Lookup returns the entry for path when its content hash still matches.
// A stale entry is dropped.
func (fc *FileCache) Lookup(path, hash string) (*Entry, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	entry, ok := fc.entries[path]
	if !ok {
		return nil, false
	}
	if entry.Hash != hash {
		delete(fc.entries, path)
		return nil, false
	}
	entry.LastChecked = time.Now()
	return entry, true
}

// Get returns the entry for path regardless of its hash.
func (fc *FileCache) Get(path string) (*Entry, bool) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	entry, ok := fc.entries[path]
	return entry, ok
}

// Set stores a parsed file
func (fc *FileCache) Set(path, hash string, file *ast.File, errs []parser.ParseError) *Entry {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	now := time.Now()
	entry := &Entry{
		File:        file,
		Errors:      errs,
		Hash:        hash,
		Path:        path,
		CachedAt:    now,
		LastChecked: now,
	}
	fc.entries[path] = entry
	return entry
}

// Invalidate removes path from the cache
func (fc *FileCache) Invalidate(path string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	delete(fc.entries, path)
}

// InvalidateAll clears the cache
func (fc *FileCache) InvalidateAll() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	clear(fc.entries)
}

// Size returns the number of cached files
func (fc *FileCache) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	return len(fc.entries)
}

// Prune drops entries not looked up within maxAge and returns how many were dropped.
func (fc *FileCache) Prune(maxAge time.Duration) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	now := time.Now()
	pruned := 0
	for path, entry := range fc.entries {
		if now.Sub(entry.LastChecked) > maxAge {
			delete(fc.entries, path)
			pruned++
		}
	}
	return pruned
}
