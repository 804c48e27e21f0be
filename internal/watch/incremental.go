package watch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dplint/dplint/internal/analyzer/driver"
	"github.com/dplint/dplint/internal/compiler/cache"
)

// IncrementalChecker re-checks a source tree after changes. Parsed files are
// kept in a cache between runs so that only changed files are parsed again;
// the analysis itself always covers the whole tree because a property's
// declarations may live in several files.
type IncrementalChecker struct {
	driver  *driver.Driver
	loader  *cache.Coordinator
	root    string
	include []string
	exclude []string
	logger  *zap.Logger

	// Last successful check time
	lastCheck time.Time
}

// NewIncrementalChecker creates a checker for the C# files under root. The
// driver must load files through loader (driver.WithCache).
func NewIncrementalChecker(d *driver.Driver, loader *cache.Coordinator, root string, include, exclude []string, logger *zap.Logger) *IncrementalChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncrementalChecker{
		driver:  d,
		loader:  loader,
		root:    root,
		include: include,
		exclude: exclude,
		logger:  logger,
	}
}

// CheckResult holds the result of one check
type CheckResult struct {
	Report       *driver.Report
	ChangedFiles []string
	Duration     time.Duration
}

// Recheck drops the changed files from the cache, rescans the tree for added
// or removed files and checks it again.
func (ic *IncrementalChecker) Recheck(ctx context.Context, changedFiles []string) (*CheckResult, error) {
	start := time.Now()
	ic.loader.Invalidate(changedFiles...)

	paths, err := cache.ScanDirectory(ic.root, ic.include, ic.exclude)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", ic.root, err)
	}

	report, err := ic.driver.CheckPaths(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", ic.root, err)
	}

	ic.lastCheck = time.Now()
	result := &CheckResult{
		Report:       report,
		ChangedFiles: changedFiles,
		Duration:     time.Since(start),
	}
	ic.logger.Debug("recheck finished",
		zap.Int("changed", len(changedFiles)),
		zap.Int("files", len(paths)),
		zap.Int("cached", ic.loader.CacheSize()),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// FullCheck clears the cache and checks the whole tree
func (ic *IncrementalChecker) FullCheck(ctx context.Context) (*CheckResult, error) {
	ic.loader.Clear()
	return ic.Recheck(ctx, nil)
}

// LastCheck returns the time of the last successful check
func (ic *IncrementalChecker) LastCheck() time.Time {
	return ic.lastCheck
}
