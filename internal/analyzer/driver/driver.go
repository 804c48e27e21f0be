// Package driver runs the dependency-property engine over a set of C# files. It
// owns one pass: it binds the files into a compilation, builds the shared callback
// table once and fans the per-declaration analysis out to a bounded worker group.
package driver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dplint/dplint/internal/analyzer/depprop"
	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/cache"
	"github.com/dplint/dplint/internal/compiler/parser"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// RuleSetting overrides the defaults of one rule
type RuleSetting struct {
	Enabled  bool
	Severity rules.Severity // empty keeps the rule's default
}

// Driver checks files. It is safe for concurrent use; each Run is independent.
type Driver struct {
	logger  *zap.Logger
	workers int
	rules   map[rules.ID]RuleSetting
	catalog *semantic.Catalog
	loader  *cache.Coordinator
}

// Option configures a Driver
type Option func(*Driver)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithWorkers bounds the number of concurrent engine invocations.
func WithWorkers(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithRules applies per-rule settings. Rules without a setting keep their defaults.
func WithRules(settings map[rules.ID]RuleSetting) Option {
	return func(d *Driver) {
		for id, s := range settings {
			d.rules[id] = s
		}
	}
}

// WithCatalog replaces the built-in framework catalog.
func WithCatalog(c *semantic.Catalog) Option {
	return func(d *Driver) {
		if c != nil {
			d.catalog = c
		}
	}
}

// WithCache makes CheckPaths load files through c, keeping parses between runs.
func WithCache(c *cache.Coordinator) Option {
	return func(d *Driver) {
		d.loader = c
	}
}

// New creates a driver
func New(opts ...Option) (*Driver, error) {
	d := &Driver{
		logger:  zap.NewNop(),
		workers: runtime.NumCPU(),
		rules:   make(map[rules.ID]RuleSetting),
	}
	for _, opt := range opts {
		opt(d)
	}
	for id := range d.rules {
		if _, ok := rules.Lookup(string(id)); !ok {
			return nil, fmt.Errorf("unknown rule %s", id)
		}
	}
	if d.catalog == nil {
		c, err := semantic.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("loading framework catalog: %w", err)
		}
		d.catalog = c
	}
	if d.loader == nil {
		d.loader = cache.NewCoordinator(d.workers)
	}
	return d, nil
}

// Enabled reports whether rule id runs.
func (d *Driver) Enabled(id rules.ID) bool {
	s, ok := d.rules[id]
	return !ok || s.Enabled
}

// FileError is a file that could not be read or parsed, or parsed with syntax errors
type FileError struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column  int    `json:"column,omitempty" yaml:"column,omitempty"`
	// Fatal is set when the file was not analyzed at all
	Fatal bool `json:"fatal,omitempty" yaml:"fatal,omitempty"`
}

// Report is the result of one run
type Report struct {
	RunID        string        `json:"runId" yaml:"runId"`
	StartedAt    time.Time     `json:"startedAt" yaml:"startedAt"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Files        int           `json:"files" yaml:"files"`
	Declarations int           `json:"declarations" yaml:"declarations"`
	FileErrors   []FileError   `json:"fileErrors,omitempty" yaml:"fileErrors,omitempty"`
	Diagnostics  rules.List    `json:"diagnostics" yaml:"diagnostics"`
}

// ForFile returns the diagnostics reported in path.
func (r *Report) ForFile(path string) rules.List {
	var out rules.List
	for _, d := range r.Diagnostics {
		if d.File == path {
			out = append(out, d)
		}
	}
	return out
}

// CheckPaths loads and checks the given files. Unreadable files are reported as
// fatal file errors; files with syntax errors are still analyzed.
func (d *Driver) CheckPaths(ctx context.Context, paths []string) (*Report, error) {
	results, metrics, err := d.loader.ParseFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("files loaded",
		zap.Int("files", metrics.TotalFiles),
		zap.Int("cache_hits", metrics.CacheHits),
		zap.Duration("parse_time", metrics.ParsingDuration))

	var (
		files    []*ast.File
		fileErrs []FileError
	)
	for _, r := range results {
		if r.Err != nil {
			fileErrs = append(fileErrs, FileError{Path: r.Path, Message: r.Err.Error(), Fatal: true})
			continue
		}
		fileErrs = append(fileErrs, syntaxErrors(r.Path, r.Errors)...)
		files = append(files, r.File)
	}

	report, err := d.Run(ctx, files)
	if err != nil {
		return nil, err
	}
	report.Files = len(paths)
	report.FileErrors = append(fileErrs, report.FileErrors...)
	return report, nil
}

func syntaxErrors(path string, errs []parser.ParseError) []FileError {
	out := make([]FileError, 0, len(errs))
	for _, e := range errs {
		out = append(out, FileError{
			Path:    path,
			Message: e.Message,
			Line:    e.Location.Start.Line,
			Column:  e.Location.Start.Column,
		})
	}
	return out
}

// Run checks already parsed files as one compilation.
func (d *Driver) Run(ctx context.Context, files []*ast.File) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Files:     len(files),
	}
	logger := d.logger.With(zap.String("run", report.RunID))

	comp := semantic.NewCompilation(files, d.catalog)
	engine := depprop.New(comp, depprop.WithLogger(logger), depprop.WithRuleFilter(d.Enabled))

	table := engine.BuildTable(ctx, comp.SourceTypes())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug("shared callback table built", zap.Int("entries", table.Len()))

	members := depprop.Members(files)
	report.Declarations = len(members)
	found := make([][]rules.Diagnostic, len(members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, m := range members {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found[i] = engine.AnalyzeNode(gctx, m, table)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Diagnostics = rules.List{}
	for _, diags := range found {
		for _, diag := range diags {
			if s, ok := d.rules[diag.Code]; ok && s.Severity != "" {
				diag.Severity = s.Severity
			}
			report.Diagnostics = append(report.Diagnostics, diag)
		}
	}
	report.Diagnostics.Sort()
	report.Duration = time.Since(report.StartedAt)

	logger.Info("check finished",
		zap.Int("files", report.Files),
		zap.Int("declarations", report.Declarations),
		zap.Int("diagnostics", len(report.Diagnostics)),
		zap.Duration("duration", report.Duration))
	return report, nil
}
