package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dplint/dplint/internal/analyzer/driver"
	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/cli/config"
	"github.com/dplint/dplint/internal/cli/ui"
	"github.com/dplint/dplint/internal/compiler/cache"
	"github.com/dplint/dplint/internal/watch"
)

var (
	checkFormat     string
	checkWatch      bool
	checkFailOn     string
	checkNoSnippets bool
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check C# files for dependency property problems",
		Long: `Check C# files for dependency property problems.

Paths may be files or directories; directories are scanned for .cs files using
the include and exclude patterns from dplint.yml. All files are analyzed as one
compilation, so declarations split over partial classes are linked.

Examples:
  # Check the project the working directory belongs to
  dplint check

  # Check two folders and emit JSON
  dplint check src/Controls src/Themes --format json

  # Re-check whenever a file changes
  dplint check src --watch

  # Fail on warnings too
  dplint check --fail-on warning
`,
		RunE: runCheck,
	}

	cmd.Flags().StringVarP(&checkFormat, "format", "f", config.FormatText, "Output format (text, json, yaml)")
	cmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "Watch the directory and re-check on change")
	cmd.Flags().StringVar(&checkFailOn, "fail-on", string(rules.SeverityError), "Lowest severity that fails the run (error, warning, info, none)")
	cmd.Flags().BoolVar(&checkNoSnippets, "no-snippets", false, "Do not print source lines in text output")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	format := e.cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format = checkFormat
	}
	switch format {
	case config.FormatText, config.FormatJSON, config.FormatYAML:
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}

	failOn, err := parseFailOn(checkFailOn)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{e.root}
	}

	loader := cache.NewCoordinator(e.cfg.Check.Workers)
	opts, err := e.cfg.DriverOptions(e.logger)
	if err != nil {
		return err
	}
	d, err := driver.New(append(opts, driver.WithCache(loader))...)
	if err != nil {
		return fmt.Errorf("creating driver: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := &reportOutput{w: cmd.OutOrStdout(), format: format, env: e}
	if wd, err := os.Getwd(); err == nil {
		out.root = wd
	}

	if checkWatch {
		return watchAndCheck(ctx, cmd, e, d, loader, args, out)
	}

	paths, err := collectPaths(args, e.cfg.Check)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprint(cmd.ErrOrStderr(), ui.Warning("No C# files found", nil, e.noColor))
		return nil
	}

	var report *driver.Report
	run := func() error {
		var err error
		report, err = d.CheckPaths(ctx, paths)
		return err
	}
	if format == config.FormatText && isatty.IsTerminal(os.Stderr.Fd()) {
		err = ui.WithSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Checking %d files", len(paths)), e.noColor, run)
	} else {
		err = run()
	}
	if err != nil {
		return fmt.Errorf("checking: %w", err)
	}

	if err := out.write(report); err != nil {
		return err
	}

	if n := failures(report, failOn); n > 0 {
		if format == config.FormatText {
			fmt.Fprint(cmd.ErrOrStderr(), ui.CheckFailedError(n, checkFailOn, e.noColor))
		}
		return ErrCheckFailed
	}
	return nil
}

// parseFailOn parses the --fail-on flag. "none" never fails and yields an empty severity.
func parseFailOn(s string) (rules.Severity, error) {
	if strings.EqualFold(s, "none") {
		return "", nil
	}
	sev, err := rules.ParseSeverity(s)
	if err != nil {
		return "", fmt.Errorf("--fail-on: %w", err)
	}
	return sev, nil
}

// failures counts the diagnostics at or above threshold plus the files that could not be read.
func failures(report *driver.Report, threshold rules.Severity) int {
	if threshold == "" {
		return 0
	}
	n := 0
	for _, d := range report.Diagnostics {
		if d.Severity.Rank() >= threshold.Rank() {
			n++
		}
	}
	for _, fe := range report.FileErrors {
		if fe.Fatal {
			n++
		}
	}
	return n
}

// collectPaths expands directories into their .cs files. Explicit files are
// always kept, whatever the patterns say.
func collectPaths(args []string, check config.CheckConfig) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot check %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		files, err := cache.ScanDirectory(arg, check.Include, check.Exclude)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// reportOutput writes reports in the selected format
type reportOutput struct {
	w      io.Writer
	format string
	root   string
	env    *env
}

func (o *reportOutput) write(report *driver.Report) error {
	switch o.format {
	case config.FormatJSON:
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case config.FormatYAML:
		enc := yaml.NewEncoder(o.w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		ui.NewReportWriter(o.w, ui.ReportOptions{
			Root:     o.root,
			NoColor:  o.env.noColor,
			Snippets: !checkNoSnippets,
		}).Write(report)
		return nil
	}
}

// watchAndCheck checks a directory and re-checks it on every change until ctx is done
func watchAndCheck(ctx context.Context, cmd *cobra.Command, e *env, d *driver.Driver, loader *cache.Coordinator, args []string, out *reportOutput) error {
	if len(args) != 1 {
		return fmt.Errorf("--watch takes a single directory, got %d paths", len(args))
	}
	root := args[0]
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("--watch needs a directory: %s", root)
	}

	checker := watch.NewIncrementalChecker(d, loader, root, e.cfg.Check.Include, e.cfg.Check.Exclude, e.logger)

	var mu sync.Mutex
	result, err := checker.FullCheck(ctx)
	if err != nil {
		return fmt.Errorf("checking: %w", err)
	}
	if err := out.write(result.Report); err != nil {
		return err
	}

	// Only base-name patterns apply to single events; directory patterns are
	// handled by the rescan.
	var ignored []string
	for _, p := range e.cfg.Check.Exclude {
		if !strings.Contains(p, "/") {
			ignored = append(ignored, p)
		}
	}

	gray := color.New(color.FgHiBlack)
	if e.noColor {
		gray.DisableColor()
	}
	watcher, err := watch.NewFileWatcher(root, []string{"*.cs"}, ignored, func(files []string) error {
		mu.Lock()
		defer mu.Unlock()

		result, err := checker.Recheck(ctx, files)
		if err != nil {
			return err
		}
		if out.format == config.FormatText {
			gray.Fprintf(out.w, "\n── %s: %d file(s) changed ──\n", time.Now().Format("15:04:05"), len(files))
		}
		return out.write(result.Report)
	}, e.logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			e.logger.Warn("stopping watcher", zap.Error(err))
		}
	}()

	fmt.Fprint(cmd.ErrOrStderr(), ui.Info(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", root), e.noColor))
	<-ctx.Done()
	return nil
}
