package ui

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/dplint/dplint/internal/analyzer/driver"
	"github.com/dplint/dplint/internal/analyzer/rules"
)

// ReportOptions configures text report rendering
type ReportOptions struct {
	// Root makes paths relative when set
	Root    string
	NoColor bool
	// Snippets prints the offending source line under each diagnostic
	Snippets bool
}

// SeverityColor returns the color used for sev
func SeverityColor(sev rules.Severity) *color.Color {
	switch sev {
	case rules.SeverityError:
		return color.New(color.FgRed, color.Bold)
	case rules.SeverityWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

// ReportWriter renders a check report as text
type ReportWriter struct {
	w     io.Writer
	opts  ReportOptions
	lines map[string][]string
}

// NewReportWriter creates a text report writer
func NewReportWriter(w io.Writer, opts ReportOptions) *ReportWriter {
	return &ReportWriter{w: w, opts: opts, lines: make(map[string][]string)}
}

// Write renders file errors, diagnostics and a summary line
func (rw *ReportWriter) Write(report *driver.Report) {
	for _, fe := range report.FileErrors {
		rw.fileError(fe)
	}
	for _, d := range report.Diagnostics {
		rw.diagnostic(d)
	}
	fmt.Fprintln(rw.w, Summary(report, rw.opts.NoColor))
}

func (rw *ReportWriter) fileError(fe driver.FileError) {
	red := color.New(color.FgRed)
	if rw.opts.NoColor {
		red.DisableColor()
	}
	loc := rw.path(fe.Path)
	if fe.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, fe.Line, fe.Column)
	}
	kind := "syntax"
	if fe.Fatal {
		kind = "unreadable"
	}
	red.Fprintf(rw.w, "%s: %s: %s\n", loc, kind, fe.Message)
}

func (rw *ReportWriter) diagnostic(d rules.Diagnostic) {
	sev := SeverityColor(d.Severity)
	gray := color.New(color.FgHiBlack)
	bold := color.New(color.Bold)
	if rw.opts.NoColor {
		sev.DisableColor()
		gray.DisableColor()
		bold.DisableColor()
	}

	bold.Fprintf(rw.w, "%s:%d:%d", rw.path(d.File), d.Span.Start.Line, d.Span.Start.Column)
	fmt.Fprint(rw.w, ": ")
	sev.Fprint(rw.w, d.Severity)
	fmt.Fprintf(rw.w, " %s ", d.Message)
	gray.Fprintf(rw.w, "[%s %s]\n", d.Code, d.Type)

	if rw.opts.Snippets {
		rw.snippet(d)
	}
	if d.Fix != nil && d.Fix.Expected != "" {
		gray.Fprintf(rw.w, "    suggested: %s\n", d.Fix.Expected)
	}
}

// snippet prints the diagnostic's first line with a caret underline
func (rw *ReportWriter) snippet(d rules.Diagnostic) {
	lines := rw.source(d.File)
	n := d.Span.Start.Line
	if n < 1 || n > len(lines) {
		return
	}
	line := lines[n-1]

	start := min(max(d.Span.Start.Column-1, 0), len(line))
	end := len(line)
	if d.Span.End.Line == n {
		end = min(max(d.Span.End.Column-1, start+1), len(line))
	}

	// Keep tabs so the carets line up with the source.
	var prefix strings.Builder
	for _, r := range line[:start] {
		if r == '\t' {
			prefix.WriteRune('\t')
		} else {
			prefix.WriteByte(' ')
		}
	}

	sev := SeverityColor(d.Severity)
	gray := color.New(color.FgHiBlack)
	if rw.opts.NoColor {
		sev.DisableColor()
		gray.DisableColor()
	}
	gutter := fmt.Sprintf("%5d | ", n)
	gray.Fprint(rw.w, gutter)
	fmt.Fprintln(rw.w, line)
	gray.Fprint(rw.w, strings.Repeat(" ", len(gutter)-2)+"| ")
	fmt.Fprint(rw.w, prefix.String())
	sev.Fprintln(rw.w, strings.Repeat("^", max(end-start, 1)))
}

func (rw *ReportWriter) source(path string) []string {
	if lines, ok := rw.lines[path]; ok {
		return lines
	}
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
		lines = strings.Split(string(data), "\n")
	}
	rw.lines[path] = lines
	return lines
}

func (rw *ReportWriter) path(p string) string {
	if rw.opts.Root == "" {
		return p
	}
	if rel, err := filepath.Rel(rw.opts.Root, p); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return p
}

// Summary returns the one-line totals of a report
func Summary(report *driver.Report, noColor bool) string {
	counts := report.Diagnostics.Count()
	if len(report.Diagnostics) == 0 && len(report.FileErrors) == 0 {
		return FormatSuccess(fmt.Sprintf("No problems found in %s", plural(report.Files, "file")), noColor)
	}

	parts := []string{
		plural(counts[rules.SeverityError], "error"),
		plural(counts[rules.SeverityWarning], "warning"),
	}
	if n := counts[rules.SeverityInfo]; n > 0 {
		parts = append(parts, plural(n, "info"))
	}
	if n := len(report.FileErrors); n > 0 {
		parts = append(parts, plural(n, "file error"))
	}

	c := SeverityColor(rules.SeverityWarning)
	if counts[rules.SeverityError] > 0 {
		c = SeverityColor(rules.SeverityError)
	}
	if noColor {
		c.DisableColor()
	}
	return c.Sprintf("%s in %s (%s)", strings.Join(parts, ", "),
		plural(report.Files, "file"), report.Duration.Round(time.Millisecond))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
