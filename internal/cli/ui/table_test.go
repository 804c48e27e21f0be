package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTable(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	table := NewTable(&buf, []string{"ID", "Severity", "Title"}, &TableOptions{NoColor: true})

	table.AddRow("DP0101", "warning", "Backing field name")
	table.AddRow("DP0501", "error", "Default value type")

	table.Render()

	output := buf.String()

	for _, want := range []string{"ID", "Severity", "Title", "DP0101", "warning", "Default value type", "─"} {
		if !strings.Contains(output, want) {
			t.Errorf("Table output missing %q", want)
		}
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{}, &TableOptions{NoColor: true})

	table.Render()

	if output := buf.String(); output != "" {
		t.Errorf("Expected empty output for table with no headers, got: %q", output)
	}
}

func TestTableAlignment(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"A", "B"}, &TableOptions{NoColor: true})
	table.AddRow("short", "x")
	table.AddRow("much longer", "y")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d: %q", len(lines), lines)
	}

	// The second column starts at the same offset on every row.
	col := strings.Index(lines[3], "y")
	if strings.Index(lines[2], "x") != col {
		t.Errorf("Columns not aligned:\n%s", buf.String())
	}
	if strings.Index(lines[0], "B") != col {
		t.Errorf("Header not aligned:\n%s", buf.String())
	}
	// No trailing padding on the last column
	for _, line := range lines {
		if strings.HasSuffix(line, " ") {
			t.Errorf("Line has trailing spaces: %q", line)
		}
	}
}

func TestTableColorizeIgnoredWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	called := false
	table := NewTable(&buf, []string{"Severity"}, &TableOptions{
		NoColor: true,
		Colorize: func(col int, cell string) *color.Color {
			called = true
			return color.New(color.FgRed)
		},
	})
	table.AddRow("error")
	table.Render()

	if called {
		t.Error("Colorize should not run when color is disabled")
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("Unexpected escape codes: %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kvTable := NewKeyValueTable(&buf, true)

	kvTable.AddRow("Rule", "DP0501")
	kvTable.AddRow("Severity", "error")

	kvTable.Render()

	output := buf.String()
	if !strings.Contains(output, "Rule:     DP0501") {
		t.Errorf("Key not padded: %q", output)
	}
	if !strings.Contains(output, "Severity: error") {
		t.Errorf("Missing row: %q", output)
	}
}

func TestKeyValueTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewKeyValueTable(&buf, true).Render()

	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}

func TestSection(t *testing.T) {
	var buf bytes.Buffer
	section := NewSection(&buf, "Examples", true)
	section.AddLine("public static readonly DependencyProperty ValueProperty;")
	section.AddLine("")
	section.AddLine("public double Value { get; set; }")
	section.Render()

	output := buf.String()
	if !strings.HasPrefix(output, "Examples\n") {
		t.Errorf("Missing title: %q", output)
	}
	if !strings.Contains(output, "  public double Value") {
		t.Errorf("Content not indented: %q", output)
	}
	if strings.Contains(output, "\n  \n") {
		t.Errorf("Blank lines should not be indented: %q", output)
	}
}

func TestSectionEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewSection(&buf, "Empty", true).Render()

	if buf.Len() != 0 {
		t.Errorf("Expected no output for an empty section, got %q", buf.String())
	}
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "DP0501", true)

	if buf.String() != "DP0501\n──────\n" {
		t.Errorf("Unexpected header %q", buf.String())
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		last     bool
		expected string
	}{
		{"abc", 5, false, "abc  "},
		{"abc", 3, false, "abc"},
		{"abcdef", 3, false, "abcdef"},
		{"abc", 5, true, "abc"},
		{"→x", 4, false, "→x  "},
	}

	for _, tt := range tests {
		if result := pad(tt.input, tt.width, tt.last); result != tt.expected {
			t.Errorf("pad(%q, %d, %v) = %q; want %q", tt.input, tt.width, tt.last, result, tt.expected)
		}
	}
}
