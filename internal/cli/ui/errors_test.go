package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatError(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "RULE NOT FOUND",
				Problem: "Unknown rule 'DP9999'.",
			},
			contains: []string{
				"❌",
				"RULE NOT FOUND",
				"Unknown rule 'DP9999'.",
			},
		},
		{
			name: "error with suggestions",
			opts: ErrorOptions{
				Level:       ErrorLevelError,
				Context:     "RULE NOT FOUND",
				Problem:     "Unknown rule 'DP051'.",
				Suggestions: []string{"DP0501", "DP0502"},
			},
			contains: []string{
				"Did you mean: DP0501, DP0502?",
			},
		},
		{
			name: "error with help commands",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "CHECK FAILED",
				Problem: "2 diagnostic(s) at or above error.",
				HelpCommands: []string{
					"Explain a rule: dplint explain <ID>",
				},
			},
			contains: []string{
				"→ Explain a rule: dplint explain <ID>",
			},
		},
		{
			name: "warning message",
			opts: ErrorOptions{
				Level:   ErrorLevelWarning,
				Problem: "No C# files found",
			},
			contains: []string{
				"⚠️",
				"No C# files found",
			},
		},
		{
			name: "info message",
			opts: ErrorOptions{
				Level:   ErrorLevelInfo,
				Problem: "Watching for changes",
			},
			contains: []string{
				"ℹ️",
				"Watching for changes",
			},
		},
		{
			name: "error with consequence",
			opts: ErrorOptions{
				Level:       ErrorLevelError,
				Context:     "CONFIGURATION ERROR",
				Problem:     "output.format: must be text, json or yaml",
				Consequence: "No files were checked",
			},
			contains: []string{
				"output.format: must be text, json or yaml",
				"No files were checked",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatError(tt.opts)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("FormatError() output missing expected string:\nExpected to contain: %q\nGot: %q", expected, result)
				}
			}
		})
	}
}

func TestRuleNotFoundError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := RuleNotFoundError("DP051", []string{"DP0501", "DP0502"}, true)

	expected := []string{
		"RULE NOT FOUND",
		"Unknown rule 'DP051'.",
		"Did you mean: DP0501, DP0502?",
		"See all rules: dplint rules",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("RuleNotFoundError() missing expected string: %q", exp)
		}
	}
}

func TestCheckFailedError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := CheckFailedError(3, "warning", true)

	expected := []string{
		"CHECK FAILED",
		"3 diagnostic(s) at or above warning.",
		"dplint check --fail-on <severity>",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("CheckFailedError() missing expected string: %q", exp)
		}
	}
}

func TestFormatSuccess(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := FormatSuccess("No problems found", true)

	if !strings.Contains(result, "✓") {
		t.Errorf("FormatSuccess() missing checkmark")
	}
	if !strings.Contains(result, "No problems found") {
		t.Errorf("FormatSuccess() missing message")
	}
}

func TestWriteSuccess(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	WriteSuccess(&buf, "Test success", true)

	output := buf.String()
	if !strings.Contains(output, "✓") {
		t.Errorf("WriteSuccess() missing checkmark")
	}
	if !strings.Contains(output, "Test success") {
		t.Errorf("WriteSuccess() missing message")
	}
}

func TestWarning(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := Warning("No C# files found", []string{"src/"}, true)

	expected := []string{
		"⚠️",
		"No C# files found",
		"Did you mean: src/?",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("Warning() missing expected string: %q", exp)
		}
	}
}

func TestInfo(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := Info("Watching for changes", true)

	expected := []string{
		"ℹ️",
		"Watching for changes",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("Info() missing expected string: %q", exp)
		}
	}
}

func TestConfigError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	result := ConfigError("rules.dp9999: unknown rule", []string{"DP0501"}, true)

	expected := []string{
		"CONFIGURATION ERROR",
		"rules.dp9999: unknown rule",
		"Did you mean: DP0501?",
		"Create a config: dplint init",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("ConfigError() missing expected string: %q", exp)
		}
	}
}
