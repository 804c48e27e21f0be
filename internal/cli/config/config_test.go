package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dplint/dplint/internal/analyzer/rules"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config to be non-nil")
	}

	// Check defaults
	if cfg.Output.Format != FormatText {
		t.Errorf("expected default format 'text', got %s", cfg.Output.Format)
	}
	if cfg.Output.Color != ColorAuto {
		t.Errorf("expected default color 'auto', got %s", cfg.Output.Color)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected default log level 'warn', got %s", cfg.Log.Level)
	}
	if len(cfg.Check.Exclude) != 4 {
		t.Errorf("expected the default excludes, got %v", cfg.Check.Exclude)
	}
	if len(cfg.Rules) != 0 {
		t.Errorf("expected no rule overrides, got %v", cfg.Rules)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `
rules:
  DP0101:
    enabled: false
  DP0501:
    severity: warning
  callback-signature:
    severity: info
check:
  include: ["Controls/"]
  exclude: ["*.g.cs"]
  workers: 4
output:
  format: json
  color: never
catalog:
  files: [catalog/extra.yaml]
log:
  level: debug
  development: true
`)

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Check.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Check.Workers)
	}
	if len(cfg.Check.Include) != 1 || cfg.Check.Include[0] != "Controls/" {
		t.Errorf("unexpected include %v", cfg.Check.Include)
	}
	if cfg.Output.Format != FormatJSON || cfg.Output.Color != ColorNever {
		t.Errorf("unexpected output %+v", cfg.Output)
	}
	if !cfg.Log.Development || cfg.Log.Level != "debug" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}

	want := filepath.Join(tmpDir, "catalog", "extra.yaml")
	if len(cfg.Catalog.Files) != 1 || cfg.Catalog.Files[0] != want {
		t.Errorf("expected catalog file %s, got %v", want, cfg.Catalog.Files)
	}

	settings := cfg.RuleSettings()
	if len(settings) != 3 {
		t.Fatalf("expected 3 rule settings, got %d", len(settings))
	}
	if settings[rules.ID("DP0101")].Enabled {
		t.Error("expected DP0101 to be disabled")
	}
	if s := settings[rules.DefaultValueType]; !s.Enabled || s.Severity != rules.SeverityWarning {
		t.Errorf("unexpected DP0501 setting %+v", s)
	}
	if s := settings[rules.CallbackSignature]; !s.Enabled || s.Severity != rules.SeverityInfo {
		t.Errorf("expected the slug to resolve to DP0304, got %+v", s)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "output:\n  format: json\n")
	t.Setenv("DPLINT_OUTPUT_FORMAT", "yaml")
	t.Setenv("DPLINT_LOG_LEVEL", "error")

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Output.Format != FormatYAML {
		t.Errorf("expected the environment to win, got %s", cfg.Output.Format)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected log level 'error', got %s", cfg.Log.Level)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
	}{
		{"unknown rule", "rules:\n  DP9999:\n    enabled: false\n", "rules.dp9999"},
		{"bad severity", "rules:\n  DP0501:\n    severity: fatal\n", "rules.dp0501.severity"},
		{"bad format", "output:\n  format: xml\n", "output.format"},
		{"bad color", "output:\n  color: sometimes\n", "output.color"},
		{"negative workers", "check:\n  workers: -1\n", "check.workers"},
		{"bad log level", "log:\n  level: loud\n", "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeConfig(t, tmpDir, tt.content)

			_, err := LoadFrom(tmpDir)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected a validation error, got %v", err)
			}
			if verr.Key != tt.key {
				t.Errorf("expected key %s, got %s", tt.key, verr.Key)
			}
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "output: [unterminated\n")

	if _, err := LoadFrom(tmpDir); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	disabled := false

	cfg := Default()
	cfg.Rules = map[string]RuleConfig{
		"DP0502": {Enabled: &disabled},
	}
	cfg.Output.Format = FormatYAML

	if err := Write(filepath.Join(tmpDir, FileName), cfg); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	loaded, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if loaded.Output.Format != FormatYAML {
		t.Errorf("expected format yaml, got %s", loaded.Output.Format)
	}
	if s, ok := loaded.RuleSettings()[rules.DefaultValueSharedInstance]; !ok || s.Enabled {
		t.Errorf("expected DP0502 to be disabled, got %+v", s)
	}
}

func TestFindRoot(t *testing.T) {
	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(tmpDir, "src", "Controls")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, tmpDir, "output:\n  format: text\n")

	oldWd, _ := os.Getwd()
	os.Chdir(nested)
	defer os.Chdir(oldWd)

	root, err := FindRoot()
	if err != nil {
		t.Fatalf("FindRoot() failed: %v", err)
	}
	if root != tmpDir {
		t.Errorf("expected root %s, got %s", tmpDir, root)
	}
}

func TestNewLogger(t *testing.T) {
	for _, development := range []bool{false, true} {
		cfg := Default()
		cfg.Log.Development = development

		logger, err := cfg.NewLogger()
		if err != nil {
			t.Fatalf("NewLogger() failed: %v", err)
		}
		if logger.Core().Enabled(-1) {
			t.Error("expected debug logging to be off at level warn")
		}
		_ = logger.Sync()
	}
}

func TestDriverOptionsMissingCatalog(t *testing.T) {
	cfg := Default()
	cfg.Catalog.Files = []string{filepath.Join(t.TempDir(), "missing.yaml")}

	if _, err := cfg.DriverOptions(nil); err == nil {
		t.Error("expected an error for a missing catalog file")
	}
}
