// Package config loads dplint.yml and turns it into driver and logger settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/dplint/dplint/internal/analyzer/driver"
	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// FileName is the configuration file written by init
const FileName = "dplint.yml"

// Config represents the dplint configuration
type Config struct {
	Rules   map[string]RuleConfig `mapstructure:"rules" yaml:"rules,omitempty"`
	Check   CheckConfig           `mapstructure:"check" yaml:"check"`
	Output  OutputConfig          `mapstructure:"output" yaml:"output"`
	Catalog CatalogConfig         `mapstructure:"catalog" yaml:"catalog,omitempty"`
	Log     LogConfig             `mapstructure:"log" yaml:"log"`
}

// RuleConfig overrides one rule. A missing enabled key keeps the rule on.
type RuleConfig struct {
	Enabled  *bool  `mapstructure:"enabled" yaml:"enabled,omitempty"`
	Severity string `mapstructure:"severity" yaml:"severity,omitempty"`
}

// CheckConfig selects the files to check
type CheckConfig struct {
	Include []string `mapstructure:"include" yaml:"include,omitempty"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude,omitempty"`
	Workers int      `mapstructure:"workers" yaml:"workers,omitempty"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Color  string `mapstructure:"color" yaml:"color"`
}

// CatalogConfig lists extra framework catalog files
type CatalogConfig struct {
	Files []string `mapstructure:"files" yaml:"files,omitempty"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development,omitempty"`
}

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Check: CheckConfig{
			Exclude: []string{"bin/", "obj/", "*.g.cs", "*.Designer.cs"},
		},
		Output: OutputConfig{Format: FormatText, Color: ColorAuto},
		Log:    LogConfig{Level: "warn"},
	}
}

// ValidationError is a configuration value that failed validation
type ValidationError struct {
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// Load loads the configuration from dplint.yml or dplint.yaml in the working directory
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads the configuration from dir. DPLINT_ environment variables
// (DPLINT_OUTPUT_FORMAT, DPLINT_LOG_LEVEL, ...) override file values.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("check.include", def.Check.Include)
	v.SetDefault("check.exclude", def.Check.Exclude)
	v.SetDefault("check.workers", def.Check.Workers)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("output.color", def.Output.Color)
	v.SetDefault("catalog.files", def.Catalog.Files)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.development", def.Log.Development)

	v.SetConfigName("dplint")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("DPLINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Catalog paths are relative to the configuration file.
	for i, f := range cfg.Catalog.Files {
		if !filepath.IsAbs(f) {
			cfg.Catalog.Files[i] = filepath.Join(dir, f)
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindRoot walks up from the working directory to the nearest directory holding
// a dplint configuration file. It returns the working directory when none is found.
func FindRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := wd; ; {
		for _, name := range []string{"dplint.yml", "dplint.yaml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd, nil
		}
		dir = parent
	}
}

// Write saves cfg as YAML to path
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// RuleSettings converts the rules section into driver settings keyed by rule ID.
// Keys may be rule IDs or slugs.
func (c *Config) RuleSettings() map[rules.ID]driver.RuleSetting {
	settings := make(map[rules.ID]driver.RuleSetting, len(c.Rules))
	for key, rc := range c.Rules {
		d, ok := rules.Lookup(key)
		if !ok {
			continue
		}
		s := driver.RuleSetting{Enabled: rc.Enabled == nil || *rc.Enabled}
		if rc.Severity != "" {
			s.Severity, _ = rules.ParseSeverity(rc.Severity)
		}
		settings[d.ID] = s
	}
	return settings
}

// DriverOptions returns the driver options the configuration implies.
func (c *Config) DriverOptions(logger *zap.Logger) ([]driver.Option, error) {
	opts := []driver.Option{
		driver.WithLogger(logger),
		driver.WithWorkers(c.Check.Workers),
		driver.WithRules(c.RuleSettings()),
	}
	if len(c.Catalog.Files) > 0 {
		catalog, err := semantic.LoadCatalogFiles(c.Catalog.Files)
		if err != nil {
			return nil, err
		}
		opts = append(opts, driver.WithCatalog(catalog))
	}
	return opts, nil
}

// NewLogger builds a production or development zap logger writing to stderr.
func (c *Config) NewLogger() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	for key, rc := range cfg.Rules {
		if _, ok := rules.Lookup(key); !ok {
			return &ValidationError{Key: "rules." + key, Message: "unknown rule"}
		}
		if rc.Severity != "" {
			if _, err := rules.ParseSeverity(rc.Severity); err != nil {
				return &ValidationError{Key: "rules." + key + ".severity", Message: err.Error()}
			}
		}
	}

	switch cfg.Output.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return &ValidationError{Key: "output.format", Message: fmt.Sprintf("must be text, json or yaml, got: %s", cfg.Output.Format)}
	}

	switch cfg.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return &ValidationError{Key: "output.color", Message: fmt.Sprintf("must be auto, always or never, got: %s", cfg.Output.Color)}
	}

	if cfg.Check.Workers < 0 {
		return &ValidationError{Key: "check.workers", Message: fmt.Sprintf("must not be negative, got: %d", cfg.Check.Workers)}
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return &ValidationError{Key: "log.level", Message: err.Error()}
	}
	return nil
}
