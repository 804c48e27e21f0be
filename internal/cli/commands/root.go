package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dplint/dplint/internal/cli/config"
	"github.com/dplint/dplint/internal/cli/ui"
	"github.com/dplint/dplint/internal/lsp"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// Global flags
var (
	configDir string
	noColor   bool
	verbose   bool
)

// ErrCheckFailed is returned when a check reports problems at or above the failure threshold
var ErrCheckFailed = errors.New("check failed")

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dplint",
		Short: "Dependency property linter for WPF code",
		Long: color.CyanString(`dplint - dependency property convention checker

dplint links every dependency property registration in a C# code base with
its backing field, CLR wrapper, attached accessors and callbacks, and reports
where they disagree:
  • Field, property and accessor names that do not match the registered name
  • Wrapper and accessor types that do not match the registered type
  • Callbacks with the wrong signature or a foreign owner
  • Default values that cannot be assigned to the property type`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "Directory holding dplint.yml (default: nearest parent with one)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewRulesCommand())
	rootCmd.AddCommand(NewExplainCommand())
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewLSPCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the dplint version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), noColor)
			kv.AddRow("dplint version", Version)
			kv.AddRow("Git commit", GitCommit)
			kv.AddRow("Build date", BuildDate)
			kv.AddRow("Go version", goVer)
			kv.Render()
		},
	}
}

// env is what every command needs from the configuration
type env struct {
	root    string
	cfg     *config.Config
	logger  *zap.Logger
	noColor bool
}

// setup loads the configuration and builds the logger
func setup(cmd *cobra.Command) (*env, error) {
	root := configDir
	if root == "" {
		var err error
		if root, err = config.FindRoot(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadFrom(root)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(verr.Error(), nil, noColor))
		}
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	e := &env{root: root, cfg: cfg, logger: logger, noColor: noColor}
	switch cfg.Output.Color {
	case config.ColorNever:
		e.noColor = true
	case config.ColorAlways:
		color.NoColor = noColor
	default:
		e.noColor = e.noColor || color.NoColor
	}
	return e, nil
}

// Execute runs the root command
func Execute() error {
	lsp.Version = Version

	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, ErrCheckFailed) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
