package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/cli/config"
	"github.com/dplint/dplint/internal/cli/ui"
)

var (
	initYes   bool
	initForce bool
)

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a dplint.yml configuration",
		Long: `Create a dplint.yml configuration file, asking for the output format,
the rules to turn off and the files to exclude.

Examples:
  # Answer the questions interactively
  dplint init

  # Write the defaults without asking
  dplint init --yes
`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}

	cmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Write the default configuration without prompting")
	cmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	path := filepath.Join(dir, config.FileName)

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	if !initYes {
		if err := askConfig(cfg); err != nil {
			return err
		}
	}

	if err := config.Write(path, cfg); err != nil {
		return err
	}
	ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created %s", path), noColor)
	return nil
}

// askConfig fills cfg from interactive prompts
func askConfig(cfg *config.Config) error {
	format := &survey.Select{
		Message: "Output format:",
		Options: []string{config.FormatText, config.FormatJSON, config.FormatYAML},
		Default: cfg.Output.Format,
	}
	if err := survey.AskOne(format, &cfg.Output.Format); err != nil {
		return err
	}

	all := rules.All()
	options := make([]string, len(all))
	for i, d := range all {
		options[i] = fmt.Sprintf("%s %s", d.ID, d.Slug)
	}
	var disabled []int
	prompt := &survey.MultiSelect{
		Message:  "Rules to turn off:",
		Options:  options,
		PageSize: 12,
	}
	if err := survey.AskOne(prompt, &disabled); err != nil {
		return err
	}
	if len(disabled) > 0 {
		off := false
		cfg.Rules = make(map[string]config.RuleConfig, len(disabled))
		for _, i := range disabled {
			cfg.Rules[string(all[i].ID)] = config.RuleConfig{Enabled: &off}
		}
	}

	var exclude string
	input := &survey.Input{
		Message: "Exclude patterns (comma separated):",
		Default: strings.Join(cfg.Check.Exclude, ", "),
	}
	if err := survey.AskOne(input, &exclude); err != nil {
		return err
	}
	cfg.Check.Exclude = splitList(exclude)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
