package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/cli/config"
	"github.com/dplint/dplint/internal/cli/ui"
)

var (
	rulesFamily string
	rulesFormat string
)

// ruleRow is a rule with its effective settings
type ruleRow struct {
	rules.Descriptor `yaml:",inline"`
	Enabled          bool `json:"enabled" yaml:"enabled"`
}

// NewRulesCommand creates the rules command
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rules and their effective settings",
		Long: `List every rule with its ID, slug, family and severity after applying dplint.yml.

Examples:
  dplint rules
  dplint rules --family callback
  dplint rules --format json
`,
		Args: cobra.NoArgs,
		RunE: runRules,
	}

	cmd.Flags().StringVar(&rulesFamily, "family", "", "Only list rules of this family")
	cmd.Flags().StringVarP(&rulesFormat, "format", "f", config.FormatText, "Output format (text, json, yaml)")

	return cmd
}

func runRules(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}

	settings := e.cfg.RuleSettings()
	var rows []ruleRow
	for _, d := range rules.All() {
		if rulesFamily != "" && string(d.Family) != rulesFamily {
			continue
		}
		row := ruleRow{Descriptor: d, Enabled: true}
		if s, ok := settings[d.ID]; ok {
			row.Enabled = s.Enabled
			if s.Severity != "" {
				row.Severity = s.Severity
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rules in family %q", rulesFamily)
	}

	out := cmd.OutOrStdout()
	switch rulesFormat {
	case config.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case config.FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case config.FormatText:
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", rulesFormat)
	}

	table := ui.NewTable(out, []string{"ID", "Slug", "Family", "Severity", "Enabled", "Title"}, &ui.TableOptions{
		NoColor: e.noColor,
		Colorize: func(col int, cell string) *color.Color {
			switch {
			case col == 3:
				return ui.SeverityColor(rules.Severity(strings.TrimSpace(cell)))
			case col == 4 && strings.TrimSpace(cell) == "no":
				return color.New(color.FgHiBlack)
			}
			return nil
		},
	})
	for _, r := range rows {
		enabled := "yes"
		if !r.Enabled {
			enabled = "no"
		}
		table.AddRow(string(r.ID), r.Slug, string(r.Family), string(r.Severity), enabled, r.Title)
	}
	table.Render()
	return nil
}
