package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/cli/ui"
)

// NewExplainCommand creates the explain command
func NewExplainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <rule>",
		Short: "Explain a rule",
		Long: `Show what a rule checks, the message it reports and examples.

The rule may be given by ID or slug:
  dplint explain DP0501
  dplint explain default-value-type
`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var ids []string
			for _, d := range rules.All() {
				ids = append(ids, fmt.Sprintf("%s\t%s", d.ID, d.Title))
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: runExplain,
	}
}

func runExplain(cmd *cobra.Command, args []string) error {
	d, ok := rules.Lookup(args[0])
	if !ok {
		var candidates []string
		for _, r := range rules.All() {
			candidates = append(candidates, string(r.ID), r.Slug)
		}
		fmt.Fprint(cmd.ErrOrStderr(), ui.RuleNotFoundError(args[0], ui.FindSimilar(args[0], candidates, nil), noColor))
		return fmt.Errorf("unknown rule %q", args[0])
	}

	out := cmd.OutOrStdout()
	ui.Header(out, fmt.Sprintf("%s %s", d.ID, d.Slug), noColor)
	fmt.Fprintln(out)

	kv := ui.NewKeyValueTable(out, noColor)
	kv.AddRow("Title", d.Title)
	kv.AddRow("Family", string(d.Family))
	kv.AddRow("Severity", string(d.Severity))
	kv.AddRow("Message", d.Template)
	kv.Render()
	fmt.Fprintln(out)

	desc := ui.NewSection(out, "Description", noColor)
	desc.AddLine(d.Description)
	desc.Render()

	examples := ui.NewSection(out, "Examples", noColor)
	for i, ex := range d.Examples {
		if i > 0 {
			examples.AddLine("")
		}
		for _, line := range strings.Split(ex, "\n") {
			examples.AddLine(line)
		}
	}
	examples.Render()
	return nil
}
