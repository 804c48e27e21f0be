package tooling

import (
	"fmt"
	"strings"

	"github.com/dplint/dplint/internal/analyzer/rules"
)

// buildRuleHover explains the rule behind a diagnostic
func buildRuleHover(d rules.Diagnostic, r Range) *Hover {
	var content strings.Builder

	fmt.Fprintf(&content, "**%s** `%s` (%s)\n\n", d.Code, d.Type, d.Severity)
	content.WriteString(d.Message)
	content.WriteString("\n\n")

	if desc, ok := rules.Lookup(string(d.Code)); ok {
		content.WriteString("---\n\n")
		fmt.Fprintf(&content, "**%s**\n\n", desc.Title)
		content.WriteString(desc.Description)
		content.WriteString("\n")
	}

	if d.Fix != nil && d.Fix.Expected != "" {
		fmt.Fprintf(&content, "\n*Suggested name:* `%s`\n", d.Fix.Expected)
	}

	return &Hover{
		Contents: content.String(),
		Range:    r,
	}
}

// buildSymbolHover describes a declaration
func buildSymbolHover(symbol *Symbol) *Hover {
	var content strings.Builder

	content.WriteString("```csharp\n")
	content.WriteString(symbol.Detail)
	content.WriteString("\n```\n\n")

	if symbol.ContainerName != "" {
		fmt.Fprintf(&content, "*In type:* `%s`\n\n", symbol.ContainerName)
	}
	if symbol.Kind == SymbolKindDependencyProperty {
		content.WriteString("---\n\n**Dependency property**\n")
	}

	return &Hover{
		Contents: content.String(),
		Range:    symbol.Range,
	}
}
