package rules

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dplint/dplint/internal/compiler/ast"
)

// RegistrationHint carries enough of a registration to synthesize a correctly
// shaped callback or accessor declaration
type RegistrationHint struct {
	Kind      string `json:"kind" yaml:"kind"`           // Register, RegisterAttached, ...
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	ValueType string `json:"valueType,omitempty" yaml:"valueType,omitempty"`
	OwnerType string `json:"ownerType,omitempty" yaml:"ownerType,omitempty"`
	Slot      string `json:"slot,omitempty" yaml:"slot,omitempty"` // changed, coerce or validate
}

// Fix is the data a code fix needs to repair a diagnostic
type Fix struct {
	Actual       string            `json:"actual,omitempty" yaml:"actual,omitempty"`
	Expected     string            `json:"expected,omitempty" yaml:"expected,omitempty"`
	Registration *RegistrationHint `json:"registration,omitempty" yaml:"registration,omitempty"`
}

// Diagnostic is one reported rule violation
type Diagnostic struct {
	Code     ID       `json:"code" yaml:"code"`
	Type     string   `json:"type" yaml:"type"`
	Severity Severity `json:"severity" yaml:"severity"`
	Template string   `json:"template" yaml:"template"`
	Args     []string `json:"args" yaml:"args"`
	Message  string   `json:"message" yaml:"message"`
	File     string   `json:"file" yaml:"file"`
	Span     ast.Span `json:"span" yaml:"span"`
	Fix      *Fix     `json:"fix,omitempty" yaml:"fix,omitempty"`
}

// New creates a diagnostic for a known rule with its default severity.
func New(id ID, file string, span ast.Span, args ...string) Diagnostic {
	d := MustLookup(id)
	return Diagnostic{
		Code:     d.ID,
		Type:     d.Slug,
		Severity: d.Severity,
		Template: d.Template,
		Args:     args,
		Message:  d.Message(args...),
		File:     file,
		Span:     span,
	}
}

// WithRename attaches the identifier texts a rename fix needs.
func (d Diagnostic) WithRename(actual, expected string) Diagnostic {
	fix := d.fix()
	fix.Actual, fix.Expected = actual, expected
	d.Fix = fix
	return d
}

// WithRegistration attaches a registration hint.
func (d Diagnostic) WithRegistration(hint RegistrationHint) Diagnostic {
	fix := d.fix()
	fix.Registration = &hint
	d.Fix = fix
	return d
}

func (d Diagnostic) fix() *Fix {
	if d.Fix == nil {
		return &Fix{}
	}
	cp := *d.Fix
	return &cp
}

// Error implements the error interface
func (d Diagnostic) Error() string {
	return d.Format()
}

// Format returns a human-readable message for terminal output
func (d Diagnostic) Format() string {
	var b strings.Builder

	file := d.File
	if file == "" {
		file = "<source>"
	}
	fmt.Fprintf(&b, "%s:%d:%d: %s [%s]\n",
		file, d.Span.Start.Line, d.Span.Start.Column,
		strings.ToUpper(string(d.Severity)), d.Code)
	fmt.Fprintf(&b, "  %s\n", d.Message)

	if d.Fix != nil && d.Fix.Expected != "" {
		fmt.Fprintf(&b, "\n  Expected: %s\n", d.Fix.Expected)
		if d.Fix.Actual != "" {
			fmt.Fprintf(&b, "  Actual:   %s\n", d.Fix.Actual)
		}
	}
	return b.String()
}

// ToJSON returns the diagnostic as indented JSON
func (d Diagnostic) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Less orders diagnostics by file, span and rule ID.
func Less(a, b Diagnostic) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	if a.Span.Start.Offset != b.Span.Start.Offset {
		return a.Span.Start.Offset < b.Span.Start.Offset
	}
	if a.Span.End.Offset != b.Span.End.Offset {
		return a.Span.End.Offset < b.Span.End.Offset
	}
	if a.Code != b.Code {
		return a.Code < b.Code
	}
	return strings.Join(a.Args, "\x00") < strings.Join(b.Args, "\x00")
}

// List is a collection of diagnostics
type List []Diagnostic

// Error implements the error interface
func (l List) Error() string {
	if len(l) == 0 {
		return "no diagnostics"
	}
	var b strings.Builder
	for i, d := range l {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.Format())
	}
	return b.String()
}

// Sort orders the list in place with Less.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool { return Less(l[i], l[j]) })
}

// HasErrors reports whether any diagnostic has error severity.
func (l List) HasErrors() bool {
	return l.AtLeast(SeverityError)
}

// AtLeast reports whether any diagnostic is at least as severe as min.
func (l List) AtLeast(min Severity) bool {
	for _, d := range l {
		if d.Severity.Rank() >= min.Rank() {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics per severity.
func (l List) Count() map[Severity]int {
	counts := make(map[Severity]int)
	for _, d := range l {
		counts[d.Severity]++
	}
	return counts
}

// ToJSON returns all diagnostics as a JSON array
func (l List) ToJSON() (string, error) {
	if l == nil {
		l = List{}
	}
	bytes, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
