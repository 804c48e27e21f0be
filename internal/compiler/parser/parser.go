// Package parser turns C# source into the dplint syntax model. Parsing is done by the
// tree-sitter C# grammar; this package lowers the concrete syntax tree into ast nodes and
// collects syntax errors. Constructs the analyzer does not need are kept as ast.BadExpr
// or ast.BadStmt so that later stages can treat them as indeterminate.
package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/dplint/dplint/internal/compiler/ast"
)

// ParseError represents a syntax error reported by the grammar
type ParseError struct {
	Message  string
	Location ast.Span
	Text     string
}

// Error implements the error interface
func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Location.Start.Line, e.Location.Start.Column, e.Message)
}

// ParseFile parses one C# file. Syntax errors do not abort lowering: the returned file
// contains every declaration the grammar could recover.
func ParseFile(ctx context.Context, path string, content []byte) (*ast.File, []ParseError, error) {
	p := sitter.NewParser()
	p.SetLanguage(csharp.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	l := &lowerer{ctx: ctx, src: content}
	root := tree.RootNode()

	file := &ast.File{
		Path:       path,
		SourceSpan: l.span(root),
	}
	l.lowerCompilationUnit(root, file)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if root.HasError() {
		l.collectErrors(root)
	}

	return file, l.errs, nil
}

// ParseString is a convenience wrapper used by tests and the tooling API.
func ParseString(ctx context.Context, path, content string) (*ast.File, []ParseError, error) {
	return ParseFile(ctx, path, []byte(content))
}

// lowerer walks a tree-sitter C# tree and builds ast nodes.
type lowerer struct {
	ctx  context.Context
	src  []byte
	errs []ParseError
}

func (l *lowerer) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(l.src)
}

func (l *lowerer) span(n *sitter.Node) ast.Span {
	if n == nil {
		return ast.Span{}
	}
	start, end := n.StartPoint(), n.EndPoint()
	return ast.Span{
		Start: ast.SourceLocation{Line: int(start.Row) + 1, Column: int(start.Column) + 1, Offset: int(n.StartByte())},
		End:   ast.SourceLocation{Line: int(end.Row) + 1, Column: int(end.Column) + 1, Offset: int(n.EndByte())},
	}
}

func (l *lowerer) collectErrors(n *sitter.Node) {
	if n == nil {
		return
	}
	if n.Type() == "ERROR" {
		l.errs = append(l.errs, ParseError{
			Message:  "syntax error",
			Location: l.span(n),
			Text:     truncate(l.text(n), 40),
		})
		return
	}
	if n.IsMissing() {
		l.errs = append(l.errs, ParseError{
			Message:  fmt.Sprintf("missing %s", n.Type()),
			Location: l.span(n),
		})
		return
	}
	if !n.HasError() {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		l.collectErrors(n.Child(i))
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// namedChildren returns the named children of n.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// childOfType returns the first named child whose type is one of kinds.
func childOfType(n *sitter.Node, kinds ...string) *sitter.Node {
	for _, c := range namedChildren(n) {
		for _, k := range kinds {
			if c.Type() == k {
				return c
			}
		}
	}
	return nil
}

// valueAfterEquals returns the node following `=`, or the content of an
// equals_value_clause, among the children of n.
func valueAfterEquals(n *sitter.Node, src []byte) *sitter.Node {
	if clause := childOfType(n, "equals_value_clause"); clause != nil {
		kids := namedChildren(clause)
		if len(kids) > 0 {
			return kids[0]
		}
		return nil
	}
	seen := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if !c.IsNamed() && c.Content(src) == "=" {
			seen = true
			continue
		}
		if seen && c.IsNamed() {
			return c
		}
	}
	return nil
}
