package depprop

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// Engine checks dependency-property clusters of one compilation. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	model   Model
	logger  *zap.Logger
	enabled func(rules.ID) bool
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger recovered validator faults are reported to.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRuleFilter restricts the engine to the rules for which enabled returns true.
func WithRuleFilter(enabled func(rules.ID) bool) Option {
	return func(e *Engine) {
		if enabled != nil {
			e.enabled = enabled
		}
	}
}

// New creates an engine over model.
func New(model Model, opts ...Option) *Engine {
	e := &Engine{
		model:   model,
		logger:  zap.NewNop(),
		enabled: func(rules.ID) bool { return true },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildTable collects the callbacks of every cluster in types. The table is
// read-only once returned. It returns nil when ctx is cancelled.
func (e *Engine) BuildTable(ctx context.Context, types []*semantic.NamedType) (table *SharedCallbackTable) {
	w := acquire(ctx, e.model)
	defer release(w)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("shared callback table abandoned", zap.Any("fault", r), zap.Stack("stack"))
			table = nil
		}
	}()

	t := newSharedCallbackTable()
	for _, typ := range types {
		t.add(typ, w.clusters(typ, false))
		if !w.live() {
			return nil
		}
	}
	return t
}

// AnalyzeNode reports the violations anchored at one field, property, method or
// constructor declaration. Over all member declarations of a compilation every
// violation is reported exactly once. A nil table is replaced by one built from
// the node's own type. A cancelled invocation reports nothing.
func (e *Engine) AnalyzeNode(ctx context.Context, node ast.Member, table *SharedCallbackTable) (diags []rules.Diagnostic) {
	if node == nil || ctx.Err() != nil {
		return nil
	}
	w := acquire(ctx, e.model)
	defer release(w)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("analysis abandoned", zap.Any("fault", r), zap.Stack("stack"))
			diags = nil
		}
	}()

	owner := e.model.EnclosingType(node)
	if owner == nil {
		return nil
	}

	types := []*semantic.NamedType{owner}
	if _, ok := node.(*ast.MethodDecl); ok {
		if m, ok := e.model.ResolveSymbol(node).(*semantic.MethodSymbol); ok {
			for _, t := range table.Referencing(m) {
				if t != owner {
					types = append(types, t)
				}
			}
		}
	}

	p := &pass{w: w, table: table}
	for _, t := range types {
		clusters := w.clusters(t, true)
		if p.table == nil {
			p.table = newSharedCallbackTable()
			p.table.add(t, clusters)
		}
		for _, c := range clusters {
			if !c.Complete() {
				continue
			}
			for _, chk := range checks {
				if e.enabled(chk.id) {
					e.run(p, chk, c)
				}
			}
		}
	}
	if !w.live() {
		return nil
	}

	seen := make(map[string]bool)
	var out rules.List
	for _, f := range p.findings {
		if f.anchor != node {
			continue
		}
		key := fmt.Sprintf("%s|%s|%d|%d|%q", f.diag.Code, f.diag.File, f.diag.Span.Start.Offset, f.diag.Span.End.Offset, f.diag.Args)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f.diag)
	}
	out.Sort()
	return out
}

// run executes one validator. A fault inside it discards whatever the validator
// reported and is logged.
func (e *Engine) run(p *pass, chk check, c *Cluster) {
	mark := len(p.findings)
	defer func() {
		if r := recover(); r != nil {
			p.findings = p.findings[:mark]
			field := ""
			if c.Field != nil {
				field = c.Field.SymbolName()
			}
			e.logger.Debug("validator fault",
				zap.String("rule", string(chk.id)),
				zap.String("field", field),
				zap.Any("fault", r),
				zap.Stack("stack"))
		}
	}()
	chk.run(p, c)
}

// Members returns the member declarations of every type declared in files,
// nested types included. These are the nodes AnalyzeNode accepts.
func Members(files []*ast.File) []ast.Member {
	var out []ast.Member
	var visit func(*ast.TypeDecl)
	visit = func(t *ast.TypeDecl) {
		out = append(out, t.Members...)
		for _, n := range t.Nested {
			visit(n)
		}
	}
	for _, f := range files {
		for _, t := range f.Types {
			visit(t)
		}
	}
	return out
}
