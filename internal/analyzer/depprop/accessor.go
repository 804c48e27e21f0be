package depprop

import (
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// Accessor holds the CLR members bound to a cluster's property identity. More than
// one member of a kind means the type wraps the property several times; each is
// checked on its own.
type Accessor struct {
	// Properties are instance properties wrapping GetValue and SetValue
	Properties []*semantic.PropertySymbol
	// Getters and Setters are the static methods of the attached shape
	Getters []*semantic.MethodSymbol
	Setters []*semantic.MethodSymbol
}

// Empty reports whether no accessor was found.
func (a Accessor) Empty() bool {
	return len(a.Properties) == 0 && len(a.Getters) == 0 && len(a.Setters) == 0
}

// identity is the set of fields standing for one property: the backing field or
// key plus the field derived from the key
type identity []*semantic.FieldSymbol

func (id identity) has(f *semantic.FieldSymbol) bool {
	for _, g := range id {
		if g != nil && g == f {
			return true
		}
	}
	return false
}

// accessors finds the members of owner bound to id.
func (w *walker) accessors(owner *semantic.NamedType, id identity) Accessor {
	var acc Accessor
	if owner == nil || len(id) == 0 {
		return acc
	}
	members := append([]semantic.Symbol(nil), w.sourceMembers(owner)...)
	for _, m := range members {
		if !w.live() {
			return Accessor{}
		}
		switch m := m.(type) {
		case *semantic.PropertySymbol:
			if !m.Static && w.isWrapperProperty(m.Decl, id) {
				acc.Properties = append(acc.Properties, m)
			}
		case *semantic.MethodSymbol:
			if m.Decl == nil || !m.Static {
				continue
			}
			switch {
			case w.isAttachedSetter(m, id):
				acc.Setters = append(acc.Setters, m)
			case w.isAttachedGetter(m, id):
				acc.Getters = append(acc.Getters, m)
			}
		}
	}
	return acc
}

// isWrapperProperty accepts `(T)GetValue(F)` getters and `SetValue(F, value)`
// setters, expression bodied or block bodied.
func (w *walker) isWrapperProperty(p *ast.PropertyDecl, id identity) bool {
	if p == nil {
		return false
	}
	getter := p.ExprBody
	if getter == nil && p.Getter != nil {
		getter = returned(p.Getter.Body, p.Getter.ExprBody)
	}
	if call := castOfCall(getter, "GetValue"); call != nil && isSelf(call.Receiver()) &&
		len(call.Args) == 1 && w.refers(call.Args[0].Value, id) {
		return true
	}

	if p.Setter == nil {
		return false
	}
	call := called(p.Setter.Body, p.Setter.ExprBody)
	if call == nil || !isSetValue(call) || !isSelf(call.Receiver()) || len(call.Args) != 2 {
		return false
	}
	v, ok := ast.Unparen(call.Args[1].Value).(*ast.Ident)
	return ok && v.Name == "value" && w.refers(call.Args[0].Value, id)
}

// isAttachedSetter accepts `static void SetX(DependencyObject e, T v) => e.SetValue(F, v);`.
func (w *walker) isAttachedSetter(m *semantic.MethodSymbol, id identity) bool {
	if !m.IsVoid() || len(m.Params) != 2 {
		return false
	}
	call := called(m.Decl.Body, m.Decl.ExprBody)
	if call == nil || !isSetValue(call) || len(call.Args) != 2 {
		return false
	}
	if !w.isParam(call.Receiver(), m.Params[0]) || !w.refers(call.Args[0].Value, id) {
		return false
	}
	v := ast.Unparen(call.Args[1].Value)
	if c, ok := v.(*ast.Cast); ok {
		v = c.X
	}
	return w.isParam(v, m.Params[1])
}

// isAttachedGetter accepts `static T GetX(DependencyObject e) => (T)e.GetValue(F);`.
func (w *walker) isAttachedGetter(m *semantic.MethodSymbol, id identity) bool {
	if m.IsVoid() || len(m.Params) != 1 {
		return false
	}
	call := castOfCall(returned(m.Decl.Body, m.Decl.ExprBody), "GetValue")
	if call == nil || len(call.Args) != 1 {
		return false
	}
	return w.isParam(call.Receiver(), m.Params[0]) && w.refers(call.Args[0].Value, id)
}

// refers reports whether expr denotes one of the identity fields, directly or
// as Key.DependencyProperty.
func (w *walker) refers(expr ast.Expr, id identity) bool {
	if f, ok := w.model.ResolveSymbol(ast.Unparen(expr)).(*semantic.FieldSymbol); ok && id.has(f) {
		return true
	}
	if key := keyOf(expr); key != nil {
		f, ok := w.model.ResolveSymbol(ast.Unparen(key)).(*semantic.FieldSymbol)
		return ok && id.has(f)
	}
	return false
}

func (w *walker) isParam(expr ast.Expr, p *semantic.ParamSymbol) bool {
	if expr == nil || p == nil {
		return false
	}
	sym, ok := w.model.ResolveSymbol(ast.Unparen(expr)).(*semantic.ParamSymbol)
	return ok && sym == p
}

// isSelf accepts an unqualified call, this.M() and base.M().
func isSelf(recv ast.Expr) bool {
	switch ast.Unparen(recv).(type) {
	case nil:
		return true
	case *ast.This:
		return true
	}
	return false
}

func isSetValue(call *ast.Invocation) bool {
	name := call.MethodName()
	return name == "SetValue" || name == "SetCurrentValue"
}

// castOfCall returns the call inside `(T)X.M(...)` or `X.M(...) as T`.
func castOfCall(expr ast.Expr, method string) *ast.Invocation {
	var inner ast.Expr
	switch e := ast.Unparen(expr).(type) {
	case *ast.Cast:
		inner = e.X
	case *ast.As:
		inner = e.X
	default:
		return nil
	}
	call, ok := ast.Unparen(inner).(*ast.Invocation)
	if !ok || call.MethodName() != method {
		return nil
	}
	return call
}

// terminal returns the statement that does the work of a body: the expression
// body, or the last statement of a block whose other statements are guards.
func terminal(body *ast.Block, expr ast.Expr) ast.Node {
	if expr != nil {
		return expr
	}
	if body == nil || len(body.Stmts) == 0 {
		return nil
	}
	for _, s := range body.Stmts[:len(body.Stmts)-1] {
		switch s.(type) {
		case *ast.IfStmt, *ast.BadStmt:
		default:
			return nil
		}
	}
	return body.Stmts[len(body.Stmts)-1]
}

// returned is the value a getter body produces.
func returned(body *ast.Block, expr ast.Expr) ast.Expr {
	switch t := terminal(body, expr).(type) {
	case *ast.ReturnStmt:
		return t.X
	case ast.Expr:
		return t
	}
	return nil
}

// called is the call a setter body performs.
func called(body *ast.Block, expr ast.Expr) *ast.Invocation {
	var x ast.Expr
	switch t := terminal(body, expr).(type) {
	case *ast.ExprStmt:
		x = t.X
	case ast.Expr:
		x = t
	}
	call, _ := ast.Unparen(x).(*ast.Invocation)
	return call
}
