package depprop

import (
	"strings"

	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// Slot is the callback position in a registration
type Slot int

const (
	// SlotChanged is the PropertyChangedCallback of the metadata
	SlotChanged Slot = iota
	// SlotCoerce is the CoerceValueCallback of the metadata
	SlotCoerce
	// SlotValidate is the ValidateValueCallback passed to Register
	SlotValidate
)

func (s Slot) String() string {
	switch s {
	case SlotChanged:
		return "changed"
	case SlotCoerce:
		return "coerce"
	default:
		return "validate"
	}
}

// delegateName returns the full name of the delegate type of the slot.
func (s Slot) delegateName() string {
	switch s {
	case SlotChanged:
		return changedCallbackName
	case SlotCoerce:
		return coerceCallbackName
	default:
		return validateCallbackName
	}
}

// ExpectedName returns the conventional callback name for a registered name.
func (s Slot) ExpectedName(name string) string {
	switch s {
	case SlotChanged:
		return "On" + name + "Changed"
	case SlotCoerce:
		return "Coerce" + name
	default:
		return "Validate" + name
	}
}

// InvocationShape is how a callback expression denotes its handler
type InvocationShape int

const (
	// ShapeUnrecognized is any expression the resolver does not model
	ShapeUnrecognized InvocationShape = iota
	// ShapeMethodGroup is a bare method reference
	ShapeMethodGroup
	// ShapeDelegateWrapped is `new Callback(Method)`
	ShapeDelegateWrapped
	// ShapeForwardingLambda is a lambda whose body forwards to one instance method
	ShapeForwardingLambda
	// ShapeOpaqueLambda is a lambda whose body does anything else
	ShapeOpaqueLambda
)

func (s InvocationShape) String() string {
	return [...]string{"unrecognized", "method-group", "delegate-wrapped", "forwarding-lambda", "opaque-lambda"}[s]
}

// CallbackRef is a normalized callback expression
type CallbackRef struct {
	Slot  Slot
	Expr  ast.Expr
	Shape InvocationShape

	// Target is the method the callback ends up in: the referenced method for
	// method groups, the forwarded-to method for forwarding lambdas.
	Target *semantic.MethodSymbol
	// Candidates are all overloads a method group may denote
	Candidates []*semantic.MethodSymbol

	Lambda  *ast.Lambda
	Forward *Forwarding
}

// Forwarding records how a lambda forwards to its target
type Forwarding struct {
	Call *ast.Invocation

	// SenderCast is the type the sender is cast or matched to, nil when the
	// receiver is used without a cast
	SenderCast *ast.TypeRef

	Args []ForwardedArg
}

// ForwardedArg maps one argument of the forwarding call to its source
type ForwardedArg struct {
	Arg   *ast.Argument
	Param *semantic.ParamSymbol // target parameter, nil when unmapped

	// From is the index of the lambda parameter the value comes from
	From int
	// Member is OldValue, NewValue or Property for `e.Member`, empty otherwise
	Member string
	// Cast is the type the value is cast to, nil without a cast
	Cast *ast.TypeRef
}

// callback normalizes the expression in a callback slot. It returns nil for a nil
// expression; unrecognized expressions yield ShapeUnrecognized.
func (w *walker) callback(expr ast.Expr, slot Slot) *CallbackRef {
	if expr == nil || !w.live() {
		return nil
	}
	ref := &CallbackRef{Slot: slot, Expr: expr}

	switch e := ast.Unparen(expr).(type) {
	case *ast.Ident, *ast.MemberAccess:
		ref.Candidates = w.model.MethodGroup(e)
		if ref.Target = w.pickOverload(ref.Candidates, slot); ref.Target != nil {
			ref.Shape = ShapeMethodGroup
		}
	case *ast.ObjectCreation:
		if e.Type == nil || len(e.Args) != 1 {
			break
		}
		d := semantic.Definition(w.model.ResolveTypeRef(e.Type, e))
		if d == nil || d.Kind != semantic.KindDelegate {
			break
		}
		inner := w.callback(e.Args[0].Value, slot)
		if inner == nil {
			break
		}
		if inner.Shape == ShapeMethodGroup {
			inner.Shape = ShapeDelegateWrapped
		}
		inner.Expr = expr
		return inner
	case *ast.Lambda:
		ref.Lambda = e
		ref.Shape = ShapeOpaqueLambda
		if fwd, target := w.forwarding(e); target != nil {
			ref.Shape = ShapeForwardingLambda
			ref.Target = target
			ref.Forward = fwd
		}
	}
	return ref
}

// pickOverload selects the overload whose arity matches the slot's delegate.
func (w *walker) pickOverload(cands []*semantic.MethodSymbol, slot Slot) *semantic.MethodSymbol {
	if len(cands) == 1 {
		return cands[0]
	}
	arity := 2
	if slot == SlotValidate {
		arity = 1
	}
	var match *semantic.MethodSymbol
	for _, m := range cands {
		if len(m.Params) == arity {
			if match != nil {
				return nil
			}
			match = m
		}
	}
	return match
}

// forwarding recognizes a lambda whose body is exactly one call of an instance
// method on the first parameter, passing the other parameters through.
func (w *walker) forwarding(lam *ast.Lambda) (*Forwarding, *semantic.MethodSymbol) {
	if len(lam.Params) == 0 {
		return nil, nil
	}
	call, pattern := w.terminalCall(lam.Body)
	if call == nil || w.calls(lam.Body) != 1 {
		return nil, nil
	}
	ma, ok := call.Fun.(*ast.MemberAccess)
	if !ok {
		return nil, nil
	}

	fwd := &Forwarding{Call: call}
	switch recv := ast.Unparen(ma.X).(type) {
	case *ast.Cast:
		if !w.isLambdaParam(recv.X, lam, 0) {
			return nil, nil
		}
		fwd.SenderCast = recv.Type
	case *ast.As:
		if !w.isLambdaParam(recv.X, lam, 0) {
			return nil, nil
		}
		fwd.SenderCast = recv.Type
	case *ast.Ident:
		switch sym := w.model.ResolveSymbol(recv).(type) {
		case *semantic.ParamSymbol:
			if !w.isLambdaParam(recv, lam, 0) {
				return nil, nil
			}
		case *semantic.LocalSymbol:
			is, ok := sym.Decl.(*ast.IsPattern)
			if !ok || (pattern != nil && is != pattern) || !w.isLambdaParam(is.X, lam, 0) {
				return nil, nil
			}
			fwd.SenderCast = is.Type
		default:
			return nil, nil
		}
	default:
		return nil, nil
	}

	target, ok := w.model.ResolveSymbol(call).(*semantic.MethodSymbol)
	if !ok || target.Static || target.IsConstructor {
		return nil, nil
	}

	for _, arg := range call.Args {
		fa := ForwardedArg{Arg: arg, Param: semantic.ParamFor(target, call.Args, arg), From: -1}
		v := ast.Unparen(arg.Value)
		if c, ok := v.(*ast.Cast); ok {
			fa.Cast = c.Type
			v = ast.Unparen(c.X)
		} else if a, ok := v.(*ast.As); ok {
			fa.Cast = a.Type
			v = ast.Unparen(a.X)
		}
		if ma, ok := v.(*ast.MemberAccess); ok && ma.Name != nil {
			fa.Member = ma.Name.Name
			v = ast.Unparen(ma.X)
		}
		for i := 1; i < len(lam.Params); i++ {
			if w.isLambdaParam(v, lam, i) {
				fa.From = i
			}
		}
		if fa.From < 0 {
			// a value that does not come from the callback arguments
			return nil, nil
		}
		fwd.Args = append(fwd.Args, fa)
	}
	return fwd, target
}

// terminalCall returns the single meaningful call of a lambda body. A body of the
// form `if (d is T t) { t.M(...); }` also returns the pattern.
func (w *walker) terminalCall(body ast.Node) (*ast.Invocation, *ast.IsPattern) {
	if !w.live() {
		return nil, nil
	}
	switch b := body.(type) {
	case *ast.Invocation:
		return b, nil
	case *ast.Paren:
		return w.terminalCall(b.X)
	case *ast.Block:
		if b == nil || len(b.Stmts) != 1 {
			return nil, nil
		}
		return w.terminalCall(b.Stmts[0])
	case *ast.ExprStmt:
		call, _ := ast.Unparen(b.X).(*ast.Invocation)
		return call, nil
	case *ast.ReturnStmt:
		call, _ := ast.Unparen(b.X).(*ast.Invocation)
		return call, nil
	case *ast.IfStmt:
		is, ok := ast.Unparen(b.Cond).(*ast.IsPattern)
		if !ok || is.Name == nil || b.Else != nil {
			return nil, nil
		}
		call, _ := w.terminalCall(b.Then)
		if call == nil {
			return nil, nil
		}
		return call, is
	}
	return nil, nil
}

// isLambdaParam reports whether expr names parameter i of lam.
func (w *walker) isLambdaParam(expr ast.Expr, lam *ast.Lambda, i int) bool {
	if i >= len(lam.Params) {
		return false
	}
	id, ok := ast.Unparen(expr).(*ast.Ident)
	if !ok {
		return false
	}
	p, ok := w.model.ResolveSymbol(id).(*semantic.ParamSymbol)
	return ok && p.Decl == lam.Params[i]
}

// oldOrNew classifies a parameter name as receiving the old or the new value.
func oldOrNew(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "old") || strings.HasPrefix(lower, "previous"):
		return "OldValue"
	case strings.HasPrefix(lower, "new"):
		return "NewValue"
	}
	return ""
}
