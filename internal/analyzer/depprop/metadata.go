package depprop

import (
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// Metadata describes the metadata argument of a registration
type Metadata struct {
	Creation *ast.ObjectCreation
	Type     *semantic.NamedType // nil when the metadata type does not resolve

	DefaultValue ast.Expr
	Changed      ast.Expr
	Coerce       ast.Expr
}

var metadataSlots = map[string]Slot{
	"propertyChangedCallback": SlotChanged,
	"coerceValueCallback":     SlotCoerce,
}

// metadata extracts default value and callbacks from a metadata argument. It
// returns nil when expr is not an object creation.
func (w *walker) metadata(expr ast.Expr) *Metadata {
	if !w.live() || expr == nil {
		return nil
	}
	creation, ok := ast.Unparen(expr).(*ast.ObjectCreation)
	if !ok {
		return nil
	}
	md := &Metadata{Creation: creation}
	if creation.Type != nil {
		md.Type = semantic.Definition(w.model.ResolveTypeRef(creation.Type, creation))
		if md.Type != nil {
			if is, known := derivesFrom(md.Type, propertyMetadataName); known && !is {
				return nil
			}
		}
	}

	// Prefer the parameter names of the selected constructor.
	if ctor, ok := w.model.ResolveSymbol(creation).(*semantic.MethodSymbol); ok && ctor.IsConstructor {
		for _, arg := range creation.Args {
			p := semantic.ParamFor(ctor, creation.Args, arg)
			if p == nil {
				continue
			}
			switch p.SymbolName() {
			case "defaultValue":
				md.DefaultValue = arg.Value
			case "propertyChangedCallback":
				md.Changed = arg.Value
			case "coerceValueCallback":
				md.Coerce = arg.Value
			}
		}
		return md
	}

	// Unresolved constructor: default value first, then callbacks in order.
	next := SlotChanged
	for i, arg := range creation.Args {
		if arg.Name != "" {
			switch slot, ok := metadataSlots[arg.Name]; {
			case ok && slot == SlotChanged:
				md.Changed = arg.Value
			case ok && slot == SlotCoerce:
				md.Coerce = arg.Value
			case arg.Name == "defaultValue":
				md.DefaultValue = arg.Value
			}
			continue
		}
		if !w.callbackLike(arg.Value) {
			if i == 0 {
				md.DefaultValue = arg.Value
			}
			continue
		}
		switch next {
		case SlotChanged:
			md.Changed = arg.Value
			next = SlotCoerce
		case SlotCoerce:
			md.Coerce = arg.Value
			next = SlotValidate
		}
	}
	return md
}

// callbackLike reports whether expr can only be a callback: a lambda, a delegate
// creation or a method group.
func (w *walker) callbackLike(expr ast.Expr) bool {
	switch e := ast.Unparen(expr).(type) {
	case *ast.Lambda:
		return true
	case *ast.ObjectCreation:
		if e.Type == nil {
			return false
		}
		t := semantic.Definition(w.model.ResolveTypeRef(e.Type, e))
		return t != nil && t.Kind == semantic.KindDelegate
	case *ast.Ident, *ast.MemberAccess:
		if len(w.model.MethodGroup(e)) > 0 {
			return true
		}
		t := semantic.Definition(w.model.TypeOf(e))
		return t != nil && t.Kind == semantic.KindDelegate
	}
	return false
}
