package depprop

import (
	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// callbackName checks the handler name of one slot. Callbacks shared by several
// clusters of the type have no single correct name and are skipped.
func callbackName(slot Slot, id rules.ID) func(*pass, *Cluster) {
	return func(p *pass, c *Cluster) {
		name, ok := c.Name()
		if !ok {
			return
		}
		for _, cb := range c.Callbacks() {
			if cb.Slot != slot || cb.Target == nil || cb.Target.Decl == nil {
				continue
			}
			switch cb.Shape {
			case ShapeMethodGroup, ShapeDelegateWrapped, ShapeForwardingLambda:
			default:
				continue
			}
			if p.shared(c.Owner, cb.Target) {
				continue
			}
			want := slot.ExpectedName(name)
			if got := cb.Target.SymbolName(); got != want {
				d := p.diag(cb.Target.Decl.Name, id, got, want).
					WithRename(got, want).
					WithRegistration(c.hint(slot))
				p.add(cb.Target.Decl, d)
			}
		}
	}
}

func checkCallbackSignature(p *pass, c *Cluster) {
	for _, cb := range c.Callbacks() {
		del := p.model().WellKnown(cb.Slot.delegateName(), 0)
		if del == nil || del.Invoke == nil {
			continue
		}
		switch cb.Shape {
		case ShapeMethodGroup, ShapeDelegateWrapped, ShapeUnrecognized:
			cands := cb.Candidates
			if len(cands) == 0 && cb.Target != nil {
				cands = []*semantic.MethodSymbol{cb.Target}
			}
			if len(cands) == 0 {
				continue
			}
			bad := cb.Target
			if bad == nil {
				bad = cands[0]
			}
			if bad.Decl == nil {
				continue
			}
			fits := false
			for _, m := range cands {
				fits = fits || signatureFits(m, del.Invoke)
			}
			if !fits {
				d := p.diag(bad.Decl.Name, rules.CallbackSignature, bad.SymbolName(), del.Name).
					WithRegistration(c.hint(cb.Slot))
				p.add(bad.Decl, d)
			}
		case ShapeForwardingLambda, ShapeOpaqueLambda:
			if !p.lambdaFits(cb, del.Invoke) {
				d := p.diag(cb.Lambda, rules.CallbackSignature, "lambda", del.Name).
					WithRegistration(c.hint(cb.Slot))
				p.add(c.Site, d)
			}
		}
	}
}

// signatureFits reports whether m converts to a delegate with the given invoke
// signature. Unresolved types fit.
func signatureFits(m, invoke *semantic.MethodSymbol) bool {
	if len(m.Params) != len(invoke.Params) {
		return false
	}
	for i, mp := range m.Params {
		if len(mp.Modifiers) > 0 {
			return false
		}
		if semantic.Assignable(invoke.Params[i].Type, mp.Type) == semantic.No {
			return false
		}
	}
	if invoke.IsVoid() {
		return m.IsVoid()
	}
	if m.IsVoid() {
		return false
	}
	return semantic.Assignable(m.Return, invoke.Return) != semantic.No
}

// lambdaFits checks the parameter list of a lambda against the delegate.
func (p *pass) lambdaFits(cb *CallbackRef, invoke *semantic.MethodSymbol) bool {
	lam := cb.Lambda
	if lam == nil {
		return true
	}
	if len(lam.Params) != len(invoke.Params) {
		return false
	}
	for i, param := range lam.Params {
		if param.Type == nil {
			continue
		}
		t := p.model().ResolveTypeRef(param.Type, lam)
		if t != nil && invoke.Params[i].Type != nil && !semantic.Identical(t, invoke.Params[i].Type) {
			return false
		}
	}
	return true
}

// checkArgumentOrder verifies that e.OldValue and e.NewValue reach the target
// parameters declared for them, each exactly once.
func checkArgumentOrder(p *pass, c *Cluster) {
	cb := c.Changed
	if cb == nil || cb.Forward == nil {
		return
	}
	seen := make(map[string]bool)
	for _, fa := range cb.Forward.Args {
		if fa.Member != "OldValue" && fa.Member != "NewValue" {
			continue
		}
		param := ""
		if fa.Param != nil {
			param = fa.Param.SymbolName()
		}
		wrong := seen[fa.Member]
		seen[fa.Member] = true
		if want := oldOrNew(param); want != "" && want != fa.Member {
			wrong = true
		}
		if wrong {
			d := p.diag(fa.Arg, rules.CallbackArgumentOrder, render(fa.Arg.Value), param, cb.Target.SymbolName())
			p.add(c.Site, d)
		}
	}
}

// checkSenderCast verifies the type the sender is cast to in a forwarding lambda.
func checkSenderCast(p *pass, c *Cluster) {
	if c.Registration.Kind.IsAttached() || c.Owner == nil {
		return
	}
	for _, cb := range []*CallbackRef{c.Changed, c.Coerce} {
		if cb == nil || cb.Forward == nil || cb.Forward.SenderCast == nil {
			continue
		}
		ref := cb.Forward.SenderCast
		t := p.model().ResolveTypeRef(ref, cb.Forward.Call)
		def := semantic.Definition(t)
		if def == nil || semantic.IsTypeParam(t) {
			continue
		}
		if c.Owner.DerivesFrom(def) || !c.Owner.ChainComplete() {
			continue
		}
		p.add(c.Site, p.diag(ref, rules.CallbackSenderCast, ref.String(), c.Owner.Name))
	}
}

// checkValueCast verifies the types forwarded values are cast to. A cast is wrong
// when neither type converts to the other.
func checkValueCast(p *pass, c *Cluster) {
	reg := c.Registration.ValueType
	if reg == nil {
		return
	}
	for _, cb := range []*CallbackRef{c.Changed, c.Coerce} {
		if cb == nil || cb.Forward == nil {
			continue
		}
		for _, fa := range cb.Forward.Args {
			if fa.Cast == nil {
				continue
			}
			isValue := (cb.Slot == SlotChanged && (fa.Member == "OldValue" || fa.Member == "NewValue")) ||
				(cb.Slot == SlotCoerce && fa.From == 1 && fa.Member == "")
			if !isValue {
				continue
			}
			t := p.model().ResolveTypeRef(fa.Cast, fa.Arg)
			if t == nil || semantic.IsTypeParam(t) || semantic.IsTypeParam(reg) {
				continue
			}
			if semantic.Assignable(reg, t) == semantic.No && semantic.Assignable(t, reg) == semantic.No {
				p.add(c.Site, p.diag(fa.Cast, rules.CallbackValueCast, fa.Cast.String(), c.Registration.ValueTypeText))
			}
		}
	}
}
