package depprop

import (
	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// Cluster is the set of declarations implementing one dependency property
type Cluster struct {
	// Field is the backing field or key; nil for OverrideMetadata calls
	Field *semantic.FieldSymbol
	// Derived is the public field assigned from Key.DependencyProperty
	Derived *semantic.FieldSymbol
	Owner   *semantic.NamedType

	// Site is the member holding the registration call: the field itself, or the
	// static constructor assigning it
	Site ast.Member

	Registration *Registration
	Metadata     *Metadata
	Changed      *CallbackRef
	Coerce       *CallbackRef
	Validate     *CallbackRef
	Accessor     Accessor
}

// Complete reports whether the cluster has a registration and a property identity.
func (c *Cluster) Complete() bool {
	if c.Registration == nil {
		return false
	}
	return c.Field != nil || c.Registration.Kind == KindOverrideMetadata
}

// Callbacks returns the non-nil callbacks in slot order.
func (c *Cluster) Callbacks() []*CallbackRef {
	out := make([]*CallbackRef, 0, 3)
	for _, cb := range []*CallbackRef{c.Changed, c.Coerce, c.Validate} {
		if cb != nil {
			out = append(out, cb)
		}
	}
	return out
}

// Name returns the registered name when it is statically known.
func (c *Cluster) Name() (string, bool) {
	if c.Registration == nil || !c.Registration.NameKnown {
		return "", false
	}
	return c.Registration.Name, true
}

func (c *Cluster) identity() identity {
	var id identity
	if c.Field != nil {
		id = append(id, c.Field)
	}
	if c.Derived != nil {
		id = append(id, c.Derived)
	}
	return id
}

// hint describes the registration to code fixes.
func (c *Cluster) hint(slot Slot) rules.RegistrationHint {
	h := rules.RegistrationHint{Slot: slot.String()}
	if r := c.Registration; r != nil {
		h.Kind = r.Kind.String()
		h.Name = r.Name
		h.ValueType = r.ValueTypeText
	}
	if c.Owner != nil {
		h.OwnerType = c.Owner.Name
	}
	return h
}

// clusters assembles every cluster declared in owner, in declaration order.
// Accessors are only resolved when withAccessors is set.
func (w *walker) clusters(owner *semantic.NamedType, withAccessors bool) []*Cluster {
	if owner == nil || !owner.FromSource {
		return nil
	}
	members := append([]semantic.Symbol(nil), w.sourceMembers(owner)...)

	var out []*Cluster
	byField := make(map[*semantic.FieldSymbol]*Cluster)

	// Field initializers.
	for _, m := range members {
		f, ok := m.(*semantic.FieldSymbol)
		if !ok || f.Decl.Init == nil {
			continue
		}
		if reg := w.registration(f.Decl.Init); reg != nil && reg.Kind != KindOverrideMetadata {
			c := &Cluster{Field: f, Owner: owner, Site: f.Decl, Registration: reg}
			byField[f] = c
			out = append(out, c)
		}
	}

	// Static constructors: `XProperty = DependencyProperty.Register(...)` and
	// `XProperty.OverrideMetadata(...)` statements.
	for _, m := range members {
		ctor, ok := m.(*semantic.MethodSymbol)
		if !ok || ctor.CtorDecl == nil || !ctor.Static || ctor.CtorDecl.Body == nil {
			continue
		}
		for _, s := range ctor.CtorDecl.Body.Stmts {
			if !w.live() {
				return nil
			}
			es, ok := s.(*ast.ExprStmt)
			if !ok {
				continue
			}
			switch x := ast.Unparen(es.X).(type) {
			case *ast.Assign:
				f, ok := w.model.ResolveSymbol(ast.Unparen(x.L)).(*semantic.FieldSymbol)
				if !ok || f.Owner != owner || f.Decl == nil || byField[f] != nil || x.Op != "=" {
					continue
				}
				if reg := w.registration(x.R); reg != nil && reg.Kind != KindOverrideMetadata {
					c := &Cluster{Field: f, Owner: owner, Site: ctor.CtorDecl, Registration: reg}
					byField[f] = c
					out = append(out, c)
				}
			case *ast.Invocation:
				if reg := w.registration(x); reg != nil && reg.Kind == KindOverrideMetadata {
					out = append(out, &Cluster{Owner: owner, Site: ctor.CtorDecl, Registration: reg})
				}
			}
		}
	}

	// Fields derived from a key belong to the key's cluster.
	for _, m := range members {
		f, ok := m.(*semantic.FieldSymbol)
		if !ok || f.Decl.Init == nil || byField[f] != nil {
			continue
		}
		key := keyOf(f.Decl.Init)
		if key == nil {
			continue
		}
		if kf, ok := w.model.ResolveSymbol(ast.Unparen(key)).(*semantic.FieldSymbol); ok {
			if c := byField[kf]; c != nil && c.Derived == nil && c.Registration.Kind.IsReadOnly() {
				c.Derived = f
			}
		}
	}

	for _, c := range out {
		if !w.live() {
			return nil
		}
		reg := c.Registration
		c.Metadata = w.metadata(reg.Metadata)
		if c.Metadata != nil {
			c.Changed = w.callback(c.Metadata.Changed, SlotChanged)
			c.Coerce = w.callback(c.Metadata.Coerce, SlotCoerce)
		}
		c.Validate = w.callback(reg.Validate, SlotValidate)
		if withAccessors {
			c.Accessor = w.accessors(owner, c.identity())
		}
	}
	return out
}

type callbackKey struct {
	owner  *semantic.NamedType
	method *semantic.MethodSymbol
}

// SharedCallbackTable records which callback methods are referenced by more than
// one cluster of the same type. It is built once per pass and only read after.
type SharedCallbackTable struct {
	uses map[callbackKey]int
	refs map[*semantic.MethodSymbol][]*semantic.NamedType
}

func newSharedCallbackTable() *SharedCallbackTable {
	return &SharedCallbackTable{
		uses: make(map[callbackKey]int),
		refs: make(map[*semantic.MethodSymbol][]*semantic.NamedType),
	}
}

func (t *SharedCallbackTable) add(owner *semantic.NamedType, clusters []*Cluster) {
	for _, c := range clusters {
		seen := make(map[*semantic.MethodSymbol]bool)
		for _, cb := range c.Callbacks() {
			m := cb.Target
			if m == nil || seen[m] {
				continue
			}
			seen[m] = true
			t.uses[callbackKey{owner, m}]++

			known := false
			for _, o := range t.refs[m] {
				known = known || o == owner
			}
			if !known {
				t.refs[m] = append(t.refs[m], owner)
			}
		}
	}
}

// Shared reports whether m is the callback of more than one cluster declared in owner.
func (t *SharedCallbackTable) Shared(owner *semantic.NamedType, m *semantic.MethodSymbol) bool {
	if t == nil {
		return false
	}
	return t.uses[callbackKey{owner, m}] > 1
}

// Referencing returns the types with clusters using m as a callback.
func (t *SharedCallbackTable) Referencing(m *semantic.MethodSymbol) []*semantic.NamedType {
	if t == nil {
		return nil
	}
	return t.refs[m]
}

// Len returns the number of distinct (type, callback) pairs.
func (t *SharedCallbackTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.uses)
}
