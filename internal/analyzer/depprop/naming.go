package depprop

import (
	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

func checkBackingFieldName(p *pass, c *Cluster) {
	name, ok := c.Name()
	if !ok || c.Field == nil {
		return
	}
	want := name + "Property"
	if c.Registration.Kind.IsReadOnly() {
		want += "Key"
	}
	if got := c.Field.SymbolName(); got != want {
		p.add(c.Field.Decl, p.diag(c.Field.Decl.Name, rules.BackingFieldName, got, want).WithRename(got, want))
	}
}

func checkDerivedFieldName(p *pass, c *Cluster) {
	name, ok := c.Name()
	if !ok || c.Derived == nil {
		return
	}
	want := name + "Property"
	if got := c.Derived.SymbolName(); got != want {
		p.add(c.Derived.Decl, p.diag(c.Derived.Decl.Name, rules.DerivedFieldName, got, want).WithRename(got, want))
	}
}

func checkPropertyName(p *pass, c *Cluster) {
	name, ok := c.Name()
	if !ok {
		return
	}
	for _, prop := range c.Accessor.Properties {
		if got := prop.SymbolName(); got != name {
			p.add(prop.Decl, p.diag(prop.Decl.Name, rules.PropertyName, got, name).WithRename(got, name))
		}
	}
}

func checkAccessorMethodName(p *pass, c *Cluster) {
	name, ok := c.Name()
	if !ok || !c.Registration.Kind.IsAttached() {
		return
	}
	report := func(m *semantic.MethodSymbol, want string) {
		if got := m.SymbolName(); got != want {
			p.add(m.Decl, p.diag(m.Decl.Name, rules.AccessorMethodName, got, want).WithRename(got, want))
		}
	}
	for _, m := range c.Accessor.Getters {
		report(m, "Get"+name)
	}
	for _, m := range c.Accessor.Setters {
		report(m, "Set"+name)
	}
}

func checkStaticReadOnly(p *pass, c *Cluster) {
	for _, f := range []*semantic.FieldSymbol{c.Field, c.Derived} {
		if f == nil || f.Decl == nil {
			continue
		}
		if !f.Static || !f.ReadOnly {
			p.add(f.Decl, p.diag(f.Decl.Name, rules.BackingFieldStaticReadOnly, f.SymbolName()))
		}
	}
}
