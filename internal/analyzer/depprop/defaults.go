package depprop

import (
	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// checkDefaultValueType requires the default value to be storable as the
// registered type without conversion. Casts are taken at face value and values
// of unknown type abstain.
func checkDefaultValueType(p *pass, c *Cluster) {
	reg := c.Registration
	if c.Metadata == nil || c.Metadata.DefaultValue == nil || reg.ValueType == nil {
		return
	}
	dv := c.Metadata.DefaultValue
	t := p.model().TypeOf(dv)
	if semantic.Assignable(t, reg.ValueType) != semantic.No {
		return
	}
	p.add(c.Site, p.diag(dv, rules.DefaultValueType, render(dv), t.String(), reg.ValueTypeText))
}

// checkDefaultValueShared flags `new T()` defaults of mutable reference types.
// Metadata is created once, so every instance would share the object.
func checkDefaultValueShared(p *pass, c *Cluster) {
	if c.Metadata == nil || c.Metadata.DefaultValue == nil {
		return
	}
	creation, ok := ast.Unparen(c.Metadata.DefaultValue).(*ast.ObjectCreation)
	if !ok || creation.Type == nil || creation.Type.ArrayRank > 0 {
		return
	}
	t := semantic.Definition(p.model().ResolveTypeRef(creation.Type, creation))
	if t == nil || t.IsValueType() || t.Immutable || t.Kind != semantic.KindClass || semantic.IsObject(t) {
		return
	}
	if frozen, known := derivesFrom(t, freezableName); frozen || !known {
		return
	}
	p.add(c.Site, p.diag(creation, rules.DefaultValueSharedInstance, render(creation), creation.Type.String()))
}
