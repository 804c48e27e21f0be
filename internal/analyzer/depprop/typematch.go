package depprop

import (
	"github.com/dplint/dplint/internal/analyzer/rules"
)

func checkPropertyType(p *pass, c *Cluster) {
	reg := c.Registration
	if reg.ValueType == nil {
		return
	}
	for _, prop := range c.Accessor.Properties {
		if prop.Decl.Type == nil || typesAgree(prop.Type, reg.ValueType, reg.Kind) {
			continue
		}
		d := p.diag(prop.Decl.Type, rules.PropertyType, prop.SymbolName(), prop.Decl.Type.String(), reg.ValueTypeText)
		p.add(prop.Decl, d)
	}
}

func checkAccessorMethodType(p *pass, c *Cluster) {
	reg := c.Registration
	if reg.ValueType == nil {
		return
	}
	for _, m := range c.Accessor.Setters {
		param := m.Params[1]
		ref := m.Decl.Params[1].Type
		if ref == nil || typesAgree(param.Type, reg.ValueType, reg.Kind) {
			continue
		}
		p.add(m.Decl, p.diag(ref, rules.AccessorMethodType, m.SymbolName(), ref.String(), reg.ValueTypeText))
	}
	for _, m := range c.Accessor.Getters {
		ref := m.Decl.ReturnType
		if ref == nil || typesAgree(m.Return, reg.ValueType, reg.Kind) {
			continue
		}
		p.add(m.Decl, p.diag(ref, rules.AccessorMethodType, m.SymbolName(), ref.String(), reg.ValueTypeText))
	}
}
