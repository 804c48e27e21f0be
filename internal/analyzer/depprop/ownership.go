package depprop

import (
	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

func checkRegisterOwner(p *pass, c *Cluster) {
	if !c.Registration.Kind.IsRegister() {
		return
	}
	checkOwnerArgument(p, c, rules.RegisterOwner)
}

func checkAddOwnerOwner(p *pass, c *Cluster) {
	switch c.Registration.Kind {
	case KindAddOwner, KindOverrideMetadata:
		checkOwnerArgument(p, c, rules.AddOwnerOwner)
	}
}

// checkOwnerArgument requires typeof(X) in the owner slot to name the type
// declaring the registration, generic arguments aside.
func checkOwnerArgument(p *pass, c *Cluster, id rules.ID) {
	t, to := c.Registration.OwnerType(p.model())
	def := semantic.Definition(t)
	if def == nil || c.Owner == nil || def == c.Owner {
		return
	}
	p.add(c.Site, p.diag(to, id, to.Type.String(), c.Owner.Name))
}

func checkOwnerDependencyObject(p *pass, c *Cluster) {
	reg := c.Registration
	if reg.Kind != KindRegister && reg.Kind != KindRegisterReadOnly {
		return
	}
	is, known := derivesFrom(c.Owner, dependencyObjectName)
	if !known || is {
		return
	}
	name, ok := c.Name()
	if !ok && c.Field != nil {
		name = c.Field.SymbolName()
	}
	var at ast.Node = reg.Call
	if ma, ok := reg.Call.Fun.(*ast.MemberAccess); ok && ma.Name != nil {
		at = ma.Name
	}
	p.add(c.Site, p.diag(at, rules.OwnerDerivesDependencyObject, c.Owner.Name, name))
}
