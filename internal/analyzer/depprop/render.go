package depprop

import (
	"strings"

	"github.com/dplint/dplint/internal/compiler/ast"
)

// render prints an expression roughly as written, for message arguments. Long or
// unmodelled sub-expressions collapse to an ellipsis.
func render(e ast.Expr) string {
	var b strings.Builder
	renderTo(&b, e, 0)
	return b.String()
}

const renderDepth = 4

func renderTo(b *strings.Builder, e ast.Expr, depth int) {
	if depth > renderDepth {
		b.WriteString("...")
		return
	}
	switch e := e.(type) {
	case nil:
	case *ast.Ident:
		b.WriteString(e.Name)
	case *ast.This:
		if e.Base {
			b.WriteString("base")
		} else {
			b.WriteString("this")
		}
	case *ast.Literal:
		b.WriteString(e.Value)
	case *ast.TypeRef:
		b.WriteString(e.String())
	case *ast.MemberAccess:
		renderTo(b, e.X, depth+1)
		b.WriteString(".")
		b.WriteString(e.Name.Name)
	case *ast.Paren:
		b.WriteString("(")
		renderTo(b, e.X, depth+1)
		b.WriteString(")")
	case *ast.Cast:
		b.WriteString("(" + e.Type.String() + ")")
		renderTo(b, e.X, depth+1)
	case *ast.As:
		renderTo(b, e.X, depth+1)
		b.WriteString(" as " + e.Type.String())
	case *ast.TypeOf:
		b.WriteString("typeof(" + e.Type.String() + ")")
	case *ast.Default:
		if e.Type == nil {
			b.WriteString("default")
		} else {
			b.WriteString("default(" + e.Type.String() + ")")
		}
	case *ast.Unary:
		b.WriteString(e.Op)
		renderTo(b, e.X, depth+1)
	case *ast.Binary:
		renderTo(b, e.L, depth+1)
		b.WriteString(" " + e.Op + " ")
		renderTo(b, e.R, depth+1)
	case *ast.Invocation:
		renderTo(b, e.Fun, depth+1)
		renderArgs(b, e.Args, depth)
	case *ast.ObjectCreation:
		b.WriteString("new")
		if e.Type != nil {
			b.WriteString(" " + e.Type.String())
		}
		renderArgs(b, e.Args, depth)
		if len(e.Initializer) > 0 {
			b.WriteString(" { ... }")
		}
	case *ast.Lambda:
		b.WriteString("(...) => ...")
	case *ast.BadExpr:
		if len(e.Text) <= 40 {
			b.WriteString(e.Text)
		} else {
			b.WriteString("...")
		}
	default:
		b.WriteString("...")
	}
}

func renderArgs(b *strings.Builder, args []*ast.Argument, depth int) {
	b.WriteString("(")
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		if a.Name != "" {
			b.WriteString(a.Name + ": ")
		}
		renderTo(b, a.Value, depth+1)
	}
	b.WriteString(")")
}
