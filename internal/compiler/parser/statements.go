package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dplint/dplint/internal/compiler/ast"
)

func (l *lowerer) block(n *sitter.Node) *ast.Block {
	b := &ast.Block{Loc: l.span(n)}
	for _, c := range namedChildren(n) {
		b.Stmts = append(b.Stmts, l.stmts(c)...)
	}
	return b
}

// stmts lowers one statement node. Local declarations with several declarators
// produce one statement each.
func (l *lowerer) stmts(n *sitter.Node) []ast.Stmt {
	switch n.Type() {
	case "local_declaration_statement":
		varDecl := childOfType(n, "variable_declaration")
		if varDecl == nil {
			return []ast.Stmt{l.badStmt(n)}
		}
		typ, declarators := l.variableDeclaration(varDecl)
		out := make([]ast.Stmt, 0, len(declarators))
		for _, d := range declarators {
			out = append(out, &ast.LocalDecl{Type: typ, Name: d.name, Init: d.init, Loc: l.span(n)})
		}
		return out
	default:
		return []ast.Stmt{l.stmt(n)}
	}
}

func (l *lowerer) stmt(n *sitter.Node) ast.Stmt {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "block":
		return l.block(n)
	case "expression_statement":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return l.badStmt(n)
		}
		return &ast.ExprStmt{X: l.expr(kids[0]), Loc: l.span(n)}
	case "return_statement":
		r := &ast.ReturnStmt{Loc: l.span(n)}
		if kids := namedChildren(n); len(kids) > 0 {
			r.X = l.expr(kids[0])
		}
		return r
	case "if_statement":
		return l.ifStmt(n)
	case "local_declaration_statement":
		stmts := l.stmts(n)
		if len(stmts) == 1 {
			return stmts[0]
		}
		return &ast.Block{Stmts: stmts, Loc: l.span(n)}
	default:
		return l.badStmt(n)
	}
}

func (l *lowerer) ifStmt(n *sitter.Node) ast.Stmt {
	cond := n.ChildByFieldName("condition")
	then := n.ChildByFieldName("consequence")
	alt := n.ChildByFieldName("alternative")

	if cond == nil || then == nil {
		kids := namedChildren(n)
		if len(kids) < 2 {
			return l.badStmt(n)
		}
		cond, then = kids[0], kids[1]
		if len(kids) > 2 {
			alt = kids[2]
		}
	}
	if alt != nil && alt.Type() == "else_clause" {
		if kids := namedChildren(alt); len(kids) > 0 {
			alt = kids[0]
		} else {
			alt = nil
		}
	}

	s := &ast.IfStmt{Cond: l.expr(cond), Then: l.stmt(then), Loc: l.span(n)}
	if alt != nil {
		s.Else = l.stmt(alt)
	}
	return s
}

func (l *lowerer) badStmt(n *sitter.Node) *ast.BadStmt {
	return &ast.BadStmt{Kind: n.Type(), Text: l.text(n), Loc: l.span(n)}
}
