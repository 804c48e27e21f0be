package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dplint/dplint/internal/compiler/ast"
)

var literalKinds = map[string]ast.LiteralKind{
	"integer_literal":         ast.LiteralInt,
	"real_literal":            ast.LiteralReal,
	"string_literal":          ast.LiteralString,
	"verbatim_string_literal": ast.LiteralString,
	"raw_string_literal":      ast.LiteralString,
	"character_literal":       ast.LiteralChar,
	"boolean_literal":         ast.LiteralBool,
	"null_literal":            ast.LiteralNull,
}

// expr lowers an expression node. Unknown syntax becomes *ast.BadExpr.
func (l *lowerer) expr(n *sitter.Node) ast.Expr {
	if n == nil {
		return nil
	}
	loc := l.span(n)

	if kind, ok := literalKinds[n.Type()]; ok {
		return &ast.Literal{Kind: kind, Value: l.text(n), Loc: loc}
	}

	switch n.Type() {
	case "identifier":
		return &ast.Ident{Name: l.text(n), Loc: loc}
	case "generic_name":
		return l.ident(n)
	case "predefined_type":
		return &ast.Ident{Name: l.text(n), Loc: loc}
	case "this_expression", "this":
		return &ast.This{Loc: loc}
	case "base_expression", "base":
		return &ast.This{Base: true, Loc: loc}
	case "qualified_name":
		return l.qualifiedNameExpr(n)
	case "member_access_expression":
		return l.memberAccess(n)
	case "invocation_expression":
		return l.invocation(n)
	case "object_creation_expression":
		return l.objectCreation(n)
	case "implicit_object_creation_expression":
		return &ast.ObjectCreation{
			Args:        l.arguments(childOfType(n, "argument_list")),
			Initializer: l.initializer(childOfType(n, "initializer_expression")),
			Loc:         loc,
		}
	case "array_creation_expression":
		typeNode := n.ChildByFieldName("type")
		if typeNode == nil {
			typeNode = childOfType(n, "array_type")
		}
		return &ast.ObjectCreation{
			Type:        l.typeRef(typeNode),
			Initializer: l.initializer(childOfType(n, "initializer_expression")),
			Loc:         loc,
		}
	case "cast_expression":
		return l.cast(n)
	case "parenthesized_expression":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return l.bad(n)
		}
		return &ast.Paren{X: l.expr(kids[0]), Loc: loc}
	case "lambda_expression":
		return l.lambda(n)
	case "anonymous_method_expression":
		lam := &ast.Lambda{Loc: loc}
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "parameter_list":
				lam.Params = l.params(c)
			case "block":
				lam.Body = l.block(c)
			}
		}
		if lam.Body == nil {
			return l.bad(n)
		}
		return lam
	case "typeof_expression":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return l.bad(n)
		}
		return &ast.TypeOf{Type: l.typeRef(kids[0]), Loc: loc}
	case "default_expression":
		d := &ast.Default{Loc: loc}
		if kids := namedChildren(n); len(kids) > 0 {
			d.Type = l.typeRef(kids[0])
		}
		return d
	case "prefix_unary_expression":
		return l.prefixUnary(n)
	case "postfix_unary_expression":
		kids := namedChildren(n)
		if len(kids) == 1 && strings.HasSuffix(l.text(n), "!") {
			// null-forgiving operator
			return l.expr(kids[0])
		}
		return l.bad(n)
	case "binary_expression":
		return l.binary(n)
	case "as_expression":
		kids := namedChildren(n)
		if len(kids) != 2 {
			return l.bad(n)
		}
		return &ast.As{X: l.expr(kids[0]), Type: l.typeRef(kids[1]), Loc: loc}
	case "is_expression":
		kids := namedChildren(n)
		if len(kids) != 2 {
			return l.bad(n)
		}
		return &ast.IsPattern{X: l.expr(kids[0]), Type: l.typeRef(kids[1]), Loc: loc}
	case "is_pattern_expression":
		return l.isPattern(n)
	case "assignment_expression":
		return l.assignment(n)
	case "conditional_expression":
		kids := namedChildren(n)
		if len(kids) != 3 {
			return l.bad(n)
		}
		return &ast.Conditional{
			Cond: l.expr(kids[0]),
			Then: l.expr(kids[1]),
			Else: l.expr(kids[2]),
			Loc:  loc,
		}
	default:
		return l.bad(n)
	}
}

func (l *lowerer) bad(n *sitter.Node) *ast.BadExpr {
	return &ast.BadExpr{Kind: n.Type(), Text: l.text(n), Loc: l.span(n)}
}

// qualifiedNameExpr lowers `A.B.C` in expression position into member accesses.
func (l *lowerer) qualifiedNameExpr(n *sitter.Node) ast.Expr {
	kids := namedChildren(n)
	if len(kids) < 2 {
		return &ast.Ident{Name: l.text(n), Loc: l.span(n)}
	}
	x := l.expr(kids[0])
	name := l.ident(kids[len(kids)-1])
	return &ast.MemberAccess{X: x, Name: name, Loc: l.span(n)}
}

func (l *lowerer) memberAccess(n *sitter.Node) ast.Expr {
	xNode := n.ChildByFieldName("expression")
	nameNode := n.ChildByFieldName("name")
	kids := namedChildren(n)
	if xNode == nil && len(kids) >= 2 {
		xNode = kids[0]
	}
	if nameNode == nil && len(kids) >= 1 {
		nameNode = kids[len(kids)-1]
	}
	if xNode == nil || nameNode == nil {
		return l.bad(n)
	}
	return &ast.MemberAccess{X: l.expr(xNode), Name: l.ident(nameNode), Loc: l.span(n)}
}

func (l *lowerer) invocation(n *sitter.Node) ast.Expr {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if fn == nil || args == nil {
		for _, c := range namedChildren(n) {
			if c.Type() == "argument_list" {
				args = c
			} else if fn == nil {
				fn = c
			}
		}
	}
	if fn == nil {
		return l.bad(n)
	}
	return &ast.Invocation{Fun: l.expr(fn), Args: l.arguments(args), Loc: l.span(n)}
}

func (l *lowerer) arguments(n *sitter.Node) []*ast.Argument {
	out := make([]*ast.Argument, 0)
	for _, c := range namedChildren(n) {
		if c.Type() != "argument" {
			continue
		}
		arg := &ast.Argument{Loc: l.span(c)}
		for i := 0; i < int(c.ChildCount()); i++ {
			k := c.Child(i)
			if k == nil {
				continue
			}
			switch t := l.text(k); {
			case c.FieldNameForChild(i) == "name":
				arg.Name = t
			case !k.IsNamed() && t == ":":
			case !k.IsNamed() && (t == "ref" || t == "out" || t == "in"):
				arg.RefKind = t
			case k.IsNamed() && arg.Value == nil:
				arg.Value = l.expr(k)
			}
		}
		if arg.Value == nil {
			arg.Value = l.bad(c)
		}
		out = append(out, arg)
	}
	return out
}

func (l *lowerer) initializer(n *sitter.Node) []ast.Expr {
	if n == nil {
		return nil
	}
	var out []ast.Expr
	for _, c := range namedChildren(n) {
		out = append(out, l.expr(c))
	}
	return out
}

func (l *lowerer) objectCreation(n *sitter.Node) ast.Expr {
	oc := &ast.ObjectCreation{Loc: l.span(n)}
	if t := n.ChildByFieldName("type"); t != nil {
		oc.Type = l.typeRef(t)
	}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "argument_list":
			oc.Args = l.arguments(c)
		case "initializer_expression":
			oc.Initializer = l.initializer(c)
		default:
			if oc.Type == nil {
				oc.Type = l.typeRef(c)
			}
		}
	}
	if oc.Args == nil {
		oc.Args = []*ast.Argument{}
	}
	return oc
}

func (l *lowerer) cast(n *sitter.Node) ast.Expr {
	t := n.ChildByFieldName("type")
	v := n.ChildByFieldName("value")
	kids := namedChildren(n)
	if t == nil && len(kids) == 2 {
		t = kids[0]
	}
	if v == nil && len(kids) == 2 {
		v = kids[1]
	}
	if t == nil || v == nil {
		return l.bad(n)
	}
	return &ast.Cast{Type: l.typeRef(t), X: l.expr(v), Loc: l.span(n)}
}

func (l *lowerer) lambda(n *sitter.Node) ast.Expr {
	lam := &ast.Lambda{Loc: l.span(n)}
	params := n.ChildByFieldName("parameters")
	body := n.ChildByFieldName("body")

	if params == nil || body == nil {
		kids := namedChildren(n)
		var rest []*sitter.Node
		for _, c := range kids {
			if c.Type() == "modifier" {
				continue
			}
			rest = append(rest, c)
		}
		if len(rest) >= 2 {
			if params == nil {
				params = rest[0]
			}
			if body == nil {
				body = rest[len(rest)-1]
			}
		}
	}
	if body == nil {
		return l.bad(n)
	}

	for _, c := range namedChildren(n) {
		if c.Type() == "modifier" && l.text(c) == "static" {
			lam.Static = true
		}
	}

	if params != nil {
		switch params.Type() {
		case "parameter_list", "implicit_parameter_list":
			lam.Params = l.params(params)
		default:
			lam.Params = []*ast.Param{{Name: l.ident(params), Loc: l.span(params)}}
		}
	}

	if body.Type() == "block" {
		lam.Body = l.block(body)
	} else {
		lam.Body = l.expr(body)
	}
	return lam
}

func (l *lowerer) prefixUnary(n *sitter.Node) ast.Expr {
	kids := namedChildren(n)
	if len(kids) != 1 {
		return l.bad(n)
	}
	op := ""
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && !c.IsNamed() {
			op = l.text(c)
			break
		}
	}
	return &ast.Unary{Op: op, X: l.expr(kids[0]), Loc: l.span(n)}
}

func (l *lowerer) operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return l.text(op)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && !c.IsNamed() {
			return l.text(c)
		}
	}
	return ""
}

func (l *lowerer) binary(n *sitter.Node) ast.Expr {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	kids := namedChildren(n)
	if left == nil && len(kids) >= 2 {
		left = kids[0]
	}
	if right == nil && len(kids) >= 2 {
		right = kids[len(kids)-1]
	}
	if left == nil || right == nil {
		return l.bad(n)
	}

	switch op := l.operator(n); op {
	case "as":
		return &ast.As{X: l.expr(left), Type: l.typeRef(right), Loc: l.span(n)}
	case "is":
		return &ast.IsPattern{X: l.expr(left), Type: l.typeRef(right), Loc: l.span(n)}
	default:
		return &ast.Binary{Op: op, L: l.expr(left), R: l.expr(right), Loc: l.span(n)}
	}
}

func (l *lowerer) isPattern(n *sitter.Node) ast.Expr {
	x := n.ChildByFieldName("expression")
	pattern := n.ChildByFieldName("pattern")
	kids := namedChildren(n)
	if x == nil && len(kids) == 2 {
		x = kids[0]
	}
	if pattern == nil && len(kids) == 2 {
		pattern = kids[1]
	}
	if x == nil || pattern == nil {
		return l.bad(n)
	}

	ip := &ast.IsPattern{X: l.expr(x), Loc: l.span(n)}
	switch pattern.Type() {
	case "declaration_pattern":
		t := pattern.ChildByFieldName("type")
		d := pattern.ChildByFieldName("name")
		pk := namedChildren(pattern)
		if t == nil && len(pk) > 0 {
			t = pk[0]
		}
		if d == nil && len(pk) > 1 {
			d = pk[1]
		}
		ip.Type = l.typeRef(t)
		if d != nil {
			if d.Type() == "single_variable_designation" {
				if id := childOfType(d, "identifier"); id != nil {
					d = id
				}
			}
			if d.Type() == "identifier" {
				ip.Name = l.ident(d)
			}
		}
	case "type_pattern":
		if pk := namedChildren(pattern); len(pk) > 0 {
			ip.Type = l.typeRef(pk[0])
		}
	case "identifier", "qualified_name", "generic_name", "predefined_type":
		ip.Type = l.typeRef(pattern)
	default:
		return l.bad(n)
	}
	return ip
}

func (l *lowerer) assignment(n *sitter.Node) ast.Expr {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	kids := namedChildren(n)
	var op string
	for _, c := range kids {
		if c.Type() == "assignment_operator" {
			op = l.text(c)
		}
	}
	if op == "" {
		op = l.operator(n)
	}
	var operands []*sitter.Node
	for _, c := range kids {
		if c.Type() != "assignment_operator" {
			operands = append(operands, c)
		}
	}
	if left == nil && len(operands) == 2 {
		left = operands[0]
	}
	if right == nil && len(operands) == 2 {
		right = operands[1]
	}
	if left == nil || right == nil {
		return l.bad(n)
	}
	return &ast.Assign{Op: op, L: l.expr(left), R: l.expr(right), Loc: l.span(n)}
}
