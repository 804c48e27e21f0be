package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lit(kind LiteralKind, v string) *Literal { return &Literal{Kind: kind, Value: v} }

func TestConstantString(t *testing.T) {
	nameof := func(arg Expr) *Invocation {
		return &Invocation{Fun: &Ident{Name: "nameof"}, Args: []*Argument{{Value: arg}}}
	}

	tests := []struct {
		name   string
		expr   Expr
		want   string
		wantOK bool
	}{
		{"regular literal", lit(LiteralString, `"Value"`), "Value", true},
		{"escaped literal", lit(LiteralString, `"a\tb"`), "a\tb", true},
		{"verbatim literal", lit(LiteralString, `@"say ""hi"""`), `say "hi"`, true},
		{"raw literal", lit(LiteralString, `"""Raw"""`), "Raw", true},
		{"nameof identifier", nameof(&Ident{Name: "Value"}), "Value", true},
		{"nameof member", nameof(&MemberAccess{X: &Ident{Name: "Gauge"}, Name: &Ident{Name: "Value"}}), "Value", true},
		{"concatenation", &Binary{Op: "+", L: lit(LiteralString, `"Val"`), R: lit(LiteralString, `"ue"`)}, "Value", true},
		{"parenthesized", &Paren{X: lit(LiteralString, `"X"`)}, "X", true},
		{"non-string literal", lit(LiteralInt, "1"), "", false},
		{"interpolated", &BadExpr{Kind: "interpolated_string_expression", Text: `$"{x}"`}, "", false},
		{"identifier", &Ident{Name: "SomeConst"}, "", false},
		{"other operator", &Binary{Op: "-", L: lit(LiteralString, `"a"`), R: lit(LiteralString, `"b"`)}, "", false},
		{"half constant", &Binary{Op: "+", L: lit(LiteralString, `"a"`), R: &Ident{Name: "b"}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConstantString(tt.expr)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInspectVisitsNestedExpressions(t *testing.T) {
	call := &Invocation{
		Fun: &MemberAccess{X: &Ident{Name: "DependencyProperty"}, Name: &Ident{Name: "Register"}},
		Args: []*Argument{
			{Value: lit(LiteralString, `"Value"`)},
			{Value: &TypeOf{Type: &TypeRef{Name: "double"}}},
		},
	}
	field := &FieldDecl{Name: &Ident{Name: "ValueProperty"}, Init: call}

	var idents []string
	Inspect(field, func(n Node) bool {
		if id, ok := n.(*Ident); ok {
			idents = append(idents, id.Name)
		}
		return true
	})

	assert.Equal(t, []string{"ValueProperty", "DependencyProperty", "Register"}, idents)
}

func TestInspectSkipsChildren(t *testing.T) {
	block := &Block{Stmts: []Stmt{
		&ExprStmt{X: &Ident{Name: "a"}},
		&ReturnStmt{X: &Ident{Name: "b"}},
	}}

	count := 0
	Inspect(block, func(n Node) bool {
		count++
		_, isExprStmt := n.(*ExprStmt)
		return !isExprStmt
	})

	// block, expr stmt, return stmt, b
	assert.Equal(t, 4, count)
}

func TestInspectIgnoresTypedNil(t *testing.T) {
	var body *Block
	method := &MethodDecl{Name: &Ident{Name: "M"}, Body: body}

	assert.NotPanics(t, func() {
		Inspect(method, func(Node) bool { return true })
	})
}

func TestTypeRefString(t *testing.T) {
	ref := &TypeRef{
		Name:      "Dictionary",
		Qualifier: "System.Collections.Generic",
		Args:      []*TypeRef{{Name: "string"}, {Name: "int", Nullable: true}},
		ArrayRank: 1,
	}
	assert.Equal(t, "System.Collections.Generic.Dictionary<string, int?>[]", ref.String())
}

func TestSpanContains(t *testing.T) {
	outer := Span{Start: SourceLocation{Line: 1, Offset: 0}, End: SourceLocation{Line: 5, Offset: 100}}
	inner := Span{Start: SourceLocation{Line: 2, Offset: 10}, End: SourceLocation{Line: 2, Offset: 20}}

	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))
	assert.True(t, outer.IsValid())
	assert.False(t, Span{}.IsValid())
}
