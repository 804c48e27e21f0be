package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dplint/dplint/internal/compiler/ast"
)

var typeDeclKinds = map[string]ast.TypeKind{
	"class_declaration":         ast.TypeKindClass,
	"struct_declaration":        ast.TypeKindStruct,
	"interface_declaration":     ast.TypeKindInterface,
	"enum_declaration":          ast.TypeKindEnum,
	"record_declaration":        ast.TypeKindRecord,
	"record_struct_declaration": ast.TypeKindStruct,
}

func (l *lowerer) lowerCompilationUnit(root *sitter.Node, file *ast.File) {
	namespace := ""
	for _, child := range namedChildren(root) {
		if l.ctx.Err() != nil {
			return
		}
		switch child.Type() {
		case "using_directive":
			if name := childOfType(child, "qualified_name", "identifier"); name != nil {
				file.Usings = append(file.Usings, l.text(name))
			}
		case "namespace_declaration":
			l.lowerNamespace(child, "", file)
		case "file_scoped_namespace_declaration":
			// Depending on the grammar version the declarations that follow are either
			// children of this node or its siblings.
			namespace = l.namespaceName(child)
			l.lowerDeclarations(namedChildren(child), namespace, file)
		default:
			if _, ok := typeDeclKinds[child.Type()]; ok {
				if decl := l.lowerTypeDecl(child, namespace, nil); decl != nil {
					file.Types = append(file.Types, decl)
				}
			}
		}
	}
}

func (l *lowerer) namespaceName(n *sitter.Node) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return l.text(name)
	}
	if name := childOfType(n, "qualified_name", "identifier"); name != nil {
		return l.text(name)
	}
	return ""
}

func (l *lowerer) lowerNamespace(n *sitter.Node, outer string, file *ast.File) {
	name := l.namespaceName(n)
	if outer != "" {
		name = outer + "." + name
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfType(n, "declaration_list")
	}
	l.lowerDeclarations(namedChildren(body), name, file)
}

func (l *lowerer) lowerDeclarations(nodes []*sitter.Node, namespace string, file *ast.File) {
	for _, child := range nodes {
		switch child.Type() {
		case "namespace_declaration":
			l.lowerNamespace(child, namespace, file)
		case "using_directive":
			if name := childOfType(child, "qualified_name", "identifier"); name != nil {
				file.Usings = append(file.Usings, l.text(name))
			}
		default:
			if _, ok := typeDeclKinds[child.Type()]; ok {
				if decl := l.lowerTypeDecl(child, namespace, nil); decl != nil {
					file.Types = append(file.Types, decl)
				}
			}
		}
	}
}

func (l *lowerer) modifiers(n *sitter.Node) ast.Modifiers {
	var mods ast.Modifiers
	for _, c := range namedChildren(n) {
		if c.Type() == "modifier" || c.Type() == "parameter_modifier" {
			mods = append(mods, strings.Fields(l.text(c))...)
		}
	}
	return mods
}

func (l *lowerer) lowerTypeDecl(n *sitter.Node, namespace string, outer *ast.TypeDecl) *ast.TypeDecl {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = childOfType(n, "identifier")
	}
	if nameNode == nil {
		return nil
	}

	decl := &ast.TypeDecl{
		Kind:      typeDeclKinds[n.Type()],
		Name:      l.ident(nameNode),
		Namespace: namespace,
		Modifiers: l.modifiers(n),
		Outer:     outer,
		Loc:       l.span(n),
	}

	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "type_parameter_list":
			for _, tp := range namedChildren(c) {
				if tp.Type() != "type_parameter" {
					continue
				}
				if id := tp.ChildByFieldName("name"); id != nil {
					decl.TypeParams = append(decl.TypeParams, l.ident(id))
				} else if id := childOfType(tp, "identifier"); id != nil {
					decl.TypeParams = append(decl.TypeParams, l.ident(id))
				}
			}
		case "base_list":
			for _, b := range namedChildren(c) {
				if b.Type() == "argument_list" {
					continue
				}
				if b.Type() == "primary_constructor_base_type" {
					kids := namedChildren(b)
					if len(kids) == 0 {
						continue
					}
					b = kids[0]
				}
				decl.Bases = append(decl.Bases, l.typeRef(b))
			}
		case "declaration_list":
			l.lowerMembers(c, decl)
		case "enum_member_declaration_list":
			for _, m := range namedChildren(c) {
				if m.Type() != "enum_member_declaration" {
					continue
				}
				id := m.ChildByFieldName("name")
				if id == nil {
					id = childOfType(m, "identifier")
				}
				if id != nil {
					decl.EnumValues = append(decl.EnumValues, l.ident(id))
				}
			}
		}
	}

	return decl
}

func (l *lowerer) lowerMembers(body *sitter.Node, decl *ast.TypeDecl) {
	for _, c := range namedChildren(body) {
		if l.ctx.Err() != nil {
			return
		}
		switch c.Type() {
		case "field_declaration":
			decl.Members = append(decl.Members, l.lowerField(c)...)
		case "property_declaration":
			if p := l.lowerProperty(c); p != nil {
				decl.Members = append(decl.Members, p)
			}
		case "method_declaration":
			if m := l.lowerMethod(c); m != nil {
				decl.Members = append(decl.Members, m)
			}
		case "constructor_declaration":
			if ctor := l.lowerConstructor(c); ctor != nil {
				decl.Members = append(decl.Members, ctor)
			}
		default:
			if _, ok := typeDeclKinds[c.Type()]; ok {
				if nested := l.lowerTypeDecl(c, decl.Namespace, decl); nested != nil {
					decl.Nested = append(decl.Nested, nested)
				}
			}
		}
	}
}

func (l *lowerer) lowerField(n *sitter.Node) []ast.Member {
	mods := l.modifiers(n)
	varDecl := childOfType(n, "variable_declaration")
	if varDecl == nil {
		return nil
	}

	typ, declarators := l.variableDeclaration(varDecl)
	out := make([]ast.Member, 0, len(declarators))
	for _, d := range declarators {
		out = append(out, &ast.FieldDecl{
			Modifiers: mods,
			Type:      typ,
			Name:      d.name,
			Init:      d.init,
			Loc:       l.span(n),
		})
	}
	return out
}

type declarator struct {
	name *ast.Ident
	init ast.Expr
	loc  ast.Span
}

func (l *lowerer) variableDeclaration(n *sitter.Node) (*ast.TypeRef, []declarator) {
	var typ *ast.TypeRef
	if t := n.ChildByFieldName("type"); t != nil {
		typ = l.typeRef(t)
	}

	var out []declarator
	for _, c := range namedChildren(n) {
		if c.Type() != "variable_declarator" {
			if typ == nil {
				typ = l.typeRef(c)
			}
			continue
		}
		nameNode := c.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = childOfType(c, "identifier")
		}
		if nameNode == nil {
			continue
		}
		d := declarator{name: l.ident(nameNode), loc: l.span(c)}
		if v := valueAfterEquals(c, l.src); v != nil {
			d.init = l.expr(v)
		}
		out = append(out, d)
	}
	return typ, out
}

func (l *lowerer) lowerProperty(n *sitter.Node) *ast.PropertyDecl {
	p := &ast.PropertyDecl{
		Modifiers: l.modifiers(n),
		Loc:       l.span(n),
	}
	if t := n.ChildByFieldName("type"); t != nil {
		p.Type = l.typeRef(t)
	}
	if id := n.ChildByFieldName("name"); id != nil {
		p.Name = l.ident(id)
	}

	var leading []*sitter.Node
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "accessor_list":
			for _, acc := range namedChildren(c) {
				if acc.Type() != "accessor_declaration" {
					continue
				}
				a := l.lowerAccessor(acc)
				if a.Kind == ast.AccessorGet {
					p.Getter = a
				} else {
					p.Setter = a
				}
			}
		case "arrow_expression_clause":
			if kids := namedChildren(c); len(kids) > 0 {
				p.ExprBody = l.expr(kids[0])
			}
		case "modifier", "attribute_list", "explicit_interface_specifier":
		default:
			leading = append(leading, c)
		}
	}

	// Fallback for grammars without field names: type then identifier.
	if p.Type == nil && len(leading) > 0 {
		p.Type = l.typeRef(leading[0])
	}
	if p.Name == nil && len(leading) > 1 {
		p.Name = l.ident(leading[1])
	}
	if p.Name == nil {
		return nil
	}
	if v := valueAfterEquals(n, l.src); v != nil && v.Type() != "accessor_list" {
		p.Init = l.expr(v)
	}
	return p
}

func (l *lowerer) lowerAccessor(n *sitter.Node) *ast.Accessor {
	a := &ast.Accessor{
		Modifiers: l.modifiers(n),
		Loc:       l.span(n),
	}

	kind := ""
	if name := n.ChildByFieldName("name"); name != nil {
		kind = l.text(name)
	}
	if kind == "" {
		for i := 0; i < int(n.ChildCount()); i++ {
			switch t := l.text(n.Child(i)); t {
			case "get", "set", "init":
				kind = t
			}
		}
	}
	switch kind {
	case "set":
		a.Kind = ast.AccessorSet
	case "init":
		a.Kind = ast.AccessorInit
	default:
		a.Kind = ast.AccessorGet
	}

	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "block":
			a.Body = l.block(c)
		case "arrow_expression_clause":
			if kids := namedChildren(c); len(kids) > 0 {
				a.ExprBody = l.expr(kids[0])
			}
		}
	}
	return a
}

func (l *lowerer) lowerMethod(n *sitter.Node) *ast.MethodDecl {
	m := &ast.MethodDecl{
		Modifiers: l.modifiers(n),
		Loc:       l.span(n),
	}

	if id := n.ChildByFieldName("name"); id != nil {
		m.Name = l.ident(id)
	}
	for _, fieldName := range []string{"returns", "type"} {
		if t := n.ChildByFieldName(fieldName); t != nil {
			m.ReturnType = l.typeRef(t)
			break
		}
	}

	var leading []*sitter.Node
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "parameter_list":
			m.Params = l.params(c)
		case "type_parameter_list":
			for _, tp := range namedChildren(c) {
				if id := childOfType(tp, "identifier"); id != nil {
					m.TypeParams = append(m.TypeParams, l.ident(id))
				}
			}
		case "block":
			m.Body = l.block(c)
		case "arrow_expression_clause":
			if kids := namedChildren(c); len(kids) > 0 {
				m.ExprBody = l.expr(kids[0])
			}
		case "modifier", "attribute_list", "type_parameter_constraints_clause", "explicit_interface_specifier":
		default:
			if m.Params == nil {
				leading = append(leading, c)
			}
		}
	}

	// Grammars without field names: the last leading identifier is the name and the
	// one before it the return type.
	if m.Name == nil && len(leading) > 0 {
		m.Name = l.ident(leading[len(leading)-1])
		leading = leading[:len(leading)-1]
	}
	if m.ReturnType == nil && len(leading) > 0 {
		m.ReturnType = l.typeRef(leading[0])
	}
	if m.Name == nil {
		return nil
	}
	if m.ReturnType == nil {
		m.ReturnType = &ast.TypeRef{Name: "void"}
	}
	return m
}

func (l *lowerer) lowerConstructor(n *sitter.Node) *ast.ConstructorDecl {
	c := &ast.ConstructorDecl{
		Modifiers: l.modifiers(n),
		Loc:       l.span(n),
	}
	if id := n.ChildByFieldName("name"); id != nil {
		c.Name = l.ident(id)
	} else if id := childOfType(n, "identifier"); id != nil {
		c.Name = l.ident(id)
	}
	for _, k := range namedChildren(n) {
		switch k.Type() {
		case "parameter_list":
			c.Params = l.params(k)
		case "block":
			c.Body = l.block(k)
		case "arrow_expression_clause":
			if kids := namedChildren(k); len(kids) > 0 {
				c.ExprBody = l.expr(kids[0])
			}
		}
	}
	if c.Name == nil {
		return nil
	}
	return c
}

func (l *lowerer) params(n *sitter.Node) []*ast.Param {
	out := make([]*ast.Param, 0)
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "parameter":
			out = append(out, l.param(c))
		case "identifier", "implicit_parameter":
			out = append(out, &ast.Param{Name: l.ident(c), Loc: l.span(c)})
		}
	}
	return out
}

func (l *lowerer) param(n *sitter.Node) *ast.Param {
	p := &ast.Param{Loc: l.span(n)}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		switch t := l.text(c); {
		case c.Type() == "parameter_modifier" || c.Type() == "modifier":
			p.Modifiers = append(p.Modifiers, strings.Fields(t)...)
		case !c.IsNamed() && (t == "this" || t == "ref" || t == "out" || t == "in" || t == "params"):
			p.Modifiers = append(p.Modifiers, t)
		}
	}

	// type and name precede the default value; an implicitly typed
	// lambda parameter has only a name
	var rest []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if !c.IsNamed() {
			if l.text(c) == "=" {
				break
			}
			continue
		}
		switch c.Type() {
		case "attribute_list", "parameter_modifier", "modifier":
		case "equals_value_clause":
		default:
			rest = append(rest, c)
		}
	}
	if id := n.ChildByFieldName("name"); id != nil {
		p.Name = l.ident(id)
	} else if len(rest) > 0 {
		p.Name = l.ident(rest[len(rest)-1])
	}
	if t := n.ChildByFieldName("type"); t != nil {
		p.Type = l.typeRef(t)
	} else if len(rest) > 1 {
		p.Type = l.typeRef(rest[0])
	}

	if v := valueAfterEquals(n, l.src); v != nil {
		p.Default = l.expr(v)
	}
	if p.Name == nil {
		p.Name = &ast.Ident{Name: "_", Loc: p.Loc}
	}
	return p
}

func (l *lowerer) ident(n *sitter.Node) *ast.Ident {
	id := &ast.Ident{Name: l.text(n), Loc: l.span(n)}
	if n.Type() == "generic_name" {
		id.Name = ""
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "identifier":
				id.Name = l.text(c)
			case "type_argument_list":
				for _, a := range namedChildren(c) {
					id.TypeArgs = append(id.TypeArgs, l.typeRef(a))
				}
			}
		}
	}
	return id
}

// typeRef lowers any type syntax into an ast.TypeRef.
func (l *lowerer) typeRef(n *sitter.Node) *ast.TypeRef {
	if n == nil {
		return nil
	}
	t := &ast.TypeRef{Loc: l.span(n)}
	switch n.Type() {
	case "predefined_type", "identifier", "type_identifier", "implicit_type":
		t.Name = l.text(n)
	case "void_keyword":
		t.Name = "void"
	case "generic_name":
		id := l.ident(n)
		t.Name = id.Name
		t.Args = id.TypeArgs
	case "qualified_name":
		kids := namedChildren(n)
		qualifier := n.ChildByFieldName("qualifier")
		name := n.ChildByFieldName("name")
		if qualifier == nil && len(kids) >= 2 {
			qualifier = kids[0]
		}
		if name == nil && len(kids) >= 1 {
			name = kids[len(kids)-1]
		}
		inner := l.typeRef(name)
		if inner == nil {
			t.Name = l.text(n)
			break
		}
		t.Name = inner.Name
		t.Args = inner.Args
		t.Qualifier = l.text(qualifier)
	case "alias_qualified_name":
		text := l.text(n)
		if i := strings.LastIndex(text, "::"); i >= 0 {
			text = text[i+2:]
		}
		t.Name = text
	case "nullable_type":
		elem := n.ChildByFieldName("type")
		if elem == nil {
			if kids := namedChildren(n); len(kids) > 0 {
				elem = kids[0]
			}
		}
		if inner := l.typeRef(elem); inner != nil {
			*t = *inner
		}
		t.Nullable = true
		t.Loc = l.span(n)
	case "array_type":
		elem := n.ChildByFieldName("type")
		if elem == nil {
			if kids := namedChildren(n); len(kids) > 0 {
				elem = kids[0]
			}
		}
		if inner := l.typeRef(elem); inner != nil {
			*t = *inner
		}
		t.ArrayRank++
		t.Loc = l.span(n)
	default:
		t.Name = l.text(n)
	}
	return t
}
