package semantic

import (
	"strings"

	"github.com/dplint/dplint/internal/compiler/ast"
)

// Model is the symbol resolution facade consumed by the analyzer. All methods are
// total: they return nil rather than failing when the answer is not statically known.
type Model interface {
	// ResolveSymbol returns the symbol declared or referenced by node
	ResolveSymbol(node ast.Node) Symbol

	// TypeOf returns the static type of expr
	TypeOf(expr ast.Expr) Type

	// ContainingType returns the type that declares sym
	ContainingType(sym Symbol) *NamedType
}

// Compilation binds a set of parsed files against a catalog. It is immutable after
// NewCompilation returns and safe for concurrent queries.
type Compilation struct {
	catalog *Catalog
	files   []*ast.File

	types    []*NamedType
	byFull   map[string]*NamedType
	bySimple map[string][]*NamedType

	declOf  map[*ast.TypeDecl]*NamedType
	declsOf map[*NamedType][]*ast.TypeDecl
	fileOf  map[ast.Node]*ast.File
	parents map[ast.Node]ast.Node
	symbols map[ast.Node]Symbol

	// implicit `value` parameter of set/init accessors
	setterValues map[*ast.Accessor]*ParamSymbol
}

var _ Model = (*Compilation)(nil)

// NewCompilation declares and binds all types in files.
func NewCompilation(files []*ast.File, catalog *Catalog) *Compilation {
	c := &Compilation{
		catalog:      catalog,
		files:        files,
		byFull:       make(map[string]*NamedType),
		bySimple:     make(map[string][]*NamedType),
		declOf:       make(map[*ast.TypeDecl]*NamedType),
		declsOf:      make(map[*NamedType][]*ast.TypeDecl),
		fileOf:       make(map[ast.Node]*ast.File),
		parents:      make(map[ast.Node]ast.Node),
		symbols:      make(map[ast.Node]Symbol),
		setterValues: make(map[*ast.Accessor]*ParamSymbol),
	}

	for _, f := range files {
		for _, decl := range f.Types {
			c.declareType(f, decl, nil)
		}
		c.indexParents(f, nil)
	}

	for _, t := range c.types {
		c.bindBases(t)
	}
	for _, t := range c.types {
		for _, decl := range c.declsOf[t] {
			c.bindMembers(t, decl)
		}
	}

	return c
}

// Catalog returns the framework catalog the compilation was bound against.
func (c *Compilation) Catalog() *Catalog { return c.catalog }

// Files returns the parsed files.
func (c *Compilation) Files() []*ast.File { return c.files }

// SourceTypes returns every type declared in source, nested types included, in
// declaration order. Partial declarations are merged into one type.
func (c *Compilation) SourceTypes() []*NamedType { return c.types }

// Declarations returns the partial declarations of a source type.
func (c *Compilation) Declarations(t *NamedType) []*ast.TypeDecl { return c.declsOf[t] }

// TypeOfDecl returns the type declared by decl.
func (c *Compilation) TypeOfDecl(decl *ast.TypeDecl) *NamedType { return c.declOf[decl] }

// Parent returns the syntactic parent of n.
func (c *Compilation) Parent(n ast.Node) ast.Node { return c.parents[n] }

// FileOf returns the file containing n.
func (c *Compilation) FileOf(n ast.Node) *ast.File {
	for cur := n; cur != nil; cur = c.parents[cur] {
		if f, ok := cur.(*ast.File); ok {
			return f
		}
		if decl, ok := cur.(*ast.TypeDecl); ok {
			if f := c.fileOf[decl]; f != nil {
				return f
			}
		}
	}
	return nil
}

// EnclosingTypeDecl returns the innermost type declaration containing n.
func (c *Compilation) EnclosingTypeDecl(n ast.Node) *ast.TypeDecl {
	for cur := c.parents[n]; cur != nil; cur = c.parents[cur] {
		if decl, ok := cur.(*ast.TypeDecl); ok {
			return decl
		}
	}
	return nil
}

// EnclosingType returns the innermost type containing n.
func (c *Compilation) EnclosingType(n ast.Node) *NamedType {
	if decl, ok := n.(*ast.TypeDecl); ok {
		return c.declOf[decl]
	}
	return c.declOf[c.EnclosingTypeDecl(n)]
}

// WellKnown returns a catalog type by fully qualified name.
func (c *Compilation) WellKnown(fullName string, arity int) *NamedType {
	if c.catalog == nil {
		return nil
	}
	return c.catalog.Lookup(fullName, arity)
}

// ContainingType implements Model.
func (c *Compilation) ContainingType(sym Symbol) *NamedType {
	if sym == nil {
		return nil
	}
	return sym.ContainingType()
}

func (c *Compilation) declareType(f *ast.File, decl *ast.TypeDecl, outer *NamedType) {
	if decl.Name == nil {
		return
	}
	arity := len(decl.TypeParams)
	key := arityKey(decl.FullName(), arity)

	t, ok := c.byFull[key]
	if !ok {
		t = newNamedType(decl.Name.Name, decl.Namespace, sourceKind(decl))
		t.FromSource = true
		for _, p := range decl.TypeParams {
			t.TypeParams = append(t.TypeParams, &TypeParam{Name: p.Name})
		}
		if outer != nil {
			outer.addNested(t)
		}
		c.byFull[key] = t
		simple := arityKey(t.Name, arity)
		c.bySimple[simple] = append(c.bySimple[simple], t)
		c.types = append(c.types, t)
	}

	c.declOf[decl] = t
	c.declsOf[t] = append(c.declsOf[t], decl)
	c.symbols[decl] = t
	if outer == nil {
		c.fileOf[decl] = f
	}

	for _, nested := range decl.Nested {
		c.declareType(f, nested, t)
	}
}

func sourceKind(decl *ast.TypeDecl) TypeKind {
	switch decl.Kind {
	case ast.TypeKindStruct:
		return KindStruct
	case ast.TypeKindInterface:
		return KindInterface
	case ast.TypeKindEnum:
		return KindEnum
	default:
		return KindClass
	}
}

func (c *Compilation) indexParents(n, parent ast.Node) {
	if parent != nil {
		c.parents[n] = parent
	}
	for _, child := range ast.Children(n) {
		c.indexParents(child, n)
	}
}

func (c *Compilation) bindBases(t *NamedType) {
	for _, decl := range c.declsOf[t] {
		for _, ref := range decl.Bases {
			resolved := c.ResolveTypeRef(ref, decl)
			def := Definition(resolved)
			if def == nil {
				if t.Kind == KindClass {
					t.BaseUnresolved = true
				}
				continue
			}
			if def.Kind == KindInterface {
				t.Interfaces = append(t.Interfaces, def)
				continue
			}
			if t.Kind == KindClass && t.Base == nil && def.Kind == KindClass && !def.DerivesFrom(t) {
				t.Base = def
			}
		}
	}

	if t.Base != nil || t.BaseUnresolved || c.catalog == nil {
		return
	}
	switch t.Kind {
	case KindClass:
		t.Base = c.catalog.Keyword("object")
	case KindStruct:
		t.Base = c.catalog.Lookup("System.ValueType", 0)
	case KindEnum:
		t.Base = c.catalog.Lookup("System.Enum", 0)
	}
}

func (c *Compilation) bindMembers(t *NamedType, decl *ast.TypeDecl) {
	for _, v := range decl.EnumValues {
		t.addField(&FieldSymbol{name: v.Name, Type: t, Owner: t, Static: true, Const: true})
	}

	for _, m := range decl.Members {
		switch m := m.(type) {
		case *ast.FieldDecl:
			sym := &FieldSymbol{
				name:     m.Name.Name,
				Type:     c.ResolveTypeRef(m.Type, m),
				Owner:    t,
				Static:   m.Modifiers.IsStatic() || m.Modifiers.Has("const"),
				ReadOnly: m.Modifiers.Has("readonly"),
				Const:    m.Modifiers.Has("const"),
				Decl:     m,
			}
			t.addField(sym)
			c.symbols[m] = sym
		case *ast.PropertyDecl:
			sym := &PropertySymbol{
				name:   m.Name.Name,
				Type:   c.ResolveTypeRef(m.Type, m),
				Owner:  t,
				Static: m.Modifiers.IsStatic(),
				Decl:   m,
			}
			t.addProperty(sym)
			c.symbols[m] = sym
			if m.Setter != nil {
				c.setterValues[m.Setter] = &ParamSymbol{name: "value", Type: sym.Type, Index: 0}
			}
		case *ast.MethodDecl:
			sym := &MethodSymbol{
				name:   m.Name.Name,
				Owner:  t,
				Static: m.Modifiers.IsStatic(),
				Decl:   m,
			}
			for _, tp := range m.TypeParams {
				sym.TypeParams = append(sym.TypeParams, &TypeParam{Name: tp.Name})
			}
			c.symbols[m] = sym
			if m.IsVoid() {
				sym.Return = VoidType{}
			} else {
				sym.Return = c.ResolveTypeRef(m.ReturnType, m)
			}
			sym.Params = c.bindParams(sym, m.Params, m)
			sym.IsExtension = m.IsExtension()
			t.addMethod(sym)
		case *ast.ConstructorDecl:
			sym := &MethodSymbol{
				name:          t.Name,
				Owner:         t,
				Static:        m.Modifiers.IsStatic(),
				IsConstructor: true,
				Return:        t,
				CtorDecl:      m,
			}
			sym.Params = c.bindParams(sym, m.Params, m)
			t.addMethod(sym)
			c.symbols[m] = sym
		}
	}

	// Lambda parameters, locals and pattern designations.
	ast.Inspect(decl, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.TypeDecl:
			return n == decl
		case *ast.Lambda:
			for i, p := range n.Params {
				c.symbols[p] = &ParamSymbol{
					name:      p.Name.Name,
					Type:      c.ResolveTypeRef(p.Type, n),
					Index:     i,
					Modifiers: p.Modifiers,
					Decl:      p,
				}
			}
		case *ast.LocalDecl:
			local := &LocalSymbol{name: n.Name.Name, Decl: n, Owner: t}
			if n.Type != nil && n.Type.Name != "var" {
				local.Type = c.ResolveTypeRef(n.Type, n)
			}
			c.symbols[n] = local
		case *ast.IsPattern:
			if n.Name != nil {
				c.symbols[n] = &LocalSymbol{
					name:  n.Name.Name,
					Type:  c.ResolveTypeRef(n.Type, n),
					Decl:  n,
					Owner: t,
				}
			}
		}
		return true
	})
}

func (c *Compilation) bindParams(m *MethodSymbol, params []*ast.Param, ctx ast.Node) []*ParamSymbol {
	out := make([]*ParamSymbol, 0, len(params))
	for i, p := range params {
		sym := &ParamSymbol{
			name:       p.Name.Name,
			Type:       c.ResolveTypeRef(p.Type, ctx),
			Index:      i,
			Modifiers:  p.Modifiers,
			Method:     m,
			Decl:       p,
			HasDefault: p.Default != nil,
		}
		out = append(out, sym)
		c.symbols[p] = sym
	}
	return out
}

// ResolveTypeRef binds a type as written in source, in the scope of ctx.
func (c *Compilation) ResolveTypeRef(ref *ast.TypeRef, ctx ast.Node) Type {
	if ref == nil {
		return nil
	}

	var base Type
	if ref.Qualifier == "" && len(ref.Args) == 0 {
		if p := c.lookupTypeParam(ref.Name, ctx); p != nil {
			base = p
		} else if c.catalog != nil {
			if kw := c.catalog.Keyword(ref.Name); kw != nil {
				base = kw
			}
		}
		if ref.Name == "void" {
			return VoidType{}
		}
	}

	if base == nil {
		def := c.lookupTypeName(ref.Qualifier, ref.Name, len(ref.Args), ctx)
		if def == nil {
			return nil
		}
		if len(ref.Args) == 0 {
			base = def
		} else {
			args := make([]Type, len(ref.Args))
			for i, a := range ref.Args {
				args[i] = c.ResolveTypeRef(a, ctx)
				if args[i] == nil {
					return nil
				}
			}
			base = &ConstructedType{Def: def, Args: args}
		}
	}

	var nullable *NamedType
	if c.catalog != nil {
		nullable = c.catalog.Lookup("System.Nullable", 1)
	}
	return decorate(base, ref, nullable)
}

func (c *Compilation) lookupTypeParam(name string, ctx ast.Node) *TypeParam {
	for cur := ctx; cur != nil; cur = c.parents[cur] {
		switch n := cur.(type) {
		case *ast.MethodDecl:
			if sym, ok := c.symbols[n].(*MethodSymbol); ok {
				for _, p := range sym.TypeParams {
					if p.Name == name {
						return p
					}
				}
			}
		case *ast.TypeDecl:
			if t := c.declOf[n]; t != nil {
				for _, p := range t.TypeParams {
					if p.Name == name {
						return p
					}
				}
			}
		}
	}
	return nil
}

// lookupTypeName resolves a possibly qualified type name. Lookup order: nested types
// of the enclosing types and their bases, source types in the enclosing namespaces,
// any source type with that simple name, then the catalog.
func (c *Compilation) lookupTypeName(qualifier, name string, arity int, ctx ast.Node) *NamedType {
	qualifier = strings.TrimPrefix(qualifier, "global::")

	if qualifier != "" {
		full := qualifier + "." + name
		if t, ok := c.byFull[arityKey(full, arity)]; ok {
			return t
		}
		if c.catalog != nil {
			if t := c.catalog.Lookup(full, arity); t != nil {
				return t
			}
		}
		// Outer.Inner
		qi := strings.LastIndex(qualifier, ".")
		outer := c.lookupTypeName(qualifier[:max(qi, 0)], qualifier[qi+1:], 0, ctx)
		if outer != nil {
			if n := outer.Nested(name); n != nil && len(n.TypeParams) == arity {
				return n
			}
		}
		return nil
	}

	var namespace string
	for cur := ctx; cur != nil; cur = c.parents[cur] {
		decl, ok := cur.(*ast.TypeDecl)
		if !ok {
			continue
		}
		t := c.declOf[decl]
		for scan := t; scan != nil; scan = scan.Base {
			if n := scan.Nested(name); n != nil && len(n.TypeParams) == arity {
				return n
			}
			if scan.Name == name && len(scan.TypeParams) == arity && scan == t {
				return t
			}
		}
		namespace = decl.Namespace
	}

	for ns := namespace; ns != ""; {
		if t, ok := c.byFull[arityKey(ns+"."+name, arity)]; ok {
			return t
		}
		i := strings.LastIndex(ns, ".")
		if i < 0 {
			break
		}
		ns = ns[:i]
	}
	if t, ok := c.byFull[arityKey(name, arity)]; ok {
		return t
	}
	if matches := c.bySimple[arityKey(name, arity)]; len(matches) > 0 {
		if len(matches) == 1 {
			return matches[0]
		}
		return nil
	}
	if c.catalog != nil {
		return c.catalog.Lookup(name, arity)
	}
	return nil
}
