package semantic

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dplint/dplint/internal/compiler/ast"
)

//go:embed catalog/wpf.yaml
var builtinCatalog []byte

// catalogFile is the YAML layout of a catalog document
type catalogFile struct {
	Types []catalogType `yaml:"types"`
}

type catalogType struct {
	Name         string            `yaml:"name"`
	Namespace    string            `yaml:"namespace"`
	Kind         string            `yaml:"kind"`
	Keyword      string            `yaml:"keyword"`
	TypeParams   []string          `yaml:"typeParams"`
	Base         string            `yaml:"base"`
	Interfaces   []string          `yaml:"interfaces"`
	Immutable    bool              `yaml:"immutable"`
	Values       []string          `yaml:"values"`
	Fields       []catalogField    `yaml:"fields"`
	Properties   []catalogProperty `yaml:"properties"`
	Methods      []catalogMethod   `yaml:"methods"`
	Constructors []catalogMethod   `yaml:"constructors"`
	Invoke       *catalogMethod    `yaml:"invoke"`
}

type catalogField struct {
	Name      string               `yaml:"name"`
	Type      string               `yaml:"type"`
	Static    bool                 `yaml:"static"`
	ReadOnly  bool                 `yaml:"readonly"`
	Const     bool                 `yaml:"const"`
	Registers *catalogRegistration `yaml:"registers"`
}

type catalogRegistration struct {
	Name      string `yaml:"name"`
	ValueType string `yaml:"valueType"`
}

type catalogProperty struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Static bool   `yaml:"static"`
}

type catalogMethod struct {
	Name       string   `yaml:"name"`
	Returns    string   `yaml:"returns"`
	Static     bool     `yaml:"static"`
	TypeParams []string `yaml:"typeParams"`
	Params     []string `yaml:"params"`
}

// CatalogError reports a malformed catalog document
type CatalogError struct {
	Source string
	Type   string
	Err    error
}

func (e *CatalogError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("catalog %s: type %s: %v", e.Source, e.Type, e.Err)
	}
	return fmt.Sprintf("catalog %s: %v", e.Source, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// Catalog is the set of framework types available to every compilation.
// It is immutable once loaded and safe for concurrent use.
type Catalog struct {
	types    []*NamedType
	byFull   map[string]*NamedType
	bySimple map[string][]*NamedType
	keywords map[string]*NamedType
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return LoadCatalog()
})

// DefaultCatalog returns the built-in framework catalog, loaded once per process.
func DefaultCatalog() (*Catalog, error) {
	return defaultCatalog()
}

// LoadCatalogFiles loads the built-in catalog extended with the given YAML files.
func LoadCatalogFiles(paths []string) (*Catalog, error) {
	docs := make([]CatalogSource, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog file: %w", err)
		}
		docs = append(docs, CatalogSource{Name: path, Data: data})
	}
	return LoadCatalog(docs...)
}

// CatalogSource is one YAML catalog document
type CatalogSource struct {
	Name string
	Data []byte
}

// LoadCatalog decodes the built-in catalog plus extra documents. Later documents may
// refer to types declared in earlier ones and vice versa.
func LoadCatalog(extra ...CatalogSource) (*Catalog, error) {
	sources := append([]CatalogSource{{Name: "builtin", Data: builtinCatalog}}, extra...)

	type pending struct {
		source string
		decl   catalogType
		typ    *NamedType
	}

	c := &Catalog{
		byFull:   make(map[string]*NamedType),
		bySimple: make(map[string][]*NamedType),
		keywords: make(map[string]*NamedType),
	}

	var all []pending
	for _, src := range sources {
		var doc catalogFile
		if err := yaml.Unmarshal(src.Data, &doc); err != nil {
			return nil, &CatalogError{Source: src.Name, Err: err}
		}
		for _, decl := range doc.Types {
			if decl.Name == "" {
				return nil, &CatalogError{Source: src.Name, Err: fmt.Errorf("type without name")}
			}
			kind, err := parseTypeKind(decl.Kind)
			if err != nil {
				return nil, &CatalogError{Source: src.Name, Type: decl.Name, Err: err}
			}
			t := newNamedType(decl.Name, decl.Namespace, kind)
			t.Keyword = decl.Keyword
			t.Immutable = decl.Immutable
			for _, p := range decl.TypeParams {
				t.TypeParams = append(t.TypeParams, &TypeParam{Name: p})
			}
			c.declare(t)
			all = append(all, pending{source: src.Name, decl: decl, typ: t})
		}
	}

	for _, p := range all {
		if err := c.bindMembers(p.typ, p.decl); err != nil {
			return nil, &CatalogError{Source: p.source, Type: p.decl.Name, Err: err}
		}
	}

	return c, nil
}

func parseTypeKind(kind string) (TypeKind, error) {
	switch kind {
	case "", "class":
		return KindClass, nil
	case "struct":
		return KindStruct, nil
	case "interface":
		return KindInterface, nil
	case "enum":
		return KindEnum, nil
	case "delegate":
		return KindDelegate, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", kind)
	}
}

func arityKey(name string, arity int) string {
	return fmt.Sprintf("%s`%d", name, arity)
}

func (c *Catalog) declare(t *NamedType) {
	arity := len(t.TypeParams)
	// Later documents replace earlier declarations of the same type.
	full := arityKey(t.FullName(), arity)
	if old, ok := c.byFull[full]; ok {
		simple := arityKey(t.Name, arity)
		list := c.bySimple[simple]
		for i, existing := range list {
			if existing == old {
				c.bySimple[simple] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		for i, existing := range c.types {
			if existing == old {
				c.types = append(c.types[:i:i], c.types[i+1:]...)
				break
			}
		}
	}
	c.types = append(c.types, t)
	c.byFull[full] = t
	c.bySimple[arityKey(t.Name, arity)] = append(c.bySimple[arityKey(t.Name, arity)], t)
	if t.Keyword != "" {
		c.keywords[t.Keyword] = t
	}
}

func (c *Catalog) bindMembers(t *NamedType, decl catalogType) error {
	scope := make(map[string]*TypeParam)
	for _, p := range t.TypeParams {
		scope[p.Name] = p
	}

	resolve := func(s string, local map[string]*TypeParam) (Type, error) {
		ref, err := parseTypeString(s)
		if err != nil {
			return nil, err
		}
		merged := scope
		if len(local) > 0 {
			merged = make(map[string]*TypeParam, len(scope)+len(local))
			for k, v := range scope {
				merged[k] = v
			}
			for k, v := range local {
				merged[k] = v
			}
		}
		typ := c.resolveRef(ref, merged)
		if typ == nil {
			return nil, fmt.Errorf("unknown type %q", s)
		}
		return typ, nil
	}

	if decl.Base != "" {
		base, err := resolve(decl.Base, nil)
		if err != nil {
			return fmt.Errorf("base: %w", err)
		}
		t.Base = Definition(base)
	} else if t.Kind == KindClass && t.FullName() != "System.Object" {
		t.Base = c.keywords["object"]
	} else if t.Kind == KindStruct {
		t.Base = c.Lookup("System.ValueType", 0)
	} else if t.Kind == KindEnum {
		t.Base = c.Lookup("System.Enum", 0)
	} else if t.Kind == KindDelegate {
		t.Base = c.Lookup("System.MulticastDelegate", 0)
	}

	for _, i := range decl.Interfaces {
		iface, err := resolve(i, nil)
		if err != nil {
			return fmt.Errorf("interface: %w", err)
		}
		if def := Definition(iface); def != nil {
			t.Interfaces = append(t.Interfaces, def)
		}
	}

	for _, v := range decl.Values {
		t.addField(&FieldSymbol{name: v, Type: t, Owner: t, Static: true, Const: true})
	}

	for _, f := range decl.Fields {
		typ, err := resolve(f.Type, nil)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		sym := &FieldSymbol{
			name:     f.Name,
			Type:     typ,
			Owner:    t,
			Static:   f.Static || f.Const,
			ReadOnly: f.ReadOnly,
			Const:    f.Const,
		}
		if f.Registers != nil {
			vt, err := resolve(f.Registers.ValueType, nil)
			if err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
			sym.Registers = &Registration{Name: f.Registers.Name, ValueType: vt}
		}
		t.addField(sym)
	}

	for _, p := range decl.Properties {
		typ, err := resolve(p.Type, nil)
		if err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
		t.addProperty(&PropertySymbol{name: p.Name, Type: typ, Owner: t, Static: p.Static})
	}

	bindMethod := func(m catalogMethod, ctor bool) (*MethodSymbol, error) {
		sym := &MethodSymbol{name: m.Name, Owner: t, Static: m.Static, IsConstructor: ctor}
		if ctor {
			sym.name = t.Name
		}
		local := make(map[string]*TypeParam)
		for _, tp := range m.TypeParams {
			p := &TypeParam{Name: tp}
			sym.TypeParams = append(sym.TypeParams, p)
			local[tp] = p
		}
		switch {
		case ctor:
			sym.Return = t
		case m.Returns == "" || m.Returns == "void":
			sym.Return = VoidType{}
		default:
			ret, err := resolve(m.Returns, local)
			if err != nil {
				return nil, fmt.Errorf("method %s: %w", m.Name, err)
			}
			sym.Return = ret
		}
		for i, raw := range m.Params {
			mods, typeText, name, err := splitParam(raw)
			if err != nil {
				return nil, fmt.Errorf("method %s: %w", m.Name, err)
			}
			pt, err := resolve(typeText, local)
			if err != nil {
				return nil, fmt.Errorf("method %s: %w", m.Name, err)
			}
			sym.Params = append(sym.Params, &ParamSymbol{
				name:      name,
				Type:      pt,
				Index:     i,
				Modifiers: mods,
				Method:    sym,
			})
			if i == 0 && mods.Has("this") {
				sym.IsExtension = true
			}
		}
		return sym, nil
	}

	for _, m := range decl.Methods {
		sym, err := bindMethod(m, false)
		if err != nil {
			return err
		}
		t.addMethod(sym)
	}
	for _, m := range decl.Constructors {
		sym, err := bindMethod(m, true)
		if err != nil {
			return err
		}
		t.addMethod(sym)
	}
	if decl.Invoke != nil {
		inv := *decl.Invoke
		inv.Name = "Invoke"
		sym, err := bindMethod(inv, false)
		if err != nil {
			return err
		}
		t.Invoke = sym
	}

	return nil
}

// splitParam splits "this DependencyObject element" into modifiers, type and name.
func splitParam(raw string) (ast.Modifiers, string, string, error) {
	fields := strings.Fields(raw)
	var mods ast.Modifiers
	for len(fields) > 2 {
		switch fields[0] {
		case "this", "ref", "out", "in", "params":
			mods = append(mods, fields[0])
			fields = fields[1:]
			continue
		}
		break
	}
	if len(fields) != 2 {
		return nil, "", "", fmt.Errorf("malformed parameter %q", raw)
	}
	return mods, fields[0], fields[1], nil
}

// Types returns all catalog types in declaration order.
func (c *Catalog) Types() []*NamedType { return c.types }

// Keyword returns the type aliased by a C# keyword such as "double".
func (c *Catalog) Keyword(kw string) *NamedType { return c.keywords[kw] }

// Lookup finds a type by qualified or simple name and arity. Simple names that
// match more than one catalog type resolve to nil.
func (c *Catalog) Lookup(name string, arity int) *NamedType {
	if t, ok := c.byFull[arityKey(name, arity)]; ok {
		return t
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		return nil
	}
	matches := c.bySimple[arityKey(name, arity)]
	if len(matches) == 1 {
		return matches[0]
	}
	return nil
}

func (c *Catalog) resolveRef(ref *ast.TypeRef, params map[string]*TypeParam) Type {
	var base Type
	if ref.Qualifier == "" && len(ref.Args) == 0 {
		if p, ok := params[ref.Name]; ok {
			base = p
		} else if kw := c.keywords[ref.Name]; kw != nil {
			base = kw
		}
	}
	if base == nil {
		name := ref.Name
		if ref.Qualifier != "" {
			name = ref.Qualifier + "." + name
		}
		def := c.Lookup(name, len(ref.Args))
		if def == nil {
			return nil
		}
		if len(ref.Args) == 0 {
			base = def
		} else {
			args := make([]Type, len(ref.Args))
			for i, a := range ref.Args {
				args[i] = c.resolveRef(a, params)
				if args[i] == nil {
					return nil
				}
			}
			base = &ConstructedType{Def: def, Args: args}
		}
	}
	return decorate(base, ref, c.Lookup("System.Nullable", 1))
}

// decorate applies the nullable and array suffixes of ref to t.
func decorate(t Type, ref *ast.TypeRef, nullable *NamedType) Type {
	if ref.Nullable && t.IsValueType() && nullable != nil {
		if ct, ok := t.(*ConstructedType); !ok || !ct.IsNullable() {
			t = &ConstructedType{Def: nullable, Args: []Type{t}}
		}
	}
	if ref.ArrayRank > 0 {
		t = &ArrayType{Elem: t, Rank: ref.ArrayRank}
	}
	return t
}

// parseTypeString parses catalog type syntax: dotted names, generic arguments,
// a trailing ? and [] suffixes.
func parseTypeString(s string) (*ast.TypeRef, error) {
	p := &typeStringParser{src: strings.TrimSpace(s)}
	ref, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q in type %q", p.src[p.pos:], s)
	}
	return ref, nil
}

type typeStringParser struct {
	src string
	pos int
}

func (p *typeStringParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeStringParser) parse() (*ast.TypeRef, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch == '_' || ch == '.' || ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' {
			p.pos++
			continue
		}
		break
	}
	if start == p.pos {
		return nil, fmt.Errorf("expected type name in %q", p.src)
	}

	ref := &ast.TypeRef{Name: p.src[start:p.pos]}
	if i := strings.LastIndex(ref.Name, "."); i >= 0 {
		ref.Qualifier = ref.Name[:i]
		ref.Name = ref.Name[i+1:]
	}

	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			ref.Args = append(ref.Args, arg)
			p.skipSpace()
			if p.pos >= len(p.src) {
				return nil, fmt.Errorf("unterminated type arguments in %q", p.src)
			}
			if p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.src[p.pos] == '>' {
				p.pos++
				break
			}
			return nil, fmt.Errorf("unexpected %q in %q", p.src[p.pos], p.src)
		}
	}

	for p.pos < len(p.src) {
		switch {
		case p.src[p.pos] == '?':
			ref.Nullable = true
			p.pos++
		case strings.HasPrefix(p.src[p.pos:], "[]"):
			ref.ArrayRank++
			p.pos += 2
		default:
			return ref, nil
		}
	}
	return ref, nil
}
