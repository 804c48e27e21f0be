// Package semantic implements symbol resolution for the C# subset dplint analyzes.
// It binds parsed files against a catalog of framework types and answers three
// questions for the analyzer: which symbol a syntax node denotes, the static type
// of an expression, and the type that contains a symbol. Every query is total:
// when an answer cannot be determined statically the result is nil.
package semantic

import (
	"strings"
)

// Type represents a type in the C# type system as far as dplint models it.
type Type interface {
	// String returns the type as it would be written in C#
	String() string

	// IsValueType reports whether values of the type are stored inline (structs, enums)
	IsValueType() bool

	// Equals checks if two types are identical
	Equals(other Type) bool
}

// TypeKind classifies named types
type TypeKind int

const (
	// KindClass is a reference type declared with class or record
	KindClass TypeKind = iota
	// KindStruct is a value type
	KindStruct
	// KindInterface is an interface
	KindInterface
	// KindEnum is an enum
	KindEnum
	// KindDelegate is a delegate type
	KindDelegate
)

func (k TypeKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindDelegate:
		return "delegate"
	default:
		return "unknown"
	}
}

// NamedType is a class, struct, interface, enum or delegate, declared either in
// source or in the framework catalog.
type NamedType struct {
	Name       string
	Namespace  string
	Kind       TypeKind
	Keyword    string // C# keyword alias such as "double", empty otherwise
	TypeParams []*TypeParam
	Base       *NamedType
	Interfaces []*NamedType
	Outer      *NamedType
	Immutable  bool // instances cannot be mutated after construction
	FromSource bool

	// BaseUnresolved is set when a declared base type could not be bound, so the
	// inheritance chain is incomplete.
	BaseUnresolved bool

	// Invoke is the signature of a delegate type
	Invoke *MethodSymbol

	fields  map[string]*FieldSymbol
	props   map[string]*PropertySymbol
	methods map[string][]*MethodSymbol
	ctors   []*MethodSymbol
	nested  map[string]*NamedType
	order   []Symbol
}

func newNamedType(name, namespace string, kind TypeKind) *NamedType {
	return &NamedType{
		Name:      name,
		Namespace: namespace,
		Kind:      kind,
		fields:    make(map[string]*FieldSymbol),
		props:     make(map[string]*PropertySymbol),
		methods:   make(map[string][]*MethodSymbol),
		nested:    make(map[string]*NamedType),
	}
}

func (t *NamedType) String() string {
	if t.Keyword != "" {
		return t.Keyword
	}
	name := t.Name
	if len(t.TypeParams) > 0 {
		params := make([]string, len(t.TypeParams))
		for i, p := range t.TypeParams {
			params[i] = p.Name
		}
		name += "<" + strings.Join(params, ", ") + ">"
	}
	if t.Outer != nil {
		return t.Outer.String() + "." + name
	}
	return name
}

// FullName returns the namespace qualified metadata name, e.g. System.Windows.DependencyObject.
func (t *NamedType) FullName() string {
	name := t.Name
	for outer := t.Outer; outer != nil; outer = outer.Outer {
		name = outer.Name + "." + name
	}
	root := t
	for root.Outer != nil {
		root = root.Outer
	}
	if root.Namespace != "" {
		return root.Namespace + "." + name
	}
	return name
}

// IsValueType returns whether the type is a struct or enum.
func (t *NamedType) IsValueType() bool {
	return t.Kind == KindStruct || t.Kind == KindEnum
}

// Equals checks identity; named types are canonical per compilation.
func (t *NamedType) Equals(other Type) bool {
	o, ok := other.(*NamedType)
	return ok && o == t
}

// IsGenericDefinition reports whether the type declares type parameters.
func (t *NamedType) IsGenericDefinition() bool {
	return len(t.TypeParams) > 0
}

// DerivesFrom reports whether base appears in the base class chain of t, t included.
func (t *NamedType) DerivesFrom(base *NamedType) bool {
	for cur := t; cur != nil; cur = cur.Base {
		if cur == base {
			return true
		}
	}
	return false
}

// Implements reports whether iface is implemented by t or one of its bases.
func (t *NamedType) Implements(iface *NamedType) bool {
	seen := make(map[*NamedType]bool)
	var visit func(*NamedType) bool
	visit = func(n *NamedType) bool {
		if n == nil || seen[n] {
			return false
		}
		seen[n] = true
		if n == iface {
			return true
		}
		for _, i := range n.Interfaces {
			if visit(i) {
				return true
			}
		}
		return visit(n.Base)
	}
	return visit(t)
}

// ChainComplete reports whether every type in the base chain was bound.
func (t *NamedType) ChainComplete() bool {
	for cur := t; cur != nil; cur = cur.Base {
		if cur.BaseUnresolved {
			return false
		}
	}
	return true
}

// Field returns the field declared directly on t.
func (t *NamedType) Field(name string) *FieldSymbol { return t.fields[name] }

// Property returns the property declared directly on t.
func (t *NamedType) Property(name string) *PropertySymbol { return t.props[name] }

// Methods returns the overloads declared directly on t.
func (t *NamedType) Methods(name string) []*MethodSymbol { return t.methods[name] }

// Constructors returns the instance constructors of t.
func (t *NamedType) Constructors() []*MethodSymbol { return t.ctors }

// Nested returns the nested type declared directly on t.
func (t *NamedType) Nested(name string) *NamedType { return t.nested[name] }

// Members returns the members declared directly on t in declaration order.
func (t *NamedType) Members() []Symbol { return t.order }

// LookupMember finds members by name on t and its base chain. Fields and properties
// hide inherited members; methods accumulate across the chain.
func (t *NamedType) LookupMember(name string) []Symbol {
	var out []Symbol
	for cur := t; cur != nil; cur = cur.Base {
		if f := cur.fields[name]; f != nil {
			return append(out, f)
		}
		if p := cur.props[name]; p != nil {
			return append(out, p)
		}
		if n := cur.nested[name]; n != nil {
			return append(out, n)
		}
		for _, m := range cur.methods[name] {
			out = append(out, m)
		}
	}
	return out
}

func (t *NamedType) addField(f *FieldSymbol) {
	t.fields[f.name] = f
	t.order = append(t.order, f)
}

func (t *NamedType) addProperty(p *PropertySymbol) {
	t.props[p.name] = p
	t.order = append(t.order, p)
}

func (t *NamedType) addMethod(m *MethodSymbol) {
	if m.IsConstructor {
		t.ctors = append(t.ctors, m)
	} else {
		t.methods[m.name] = append(t.methods[m.name], m)
	}
	t.order = append(t.order, m)
}

func (t *NamedType) addNested(n *NamedType) {
	t.nested[n.Name] = n
	n.Outer = t
}

// SymbolName implements Symbol so type names resolve like any other reference.
func (t *NamedType) SymbolName() string { return t.Name }

// SymbolKind implements Symbol.
func (t *NamedType) SymbolKind() SymbolKind { return SymbolTypeName }

// SymbolType implements Symbol.
func (t *NamedType) SymbolType() Type { return t }

// ContainingType returns the enclosing type of a nested type.
func (t *NamedType) ContainingType() *NamedType { return t.Outer }

// TypeParam is a generic type parameter. It is compatible with every type because
// its instantiation cannot be known statically.
type TypeParam struct {
	Name string
}

func (p *TypeParam) String() string { return p.Name }

// IsValueType is false; unconstrained parameters may be either.
func (p *TypeParam) IsValueType() bool { return false }

// Equals checks identity.
func (p *TypeParam) Equals(other Type) bool {
	o, ok := other.(*TypeParam)
	return ok && o == p
}

// ConstructedType is a generic type definition applied to type arguments, such as
// Nullable<double> or List<string>.
type ConstructedType struct {
	Def  *NamedType
	Args []Type
}

func (c *ConstructedType) String() string {
	if c.IsNullable() {
		return c.Args[0].String() + "?"
	}
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	name := c.Def.Name
	if c.Def.Outer != nil {
		name = c.Def.Outer.String() + "." + name
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

// IsValueType follows the definition.
func (c *ConstructedType) IsValueType() bool { return c.Def.IsValueType() }

// Equals checks that definitions and all arguments are identical.
func (c *ConstructedType) Equals(other Type) bool {
	o, ok := other.(*ConstructedType)
	if !ok || o.Def != c.Def || len(o.Args) != len(c.Args) {
		return false
	}
	for i := range c.Args {
		if !Identical(c.Args[i], o.Args[i]) {
			return false
		}
	}
	return true
}

// IsNullable reports whether the type is System.Nullable<T>.
func (c *ConstructedType) IsNullable() bool {
	return c.Def.FullName() == "System.Nullable" && len(c.Args) == 1
}

// ArrayType is T[] (rank counts the [] suffixes)
type ArrayType struct {
	Elem Type
	Rank int
}

func (a *ArrayType) String() string {
	return a.Elem.String() + strings.Repeat("[]", a.Rank)
}

// IsValueType is false; arrays are reference types.
func (a *ArrayType) IsValueType() bool { return false }

// Equals checks element identity and rank.
func (a *ArrayType) Equals(other Type) bool {
	o, ok := other.(*ArrayType)
	return ok && o.Rank == a.Rank && Identical(a.Elem, o.Elem)
}

// NullType is the type of the null literal
type NullType struct{}

func (NullType) String() string { return "null" }

// IsValueType is false.
func (NullType) IsValueType() bool { return false }

// Equals is true for any NullType.
func (NullType) Equals(other Type) bool {
	_, ok := other.(NullType)
	return ok
}

// Identical reports whether a and b denote the same type. Nil types are never identical.
func Identical(a, b Type) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Equals(b)
}

// IsTypeParam reports whether t is or contains an unbound generic type parameter.
func IsTypeParam(t Type) bool {
	switch t := t.(type) {
	case *TypeParam:
		return true
	case *ConstructedType:
		for _, a := range t.Args {
			if IsTypeParam(a) {
				return true
			}
		}
	case *ArrayType:
		return IsTypeParam(t.Elem)
	}
	return false
}

// Definition returns the named type underlying t: the definition of a constructed
// type, the type itself for named types, nil otherwise.
func Definition(t Type) *NamedType {
	switch t := t.(type) {
	case *NamedType:
		return t
	case *ConstructedType:
		return t.Def
	default:
		return nil
	}
}
