// Package ast defines the syntax model dplint analyzes: the subset of C# declarations,
// statements and expressions needed to recover dependency-property declarations.
// Nodes are produced by the parser package and are immutable once built.
package ast

import "fmt"

// SourceLocation tracks a position in source code
type SourceLocation struct {
	Line   int `json:"line" yaml:"line"`     // Line number (1-indexed)
	Column int `json:"column" yaml:"column"` // Column number (1-indexed, in bytes)
	Offset int `json:"offset" yaml:"offset"` // Byte offset (0-indexed)
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Span is the half-open source range covered by a node
type Span struct {
	Start SourceLocation `json:"start" yaml:"start"`
	End   SourceLocation `json:"end" yaml:"end"`
}

// IsValid reports whether the span was set by the parser.
func (s Span) IsValid() bool {
	return s.Start.Line > 0
}

// Contains reports whether other lies inside s.
func (s Span) Contains(other Span) bool {
	return s.Start.Offset <= other.Start.Offset && other.End.Offset <= s.End.Offset
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// Node is the base interface for all AST nodes
type Node interface {
	Span() Span
	node()
}

// File is the root node of one parsed source file
type File struct {
	Path       string
	Usings     []string
	Types      []*TypeDecl
	SourceSpan Span
}

func (f *File) node() {}

// Span returns the range of the whole file.
func (f *File) Span() Span { return f.SourceSpan }

// TypeKind distinguishes the kinds of type declarations
type TypeKind int

const (
	// TypeKindClass is a class declaration
	TypeKindClass TypeKind = iota
	// TypeKindStruct is a struct declaration
	TypeKindStruct
	// TypeKindInterface is an interface declaration
	TypeKindInterface
	// TypeKindEnum is an enum declaration
	TypeKindEnum
	// TypeKindRecord is a record declaration
	TypeKindRecord
)

func (k TypeKind) String() string {
	switch k {
	case TypeKindClass:
		return "class"
	case TypeKindStruct:
		return "struct"
	case TypeKindInterface:
		return "interface"
	case TypeKindEnum:
		return "enum"
	case TypeKindRecord:
		return "record"
	default:
		return fmt.Sprintf("type-kind(%d)", int(k))
	}
}

// TypeDecl represents a class, struct, interface, enum or record declaration
type TypeDecl struct {
	Kind       TypeKind
	Name       *Ident
	Namespace  string
	Modifiers  Modifiers
	TypeParams []*Ident
	Bases      []*TypeRef
	Members    []Member
	Nested     []*TypeDecl
	EnumValues []*Ident
	Outer      *TypeDecl // enclosing type for nested declarations
	Loc        Span
}

func (t *TypeDecl) node() {}

// Span returns the source range of the declaration.
func (t *TypeDecl) Span() Span { return t.Loc }

// FullName returns the namespace and enclosing type qualified name.
func (t *TypeDecl) FullName() string {
	name := t.Name.Name
	for outer := t.Outer; outer != nil; outer = outer.Outer {
		name = outer.Name.Name + "." + name
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

// Member is implemented by the declarations that can appear in a type body
type Member interface {
	Node
	MemberName() *Ident
	MemberModifiers() Modifiers
	member()
}

// Modifiers is the list of declaration modifiers in source order
type Modifiers []string

// Has reports whether the modifier is present.
func (m Modifiers) Has(name string) bool {
	for _, v := range m {
		if v == name {
			return true
		}
	}
	return false
}

// IsStatic reports whether the static modifier is present.
func (m Modifiers) IsStatic() bool { return m.Has("static") }

// FieldDecl represents one declarator of a field declaration.
// `static readonly int A = 1, B = 2;` becomes two FieldDecl nodes.
type FieldDecl struct {
	Modifiers Modifiers
	Type      *TypeRef
	Name      *Ident
	Init      Expr // nil without initializer
	Loc       Span
}

func (f *FieldDecl) node()                      {}
func (f *FieldDecl) member()                    {}
func (f *FieldDecl) Span() Span                 { return f.Loc }
func (f *FieldDecl) MemberName() *Ident         { return f.Name }
func (f *FieldDecl) MemberModifiers() Modifiers { return f.Modifiers }

// AccessorKind distinguishes property accessors
type AccessorKind int

const (
	// AccessorGet is a get accessor
	AccessorGet AccessorKind = iota
	// AccessorSet is a set accessor
	AccessorSet
	// AccessorInit is an init accessor
	AccessorInit
)

// Accessor represents a get/set/init accessor of a property
type Accessor struct {
	Kind      AccessorKind
	Modifiers Modifiers
	Body      *Block // nil for auto accessors and expression bodies
	ExprBody  Expr   // set for `get => expr;`
	Loc       Span
}

func (a *Accessor) node()      {}
func (a *Accessor) Span() Span { return a.Loc }

// IsAuto reports whether the accessor has no body.
func (a *Accessor) IsAuto() bool {
	return a.Body == nil && a.ExprBody == nil
}

// PropertyDecl represents a property declaration
type PropertyDecl struct {
	Modifiers Modifiers
	Type      *TypeRef
	Name      *Ident
	Getter    *Accessor
	Setter    *Accessor // set or init accessor
	ExprBody  Expr      // `T P => expr;` getter-only shorthand
	Init      Expr
	Loc       Span
}

func (p *PropertyDecl) node()                      {}
func (p *PropertyDecl) member()                    {}
func (p *PropertyDecl) Span() Span                 { return p.Loc }
func (p *PropertyDecl) MemberName() *Ident         { return p.Name }
func (p *PropertyDecl) MemberModifiers() Modifiers { return p.Modifiers }

// Param represents a method, constructor or lambda parameter
type Param struct {
	Modifiers Modifiers // this, ref, out, in, params
	Type      *TypeRef  // nil for implicitly typed lambda parameters
	Name      *Ident
	Default   Expr
	Loc       Span
}

func (p *Param) node()      {}
func (p *Param) Span() Span { return p.Loc }

// MethodDecl represents a method declaration
type MethodDecl struct {
	Modifiers  Modifiers
	ReturnType *TypeRef // Name "void" for void methods
	Name       *Ident
	TypeParams []*Ident
	Params     []*Param
	Body       *Block
	ExprBody   Expr
	Loc        Span
}

func (m *MethodDecl) node()                      {}
func (m *MethodDecl) member()                    {}
func (m *MethodDecl) Span() Span                 { return m.Loc }
func (m *MethodDecl) MemberName() *Ident         { return m.Name }
func (m *MethodDecl) MemberModifiers() Modifiers { return m.Modifiers }

// IsVoid reports whether the method returns nothing.
func (m *MethodDecl) IsVoid() bool {
	return m.ReturnType == nil || m.ReturnType.Name == "void"
}

// IsExtension reports whether the first parameter carries the this modifier.
func (m *MethodDecl) IsExtension() bool {
	return len(m.Params) > 0 && m.Params[0].Modifiers.Has("this")
}

// ConstructorDecl represents an instance or static constructor
type ConstructorDecl struct {
	Modifiers Modifiers
	Name      *Ident
	Params    []*Param
	Body      *Block
	ExprBody  Expr
	Loc       Span
}

func (c *ConstructorDecl) node()                      {}
func (c *ConstructorDecl) member()                    {}
func (c *ConstructorDecl) Span() Span                 { return c.Loc }
func (c *ConstructorDecl) MemberName() *Ident         { return c.Name }
func (c *ConstructorDecl) MemberModifiers() Modifiers { return c.Modifiers }

// TypeRef is a type as written in source: `double`, `Foo<T>`, `int?`, `string[]`,
// `System.Windows.DependencyProperty`.
type TypeRef struct {
	Name      string     // simple name; "void" for void returns
	Qualifier string     // dotted qualifier, empty if none
	Args      []*TypeRef // generic arguments
	Nullable  bool       // trailing ?
	ArrayRank int        // number of [] suffixes
	Loc       Span
}

func (t *TypeRef) node()      {}
func (t *TypeRef) exprNode()  {}
func (t *TypeRef) Span() Span { return t.Loc }

// String renders the type the way it is written in source.
func (t *TypeRef) String() string {
	if t == nil {
		return "<nil>"
	}
	s := t.Name
	if t.Qualifier != "" {
		s = t.Qualifier + "." + s
	}
	if len(t.Args) > 0 {
		s += "<"
		for i, a := range t.Args {
			if i > 0 {
				s += ", "
			}
			s += a.String()
		}
		s += ">"
	}
	if t.Nullable {
		s += "?"
	}
	for i := 0; i < t.ArrayRank; i++ {
		s += "[]"
	}
	return s
}
