package semantic

import (
	"github.com/dplint/dplint/internal/compiler/ast"
)

// SymbolKind classifies symbols
type SymbolKind int

const (
	// SymbolField is a field
	SymbolField SymbolKind = iota
	// SymbolProperty is a property
	SymbolProperty
	// SymbolMethod is a method or constructor
	SymbolMethod
	// SymbolParameter is a method, constructor or lambda parameter
	SymbolParameter
	// SymbolLocal is a local variable or pattern designation
	SymbolLocal
	// SymbolTypeName is a named type
	SymbolTypeName
)

// Symbol is a declared entity a name can refer to.
type Symbol interface {
	SymbolName() string
	SymbolKind() SymbolKind
	// SymbolType is the value type of fields, properties, parameters and locals,
	// the return type of methods and the type itself for type names. May be nil.
	SymbolType() Type
	ContainingType() *NamedType
}

// Registration describes the dependency property a catalog field holds
type Registration struct {
	Name      string
	ValueType Type
}

// FieldSymbol is a field of a source or catalog type
type FieldSymbol struct {
	name     string
	Type     Type
	Owner    *NamedType
	Static   bool
	ReadOnly bool
	Const    bool
	Decl     *ast.FieldDecl // nil for catalog fields

	// Registers is set for well-known framework dependency property fields.
	Registers *Registration
}

func (f *FieldSymbol) SymbolName() string { return f.name }
func (f *FieldSymbol) SymbolKind() SymbolKind { return SymbolField }
func (f *FieldSymbol) SymbolType() Type { return f.Type }
func (f *FieldSymbol) ContainingType() *NamedType { return f.Owner }

// PropertySymbol is a property of a source or catalog type
type PropertySymbol struct {
	name   string
	Type   Type
	Owner  *NamedType
	Static bool
	Decl   *ast.PropertyDecl
}

func (p *PropertySymbol) SymbolName() string { return p.name }
func (p *PropertySymbol) SymbolKind() SymbolKind { return SymbolProperty }
func (p *PropertySymbol) SymbolType() Type { return p.Type }
func (p *PropertySymbol) ContainingType() *NamedType { return p.Owner }

// MethodSymbol is a method, constructor or delegate signature
type MethodSymbol struct {
	name          string
	Params        []*ParamSymbol
	Return        Type // nil when unknown, VoidType for void
	Owner         *NamedType
	Static        bool
	IsConstructor bool
	IsExtension   bool
	TypeParams    []*TypeParam
	Decl          *ast.MethodDecl      // nil for catalog methods and constructors
	CtorDecl      *ast.ConstructorDecl // source constructors
}

func (m *MethodSymbol) SymbolName() string { return m.name }
func (m *MethodSymbol) SymbolKind() SymbolKind { return SymbolMethod }
func (m *MethodSymbol) SymbolType() Type { return m.Return }
func (m *MethodSymbol) ContainingType() *NamedType { return m.Owner }

// IsVoid reports whether the method returns nothing.
func (m *MethodSymbol) IsVoid() bool {
	_, ok := m.Return.(VoidType)
	return ok
}

// Param returns the parameter with the given name.
func (m *MethodSymbol) Param(name string) *ParamSymbol {
	for _, p := range m.Params {
		if p.name == name {
			return p
		}
	}
	return nil
}

// ParamSymbol is a parameter
type ParamSymbol struct {
	name       string
	Type       Type // nil for implicitly typed lambda parameters
	Index      int
	Modifiers  ast.Modifiers
	Method     *MethodSymbol // nil for lambda parameters
	Decl       *ast.Param
	HasDefault bool
}

func (p *ParamSymbol) SymbolName() string { return p.name }
func (p *ParamSymbol) SymbolKind() SymbolKind { return SymbolParameter }
func (p *ParamSymbol) SymbolType() Type { return p.Type }

// ContainingType returns the owner of the declaring method.
func (p *ParamSymbol) ContainingType() *NamedType {
	if p.Method == nil {
		return nil
	}
	return p.Method.Owner
}

// LocalSymbol is a local variable or a pattern designation such as `foo` in `d is Foo foo`
type LocalSymbol struct {
	name  string
	Type  Type
	Decl  ast.Node
	Owner *NamedType
}

func (l *LocalSymbol) SymbolName() string { return l.name }
func (l *LocalSymbol) SymbolKind() SymbolKind { return SymbolLocal }
func (l *LocalSymbol) SymbolType() Type { return l.Type }
func (l *LocalSymbol) ContainingType() *NamedType { return l.Owner }

// VoidType is the return type of void methods
type VoidType struct{}

func (VoidType) String() string { return "void" }

// IsValueType is false.
func (VoidType) IsValueType() bool { return false }

// Equals is true for any VoidType.
func (VoidType) Equals(other Type) bool {
	_, ok := other.(VoidType)
	return ok
}
