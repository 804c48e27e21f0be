package tooling

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dplint/dplint/internal/compiler/ast"
)

// Symbol represents a declaration in the source code
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Range Range

	// Type is the simple name of the declared type, or the kind of a type declaration
	Type string

	// ContainerName is the enclosing type, empty for top-level types
	ContainerName string

	// Detail is the declaration rendered the way it is written
	Detail string
}

// SymbolKind categorizes symbols for IDE display
type SymbolKind int

const (
	// SymbolKindType represents a class, struct, interface, enum or record
	SymbolKindType SymbolKind = iota
	// SymbolKindField represents a plain field
	SymbolKindField
	// SymbolKindDependencyProperty represents a DependencyProperty or DependencyPropertyKey field
	SymbolKindDependencyProperty
	// SymbolKindProperty represents a CLR property
	SymbolKindProperty
	// SymbolKindMethod represents a method
	SymbolKindMethod
	// SymbolKindConstructor represents a constructor
	SymbolKindConstructor
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolKindType:
		return "type"
	case SymbolKindField:
		return "field"
	case SymbolKindDependencyProperty:
		return "dependency property"
	case SymbolKindProperty:
		return "property"
	case SymbolKindMethod:
		return "method"
	case SymbolKindConstructor:
		return "constructor"
	default:
		return "symbol"
	}
}

// SymbolIndex maintains a searchable index of all symbols across documents
type SymbolIndex struct {
	// symbols maps symbol name to all declarations
	symbols map[string][]*IndexedSymbol
	mutex   sync.RWMutex
}

// IndexedSymbol represents a symbol with its location
type IndexedSymbol struct {
	URI   string
	Range Range
	*Symbol
}

// NewSymbolIndex creates a new symbol index
func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		symbols: make(map[string][]*IndexedSymbol),
	}
}

// Index replaces the symbols of a document
func (si *SymbolIndex) Index(uri string, symbols []*Symbol) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.removeDocumentLocked(uri)
	for _, sym := range symbols {
		si.symbols[sym.Name] = append(si.symbols[sym.Name], &IndexedSymbol{
			URI:    uri,
			Range:  sym.Range,
			Symbol: sym,
		})
	}
}

// RemoveDocument removes all symbols from a document
func (si *SymbolIndex) RemoveDocument(uri string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.removeDocumentLocked(uri)
}

func (si *SymbolIndex) removeDocumentLocked(uri string) {
	for name, syms := range si.symbols {
		filtered := make([]*IndexedSymbol, 0, len(syms))
		for _, sym := range syms {
			if sym.URI != uri {
				filtered = append(filtered, sym)
			}
		}
		if len(filtered) > 0 {
			si.symbols[name] = filtered
		} else {
			delete(si.symbols, name)
		}
	}
}

// FindDefinition finds a declaration by name, preferring type declarations
func (si *SymbolIndex) FindDefinition(name string) *IndexedSymbol {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	syms := si.symbols[name]
	if len(syms) == 0 {
		return nil
	}
	for _, sym := range syms {
		if sym.Kind == SymbolKindType {
			return sym
		}
	}
	return syms[0]
}

// FindReferences finds every declaration with the given name
func (si *SymbolIndex) FindReferences(name string) []Location {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	syms, ok := si.symbols[name]
	if !ok {
		return nil
	}
	locations := make([]Location, len(syms))
	for i, sym := range syms {
		locations[i] = Location{URI: sym.URI, Range: sym.Range}
	}
	return locations
}

// SearchSymbols searches for symbols whose name contains query, ignoring case.
// Results are ordered by name, then URI and position.
func (si *SymbolIndex) SearchSymbols(query string) []*IndexedSymbol {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	query = strings.ToLower(query)
	result := make([]*IndexedSymbol, 0)
	for name, syms := range si.symbols {
		if query == "" || strings.Contains(strings.ToLower(name), query) {
			result = append(result, syms...)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.URI != b.URI {
			return a.URI < b.URI
		}
		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line < b.Range.Start.Line
		}
		return a.Range.Start.Character < b.Range.Start.Character
	})
	return result
}

// extractSymbols flattens the declarations of a file, nested types included
func extractSymbols(file *ast.File) []*Symbol {
	if file == nil {
		return nil
	}
	symbols := make([]*Symbol, 0)
	var visit func(t *ast.TypeDecl, container string)
	visit = func(t *ast.TypeDecl, container string) {
		if t.Name == nil {
			return
		}
		symbols = append(symbols, &Symbol{
			Name:          t.Name.Name,
			Kind:          SymbolKindType,
			Range:         rangeOf(t.Name.Loc),
			Type:          t.Kind.String(),
			ContainerName: container,
			Detail:        fmt.Sprintf("%s %s", t.Kind, t.FullName()),
		})
		for _, m := range t.Members {
			if sym := memberSymbol(m, t.Name.Name); sym != nil {
				symbols = append(symbols, sym)
			}
		}
		for _, n := range t.Nested {
			visit(n, t.Name.Name)
		}
	}
	for _, t := range file.Types {
		visit(t, "")
	}
	return symbols
}

func memberSymbol(m ast.Member, container string) *Symbol {
	name := m.MemberName()
	if name == nil {
		return nil
	}
	sym := &Symbol{
		Name:          name.Name,
		Range:         rangeOf(name.Loc),
		ContainerName: container,
	}
	switch m := m.(type) {
	case *ast.FieldDecl:
		sym.Kind = SymbolKindField
		if isDependencyPropertyType(m.Type) {
			sym.Kind = SymbolKindDependencyProperty
		}
		sym.Type = simpleName(m.Type)
		sym.Detail = fmt.Sprintf("%s %s", modifierPrefix(m.Modifiers)+m.Type.String(), name.Name)
	case *ast.PropertyDecl:
		sym.Kind = SymbolKindProperty
		sym.Type = simpleName(m.Type)
		sym.Detail = fmt.Sprintf("%s %s", modifierPrefix(m.Modifiers)+m.Type.String(), name.Name)
	case *ast.MethodDecl:
		sym.Kind = SymbolKindMethod
		sym.Type = simpleName(m.ReturnType)
		sym.Detail = fmt.Sprintf("%s %s(%s)", modifierPrefix(m.Modifiers)+m.ReturnType.String(), name.Name, paramList(m.Params))
	case *ast.ConstructorDecl:
		sym.Kind = SymbolKindConstructor
		sym.Detail = fmt.Sprintf("%s%s(%s)", modifierPrefix(m.Modifiers), name.Name, paramList(m.Params))
	default:
		return nil
	}
	return sym
}

func isDependencyPropertyType(t *ast.TypeRef) bool {
	return t != nil && (t.Name == "DependencyProperty" || t.Name == "DependencyPropertyKey")
}

func simpleName(t *ast.TypeRef) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func modifierPrefix(mods ast.Modifiers) string {
	if len(mods) == 0 {
		return ""
	}
	return strings.Join(mods, " ") + " "
}

func paramList(params []*ast.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.Name == nil {
			continue
		}
		s := p.Name.Name
		if p.Type != nil {
			s = p.Type.String() + " " + s
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// findSymbolAtPosition finds the symbol whose name covers a position
func findSymbolAtPosition(doc *Document, pos Position) *Symbol {
	for _, sym := range doc.Symbols {
		if positionInRange(pos, sym.Range) {
			return sym
		}
	}
	return nil
}

// positionInRange checks if a position is within a range
func positionInRange(pos Position, r Range) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}
	if pos.Line == r.End.Line && pos.Character > r.End.Character {
		return false
	}
	return true
}
