// Package depprop recovers dependency-property declaration clusters (backing field,
// registration call, metadata, callbacks and CLR accessors) from C# syntax and checks
// that the parts of each cluster agree with one another.
//
// The engine is invoked once per member declaration. It never returns errors: any
// input it cannot resolve statically makes the affected check abstain.
package depprop

import (
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// Model is the symbol resolution the engine needs. *semantic.Compilation implements it.
type Model interface {
	semantic.Model

	// MethodGroup returns the methods an identifier or member access may denote
	MethodGroup(expr ast.Expr) []*semantic.MethodSymbol

	// DelegateTarget returns the delegate type a lambda or method group converts to
	DelegateTarget(expr ast.Expr) *semantic.NamedType

	// ResolveTypeRef binds a type as written at ctx
	ResolveTypeRef(ref *ast.TypeRef, ctx ast.Node) semantic.Type

	EnclosingType(n ast.Node) *semantic.NamedType
	FileOf(n ast.Node) *ast.File
	WellKnown(fullName string, arity int) *semantic.NamedType
	Declarations(t *semantic.NamedType) []*ast.TypeDecl
}

var _ Model = (*semantic.Compilation)(nil)

// Framework type names the engine recognizes.
const (
	dependencyObjectName     = "System.Windows.DependencyObject"
	dependencyPropertyName   = "System.Windows.DependencyProperty"
	dependencyPropertyKey    = "System.Windows.DependencyPropertyKey"
	propertyMetadataName     = "System.Windows.PropertyMetadata"
	freezableName            = "System.Windows.Freezable"
	changedCallbackName      = "System.Windows.PropertyChangedCallback"
	coerceCallbackName       = "System.Windows.CoerceValueCallback"
	validateCallbackName     = "System.Windows.ValidateValueCallback"
	changedEventArgsTypeName = "System.Windows.DependencyPropertyChangedEventArgs"
)

// isType reports whether t is the catalog type with the given full name.
func isType(t semantic.Type, fullName string) bool {
	def := semantic.Definition(t)
	return def != nil && def.FullName() == fullName
}

// derivesFrom reports whether t has the named type in its base chain. The second
// result is false when the answer is unknown.
func derivesFrom(t semantic.Type, fullName string) (bool, bool) {
	def := semantic.Definition(t)
	if def == nil {
		return false, false
	}
	for cur := def; cur != nil; cur = cur.Base {
		if cur.FullName() == fullName {
			return true, true
		}
	}
	if !def.ChainComplete() {
		return false, false
	}
	return false, true
}
