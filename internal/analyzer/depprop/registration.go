package depprop

import (
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// RegistrationKind is the recognized shape of a registration call
type RegistrationKind int

const (
	// KindUnrecognized is any call the engine does not model
	KindUnrecognized RegistrationKind = iota
	// KindRegister is DependencyProperty.Register
	KindRegister
	// KindRegisterReadOnly is DependencyProperty.RegisterReadOnly
	KindRegisterReadOnly
	// KindRegisterAttached is DependencyProperty.RegisterAttached
	KindRegisterAttached
	// KindRegisterAttachedReadOnly is DependencyProperty.RegisterAttachedReadOnly
	KindRegisterAttachedReadOnly
	// KindAddOwner is existingProperty.AddOwner
	KindAddOwner
	// KindOverrideMetadata is existingProperty.OverrideMetadata
	KindOverrideMetadata
)

var kindNames = map[string]RegistrationKind{
	"Register":                 KindRegister,
	"RegisterReadOnly":         KindRegisterReadOnly,
	"RegisterAttached":         KindRegisterAttached,
	"RegisterAttachedReadOnly": KindRegisterAttachedReadOnly,
	"AddOwner":                 KindAddOwner,
	"OverrideMetadata":         KindOverrideMetadata,
}

func (k RegistrationKind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "Unrecognized"
}

// IsRegister reports whether the call creates a new dependency property.
func (k RegistrationKind) IsRegister() bool {
	return k >= KindRegister && k <= KindRegisterAttachedReadOnly
}

// IsReadOnly reports whether the call returns a DependencyPropertyKey.
func (k RegistrationKind) IsReadOnly() bool {
	return k == KindRegisterReadOnly || k == KindRegisterAttachedReadOnly
}

// IsAttached reports whether the property may be set on any dependency object.
func (k RegistrationKind) IsAttached() bool {
	return k == KindRegisterAttached || k == KindRegisterAttachedReadOnly
}

// Canonical argument slots. Parameter names differ between overloads
// (typeMetadata, defaultMetadata), so named arguments map through argSlots.
const (
	slotName      = "name"
	slotValueType = "propertyType"
	slotOwnerType = "ownerType"
	slotMetadata  = "metadata"
	slotValidate  = "validate"
	slotKey       = "key"
)

var argSlots = map[string]string{
	"name":                  slotName,
	"propertyType":          slotValueType,
	"ownerType":             slotOwnerType,
	"forType":               slotOwnerType,
	"typeMetadata":          slotMetadata,
	"defaultMetadata":       slotMetadata,
	"validateValueCallback": slotValidate,
	"key":                   slotKey,
}

var positional = map[RegistrationKind][]string{
	KindRegister:                 {slotName, slotValueType, slotOwnerType, slotMetadata, slotValidate},
	KindRegisterReadOnly:         {slotName, slotValueType, slotOwnerType, slotMetadata, slotValidate},
	KindRegisterAttached:         {slotName, slotValueType, slotOwnerType, slotMetadata, slotValidate},
	KindRegisterAttachedReadOnly: {slotName, slotValueType, slotOwnerType, slotMetadata, slotValidate},
	KindAddOwner:                 {slotOwnerType, slotMetadata},
	KindOverrideMetadata:         {slotOwnerType, slotMetadata, slotKey},
}

// Registration describes one registration call. It is built fresh for every
// analysis and never modified afterwards.
type Registration struct {
	Kind RegistrationKind
	Call *ast.Invocation

	// NameExpr is the name argument; Name is its constant value when NameKnown.
	// For AddOwner and OverrideMetadata the name is inherited from Source.
	NameExpr  ast.Expr
	Name      string
	NameKnown bool

	ValueTypeExpr ast.Expr
	OwnerTypeExpr ast.Expr
	Metadata      ast.Expr
	Validate      ast.Expr

	// ValueType is the registered value type, nil when not statically known
	ValueType semantic.Type
	// ValueTypeText is the value type as written
	ValueTypeText string

	// Source is the existing property AddOwner and OverrideMetadata are called on
	Source      ast.Expr
	SourceField *semantic.FieldSymbol
}

// OwnerType returns the type named by the ownerType argument, nil when it is not
// a typeof expression or does not resolve.
func (r *Registration) OwnerType(model Model) (semantic.Type, *ast.TypeOf) {
	t, ok := ast.Unparen(r.OwnerTypeExpr).(*ast.TypeOf)
	if !ok || t.Type == nil {
		return nil, nil
	}
	return model.ResolveTypeRef(t.Type, t), t
}

// maxInheritDepth bounds AddOwner chains followed to find the original registration.
const maxInheritDepth = 8

// registration parses expr as a registration call. It returns nil for anything
// that is not one of the recognized shapes.
func (w *walker) registration(expr ast.Expr) *Registration {
	return w.registrationDepth(expr, 0)
}

func (w *walker) registrationDepth(expr ast.Expr, depth int) *Registration {
	if !w.live() || expr == nil {
		return nil
	}
	call, ok := ast.Unparen(expr).(*ast.Invocation)
	if !ok {
		return nil
	}
	kind := kindNames[call.MethodName()]
	if kind == KindUnrecognized {
		return nil
	}
	recv := call.Receiver()
	if recv == nil {
		return nil
	}

	reg := &Registration{Kind: kind, Call: call}
	if kind.IsRegister() {
		// DependencyProperty.Register: the receiver names the framework type.
		t, ok := w.model.ResolveSymbol(recv).(*semantic.NamedType)
		if !ok || t.FullName() != dependencyPropertyName {
			return nil
		}
	} else {
		// dp.AddOwner(...): the receiver is a property identity.
		t := w.model.TypeOf(recv)
		if !isType(t, dependencyPropertyName) && !(kind == KindOverrideMetadata && isType(t, dependencyPropertyKey)) {
			return nil
		}
		reg.Source = recv
	}

	slots := positional[kind]
	for i, arg := range call.Args {
		slot := ""
		if arg.Name != "" {
			slot = argSlots[arg.Name]
		} else if i < len(slots) {
			slot = slots[i]
		}
		switch slot {
		case slotName:
			reg.NameExpr = arg.Value
		case slotValueType:
			reg.ValueTypeExpr = arg.Value
		case slotOwnerType:
			reg.OwnerTypeExpr = arg.Value
		case slotMetadata:
			reg.Metadata = arg.Value
		case slotValidate:
			reg.Validate = arg.Value
		}
	}

	if kind.IsRegister() {
		if reg.NameExpr != nil {
			reg.Name, reg.NameKnown = ast.ConstantString(reg.NameExpr)
		}
		if to, ok := ast.Unparen(reg.ValueTypeExpr).(*ast.TypeOf); ok && to.Type != nil {
			reg.ValueType = w.model.ResolveTypeRef(to.Type, to)
			reg.ValueTypeText = to.Type.String()
		}
		return reg
	}

	w.inherit(reg, depth)
	return reg
}

// inherit fills name and value type of AddOwner and OverrideMetadata from the
// property they are called on.
func (w *walker) inherit(reg *Registration, depth int) {
	field, ok := w.model.ResolveSymbol(reg.Source).(*semantic.FieldSymbol)
	if !ok {
		return
	}
	reg.SourceField = field

	if field.Registers != nil {
		reg.Name, reg.NameKnown = field.Registers.Name, true
		reg.ValueType = field.Registers.ValueType
		if reg.ValueType != nil {
			reg.ValueTypeText = reg.ValueType.String()
		}
		return
	}
	if field.Decl == nil || depth >= maxInheritDepth {
		return
	}
	init := field.Decl.Init
	if derived := keyOf(init); derived != nil {
		// Key.DependencyProperty
		if key, ok := w.model.ResolveSymbol(derived).(*semantic.FieldSymbol); ok && key.Decl != nil {
			init = key.Decl.Init
		}
	}
	if src := w.registrationDepth(init, depth+1); src != nil {
		reg.Name, reg.NameKnown = src.Name, src.NameKnown
		reg.ValueType, reg.ValueTypeText = src.ValueType, src.ValueTypeText
	}
}

// keyOf returns X for an initializer of the form X.DependencyProperty.
func keyOf(init ast.Expr) ast.Expr {
	ma, ok := ast.Unparen(init).(*ast.MemberAccess)
	if !ok || ma.Name == nil || ma.Name.Name != "DependencyProperty" {
		return nil
	}
	return ma.X
}
