package depprop

import (
	"github.com/dplint/dplint/internal/analyzer/rules"
	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// check plugs one validator into the engine
type check struct {
	id  rules.ID
	run func(p *pass, c *Cluster)
}

// checks lists every validator in rule order.
var checks = []check{
	{rules.BackingFieldName, checkBackingFieldName},
	{rules.DerivedFieldName, checkDerivedFieldName},
	{rules.PropertyName, checkPropertyName},
	{rules.AccessorMethodName, checkAccessorMethodName},
	{rules.BackingFieldStaticReadOnly, checkStaticReadOnly},
	{rules.PropertyType, checkPropertyType},
	{rules.AccessorMethodType, checkAccessorMethodType},
	{rules.ChangedCallbackName, callbackName(SlotChanged, rules.ChangedCallbackName)},
	{rules.CoerceCallbackName, callbackName(SlotCoerce, rules.CoerceCallbackName)},
	{rules.ValidateCallbackName, callbackName(SlotValidate, rules.ValidateCallbackName)},
	{rules.CallbackSignature, checkCallbackSignature},
	{rules.CallbackArgumentOrder, checkArgumentOrder},
	{rules.CallbackSenderCast, checkSenderCast},
	{rules.CallbackValueCast, checkValueCast},
	{rules.RegisterOwner, checkRegisterOwner},
	{rules.AddOwnerOwner, checkAddOwnerOwner},
	{rules.OwnerDerivesDependencyObject, checkOwnerDependencyObject},
	{rules.DefaultValueType, checkDefaultValueType},
	{rules.DefaultValueSharedInstance, checkDefaultValueShared},
}

// Checked returns the IDs of all rules the engine implements.
func Checked() []rules.ID {
	ids := make([]rules.ID, len(checks))
	for i, c := range checks {
		ids[i] = c.id
	}
	return ids
}

// finding is a diagnostic together with the member declaration it belongs to
type finding struct {
	anchor ast.Node
	diag   rules.Diagnostic
}

// pass is the state shared by the validators of one engine invocation
type pass struct {
	w        *walker
	table    *SharedCallbackTable
	findings []finding
}

func (p *pass) model() Model { return p.w.model }

// diag builds a diagnostic located at node.
func (p *pass) diag(at ast.Node, id rules.ID, args ...string) rules.Diagnostic {
	file := ""
	if f := p.w.model.FileOf(at); f != nil {
		file = f.Path
	}
	return rules.New(id, file, at.Span(), args...)
}

// add records d as belonging to the member declaration anchor.
func (p *pass) add(anchor ast.Node, d rules.Diagnostic) {
	p.findings = append(p.findings, finding{anchor: anchor, diag: d})
}

func (p *pass) shared(owner *semantic.NamedType, m *semantic.MethodSymbol) bool {
	return p.table.Shared(owner, m)
}

// typesAgree compares an accessor type with the registered value type. Unknown
// types and type parameters agree with anything.
func typesAgree(actual, registered semantic.Type, kind RegistrationKind) bool {
	if actual == nil || registered == nil {
		return true
	}
	if semantic.IsTypeParam(actual) || semantic.IsTypeParam(registered) {
		return true
	}
	if semantic.Identical(actual, registered) {
		return true
	}
	if kind == KindAddOwner || kind == KindOverrideMetadata {
		return semantic.Assignable(registered, actual) != semantic.No
	}
	return false
}
