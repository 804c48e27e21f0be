// Package rules holds the stable rule catalog of dplint and the Diagnostic type
// every analyzer reports through.
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ID is a stable rule code such as DP0101
type ID string

const (
	// BackingFieldName requires the backing field or key to be named after the registered name.
	BackingFieldName ID = "DP0101"
	// DerivedFieldName requires the field derived from a key to be named after the registered name.
	DerivedFieldName ID = "DP0102"
	// PropertyName requires the CLR property to carry the registered name.
	PropertyName ID = "DP0103"
	// AccessorMethodName requires attached accessors to be named Get<Name> and Set<Name>.
	AccessorMethodName ID = "DP0104"
	// BackingFieldStaticReadOnly requires the backing field or key to be static readonly.
	BackingFieldStaticReadOnly ID = "DP0105"

	// PropertyType requires the CLR property type to equal the registered value type.
	PropertyType ID = "DP0201"
	// AccessorMethodType requires attached accessor value types to equal the registered value type.
	AccessorMethodType ID = "DP0202"

	// ChangedCallbackName requires the changed callback to be named On<Name>Changed.
	ChangedCallbackName ID = "DP0301"
	// CoerceCallbackName requires the coerce callback to be named Coerce<Name>.
	CoerceCallbackName ID = "DP0302"
	// ValidateCallbackName requires the validate callback to be named Validate<Name>.
	ValidateCallbackName ID = "DP0303"
	// CallbackSignature requires a callback to match its delegate type.
	CallbackSignature ID = "DP0304"
	// CallbackArgumentOrder requires forwarded old and new values to come from one event args instance.
	CallbackArgumentOrder ID = "DP0305"
	// CallbackSenderCast requires a forwarding lambda to cast the sender to the containing type.
	CallbackSenderCast ID = "DP0306"
	// CallbackValueCast requires a forwarding lambda to cast values to the registered value type.
	CallbackValueCast ID = "DP0307"

	// RegisterOwner requires the owner type of Register calls to be the containing type.
	RegisterOwner ID = "DP0401"
	// AddOwnerOwner requires AddOwner and OverrideMetadata to name the declaring type.
	AddOwnerOwner ID = "DP0402"
	// OwnerDerivesDependencyObject requires types registering non-attached properties to be dependency objects.
	OwnerDerivesDependencyObject ID = "DP0403"

	// DefaultValueType requires the default value to be assignable to the registered value type.
	DefaultValueType ID = "DP0501"
	// DefaultValueSharedInstance flags mutable reference instances used as default value.
	DefaultValueSharedInstance ID = "DP0502"
)

// Severity indicates how a diagnostic is reported
type Severity string

const (
	// SeverityError fails a check run.
	SeverityError Severity = "error"
	// SeverityWarning is reported but does not fail a run unless configured.
	SeverityWarning Severity = "warning"
	// SeverityInfo is informational.
	SeverityInfo Severity = "info"
)

// Rank orders severities from info (1) to error (3); unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// ParseSeverity parses a configured severity.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case SeverityError, SeverityWarning, SeverityInfo:
		return sev, nil
	}
	return "", fmt.Errorf("unknown severity %q (want error, warning or info)", s)
}

// Family groups rules by the concern they check
type Family string

const (
	FamilyNaming       Family = "identity-naming"
	FamilyType         Family = "type-matching"
	FamilyCallback     Family = "callback"
	FamilyOwnership    Family = "ownership"
	FamilyDefaultValue Family = "default-value"
)

// Descriptor describes one rule
type Descriptor struct {
	ID       ID       `json:"id" yaml:"id"`
	Slug     string   `json:"slug" yaml:"slug"`
	Family   Family   `json:"family" yaml:"family"`
	Severity Severity `json:"severity" yaml:"severity"`
	Title    string   `json:"title" yaml:"title"`
	// Template uses {0}, {1}, ... placeholders for the diagnostic arguments
	Template    string   `json:"template" yaml:"template"`
	Description string   `json:"description" yaml:"description"`
	Examples    []string `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// Message fills the template with args.
func (d Descriptor) Message(args ...string) string {
	return Expand(d.Template, args)
}

// Expand replaces {n} placeholders with args[n]. Placeholders without a matching
// argument are left as written.
func Expand(template string, args []string) string {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		if template[i] == '{' {
			if j := strings.IndexByte(template[i:], '}'); j > 1 {
				if n, err := strconv.Atoi(template[i+1 : i+j]); err == nil && n >= 0 && n < len(args) {
					b.WriteString(args[n])
					i += j
					continue
				}
			}
		}
		b.WriteByte(template[i])
	}
	return b.String()
}

var catalog = []Descriptor{
	{
		ID: BackingFieldName, Slug: "backing-field-name", Family: FamilyNaming, Severity: SeverityWarning,
		Title:       "Backing field must match registered name",
		Template:    "Field '{0}' that is the backing field for a dependency property should be named '{1}'",
		Description: "A field holding the result of a Register call is named <Name>Property, a read-only key is named <Name>PropertyKey.",
		Examples: []string{
			`public static readonly DependencyProperty ValueProperty = DependencyProperty.Register("Value", ...);`,
			`private static readonly DependencyPropertyKey CountPropertyKey = DependencyProperty.RegisterReadOnly("Count", ...);`,
		},
	},
	{
		ID: DerivedFieldName, Slug: "derived-field-name", Family: FamilyNaming, Severity: SeverityWarning,
		Title:       "Field derived from a key must match registered name",
		Template:    "Field '{0}' should be named '{1}'",
		Description: "The public field assigned from Key.DependencyProperty is named <Name>Property.",
		Examples: []string{
			`public static readonly DependencyProperty CountProperty = CountPropertyKey.DependencyProperty;`,
		},
	},
	{
		ID: PropertyName, Slug: "clr-property-name", Family: FamilyNaming, Severity: SeverityWarning,
		Title:       "CLR property must match registered name",
		Template:    "Property '{0}' must be named '{1}'",
		Description: "The instance property wrapping GetValue and SetValue carries the registered name.",
	},
	{
		ID: AccessorMethodName, Slug: "clr-method-name", Family: FamilyNaming, Severity: SeverityWarning,
		Title:       "Attached property accessors must match registered name",
		Template:    "Method '{0}' should be named '{1}'",
		Description: "Static accessors of an attached property are named Get<Name> and Set<Name>.",
		Examples: []string{
			`public static void SetBar(DependencyObject element, int value) => element.SetValue(BarProperty, value);`,
			`public static int GetBar(DependencyObject element) => (int)element.GetValue(BarProperty);`,
		},
	},
	{
		ID: BackingFieldStaticReadOnly, Slug: "backing-field-static-readonly", Family: FamilyNaming, Severity: SeverityWarning,
		Title:       "Backing field must be static readonly",
		Template:    "Field '{0}' should be static readonly",
		Description: "Dependency property identities are registered once per type and never reassigned.",
	},
	{
		ID: PropertyType, Slug: "clr-property-type", Family: FamilyType, Severity: SeverityError,
		Title:       "CLR property type must match registered type",
		Template:    "Property '{0}' is of type '{1}' but the dependency property is registered as '{2}'",
		Description: "GetValue returns a boxed value of the registered type; a different CLR type fails the cast at runtime.",
	},
	{
		ID: AccessorMethodType, Slug: "clr-method-type", Family: FamilyType, Severity: SeverityError,
		Title:       "Attached accessor type must match registered type",
		Template:    "Method '{0}' uses type '{1}' but the dependency property is registered as '{2}'",
		Description: "The value parameter of Set<Name> and the return type of Get<Name> equal the registered type.",
	},
	{
		ID: ChangedCallbackName, Slug: "changed-callback-name", Family: FamilyCallback, Severity: SeverityWarning,
		Title:       "Changed callback must match registered name",
		Template:    "Method '{0}' should be named '{1}'",
		Description: "The method handling property changes is named On<Name>Changed. Callbacks shared by several properties are exempt.",
	},
	{
		ID: CoerceCallbackName, Slug: "coerce-callback-name", Family: FamilyCallback, Severity: SeverityWarning,
		Title:       "Coerce callback must match registered name",
		Template:    "Method '{0}' should be named '{1}'",
		Description: "The coerce callback is named Coerce<Name>. Callbacks shared by several properties are exempt.",
	},
	{
		ID: ValidateCallbackName, Slug: "validate-callback-name", Family: FamilyCallback, Severity: SeverityWarning,
		Title:       "Validate callback must match registered name",
		Template:    "Method '{0}' should be named '{1}'",
		Description: "The validate callback is named Validate<Name>. Callbacks shared by several properties are exempt.",
	},
	{
		ID: CallbackSignature, Slug: "callback-signature", Family: FamilyCallback, Severity: SeverityError,
		Title:       "Callback must match its delegate type",
		Template:    "Method '{0}' does not match the signature of '{1}'",
		Description: "Changed, coerce and validate callbacks take the parameters and return the type of their delegate.",
		Examples: []string{
			`private static void OnValueChanged(DependencyObject d, DependencyPropertyChangedEventArgs e)`,
			`private static object CoerceValue(DependencyObject d, object baseValue)`,
			`private static bool ValidateValue(object value)`,
		},
	},
	{
		ID: CallbackArgumentOrder, Slug: "callback-argument-order", Family: FamilyCallback, Severity: SeverityError,
		Title:       "Forwarded old and new values must match the target parameters",
		Template:    "Argument '{0}' is passed to parameter '{1}' of '{2}'",
		Description: "A forwarding lambda passes e.OldValue and e.NewValue of one event args instance to the parameters the target declares for them.",
	},
	{
		ID: CallbackSenderCast, Slug: "callback-sender-cast", Family: FamilyCallback, Severity: SeverityError,
		Title:       "Sender must be cast to the containing type",
		Template:    "Sender is cast to '{0}' but the property is registered on '{1}'",
		Description: "The framework only raises the callback for instances of the owner type.",
	},
	{
		ID: CallbackValueCast, Slug: "callback-value-cast", Family: FamilyCallback, Severity: SeverityError,
		Title:       "Values must be cast to the registered type",
		Template:    "Value is cast to '{0}' but the property is registered as '{1}'",
		Description: "OldValue and NewValue hold boxed values of the registered type.",
	},
	{
		ID: RegisterOwner, Slug: "register-owner", Family: FamilyOwnership, Severity: SeverityError,
		Title:       "Register owner must be the containing type",
		Template:    "Owner type '{0}' should be the containing type '{1}'",
		Description: "The ownerType argument of Register, RegisterReadOnly, RegisterAttached and RegisterAttachedReadOnly is typeof of the declaring type.",
	},
	{
		ID: AddOwnerOwner, Slug: "add-owner-owner", Family: FamilyOwnership, Severity: SeverityError,
		Title:       "AddOwner and OverrideMetadata must name the declaring type",
		Template:    "Owner type '{0}' should be the declaring type '{1}'",
		Description: "AddOwner and OverrideMetadata are called with typeof of the type the field or static constructor belongs to.",
	},
	{
		ID: OwnerDerivesDependencyObject, Slug: "owner-dependency-object", Family: FamilyOwnership, Severity: SeverityError,
		Title:       "Type registering a dependency property must derive from DependencyObject",
		Template:    "Type '{0}' registers '{1}' but does not derive from DependencyObject",
		Description: "GetValue and SetValue are only available on DependencyObject. Attached properties may live on any type.",
	},
	{
		ID: DefaultValueType, Slug: "default-value-type", Family: FamilyDefaultValue, Severity: SeverityError,
		Title:       "Default value must be assignable to the registered type",
		Template:    "Default value '{0}' of type '{1}' is not assignable to '{2}'",
		Description: "The default value is stored boxed; an int default for a double property throws at registration.",
		Examples: []string{
			`new PropertyMetadata(1.0)  // for typeof(double)`,
			`new PropertyMetadata(default(double))`,
		},
	},
	{
		ID: DefaultValueSharedInstance, Slug: "default-value-shared-instance", Family: FamilyDefaultValue, Severity: SeverityWarning,
		Title:       "Default value is a shared mutable instance",
		Template:    "Default value '{0}' is one mutable '{1}' instance shared by every object",
		Description: "Metadata is created once per type, so a new collection passed as default is shared by every instance. Set the value in the constructor instead.",
	},
}

var byID = func() map[ID]Descriptor {
	m := make(map[ID]Descriptor, len(catalog))
	for _, d := range catalog {
		m[d.ID] = d
	}
	return m
}()

// All returns every rule in ID order.
func All() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup finds a rule by ID or slug.
func Lookup(key string) (Descriptor, bool) {
	if d, ok := byID[ID(strings.ToUpper(key))]; ok {
		return d, true
	}
	for _, d := range catalog {
		if d.Slug == key {
			return d, true
		}
	}
	return Descriptor{}, false
}

// MustLookup returns the descriptor for a known ID and panics otherwise.
func MustLookup(id ID) Descriptor {
	d, ok := byID[id]
	if !ok {
		panic(fmt.Sprintf("rules: unknown rule %s", id))
	}
	return d
}
