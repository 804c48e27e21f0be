package semantic

// Tristate is the answer to a static question that may be undecidable
type Tristate int

const (
	// Unknown means the question cannot be answered statically
	Unknown Tristate = iota
	// Yes is a definite yes
	Yes
	// No is a definite no
	No
)

func (t Tristate) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Assignable reports whether a value whose static type is from can be stored where
// to is expected without an explicit conversion and without changing its runtime
// type. Numeric widenings are not conversions here: a boxed int is not a double.
func Assignable(from, to Type) Tristate {
	if from == nil || to == nil {
		return Unknown
	}
	if IsTypeParam(from) || IsTypeParam(to) {
		return Yes
	}
	if isObject(to) {
		return Yes
	}
	if Identical(from, to) {
		return Yes
	}

	if isNull(from) {
		if !to.IsValueType() {
			return Yes
		}
		if ct, ok := to.(*ConstructedType); ok && ct.IsNullable() {
			return Yes
		}
		return No
	}

	// object holds any runtime type; nothing can be said about the value.
	if isObject(from) {
		return Unknown
	}

	if ct, ok := to.(*ConstructedType); ok && ct.IsNullable() {
		if Identical(from, ct.Args[0]) {
			return Yes
		}
		if from.IsValueType() {
			return No
		}
		return Unknown
	}

	if from.IsValueType() {
		if to.IsValueType() {
			return No
		}
		// boxing to ValueType, Enum or an implemented interface
		toDef := Definition(to)
		fromDef := Definition(from)
		if toDef == nil || fromDef == nil {
			return Unknown
		}
		if fromDef.DerivesFrom(toDef) || fromDef.Implements(toDef) {
			return Yes
		}
		return No
	}

	if to.IsValueType() {
		return No
	}

	switch f := from.(type) {
	case *ArrayType:
		switch t := to.(type) {
		case *ArrayType:
			if f.Rank != t.Rank {
				return No
			}
			if f.Elem.IsValueType() || t.Elem.IsValueType() {
				if Identical(f.Elem, t.Elem) {
					return Yes
				}
				return No
			}
			return Assignable(f.Elem, t.Elem)
		default:
			def := Definition(to)
			if def == nil {
				return Unknown
			}
			switch def.FullName() {
			case "System.Array", "System.Collections.IEnumerable", "System.Collections.IList":
				return Yes
			}
			if def.Kind == KindInterface {
				return Unknown
			}
			return No
		}
	case NullType, VoidType:
		return No
	}

	fromDef := Definition(from)
	toDef := Definition(to)
	if fromDef == nil || toDef == nil {
		return Unknown
	}
	if _, ok := to.(*ConstructedType); ok {
		// generic variance and substituted bases are not modelled
		if fromDef == toDef || fromDef.DerivesFrom(toDef) || fromDef.Implements(toDef) {
			return Unknown
		}
	}
	if fromDef.DerivesFrom(toDef) || fromDef.Implements(toDef) {
		if _, ok := to.(*ConstructedType); !ok {
			return Yes
		}
	}
	if !fromDef.ChainComplete() {
		return Unknown
	}
	if toDef.Kind == KindInterface && fromDef.FromSource {
		return No
	}
	if toDef.Kind == KindInterface {
		// catalog types list only the interfaces dplint needs
		return Unknown
	}
	return No
}

// IsObject reports whether t is System.Object.
func IsObject(t Type) bool { return isObject(t) }

func isObject(t Type) bool {
	nt, ok := t.(*NamedType)
	return ok && nt.Base == nil && nt.Kind == KindClass && nt.FullName() == "System.Object"
}

// IsNullableValue reports whether t is Nullable<T>.
func IsNullableValue(t Type) bool {
	ct, ok := t.(*ConstructedType)
	return ok && ct.IsNullable()
}
