package ast

import (
	"strconv"
	"strings"
)

// ConstantString folds e to a compile-time string when its value is knowable from
// syntax alone: string literals, nameof(X), and `+` concatenations of those.
// Interpolated strings and references to constants are not folded.
func ConstantString(e Expr) (string, bool) {
	switch e := Unparen(e).(type) {
	case *Literal:
		if e.Kind != LiteralString {
			return "", false
		}
		return UnquoteString(e.Value)
	case *Invocation:
		return nameOf(e)
	case *Binary:
		if e.Op != "+" {
			return "", false
		}
		l, ok := ConstantString(e.L)
		if !ok {
			return "", false
		}
		r, ok := ConstantString(e.R)
		if !ok {
			return "", false
		}
		return l + r, true
	default:
		return "", false
	}
}

func nameOf(call *Invocation) (string, bool) {
	fun, ok := call.Fun.(*Ident)
	if !ok || fun.Name != "nameof" || len(call.Args) != 1 {
		return "", false
	}
	switch arg := Unparen(call.Args[0].Value).(type) {
	case *Ident:
		return arg.Name, true
	case *MemberAccess:
		return arg.Name.Name, true
	case *TypeRef:
		return arg.Name, true
	default:
		return "", false
	}
}

// UnquoteString decodes the source text of a regular, verbatim or raw string literal.
func UnquoteString(text string) (string, bool) {
	switch {
	case strings.HasPrefix(text, `"""`):
		if !strings.HasSuffix(text, `"""`) || len(text) < 6 {
			return "", false
		}
		body := strings.Trim(text, `"`)
		return strings.TrimSpace(body), true
	case strings.HasPrefix(text, `@"`):
		if !strings.HasSuffix(text, `"`) || len(text) < 3 {
			return "", false
		}
		return strings.ReplaceAll(text[2:len(text)-1], `""`, `"`), true
	case strings.HasPrefix(text, `"`):
		if s, err := strconv.Unquote(text); err == nil {
			return s, true
		}
		if len(text) >= 2 && strings.HasSuffix(text, `"`) {
			return text[1 : len(text)-1], true
		}
		return "", false
	default:
		return "", false
	}
}
