package semantic

import (
	"strconv"
	"strings"

	"github.com/dplint/dplint/internal/compiler/ast"
)

// ResolveSymbol implements Model.
func (c *Compilation) ResolveSymbol(node ast.Node) Symbol {
	if node == nil {
		return nil
	}
	if sym, ok := c.symbols[node]; ok {
		return sym
	}

	switch n := node.(type) {
	case *ast.Ident:
		return c.single(c.resolveName(n), c.invocationOf(n))
	case *ast.MemberAccess:
		return c.single(c.resolveMemberAccess(n), c.invocationOf(n))
	case *ast.Invocation:
		return c.ResolveSymbol(n.Fun)
	case *ast.ObjectCreation:
		t := Definition(c.ResolveTypeRef(n.Type, n))
		if t == nil {
			return nil
		}
		if m := c.selectOverload(t.Constructors(), n.Args); m != nil {
			return m
		}
		return nil
	case *ast.TypeRef:
		if t := Definition(c.ResolveTypeRef(n, n)); t != nil {
			return t
		}
		return nil
	case *ast.Paren:
		return c.ResolveSymbol(n.X)
	default:
		return nil
	}
}

// MethodGroup returns every method an identifier or member access may denote.
func (c *Compilation) MethodGroup(expr ast.Expr) []*MethodSymbol {
	var syms []Symbol
	switch e := ast.Unparen(expr).(type) {
	case *ast.Ident:
		syms = c.resolveName(e)
	case *ast.MemberAccess:
		syms = c.resolveMemberAccess(e)
	}
	var out []*MethodSymbol
	for _, s := range syms {
		if m, ok := s.(*MethodSymbol); ok {
			out = append(out, m)
		}
	}
	return out
}

// invocationOf returns the call whose target is fun, if any.
func (c *Compilation) invocationOf(fun ast.Expr) *ast.Invocation {
	if call, ok := c.parents[fun].(*ast.Invocation); ok && call.Fun == fun {
		return call
	}
	return nil
}

// single narrows a lookup result to one symbol: the only candidate, or the overload
// selected by the enclosing call.
func (c *Compilation) single(syms []Symbol, call *ast.Invocation) Symbol {
	if len(syms) == 0 {
		return nil
	}
	if len(syms) == 1 {
		return syms[0]
	}
	var methods []*MethodSymbol
	for _, s := range syms {
		if m, ok := s.(*MethodSymbol); ok {
			methods = append(methods, m)
		}
	}
	if call == nil || len(methods) == 0 {
		return nil
	}
	if m := c.selectOverload(methods, call.Args); m != nil {
		return m
	}
	return nil
}

// selectOverload picks the candidate applicable to args. Candidates are filtered by
// arity and named arguments, then ranked by how many argument types match exactly.
func (c *Compilation) selectOverload(cands []*MethodSymbol, args []*ast.Argument) *MethodSymbol {
	var best *MethodSymbol
	bestScore := -1
	for _, m := range cands {
		if !applicable(m, args) {
			continue
		}
		score := 0
		for i, a := range args {
			p := paramFor(m, a, i)
			if p == nil {
				continue
			}
			if p.Type == nil {
				continue
			}
			at := c.TypeOf(a.Value)
			if at == nil {
				if c.isCallbackLike(a.Value) {
					if d := Definition(p.Type); d != nil && d.Kind == KindDelegate {
						score += 2
					} else {
						score -= 4
					}
				}
				continue
			}
			switch Assignable(at, p.Type) {
			case Yes:
				score += 2
				if Identical(at, p.Type) {
					score++
				}
			case No:
				score -= 4
			}
		}
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	return best
}

// isCallbackLike reports whether e can only convert to a delegate.
func (c *Compilation) isCallbackLike(e ast.Expr) bool {
	switch e := ast.Unparen(e).(type) {
	case *ast.Lambda:
		return true
	case *ast.Ident, *ast.MemberAccess:
		return len(c.MethodGroup(e)) > 0
	}
	return false
}

func applicable(m *MethodSymbol, args []*ast.Argument) bool {
	required := 0
	variadic := false
	for _, p := range m.Params {
		if p.Modifiers.Has("params") {
			variadic = true
			continue
		}
		if !p.HasDefault {
			required++
		}
	}
	if len(args) < required {
		return false
	}
	if len(args) > len(m.Params) && !variadic {
		return false
	}
	for _, a := range args {
		if a.Name != "" && m.Param(a.Name) == nil {
			return false
		}
	}
	return true
}

// ParamFor maps an argument to the parameter it binds to, by name or position.
func ParamFor(m *MethodSymbol, args []*ast.Argument, arg *ast.Argument) *ParamSymbol {
	for i, a := range args {
		if a == arg {
			return paramFor(m, a, i)
		}
	}
	return nil
}

func paramFor(m *MethodSymbol, a *ast.Argument, position int) *ParamSymbol {
	if a.Name != "" {
		return m.Param(a.Name)
	}
	if position < len(m.Params) {
		return m.Params[position]
	}
	if n := len(m.Params); n > 0 && m.Params[n-1].Modifiers.Has("params") {
		return m.Params[n-1]
	}
	return nil
}

// resolveName looks an identifier up through the enclosing scopes.
func (c *Compilation) resolveName(id *ast.Ident) []Symbol {
	name := id.Name
	var child ast.Node = id
	for cur := c.parents[id]; cur != nil; child, cur = cur, c.parents[cur] {
		switch n := cur.(type) {
		case *ast.Lambda:
			for _, p := range n.Params {
				if p.Name.Name == name {
					return c.found(c.symbols[p])
				}
			}
		case *ast.MethodDecl:
			for _, p := range n.Params {
				if p.Name.Name == name {
					return c.found(c.symbols[p])
				}
			}
		case *ast.ConstructorDecl:
			for _, p := range n.Params {
				if p.Name.Name == name {
					return c.found(c.symbols[p])
				}
			}
		case *ast.Accessor:
			if name == "value" && n.Kind != ast.AccessorGet {
				if p := c.setterValues[n]; p != nil {
					return []Symbol{p}
				}
			}
		case *ast.Block:
			for _, s := range n.Stmts {
				if s.Span().Start.Offset >= id.Loc.Start.Offset {
					break
				}
				if local, ok := s.(*ast.LocalDecl); ok && local.Name.Name == name {
					return c.found(c.symbols[local])
				}
			}
		case *ast.IfStmt:
			if child == n.Then {
				if sym := c.designation(n.Cond, name); sym != nil {
					return []Symbol{sym}
				}
			}
		case *ast.Binary:
			if n.Op == "&&" && child == n.R {
				if sym := c.designation(n.L, name); sym != nil {
					return []Symbol{sym}
				}
			}
		case *ast.Conditional:
			if child == n.Then {
				if sym := c.designation(n.Cond, name); sym != nil {
					return []Symbol{sym}
				}
			}
		case *ast.TypeDecl:
			t := c.declOf[n]
			if t == nil {
				continue
			}
			if syms := t.LookupMember(name); len(syms) > 0 {
				return syms
			}
			for _, p := range t.TypeParams {
				if p.Name == name {
					return nil
				}
			}
		}
	}

	if t := c.lookupTypeName("", name, len(id.TypeArgs), id); t != nil {
		return []Symbol{t}
	}
	if c.catalog != nil {
		if kw := c.catalog.Keyword(name); kw != nil {
			return []Symbol{kw}
		}
	}
	return nil
}

func (c *Compilation) found(sym Symbol) []Symbol {
	if sym == nil {
		return nil
	}
	return []Symbol{sym}
}

// designation finds a pattern variable named name declared in cond.
func (c *Compilation) designation(cond ast.Expr, name string) Symbol {
	var out Symbol
	ast.Inspect(cond, func(n ast.Node) bool {
		if out != nil {
			return false
		}
		if p, ok := n.(*ast.IsPattern); ok && p.Name != nil && p.Name.Name == name {
			out = c.symbols[p]
			return false
		}
		_, isLambda := n.(*ast.Lambda)
		return !isLambda
	})
	return out
}

func (c *Compilation) resolveMemberAccess(ma *ast.MemberAccess) []Symbol {
	name := ma.Name.Name

	// Receiver denotes a type: static member or nested type.
	if t := c.receiverType(ma.X); t != nil {
		return t.LookupMember(name)
	}

	recv := c.TypeOf(ma.X)
	if _, ok := recv.(*TypeParam); ok {
		// members of an unconstrained type parameter are those of object
		if obj, ok := c.keyword("object").(*NamedType); ok {
			return obj.LookupMember(name)
		}
		return nil
	}
	def := Definition(recv)
	if def == nil {
		return nil
	}
	return def.LookupMember(name)
}

// receiverType returns the named type when x is a type name rather than a value.
func (c *Compilation) receiverType(x ast.Expr) *NamedType {
	switch x := ast.Unparen(x).(type) {
	case *ast.Ident:
		syms := c.resolveName(x)
		if len(syms) == 1 {
			if t, ok := syms[0].(*NamedType); ok {
				return t
			}
		}
		return nil
	case *ast.MemberAccess:
		if dotted, ok := dottedName(x); ok {
			i := strings.LastIndex(dotted, ".")
			if t := c.lookupTypeName(dotted[:i], dotted[i+1:], 0, x); t != nil {
				return t
			}
		}
		syms := c.resolveMemberAccess(x)
		if len(syms) == 1 {
			if t, ok := syms[0].(*NamedType); ok {
				return t
			}
		}
		return nil
	case *ast.TypeRef:
		return Definition(c.ResolveTypeRef(x, x))
	default:
		return nil
	}
}

// dottedName flattens A.B.C made only of identifiers.
func dottedName(e ast.Expr) (string, bool) {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name, len(e.TypeArgs) == 0
	case *ast.MemberAccess:
		left, ok := dottedName(e.X)
		if !ok {
			return "", false
		}
		return left + "." + e.Name.Name, true
	default:
		return "", false
	}
}

// TypeOf implements Model.
func (c *Compilation) TypeOf(expr ast.Expr) Type {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *ast.Literal:
		return c.literalType(e)
	case *ast.Ident, *ast.MemberAccess:
		return c.valueType(e)
	case *ast.Invocation:
		return c.invocationType(e)
	case *ast.ObjectCreation:
		if e.Type == nil {
			return nil
		}
		return c.ResolveTypeRef(e.Type, e)
	case *ast.Cast:
		return c.ResolveTypeRef(e.Type, e)
	case *ast.As:
		return c.ResolveTypeRef(e.Type, e)
	case *ast.IsPattern:
		return c.keyword("bool")
	case *ast.TypeOf:
		return c.WellKnown("System.Type", 0)
	case *ast.Default:
		if e.Type == nil {
			return nil
		}
		return c.ResolveTypeRef(e.Type, e)
	case *ast.Paren:
		return c.TypeOf(e.X)
	case *ast.This:
		t := c.EnclosingType(e)
		if t == nil {
			return nil
		}
		if e.Base {
			if t.Base == nil {
				return nil
			}
			return t.Base
		}
		return t
	case *ast.Unary:
		switch e.Op {
		case "!":
			return c.keyword("bool")
		case "-", "+", "~":
			return c.promote(c.TypeOf(e.X))
		}
		return nil
	case *ast.Binary:
		return c.binaryType(e)
	case *ast.Conditional:
		then, els := c.TypeOf(e.Then), c.TypeOf(e.Else)
		switch {
		case Identical(then, els):
			return then
		case isNull(then) && els != nil && !els.IsValueType():
			return els
		case isNull(els) && then != nil && !then.IsValueType():
			return then
		}
		return nil
	case *ast.Assign:
		return c.TypeOf(e.L)
	default:
		return nil
	}
}

func isNull(t Type) bool {
	_, ok := t.(NullType)
	return ok
}

func (c *Compilation) keyword(kw string) Type {
	if c.catalog == nil {
		return nil
	}
	if t := c.catalog.Keyword(kw); t != nil {
		return t
	}
	return nil
}

// promote applies C# unary numeric promotion: small integral types become int.
func (c *Compilation) promote(t Type) Type {
	nt, ok := t.(*NamedType)
	if !ok {
		return t
	}
	switch nt.Keyword {
	case "byte", "sbyte", "short", "ushort", "char":
		return c.keyword("int")
	}
	return t
}

func (c *Compilation) binaryType(e *ast.Binary) Type {
	switch e.Op {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		return c.keyword("bool")
	case "??":
		return nil
	}
	l, r := c.TypeOf(e.L), c.TypeOf(e.R)
	if e.Op == "+" {
		if str := c.keyword("string"); str != nil && (Identical(l, str) || Identical(r, str)) {
			return str
		}
	}
	l, r = c.promote(l), c.promote(r)
	if Identical(l, r) {
		if nt, ok := l.(*NamedType); ok && nt.Keyword != "" {
			return l
		}
		if nt, ok := l.(*NamedType); ok && nt.Kind == KindEnum && (e.Op == "|" || e.Op == "&" || e.Op == "^") {
			return l
		}
	}
	return nil
}

func (c *Compilation) valueType(e ast.Expr) Type {
	sym := c.ResolveSymbol(e)
	if sym == nil {
		return nil
	}
	switch s := sym.(type) {
	case *NamedType, *MethodSymbol:
		return nil
	case *ParamSymbol:
		if s.Type != nil {
			return s.Type
		}
		return c.lambdaParamType(s)
	case *LocalSymbol:
		if s.Type != nil {
			return s.Type
		}
		if local, ok := s.Decl.(*ast.LocalDecl); ok && local.Init != nil {
			return c.TypeOf(local.Init)
		}
		return nil
	}

	t := sym.SymbolType()
	if ma, ok := e.(*ast.MemberAccess); ok {
		if ct, ok := c.TypeOf(ma.X).(*ConstructedType); ok {
			t = substitute(t, ct)
		}
	}
	return t
}

// substitute replaces the type parameters of ct's definition with its arguments.
func substitute(t Type, ct *ConstructedType) Type {
	switch t := t.(type) {
	case *TypeParam:
		for i, p := range ct.Def.TypeParams {
			if p == t && i < len(ct.Args) {
				return ct.Args[i]
			}
		}
		return t
	case *ArrayType:
		return &ArrayType{Elem: substitute(t.Elem, ct), Rank: t.Rank}
	case *ConstructedType:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = substitute(a, ct)
		}
		return &ConstructedType{Def: t.Def, Args: args}
	default:
		return t
	}
}

func (c *Compilation) invocationType(call *ast.Invocation) Type {
	if id, ok := call.Fun.(*ast.Ident); ok && id.Name == "nameof" && len(call.Args) == 1 {
		return c.keyword("string")
	}
	m, ok := c.ResolveSymbol(call).(*MethodSymbol)
	if !ok || m.Return == nil {
		return nil
	}
	ret := m.Return
	if len(m.TypeParams) > 0 {
		var typeArgs []*ast.TypeRef
		switch fun := call.Fun.(type) {
		case *ast.Ident:
			typeArgs = fun.TypeArgs
		case *ast.MemberAccess:
			typeArgs = fun.Name.TypeArgs
		}
		if len(typeArgs) != len(m.TypeParams) {
			if mentions(ret, m.TypeParams) {
				return nil
			}
			return ret
		}
		args := make([]Type, len(typeArgs))
		for i, a := range typeArgs {
			args[i] = c.ResolveTypeRef(a, call)
			if args[i] == nil {
				return nil
			}
		}
		ret = substituteParams(ret, m.TypeParams, args)
	}
	if ma, ok := call.Fun.(*ast.MemberAccess); ok {
		if ct, ok := c.TypeOf(ma.X).(*ConstructedType); ok {
			ret = substitute(ret, ct)
		}
	}
	return ret
}

func mentions(t Type, params []*TypeParam) bool {
	switch t := t.(type) {
	case *TypeParam:
		for _, p := range params {
			if p == t {
				return true
			}
		}
	case *ArrayType:
		return mentions(t.Elem, params)
	case *ConstructedType:
		for _, a := range t.Args {
			if mentions(a, params) {
				return true
			}
		}
	}
	return false
}

func substituteParams(t Type, params []*TypeParam, args []Type) Type {
	switch t := t.(type) {
	case *TypeParam:
		for i, p := range params {
			if p == t {
				return args[i]
			}
		}
		return t
	case *ArrayType:
		return &ArrayType{Elem: substituteParams(t.Elem, params, args), Rank: t.Rank}
	case *ConstructedType:
		out := make([]Type, len(t.Args))
		for i, a := range t.Args {
			out[i] = substituteParams(a, params, args)
		}
		return &ConstructedType{Def: t.Def, Args: out}
	default:
		return t
	}
}

// DelegateTarget returns the delegate type a lambda or method group converts to,
// inferred from the parameter or field it is passed to.
func (c *Compilation) DelegateTarget(expr ast.Expr) *NamedType {
	parent := c.parents[expr]
	for {
		p, ok := parent.(*ast.Paren)
		if !ok {
			break
		}
		parent = c.parents[p]
	}

	var target Type
	switch p := parent.(type) {
	case *ast.Argument:
		switch owner := c.parents[p].(type) {
		case *ast.Invocation:
			if m, ok := c.ResolveSymbol(owner).(*MethodSymbol); ok {
				if param := ParamFor(m, owner.Args, p); param != nil {
					target = param.Type
				}
			}
		case *ast.ObjectCreation:
			if owner.Type != nil {
				t := Definition(c.ResolveTypeRef(owner.Type, owner))
				if t != nil && t.Kind == KindDelegate {
					return t
				}
			}
			if m, ok := c.ResolveSymbol(owner).(*MethodSymbol); ok {
				if param := ParamFor(m, owner.Args, p); param != nil {
					target = param.Type
				}
			}
		}
	case *ast.FieldDecl:
		if f, ok := c.symbols[p].(*FieldSymbol); ok {
			target = f.Type
		}
	case *ast.LocalDecl:
		if l, ok := c.symbols[p].(*LocalSymbol); ok {
			target = l.Type
		}
	case *ast.Cast:
		target = c.ResolveTypeRef(p.Type, p)
	}

	if t := Definition(target); t != nil && t.Kind == KindDelegate {
		return t
	}
	return nil
}

func (c *Compilation) lambdaParamType(p *ParamSymbol) Type {
	if p.Decl == nil {
		return nil
	}
	lam, ok := c.parents[p.Decl].(*ast.Lambda)
	if !ok {
		return nil
	}
	d := c.DelegateTarget(lam)
	if d == nil || d.Invoke == nil || p.Index >= len(d.Invoke.Params) || len(lam.Params) != len(d.Invoke.Params) {
		return nil
	}
	return d.Invoke.Params[p.Index].Type
}

// literalType applies the C# literal typing rules, suffixes included.
func (c *Compilation) literalType(lit *ast.Literal) Type {
	switch lit.Kind {
	case ast.LiteralString:
		return c.keyword("string")
	case ast.LiteralChar:
		return c.keyword("char")
	case ast.LiteralBool:
		return c.keyword("bool")
	case ast.LiteralNull:
		return NullType{}
	case ast.LiteralReal:
		return c.keyword(realLiteralKeyword(lit.Value))
	case ast.LiteralInt:
		return c.keyword(intLiteralKeyword(lit.Value))
	}
	return nil
}

func realLiteralKeyword(text string) string {
	if text == "" {
		return "double"
	}
	switch strings.ToLower(text[len(text)-1:]) {
	case "f":
		return "float"
	case "m":
		return "decimal"
	default:
		return "double"
	}
}

// intLiteralKeyword returns the C# type keyword of an integer literal.
func intLiteralKeyword(text string) string {
	text = strings.ReplaceAll(strings.ToLower(text), "_", "")
	hex := strings.HasPrefix(text, "0x")
	bin := strings.HasPrefix(text, "0b")

	suffix := ""
	for len(text) > 0 {
		last := text[len(text)-1]
		if last == 'u' || last == 'l' {
			suffix = string(last) + suffix
			text = text[:len(text)-1]
			continue
		}
		if !hex && (last == 'f' || last == 'd' || last == 'm') {
			return realLiteralKeyword(string(last))
		}
		break
	}

	base := 10
	switch {
	case hex:
		base, text = 16, text[2:]
	case bin:
		base, text = 2, text[2:]
	}
	v, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		v = 0
	}

	switch suffix {
	case "u":
		if v <= 1<<32-1 {
			return "uint"
		}
		return "ulong"
	case "l":
		if v <= 1<<63-1 {
			return "long"
		}
		return "ulong"
	case "ul", "lu":
		return "ulong"
	}
	switch {
	case v <= 1<<31-1:
		return "int"
	case v <= 1<<32-1:
		return "uint"
	case v <= 1<<63-1:
		return "long"
	default:
		return "ulong"
	}
}
