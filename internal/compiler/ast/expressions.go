package ast

// Expr is implemented by all expression nodes
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by all statement nodes
type Stmt interface {
	Node
	stmtNode()
}

// Ident is an identifier, optionally with generic arguments (`GetValue<T>`)
type Ident struct {
	Name     string
	TypeArgs []*TypeRef
	Loc      Span
}

func (i *Ident) node()      {}
func (i *Ident) exprNode()  {}
func (i *Ident) Span() Span { return i.Loc }

// This is the `this` expression, or `base` when Base is set
type This struct {
	Base bool
	Loc  Span
}

func (t *This) node()      {}
func (t *This) exprNode()  {}
func (t *This) Span() Span { return t.Loc }

// MemberAccess is `X.Name`
type MemberAccess struct {
	X    Expr
	Name *Ident
	Loc  Span
}

func (m *MemberAccess) node()      {}
func (m *MemberAccess) exprNode()  {}
func (m *MemberAccess) Span() Span { return m.Loc }

// Argument is one argument of a call or object creation
type Argument struct {
	Name    string // named argument label, empty when positional
	RefKind string // ref, out, in
	Value   Expr
	Loc     Span
}

func (a *Argument) node()      {}
func (a *Argument) Span() Span { return a.Loc }

// Invocation is a call `Fun(args)`
type Invocation struct {
	Fun  Expr
	Args []*Argument
	Loc  Span
}

func (c *Invocation) node()      {}
func (c *Invocation) exprNode()  {}
func (c *Invocation) Span() Span { return c.Loc }

// MethodName returns the invoked member name for `M(...)` and `x.M(...)`.
func (c *Invocation) MethodName() string {
	switch fun := c.Fun.(type) {
	case *Ident:
		return fun.Name
	case *MemberAccess:
		return fun.Name.Name
	default:
		return ""
	}
}

// Receiver returns X for `X.M(...)`, nil for unqualified calls.
func (c *Invocation) Receiver() Expr {
	if ma, ok := c.Fun.(*MemberAccess); ok {
		return ma.X
	}
	return nil
}

// ObjectCreation is `new T(args)`; Type is nil for target-typed `new(args)`
type ObjectCreation struct {
	Type        *TypeRef
	Args        []*Argument
	Initializer []Expr
	Loc         Span
}

func (o *ObjectCreation) node()      {}
func (o *ObjectCreation) exprNode()  {}
func (o *ObjectCreation) Span() Span { return o.Loc }

// Cast is `(T)X`
type Cast struct {
	Type *TypeRef
	X    Expr
	Loc  Span
}

func (c *Cast) node()      {}
func (c *Cast) exprNode()  {}
func (c *Cast) Span() Span { return c.Loc }

// As is `X as T`
type As struct {
	X    Expr
	Type *TypeRef
	Loc  Span
}

func (a *As) node()      {}
func (a *As) exprNode()  {}
func (a *As) Span() Span { return a.Loc }

// IsPattern is `X is T` or `X is T name`
type IsPattern struct {
	X    Expr
	Type *TypeRef
	Name *Ident // designation, nil when absent
	Loc  Span
}

func (p *IsPattern) node()      {}
func (p *IsPattern) exprNode()  {}
func (p *IsPattern) Span() Span { return p.Loc }

// Paren is `(X)`
type Paren struct {
	X   Expr
	Loc Span
}

func (p *Paren) node()      {}
func (p *Paren) exprNode()  {}
func (p *Paren) Span() Span { return p.Loc }

// Lambda is `(params) => body`; Body is an Expr or a *Block
type Lambda struct {
	Params []*Param
	Body   Node
	Static bool
	Loc    Span
}

func (l *Lambda) node()      {}
func (l *Lambda) exprNode()  {}
func (l *Lambda) Span() Span { return l.Loc }

// LiteralKind classifies literals
type LiteralKind int

const (
	// LiteralInt is an integer literal, possibly suffixed
	LiteralInt LiteralKind = iota
	// LiteralReal is a real literal, possibly suffixed
	LiteralReal
	// LiteralString is a regular, verbatim or raw string literal
	LiteralString
	// LiteralChar is a character literal
	LiteralChar
	// LiteralBool is true or false
	LiteralBool
	// LiteralNull is null
	LiteralNull
)

// Literal is a literal constant; Value holds the source text
type Literal struct {
	Kind  LiteralKind
	Value string
	Loc   Span
}

func (l *Literal) node()      {}
func (l *Literal) exprNode()  {}
func (l *Literal) Span() Span { return l.Loc }

// TypeOf is `typeof(T)`
type TypeOf struct {
	Type *TypeRef
	Loc  Span
}

func (t *TypeOf) node()      {}
func (t *TypeOf) exprNode()  {}
func (t *TypeOf) Span() Span { return t.Loc }

// Default is `default(T)` or target-typed `default`
type Default struct {
	Type *TypeRef // nil for the default literal
	Loc  Span
}

func (d *Default) node()      {}
func (d *Default) exprNode()  {}
func (d *Default) Span() Span { return d.Loc }

// Unary is a prefix unary expression such as `-1` or `!x`
type Unary struct {
	Op  string
	X   Expr
	Loc Span
}

func (u *Unary) node()      {}
func (u *Unary) exprNode()  {}
func (u *Unary) Span() Span { return u.Loc }

// Binary is `L op R`
type Binary struct {
	Op  string
	L   Expr
	R   Expr
	Loc Span
}

func (b *Binary) node()      {}
func (b *Binary) exprNode()  {}
func (b *Binary) Span() Span { return b.Loc }

// Assign is `L = R` and compound assignments
type Assign struct {
	Op  string
	L   Expr
	R   Expr
	Loc Span
}

func (a *Assign) node()      {}
func (a *Assign) exprNode()  {}
func (a *Assign) Span() Span { return a.Loc }

// Conditional is `Cond ? Then : Else`
type Conditional struct {
	Cond Expr
	Then Expr
	Else Expr
	Loc  Span
}

func (c *Conditional) node()      {}
func (c *Conditional) exprNode()  {}
func (c *Conditional) Span() Span { return c.Loc }

// BadExpr stands for syntax the frontend does not model
type BadExpr struct {
	Kind string // concrete syntax node type
	Text string
	Loc  Span
}

func (b *BadExpr) node()      {}
func (b *BadExpr) exprNode()  {}
func (b *BadExpr) Span() Span { return b.Loc }

// Block is `{ stmts }`
type Block struct {
	Stmts []Stmt
	Loc   Span
}

func (b *Block) node()      {}
func (b *Block) stmtNode()  {}
func (b *Block) Span() Span { return b.Loc }

// ExprStmt is an expression used as a statement
type ExprStmt struct {
	X   Expr
	Loc Span
}

func (s *ExprStmt) node()      {}
func (s *ExprStmt) stmtNode()  {}
func (s *ExprStmt) Span() Span { return s.Loc }

// ReturnStmt is `return X;`
type ReturnStmt struct {
	X   Expr // nil for bare return
	Loc Span
}

func (s *ReturnStmt) node()      {}
func (s *ReturnStmt) stmtNode()  {}
func (s *ReturnStmt) Span() Span { return s.Loc }

// LocalDecl is one declarator of a local variable declaration
type LocalDecl struct {
	Type *TypeRef // Name "var" for implicit typing
	Name *Ident
	Init Expr
	Loc  Span
}

func (s *LocalDecl) node()      {}
func (s *LocalDecl) stmtNode()  {}
func (s *LocalDecl) Span() Span { return s.Loc }

// IfStmt is `if (Cond) Then else Else`
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil without else
	Loc  Span
}

func (s *IfStmt) node()      {}
func (s *IfStmt) stmtNode()  {}
func (s *IfStmt) Span() Span { return s.Loc }

// BadStmt stands for statements the frontend does not model
type BadStmt struct {
	Kind string
	Text string
	Loc  Span
}

func (s *BadStmt) node()      {}
func (s *BadStmt) stmtNode()  {}
func (s *BadStmt) Span() Span { return s.Loc }

// Unparen strips any number of enclosing parentheses.
func Unparen(e Expr) Expr {
	for {
		p, ok := e.(*Paren)
		if !ok {
			return e
		}
		e = p.X
	}
}
