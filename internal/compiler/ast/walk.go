package ast

// Inspect traverses the tree rooted at n in depth-first order. It calls f(node)
// for each node; if f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || isNilNode(n) {
		return
	}
	if !f(n) {
		return
	}
	for _, child := range Children(n) {
		Inspect(child, f)
	}
}

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil && !isNilNode(c) {
			out = append(out, c)
		}
	}

	switch n := n.(type) {
	case *File:
		for _, t := range n.Types {
			add(t)
		}
	case *TypeDecl:
		for _, b := range n.Bases {
			addType(add, b)
		}
		for _, m := range n.Members {
			add(m)
		}
		for _, t := range n.Nested {
			add(t)
		}
	case *FieldDecl:
		addType(add, n.Type)
		add(n.Name)
		addExpr(add, n.Init)
	case *PropertyDecl:
		addType(add, n.Type)
		add(n.Name)
		if n.Getter != nil {
			add(n.Getter)
		}
		if n.Setter != nil {
			add(n.Setter)
		}
		addExpr(add, n.ExprBody)
		addExpr(add, n.Init)
	case *Accessor:
		if n.Body != nil {
			add(n.Body)
		}
		addExpr(add, n.ExprBody)
	case *MethodDecl:
		addType(add, n.ReturnType)
		add(n.Name)
		for _, p := range n.Params {
			add(p)
		}
		if n.Body != nil {
			add(n.Body)
		}
		addExpr(add, n.ExprBody)
	case *ConstructorDecl:
		for _, p := range n.Params {
			add(p)
		}
		if n.Body != nil {
			add(n.Body)
		}
		addExpr(add, n.ExprBody)
	case *Param:
		addType(add, n.Type)
		add(n.Name)
		addExpr(add, n.Default)
	case *MemberAccess:
		addExpr(add, n.X)
		add(n.Name)
	case *Argument:
		addExpr(add, n.Value)
	case *Invocation:
		addExpr(add, n.Fun)
		for _, a := range n.Args {
			add(a)
		}
	case *ObjectCreation:
		addType(add, n.Type)
		for _, a := range n.Args {
			add(a)
		}
		for _, e := range n.Initializer {
			addExpr(add, e)
		}
	case *Cast:
		addType(add, n.Type)
		addExpr(add, n.X)
	case *As:
		addExpr(add, n.X)
		addType(add, n.Type)
	case *IsPattern:
		addExpr(add, n.X)
		addType(add, n.Type)
		if n.Name != nil {
			add(n.Name)
		}
	case *TypeOf:
		addType(add, n.Type)
	case *Default:
		addType(add, n.Type)
	case *Paren:
		addExpr(add, n.X)
	case *Lambda:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *Unary:
		addExpr(add, n.X)
	case *Binary:
		addExpr(add, n.L)
		addExpr(add, n.R)
	case *Assign:
		addExpr(add, n.L)
		addExpr(add, n.R)
	case *Conditional:
		addExpr(add, n.Cond)
		addExpr(add, n.Then)
		addExpr(add, n.Else)
	case *Block:
		for _, s := range n.Stmts {
			add(s)
		}
	case *ExprStmt:
		addExpr(add, n.X)
	case *ReturnStmt:
		addExpr(add, n.X)
	case *LocalDecl:
		addType(add, n.Type)
		add(n.Name)
		addExpr(add, n.Init)
	case *IfStmt:
		addExpr(add, n.Cond)
		if n.Then != nil {
			add(n.Then)
		}
		if n.Else != nil {
			add(n.Else)
		}
	}
	return out
}

func addExpr(add func(Node), e Expr) {
	if e != nil {
		add(e)
	}
}

func addType(add func(Node), t *TypeRef) {
	if t != nil {
		add(t)
	}
}

// isNilNode catches typed nil pointers stored in interfaces.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Block:
		return v == nil
	case *Ident:
		return v == nil
	case *Accessor:
		return v == nil
	case *TypeDecl:
		return v == nil
	case *Param:
		return v == nil
	case *Argument:
		return v == nil
	case *TypeRef:
		return v == nil
	}
	return false
}
