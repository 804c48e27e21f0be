package depprop

import (
	"context"
	"sync"

	"github.com/dplint/dplint/internal/compiler/ast"
	"github.com/dplint/dplint/internal/compiler/semantic"
)

// walker carries the state of one resolution: the model, the cancellation signal
// and scratch space reused between invocations. A walker is used by one goroutine
// between acquire and release.
type walker struct {
	ctx       context.Context
	model     Model
	cancelled bool

	stack   []ast.Node
	members []semantic.Symbol
}

var walkers = sync.Pool{
	New: func() any { return &walker{} },
}

func acquire(ctx context.Context, model Model) *walker {
	w := walkers.Get().(*walker)
	w.ctx = ctx
	w.model = model
	return w
}

func release(w *walker) {
	w.ctx = nil
	w.model = nil
	w.cancelled = false
	clear(w.stack)
	w.stack = w.stack[:0]
	clear(w.members)
	w.members = w.members[:0]
	walkers.Put(w)
}

// live reports whether the walk may continue. Once the context is done every
// later call returns false.
func (w *walker) live() bool {
	if w.cancelled {
		return false
	}
	if w.ctx.Err() != nil {
		w.cancelled = true
		return false
	}
	return true
}

// inspect visits n and its descendants depth first, checking for cancellation
// before descending into each node. f may call inspect again.
func (w *walker) inspect(n ast.Node, f func(ast.Node) bool) {
	if n == nil {
		return
	}
	base := len(w.stack)
	defer func() { w.stack = w.stack[:base] }()

	w.stack = append(w.stack, n)
	for len(w.stack) > base {
		if !w.live() {
			return
		}
		cur := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		if !f(cur) {
			continue
		}
		kids := ast.Children(cur)
		for i := len(kids) - 1; i >= 0; i-- {
			w.stack = append(w.stack, kids[i])
		}
	}
}

// calls counts the invocations and object creations under body. Nested lambdas
// are not entered.
func (w *walker) calls(body ast.Node) int {
	n := 0
	w.inspect(body, func(x ast.Node) bool {
		switch x.(type) {
		case *ast.Lambda:
			return false
		case *ast.Invocation, *ast.ObjectCreation:
			n++
		}
		return true
	})
	return n
}

// sourceMembers lists the members of t declared in source, in declaration order.
// The returned slice is scratch space valid until the next call.
func (w *walker) sourceMembers(t *semantic.NamedType) []semantic.Symbol {
	w.members = w.members[:0]
	if t == nil {
		return w.members
	}
	for _, m := range t.Members() {
		switch m := m.(type) {
		case *semantic.FieldSymbol:
			if m.Decl != nil {
				w.members = append(w.members, m)
			}
		case *semantic.PropertySymbol:
			if m.Decl != nil {
				w.members = append(w.members, m)
			}
		case *semantic.MethodSymbol:
			if m.Decl != nil || m.CtorDecl != nil {
				w.members = append(w.members, m)
			}
		}
	}
	return w.members
}
