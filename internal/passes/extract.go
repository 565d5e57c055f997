package passes

import (
	"fmt"

	"github.com/gnoverse/canopy/internal/scope"
	"github.com/gnoverse/canopy/internal/syntax"
)

// Extractor hoists functions defined inside other functions, and
// inline lambdas, to top-level declarations, rewriting every call site
// to the new name. Free variables resolved to an enclosing function
// scope become explicit trailing parameters threaded through the call
// sites, and every hoisted declaration's parameters are renumbered
// into positional arg_N form so the renamer reproduces the same text
// on a second run. Extraction is rejected with a fatal diagnostic when
// a free variable is mutated by the inner function and read afterward
// by the encloser: by-value parameter passing cannot preserve that
// aliasing.
type Extractor struct{}

// NewExtractor returns the function extraction pass.
func NewExtractor() Pass { return &Extractor{} }

func (*Extractor) Name() string { return "extract-functions" }

func (*Extractor) Description() string {
	return "hoist nested functions and lambdas to top level, threading free variables as parameters"
}

func (p *Extractor) Apply(ctx *Context, mod *syntax.Module) error {
	e := &extractor{ctx: ctx, topNames: make(map[string]bool)}
	arena := scope.NewArena()
	moduleFrame := scope.BuildModule(arena, mod)
	for _, name := range arena.Declared(moduleFrame) {
		e.topNames[name] = true
	}

	var newBody []syntax.Stmt
	for _, stmt := range mod.Body {
		var hoisted []syntax.Stmt
		switch s := stmt.(type) {
		case *syntax.FunctionDecl:
			e.function(s, nil, &hoisted)
		case *syntax.ClassDecl:
			for _, member := range s.Body {
				if method, ok := member.(*syntax.FunctionDecl); ok {
					e.function(method, nil, &hoisted)
				}
			}
		}
		// call-site rewrites are complete by now, so the renumbering
		// sees the threaded arguments in their final positions
		for _, decl := range hoisted {
			if fd, ok := decl.(*syntax.FunctionDecl); ok {
				canonicalizeParams(fd)
			}
		}
		newBody = append(newBody, hoisted...)
		newBody = append(newBody, stmt)
	}
	mod.Body = newBody
	return nil
}

// canonicalizeParams renumbers a hoisted declaration's parameters into
// positional arg_N form and rewrites the body references. The map is
// applied simultaneously: an original parameter and a threaded free
// variable may trade names.
func canonicalizeParams(decl *syntax.FunctionDecl) {
	renames := make(map[string]string, len(decl.Params))
	for i, name := range decl.Params {
		canonical := fmt.Sprintf("arg_%d", i)
		if name != canonical {
			renames[name] = canonical
		}
		decl.Params[i] = canonical
	}
	if len(renames) > 0 {
		renameBody(decl.Body, renames)
	}
}

type extractor struct {
	ctx      *Context
	topNames map[string]bool
}

// callRewrite renames one extracted function's call sites and appends
// the threaded free variables to each call's arguments.
type callRewrite struct {
	oldName  string
	newName  string
	free     []string
	valueToo bool // safe to rewrite bare references, not only callees
}

// function processes one enclosing function: its nested declarations
// are extracted innermost first, then inline lambdas, and finally every
// recorded call-site rewrite is applied across the body and the
// declarations hoisted out of it. enclosingBound carries the bound
// names of all enclosing function scopes.
func (e *extractor) function(fn *syntax.FunctionDecl, enclosingBound map[string]bool, out *[]syntax.Stmt) {
	bound := boundSet(fn)
	combined := make(map[string]bool, len(enclosingBound)+len(bound))
	for name := range enclosingBound {
		combined[name] = true
	}
	for name := range bound {
		combined[name] = true
	}

	var hoisted []syntax.Stmt
	var rewrites []callRewrite
	fn.Body = e.block(fn, combined, fn.Body, &hoisted, &rewrites)
	e.hoistLambdaExprs(fn.Body, combined, &hoisted)

	for _, rw := range rewrites {
		rewriteCallsBody(fn.Body, rw)
		for _, decl := range hoisted {
			if inner, ok := decl.(*syntax.FunctionDecl); ok {
				rewriteCallsBody(inner.Body, rw)
			}
		}
	}
	*out = append(*out, hoisted...)
}

// block walks one statement list of the encloser, extracting nested
// declarations and lambda assignments.
func (e *extractor) block(fn *syntax.FunctionDecl, combined map[string]bool, body []syntax.Stmt, out *[]syntax.Stmt, rewrites *[]callRewrite) []syntax.Stmt {
	newBody := make([]syntax.Stmt, 0, len(body))
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *syntax.FunctionDecl:
			e.function(s, combined, out)
			if e.tryHoist(fn, s, combined, out, rewrites) {
				continue
			}
		case *syntax.Assign:
			if inner, target, ok := lambdaAssign(s); ok && assignCount(fn.Body, target) == 1 {
				synth := &syntax.FunctionDecl{
					Name:   target,
					Params: append([]string(nil), inner.Params...),
					Body:   []syntax.Stmt{&syntax.Return{Value: inner.Body}},
				}
				if e.tryHoist(fn, synth, combined, out, rewrites) {
					continue
				}
			}
		case *syntax.If:
			s.Then = e.block(fn, combined, s.Then, out, rewrites)
			for i := range s.Elifs {
				s.Elifs[i].Body = e.block(fn, combined, s.Elifs[i].Body, out, rewrites)
			}
			s.Else = e.block(fn, combined, s.Else, out, rewrites)
		case *syntax.While:
			s.Body = e.block(fn, combined, s.Body, out, rewrites)
		case *syntax.ForEach:
			s.Body = e.block(fn, combined, s.Body, out, rewrites)
		}
		newBody = append(newBody, stmt)
	}
	return newBody
}

// tryHoist attempts to extract inner out of fn. It reports true when
// the declaration was hoisted and should be dropped from the block.
func (e *extractor) tryHoist(fn *syntax.FunctionDecl, inner *syntax.FunctionDecl, combined map[string]bool, out *[]syntax.Stmt, rewrites *[]callRewrite) bool {
	innerBound := boundSet(inner)
	for name := range innerBound {
		// a write to an enclosing binding is a capture, not a fresh
		// local, so the name still counts as free below
		if combined[name] && !isParam(inner, name) {
			delete(innerBound, name)
		}
	}
	reads := orderedReads(inner.Body)
	writes := writesOf(inner)

	var free []string
	for _, name := range reads {
		if innerBound[name] || !combined[name] {
			continue
		}
		free = append(free, name)
	}

	// a captured variable the inner function assigns cannot keep its
	// aliasing through by-value parameters when the encloser still
	// reads it afterward
	if len(writes) > 0 {
		after := readsAfter(fn.Body, inner)
		for name := range writes {
			if !combined[name] || isParam(inner, name) {
				continue
			}
			if after[name] {
				e.ctx.Fatalf(inner, "cannot extract %s: captured variable %s is mutated and later read by %s",
					inner.Name, name, fn.Name)
				return false
			}
		}
	}

	if len(free) > 0 && valueRefCount(fn.Body, inner) > 0 {
		e.ctx.Warnf(inner, "%s escapes as a value and captures enclosing names; left in place", inner.Name)
		return false
	}

	newName := inner.Name
	if e.topNames[newName] {
		newName = e.ctx.Names.Temp()
	}
	e.topNames[newName] = true

	decl := &syntax.FunctionDecl{
		Name:   newName,
		Params: append(append([]string(nil), inner.Params...), free...),
		Body:   inner.Body,
	}
	*out = append(*out, decl)
	*rewrites = append(*rewrites, callRewrite{
		oldName:  inner.Name,
		newName:  newName,
		free:     free,
		valueToo: len(free) == 0,
	})
	// the declaration now lives at top level; later siblings reference
	// it directly rather than treating it as an enclosing binding
	delete(combined, inner.Name)
	return true
}

// hoistLambdaExprs extracts lambdas appearing in arbitrary expression
// positions. Only closed lambdas (no captured enclosing names) can
// move: a call through the replacing reference cannot thread extra
// arguments.
func (e *extractor) hoistLambdaExprs(body []syntax.Stmt, combined map[string]bool, out *[]syntax.Stmt) {
	rewrite := func(expr syntax.Expr) syntax.Expr {
		return e.rewriteLambda(expr, combined, out)
	}
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *syntax.Assign:
			s.Value = rewrite(s.Value)
		case *syntax.AugAssign:
			s.Value = rewrite(s.Value)
		case *syntax.ExprStmt:
			s.X = rewrite(s.X)
		case *syntax.Return:
			if s.Value != nil {
				s.Value = rewrite(s.Value)
			}
		case *syntax.Raise:
			if s.Value != nil {
				s.Value = rewrite(s.Value)
			}
		case *syntax.If:
			s.Cond = rewrite(s.Cond)
			e.hoistLambdaExprs(s.Then, combined, out)
			for i := range s.Elifs {
				s.Elifs[i].Cond = rewrite(s.Elifs[i].Cond)
				e.hoistLambdaExprs(s.Elifs[i].Body, combined, out)
			}
			e.hoistLambdaExprs(s.Else, combined, out)
		case *syntax.While:
			s.Cond = rewrite(s.Cond)
			e.hoistLambdaExprs(s.Body, combined, out)
		case *syntax.ForEach:
			s.Iter = rewrite(s.Iter)
			e.hoistLambdaExprs(s.Body, combined, out)
		}
	}
}

func (e *extractor) rewriteLambda(expr syntax.Expr, combined map[string]bool, out *[]syntax.Stmt) syntax.Expr {
	switch x := expr.(type) {
	case *syntax.Lambda:
		params := make(map[string]bool, len(x.Params))
		for _, p := range x.Params {
			params[p] = true
		}
		for _, name := range orderedReads([]syntax.Stmt{&syntax.ExprStmt{X: x.Body}}) {
			if !params[name] && combined[name] {
				e.ctx.Warnf(x, "lambda captures enclosing names; left in place")
				return x
			}
		}
		name := e.ctx.Names.Temp()
		e.topNames[name] = true
		*out = append(*out, &syntax.FunctionDecl{
			Name:   name,
			Params: append([]string(nil), x.Params...),
			Body:   []syntax.Stmt{&syntax.Return{Value: x.Body}},
		})
		return syntax.NewIdent(name)
	case *syntax.BinaryExpr:
		x.X = e.rewriteLambda(x.X, combined, out)
		x.Y = e.rewriteLambda(x.Y, combined, out)
	case *syntax.UnaryExpr:
		x.X = e.rewriteLambda(x.X, combined, out)
	case *syntax.BoolExpr:
		x.X = e.rewriteLambda(x.X, combined, out)
		x.Y = e.rewriteLambda(x.Y, combined, out)
	case *syntax.CompareExpr:
		x.X = e.rewriteLambda(x.X, combined, out)
		x.Y = e.rewriteLambda(x.Y, combined, out)
	case *syntax.Call:
		x.Fun = e.rewriteLambda(x.Fun, combined, out)
		for i := range x.Args {
			x.Args[i] = e.rewriteLambda(x.Args[i], combined, out)
		}
	case *syntax.Attribute:
		x.X = e.rewriteLambda(x.X, combined, out)
	case *syntax.Subscript:
		x.X = e.rewriteLambda(x.X, combined, out)
		x.Index = e.rewriteLambda(x.Index, combined, out)
	case *syntax.ListExpr:
		for i := range x.Elts {
			x.Elts[i] = e.rewriteLambda(x.Elts[i], combined, out)
		}
	case *syntax.TupleExpr:
		for i := range x.Elts {
			x.Elts[i] = e.rewriteLambda(x.Elts[i], combined, out)
		}
	}
	return expr
}

// ----------------------------------------------------------------------------
// analysis helpers

func boundSet(fn *syntax.FunctionDecl) map[string]bool {
	arena := scope.NewArena()
	frame := scope.BuildFunction(arena, scope.NoParent, fn)
	bound := make(map[string]bool)
	for _, name := range arena.Declared(frame) {
		bound[name] = true
	}
	return bound
}

func isParam(fn *syntax.FunctionDecl, name string) bool {
	for _, p := range fn.Params {
		if p == name {
			return true
		}
	}
	return false
}

// orderedReads lists identifiers read in the statements, first use
// first. Store targets do not count as reads, but the base of a
// subscript or attribute store does; an augmented assignment reads its
// target. Lambda parameters and comprehension variables shadow within
// their own bodies.
func orderedReads(body []syntax.Stmt) []string {
	var order []string
	seen := make(map[string]bool)
	add := func(name string, shadowed map[string]bool) {
		if shadowed[name] || seen[name] {
			return
		}
		seen[name] = true
		order = append(order, name)
	}

	var readExpr func(e syntax.Expr, shadowed map[string]bool)
	readExpr = func(e syntax.Expr, shadowed map[string]bool) {
		switch x := e.(type) {
		case *syntax.Ident:
			add(x.Name, shadowed)
		case *syntax.BinaryExpr:
			readExpr(x.X, shadowed)
			readExpr(x.Y, shadowed)
		case *syntax.UnaryExpr:
			readExpr(x.X, shadowed)
		case *syntax.BoolExpr:
			readExpr(x.X, shadowed)
			readExpr(x.Y, shadowed)
		case *syntax.CompareExpr:
			readExpr(x.X, shadowed)
			readExpr(x.Y, shadowed)
		case *syntax.Call:
			readExpr(x.Fun, shadowed)
			for _, arg := range x.Args {
				readExpr(arg, shadowed)
			}
		case *syntax.Attribute:
			readExpr(x.X, shadowed)
		case *syntax.Subscript:
			readExpr(x.X, shadowed)
			readExpr(x.Index, shadowed)
		case *syntax.ListExpr:
			for _, elt := range x.Elts {
				readExpr(elt, shadowed)
			}
		case *syntax.TupleExpr:
			for _, elt := range x.Elts {
				readExpr(elt, shadowed)
			}
		case *syntax.Lambda:
			inner := unionShadow(shadowed, x.Params)
			readExpr(x.Body, inner)
		case *syntax.ListComp:
			readExpr(x.Iter, shadowed)
			inner := unionShadow(shadowed, []string{x.Var})
			readExpr(x.Elt, inner)
			if x.Cond != nil {
				readExpr(x.Cond, inner)
			}
		}
	}

	var readStmts func(stmts []syntax.Stmt, shadowed map[string]bool)
	readStmts = func(stmts []syntax.Stmt, shadowed map[string]bool) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *syntax.Assign:
				readExpr(s.Value, shadowed)
				switch t := s.Target.(type) {
				case *syntax.Attribute:
					readExpr(t.X, shadowed)
				case *syntax.Subscript:
					readExpr(t.X, shadowed)
					readExpr(t.Index, shadowed)
				}
			case *syntax.AugAssign:
				readExpr(s.Target, shadowed)
				readExpr(s.Value, shadowed)
			case *syntax.ExprStmt:
				readExpr(s.X, shadowed)
			case *syntax.Return:
				if s.Value != nil {
					readExpr(s.Value, shadowed)
				}
			case *syntax.Raise:
				if s.Value != nil {
					readExpr(s.Value, shadowed)
				}
			case *syntax.If:
				readExpr(s.Cond, shadowed)
				readStmts(s.Then, shadowed)
				for i := range s.Elifs {
					readExpr(s.Elifs[i].Cond, shadowed)
					readStmts(s.Elifs[i].Body, shadowed)
				}
				readStmts(s.Else, shadowed)
			case *syntax.While:
				readExpr(s.Cond, shadowed)
				readStmts(s.Body, shadowed)
			case *syntax.ForEach:
				readExpr(s.Iter, shadowed)
				readStmts(s.Body, shadowed)
			case *syntax.FunctionDecl:
				inner := unionShadow(shadowed, s.Params)
				readStmts(s.Body, inner)
			case *syntax.ClassDecl:
				readStmts(s.Body, shadowed)
			}
		}
	}
	readStmts(body, make(map[string]bool))
	return order
}

func unionShadow(shadowed map[string]bool, names []string) map[string]bool {
	inner := make(map[string]bool, len(shadowed)+len(names))
	for name := range shadowed {
		inner[name] = true
	}
	for _, name := range names {
		inner[name] = true
	}
	return inner
}

// writesOf lists names the function assigns, excluding attribute and
// subscript stores (those mutate objects, not bindings).
func writesOf(fn *syntax.FunctionDecl) map[string]bool {
	writes := make(map[string]bool)
	syntax.Inspect(fn, func(n syntax.Node) bool {
		switch x := n.(type) {
		case *syntax.Assign:
			if target, ok := x.Target.(*syntax.Ident); ok {
				writes[target.Name] = true
			}
		case *syntax.AugAssign:
			if target, ok := x.Target.(*syntax.Ident); ok {
				writes[target.Name] = true
			}
		case *syntax.ForEach:
			writes[x.Target] = true
		}
		return true
	})
	return writes
}

// readsAfter collects names the encloser reads textually after the
// marker declaration, the marker's own subtree excluded.
func readsAfter(body []syntax.Stmt, marker syntax.Stmt) map[string]bool {
	after := false
	reads := make(map[string]bool)
	var walk func(stmts []syntax.Stmt)
	walk = func(stmts []syntax.Stmt) {
		for _, stmt := range stmts {
			if stmt == marker {
				after = true
				continue
			}
			if after {
				for _, name := range orderedReads([]syntax.Stmt{stmt}) {
					reads[name] = true
				}
				continue
			}
			switch s := stmt.(type) {
			case *syntax.If:
				walk(s.Then)
				for i := range s.Elifs {
					walk(s.Elifs[i].Body)
				}
				walk(s.Else)
			case *syntax.While:
				walk(s.Body)
			case *syntax.ForEach:
				walk(s.Body)
			case *syntax.FunctionDecl:
				walk(s.Body)
			}
		}
	}
	walk(body)
	return reads
}

// valueRefCount counts references to the declaration's name that are
// not direct callees, skipping the declaration's own subtree.
func valueRefCount(body []syntax.Stmt, decl *syntax.FunctionDecl) int {
	count := 0
	var countExpr func(e syntax.Expr)
	countExpr = func(e syntax.Expr) {
		switch x := e.(type) {
		case *syntax.Ident:
			if x.Name == decl.Name {
				count++
			}
		case *syntax.Call:
			// a direct callee reference is not a value use
			if fun, ok := x.Fun.(*syntax.Ident); !ok || fun.Name != decl.Name {
				countExpr(x.Fun)
			}
			for _, arg := range x.Args {
				countExpr(arg)
			}
		case *syntax.BinaryExpr:
			countExpr(x.X)
			countExpr(x.Y)
		case *syntax.UnaryExpr:
			countExpr(x.X)
		case *syntax.BoolExpr:
			countExpr(x.X)
			countExpr(x.Y)
		case *syntax.CompareExpr:
			countExpr(x.X)
			countExpr(x.Y)
		case *syntax.Attribute:
			countExpr(x.X)
		case *syntax.Subscript:
			countExpr(x.X)
			countExpr(x.Index)
		case *syntax.ListExpr:
			for _, elt := range x.Elts {
				countExpr(elt)
			}
		case *syntax.TupleExpr:
			for _, elt := range x.Elts {
				countExpr(elt)
			}
		case *syntax.Lambda:
			countExpr(x.Body)
		case *syntax.ListComp:
			countExpr(x.Elt)
			countExpr(x.Iter)
			if x.Cond != nil {
				countExpr(x.Cond)
			}
		}
	}
	var walk func(stmts []syntax.Stmt)
	walk = func(stmts []syntax.Stmt) {
		for _, stmt := range stmts {
			if stmt == syntax.Stmt(decl) {
				continue
			}
			switch s := stmt.(type) {
			case *syntax.Assign:
				countExpr(s.Target)
				countExpr(s.Value)
			case *syntax.AugAssign:
				countExpr(s.Target)
				countExpr(s.Value)
			case *syntax.ExprStmt:
				countExpr(s.X)
			case *syntax.Return:
				if s.Value != nil {
					countExpr(s.Value)
				}
			case *syntax.Raise:
				if s.Value != nil {
					countExpr(s.Value)
				}
			case *syntax.If:
				countExpr(s.Cond)
				walk(s.Then)
				for i := range s.Elifs {
					countExpr(s.Elifs[i].Cond)
					walk(s.Elifs[i].Body)
				}
				walk(s.Else)
			case *syntax.While:
				countExpr(s.Cond)
				walk(s.Body)
			case *syntax.ForEach:
				countExpr(s.Iter)
				walk(s.Body)
			case *syntax.FunctionDecl:
				walk(s.Body)
			}
		}
	}
	walk(body)
	return count
}

func lambdaAssign(s *syntax.Assign) (*syntax.Lambda, string, bool) {
	target, ok := s.Target.(*syntax.Ident)
	if !ok {
		return nil, "", false
	}
	inner, ok := s.Value.(*syntax.Lambda)
	if !ok {
		return nil, "", false
	}
	return inner, target.Name, true
}

func assignCount(body []syntax.Stmt, name string) int {
	count := 0
	for _, stmt := range body {
		syntax.Inspect(stmt, func(n syntax.Node) bool {
			switch x := n.(type) {
			case *syntax.Assign:
				if target, ok := x.Target.(*syntax.Ident); ok && target.Name == name {
					count++
				}
			case *syntax.AugAssign:
				if target, ok := x.Target.(*syntax.Ident); ok && target.Name == name {
					count++
				}
			case *syntax.ForEach:
				if x.Target == name {
					count++
				}
			}
			return true
		})
	}
	return count
}

// rewriteCallsBody applies one call rewrite across a statement list.
func rewriteCallsBody(body []syntax.Stmt, rw callRewrite) {
	for _, stmt := range body {
		syntax.Inspect(stmt, func(n syntax.Node) bool {
			switch x := n.(type) {
			case *syntax.Call:
				if fun, ok := x.Fun.(*syntax.Ident); ok && fun.Name == rw.oldName {
					fun.Name = rw.newName
					for _, free := range rw.free {
						x.Args = append(x.Args, syntax.NewIdent(free))
					}
					return true
				}
			case *syntax.Ident:
				if rw.valueToo && x.Name == rw.oldName {
					x.Name = rw.newName
				}
			}
			return true
		})
	}
}
