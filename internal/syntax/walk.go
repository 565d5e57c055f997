package syntax

// Inspect traverses the tree rooted at n in pre-order, calling f for
// each node. If f returns false the node's children are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch x := n.(type) {
	case *Module:
		inspectBody(x.Body, f)
	case *FunctionDecl:
		inspectBody(x.Body, f)
	case *ClassDecl:
		inspectBody(x.Body, f)
	case *If:
		Inspect(x.Cond, f)
		inspectBody(x.Then, f)
		for i := range x.Elifs {
			Inspect(x.Elifs[i].Cond, f)
			inspectBody(x.Elifs[i].Body, f)
		}
		inspectBody(x.Else, f)
	case *While:
		Inspect(x.Cond, f)
		inspectBody(x.Body, f)
	case *ForEach:
		Inspect(x.Iter, f)
		inspectBody(x.Body, f)
	case *Assign:
		Inspect(x.Target, f)
		Inspect(x.Value, f)
	case *AugAssign:
		Inspect(x.Target, f)
		Inspect(x.Value, f)
	case *ExprStmt:
		Inspect(x.X, f)
	case *Return:
		if x.Value != nil {
			Inspect(x.Value, f)
		}
	case *Raise:
		if x.Value != nil {
			Inspect(x.Value, f)
		}
	case *Break, *Continue, *Pass, *Ident, *Literal:
	case *BinaryExpr:
		Inspect(x.X, f)
		Inspect(x.Y, f)
	case *UnaryExpr:
		Inspect(x.X, f)
	case *BoolExpr:
		Inspect(x.X, f)
		Inspect(x.Y, f)
	case *CompareExpr:
		Inspect(x.X, f)
		Inspect(x.Y, f)
	case *Call:
		Inspect(x.Fun, f)
		for _, arg := range x.Args {
			Inspect(arg, f)
		}
	case *Attribute:
		Inspect(x.X, f)
	case *Subscript:
		Inspect(x.X, f)
		Inspect(x.Index, f)
	case *ListExpr:
		for _, elt := range x.Elts {
			Inspect(elt, f)
		}
	case *TupleExpr:
		for _, elt := range x.Elts {
			Inspect(elt, f)
		}
	case *Lambda:
		Inspect(x.Body, f)
	case *ListComp:
		Inspect(x.Elt, f)
		Inspect(x.Iter, f)
		if x.Cond != nil {
			Inspect(x.Cond, f)
		}
	}
}

func inspectBody(body []Stmt, f func(Node) bool) {
	for _, stmt := range body {
		Inspect(stmt, f)
	}
}

// RewriteBlocks applies f to every statement list in the tree,
// innermost first, replacing each list with f's result. Passes that
// splice or hoist statements are built on it.
func RewriteBlocks(mod *Module, f func([]Stmt) []Stmt) {
	mod.Body = rewriteBlock(mod.Body, f)
}

func rewriteBlock(body []Stmt, f func([]Stmt) []Stmt) []Stmt {
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *FunctionDecl:
			s.Body = rewriteBlock(s.Body, f)
		case *ClassDecl:
			s.Body = rewriteBlock(s.Body, f)
		case *If:
			s.Then = rewriteBlock(s.Then, f)
			for i := range s.Elifs {
				s.Elifs[i].Body = rewriteBlock(s.Elifs[i].Body, f)
			}
			s.Else = rewriteBlock(s.Else, f)
		case *While:
			s.Body = rewriteBlock(s.Body, f)
		case *ForEach:
			s.Body = rewriteBlock(s.Body, f)
		}
	}
	return f(body)
}

// Clone returns a deep copy of the tree rooted at mod. The engine
// snapshots a unit before each pass so a failing rewrite cannot leak
// partial mutations.
func Clone(mod *Module) *Module {
	out := &Module{node: mod.node, Body: cloneBody(mod.Body)}
	return out
}

func cloneBody(body []Stmt) []Stmt {
	if body == nil {
		return nil
	}
	out := make([]Stmt, len(body))
	for i, stmt := range body {
		out[i] = CloneStmt(stmt)
	}
	return out
}

// CloneStmt deep-copies a single statement.
func CloneStmt(stmt Stmt) Stmt {
	switch s := stmt.(type) {
	case *FunctionDecl:
		return &FunctionDecl{node: s.node, Name: s.Name, Params: append([]string(nil), s.Params...), Body: cloneBody(s.Body)}
	case *ClassDecl:
		return &ClassDecl{node: s.node, Name: s.Name, Body: cloneBody(s.Body)}
	case *If:
		out := &If{node: s.node, Cond: CloneExpr(s.Cond), Then: cloneBody(s.Then), Else: cloneBody(s.Else)}
		for _, clause := range s.Elifs {
			out.Elifs = append(out.Elifs, ElifClause{node: clause.node, Cond: CloneExpr(clause.Cond), Body: cloneBody(clause.Body)})
		}
		return out
	case *While:
		return &While{node: s.node, Cond: CloneExpr(s.Cond), Body: cloneBody(s.Body)}
	case *ForEach:
		return &ForEach{node: s.node, Target: s.Target, Iter: CloneExpr(s.Iter), Body: cloneBody(s.Body)}
	case *Assign:
		return &Assign{node: s.node, Target: CloneExpr(s.Target), Value: CloneExpr(s.Value)}
	case *AugAssign:
		return &AugAssign{node: s.node, Target: CloneExpr(s.Target), Op: s.Op, Value: CloneExpr(s.Value)}
	case *ExprStmt:
		return &ExprStmt{node: s.node, X: CloneExpr(s.X)}
	case *Return:
		return &Return{node: s.node, Value: cloneOptExpr(s.Value)}
	case *Raise:
		return &Raise{node: s.node, Value: cloneOptExpr(s.Value)}
	case *Break:
		return &Break{node: s.node}
	case *Continue:
		return &Continue{node: s.node}
	case *Pass:
		return &Pass{node: s.node}
	case *Module:
		return Clone(s)
	default:
		panic("clone: unknown statement")
	}
}

func cloneOptExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	return CloneExpr(e)
}

// CloneExpr deep-copies a single expression.
func CloneExpr(e Expr) Expr {
	switch x := e.(type) {
	case *Ident:
		return &Ident{node: x.node, Name: x.Name}
	case *Literal:
		return &Literal{node: x.node, Kind: x.Kind, Value: x.Value}
	case *BinaryExpr:
		return &BinaryExpr{node: x.node, Op: x.Op, X: CloneExpr(x.X), Y: CloneExpr(x.Y)}
	case *UnaryExpr:
		return &UnaryExpr{node: x.node, Op: x.Op, X: CloneExpr(x.X)}
	case *BoolExpr:
		return &BoolExpr{node: x.node, Op: x.Op, X: CloneExpr(x.X), Y: CloneExpr(x.Y)}
	case *CompareExpr:
		return &CompareExpr{node: x.node, Op: x.Op, X: CloneExpr(x.X), Y: CloneExpr(x.Y)}
	case *Call:
		out := &Call{node: x.node, Fun: CloneExpr(x.Fun)}
		for _, arg := range x.Args {
			out.Args = append(out.Args, CloneExpr(arg))
		}
		return out
	case *Attribute:
		return &Attribute{node: x.node, X: CloneExpr(x.X), Name: x.Name}
	case *Subscript:
		return &Subscript{node: x.node, X: CloneExpr(x.X), Index: CloneExpr(x.Index)}
	case *ListExpr:
		out := &ListExpr{node: x.node}
		for _, elt := range x.Elts {
			out.Elts = append(out.Elts, CloneExpr(elt))
		}
		return out
	case *TupleExpr:
		out := &TupleExpr{node: x.node}
		for _, elt := range x.Elts {
			out.Elts = append(out.Elts, CloneExpr(elt))
		}
		return out
	case *Lambda:
		return &Lambda{node: x.node, Params: append([]string(nil), x.Params...), Body: CloneExpr(x.Body)}
	case *ListComp:
		return &ListComp{node: x.node, Elt: CloneExpr(x.Elt), Var: x.Var, Iter: CloneExpr(x.Iter), Cond: cloneOptExpr(x.Cond)}
	default:
		panic("clone: unknown expression")
	}
}

// Equal reports whether two trees are structurally equal, ignoring
// source positions.
func Equal(a, b *Module) bool {
	return equalBody(a.Body, b.Body)
}

func equalBody(a, b []Stmt) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !EqualStmt(a[i], b[i]) {
			return false
		}
	}
	return true
}

// EqualStmt reports structural equality of two statements.
func EqualStmt(a, b Stmt) bool {
	switch x := a.(type) {
	case *FunctionDecl:
		y, ok := b.(*FunctionDecl)
		return ok && x.Name == y.Name && equalStrings(x.Params, y.Params) && equalBody(x.Body, y.Body)
	case *ClassDecl:
		y, ok := b.(*ClassDecl)
		return ok && x.Name == y.Name && equalBody(x.Body, y.Body)
	case *If:
		y, ok := b.(*If)
		if !ok || !EqualExpr(x.Cond, y.Cond) || !equalBody(x.Then, y.Then) || !equalBody(x.Else, y.Else) {
			return false
		}
		if len(x.Elifs) != len(y.Elifs) {
			return false
		}
		for i := range x.Elifs {
			if !EqualExpr(x.Elifs[i].Cond, y.Elifs[i].Cond) || !equalBody(x.Elifs[i].Body, y.Elifs[i].Body) {
				return false
			}
		}
		return true
	case *While:
		y, ok := b.(*While)
		return ok && EqualExpr(x.Cond, y.Cond) && equalBody(x.Body, y.Body)
	case *ForEach:
		y, ok := b.(*ForEach)
		return ok && x.Target == y.Target && EqualExpr(x.Iter, y.Iter) && equalBody(x.Body, y.Body)
	case *Assign:
		y, ok := b.(*Assign)
		return ok && EqualExpr(x.Target, y.Target) && EqualExpr(x.Value, y.Value)
	case *AugAssign:
		y, ok := b.(*AugAssign)
		return ok && x.Op == y.Op && EqualExpr(x.Target, y.Target) && EqualExpr(x.Value, y.Value)
	case *ExprStmt:
		y, ok := b.(*ExprStmt)
		return ok && EqualExpr(x.X, y.X)
	case *Return:
		y, ok := b.(*Return)
		return ok && equalOptExpr(x.Value, y.Value)
	case *Raise:
		y, ok := b.(*Raise)
		return ok && equalOptExpr(x.Value, y.Value)
	case *Break:
		_, ok := b.(*Break)
		return ok
	case *Continue:
		_, ok := b.(*Continue)
		return ok
	case *Pass:
		_, ok := b.(*Pass)
		return ok
	case *Module:
		y, ok := b.(*Module)
		return ok && Equal(x, y)
	default:
		return false
	}
}

func equalOptExpr(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return EqualExpr(a, b)
}

// EqualExpr reports structural equality of two expressions.
func EqualExpr(a, b Expr) bool {
	switch x := a.(type) {
	case *Ident:
		y, ok := b.(*Ident)
		return ok && x.Name == y.Name
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Kind == y.Kind && x.Value == y.Value
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op && EqualExpr(x.X, y.X) && EqualExpr(x.Y, y.Y)
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Op == y.Op && EqualExpr(x.X, y.X)
	case *BoolExpr:
		y, ok := b.(*BoolExpr)
		return ok && x.Op == y.Op && EqualExpr(x.X, y.X) && EqualExpr(x.Y, y.Y)
	case *CompareExpr:
		y, ok := b.(*CompareExpr)
		return ok && x.Op == y.Op && EqualExpr(x.X, y.X) && EqualExpr(x.Y, y.Y)
	case *Call:
		y, ok := b.(*Call)
		if !ok || !EqualExpr(x.Fun, y.Fun) || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !EqualExpr(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Attribute:
		y, ok := b.(*Attribute)
		return ok && x.Name == y.Name && EqualExpr(x.X, y.X)
	case *Subscript:
		y, ok := b.(*Subscript)
		return ok && EqualExpr(x.X, y.X) && EqualExpr(x.Index, y.Index)
	case *ListExpr:
		y, ok := b.(*ListExpr)
		return ok && equalExprs(x.Elts, y.Elts)
	case *TupleExpr:
		y, ok := b.(*TupleExpr)
		return ok && equalExprs(x.Elts, y.Elts)
	case *Lambda:
		y, ok := b.(*Lambda)
		return ok && equalStrings(x.Params, y.Params) && EqualExpr(x.Body, y.Body)
	case *ListComp:
		y, ok := b.(*ListComp)
		return ok && x.Var == y.Var && EqualExpr(x.Elt, y.Elt) && EqualExpr(x.Iter, y.Iter) && equalOptExpr(x.Cond, y.Cond)
	default:
		return false
	}
}

func equalExprs(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !EqualExpr(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CollectNames gathers every identifier spelled anywhere in the tree:
// bindings, references, parameters, declaration names, loop targets,
// and attribute names. The temporary name generator seeds from it.
func CollectNames(mod *Module) map[string]struct{} {
	names := make(map[string]struct{})
	Inspect(mod, func(n Node) bool {
		switch x := n.(type) {
		case *Ident:
			names[x.Name] = struct{}{}
		case *FunctionDecl:
			names[x.Name] = struct{}{}
			for _, p := range x.Params {
				names[p] = struct{}{}
			}
		case *ClassDecl:
			names[x.Name] = struct{}{}
		case *ForEach:
			names[x.Target] = struct{}{}
		case *Attribute:
			names[x.Name] = struct{}{}
		case *Lambda:
			for _, p := range x.Params {
				names[p] = struct{}{}
			}
		case *ListComp:
			names[x.Var] = struct{}{}
		}
		return true
	})
	return names
}
