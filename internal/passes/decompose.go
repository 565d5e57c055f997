package passes

import "github.com/gnoverse/canopy/internal/syntax"

// Decomposer rewrites compound expressions into sequences of
// single-operation statements, each assigning to a fresh temporary.
// Sub-expressions are extracted innermost first, left to right, so the
// emitted statements evaluate side effects in exactly the original
// order. The right operand of a short-circuiting and/or is re-wrapped
// in a conditional so it still executes only when the original
// semantics demanded it.
type Decomposer struct{}

// NewDecomposer returns the expression decomposition pass.
func NewDecomposer() Pass { return &Decomposer{} }

func (*Decomposer) Name() string { return "decompose-expressions" }

func (*Decomposer) Description() string {
	return "split nested operator and call expressions into single-operation statements assigning temporaries"
}

func (p *Decomposer) Apply(ctx *Context, mod *syntax.Module) error {
	d := &decomposer{ctx: ctx}
	syntax.RewriteBlocks(mod, d.block)
	return nil
}

type decomposer struct {
	ctx *Context
}

func (d *decomposer) block(body []syntax.Stmt) []syntax.Stmt {
	out := make([]syntax.Stmt, 0, len(body))
	for _, stmt := range body {
		var prelude []syntax.Stmt
		switch s := stmt.(type) {
		case *syntax.Assign:
			s.Value = d.root(s.Value, &prelude)
			// a subscript or attribute target's operands are extracted
			// too; the store itself stays in place
			d.targetOperands(s.Target, &prelude)
		case *syntax.AugAssign:
			s.Value = d.root(s.Value, &prelude)
			d.targetOperands(s.Target, &prelude)
		case *syntax.ExprStmt:
			s.X = d.root(s.X, &prelude)
		case *syntax.Return:
			if s.Value != nil {
				s.Value = d.root(s.Value, &prelude)
			}
		case *syntax.Raise:
			if s.Value != nil {
				s.Value = d.root(s.Value, &prelude)
			}
		case *syntax.If:
			s.Cond = d.root(s.Cond, &prelude)
			for i := range s.Elifs {
				// an elif condition only evaluates when every earlier
				// branch declined; hoisting would evaluate it eagerly
				if hasCompoundOperand(s.Elifs[i].Cond) {
					d.ctx.Warnf(s.Elifs[i].Cond, "compound elif condition left undecomposed")
				}
			}
		case *syntax.While:
			// the condition re-evaluates each iteration; a hoisted
			// temporary would freeze it
			if hasCompoundOperand(s.Cond) {
				d.ctx.Warnf(s.Cond, "compound while condition left undecomposed")
			}
		case *syntax.ForEach:
			s.Iter = d.root(s.Iter, &prelude)
		}
		out = append(out, prelude...)
		out = append(out, stmt)
	}
	return out
}

// root decomposes the operands of a statement's root expression and
// returns the root, which keeps its operation in place. A boolean
// expression whose right operand needs decomposition is the exception:
// it lowers to a temporary with a conditional re-wrap and the root
// becomes a reference to that temporary.
func (d *decomposer) root(e syntax.Expr, out *[]syntax.Stmt) syntax.Expr {
	switch x := e.(type) {
	case *syntax.BinaryExpr:
		x.X = d.extract(x.X, out)
		x.Y = d.extract(x.Y, out)
	case *syntax.UnaryExpr:
		x.X = d.extract(x.X, out)
	case *syntax.CompareExpr:
		x.X = d.extract(x.X, out)
		x.Y = d.extract(x.Y, out)
	case *syntax.BoolExpr:
		if isCompound(x.Y) || hasCompoundOperand(x.Y) {
			return d.lowerBool(x, out)
		}
		x.X = d.extract(x.X, out)
	case *syntax.Call:
		d.callOperands(x, out)
	case *syntax.Subscript:
		x.X = d.extract(x.X, out)
		x.Index = d.extract(x.Index, out)
	case *syntax.Attribute:
		x.X = d.extract(x.X, out)
	case *syntax.ListExpr:
		for i := range x.Elts {
			x.Elts[i] = d.extract(x.Elts[i], out)
		}
	case *syntax.TupleExpr:
		for i := range x.Elts {
			x.Elts[i] = d.extract(x.Elts[i], out)
		}
	}
	return e
}

// extract rewrites an operand position: the operand's own operands are
// decomposed first, then any operation node is hoisted into a fresh
// temporary and replaced by a reference to it. Terminal leaves pass
// through untouched.
func (d *decomposer) extract(e syntax.Expr, out *[]syntax.Stmt) syntax.Expr {
	switch x := e.(type) {
	case *syntax.Ident, *syntax.Literal:
		return e
	case *syntax.Lambda, *syntax.ListComp:
		// opaque: their bodies evaluate per call or per iteration
		return e
	case *syntax.Attribute:
		x.X = d.extract(x.X, out)
		return e
	case *syntax.ListExpr:
		for i := range x.Elts {
			x.Elts[i] = d.extract(x.Elts[i], out)
		}
		return e
	case *syntax.TupleExpr:
		for i := range x.Elts {
			x.Elts[i] = d.extract(x.Elts[i], out)
		}
		return e
	case *syntax.BoolExpr:
		if isCompound(x.Y) || hasCompoundOperand(x.Y) {
			return d.lowerBool(x, out)
		}
		x.X = d.extract(x.X, out)
		return d.hoist(e, out)
	case *syntax.BinaryExpr:
		x.X = d.extract(x.X, out)
		x.Y = d.extract(x.Y, out)
		return d.hoist(e, out)
	case *syntax.UnaryExpr:
		x.X = d.extract(x.X, out)
		return d.hoist(e, out)
	case *syntax.CompareExpr:
		x.X = d.extract(x.X, out)
		x.Y = d.extract(x.Y, out)
		return d.hoist(e, out)
	case *syntax.Call:
		d.callOperands(x, out)
		return d.hoist(e, out)
	case *syntax.Subscript:
		x.X = d.extract(x.X, out)
		x.Index = d.extract(x.Index, out)
		return d.hoist(e, out)
	default:
		return e
	}
}

func (d *decomposer) callOperands(call *syntax.Call, out *[]syntax.Stmt) {
	// the callee evaluates before the arguments
	call.Fun = d.extract(call.Fun, out)
	for i := range call.Args {
		call.Args[i] = d.extract(call.Args[i], out)
	}
}

// targetOperands extracts the operands of a subscript or attribute
// store target; the target operation itself is the store.
func (d *decomposer) targetOperands(target syntax.Expr, out *[]syntax.Stmt) {
	switch x := target.(type) {
	case *syntax.Subscript:
		x.X = d.extract(x.X, out)
		x.Index = d.extract(x.Index, out)
	case *syntax.Attribute:
		x.X = d.extract(x.X, out)
	}
}

func (d *decomposer) hoist(e syntax.Expr, out *[]syntax.Stmt) syntax.Expr {
	name := d.ctx.Names.Temp()
	*out = append(*out, &syntax.Assign{Target: syntax.NewIdent(name), Value: e})
	return syntax.NewIdent(name)
}

// lowerBool rewrites "lhs and rhs" / "lhs or rhs" whose right operand
// needs decomposition:
//
//	t = lhs
//	if t:       (if not t: for "or")
//	    ...rhs decomposition...
//	    t = rhs
//
// so the right operand's side effects run if and only if the original
// short-circuit evaluated it. The expression becomes a reference to t.
func (d *decomposer) lowerBool(x *syntax.BoolExpr, out *[]syntax.Stmt) syntax.Expr {
	lhs := d.extract(x.X, out)
	name := d.ctx.Names.Temp()
	*out = append(*out, &syntax.Assign{Target: syntax.NewIdent(name), Value: lhs})

	var inner []syntax.Stmt
	rhs := d.root(x.Y, &inner)
	inner = append(inner, &syntax.Assign{Target: syntax.NewIdent(name), Value: rhs})

	cond := syntax.Expr(syntax.NewIdent(name))
	if x.Op == "or" {
		cond = &syntax.UnaryExpr{Op: "not", X: cond}
	}
	*out = append(*out, &syntax.If{Cond: cond, Then: inner})
	return syntax.NewIdent(name)
}

// isCompound reports whether the expression is an operation node: one
// the decomposer would hoist out of an operand position.
func isCompound(e syntax.Expr) bool {
	switch e.(type) {
	case *syntax.BinaryExpr, *syntax.UnaryExpr, *syntax.BoolExpr,
		*syntax.CompareExpr, *syntax.Call, *syntax.Subscript:
		return true
	}
	return false
}

// hasCompoundOperand reports whether decomposing e would emit any
// statement: some operand position holds an operation node.
func hasCompoundOperand(e syntax.Expr) bool {
	switch x := e.(type) {
	case *syntax.BinaryExpr:
		return isCompound(x.X) || isCompound(x.Y) || hasCompoundOperand(x.X) || hasCompoundOperand(x.Y)
	case *syntax.UnaryExpr:
		return isCompound(x.X) || hasCompoundOperand(x.X)
	case *syntax.BoolExpr:
		return isCompound(x.X) || isCompound(x.Y) || hasCompoundOperand(x.X) || hasCompoundOperand(x.Y)
	case *syntax.CompareExpr:
		return isCompound(x.X) || isCompound(x.Y) || hasCompoundOperand(x.X) || hasCompoundOperand(x.Y)
	case *syntax.Call:
		if isCompound(x.Fun) || hasCompoundOperand(x.Fun) {
			return true
		}
		for _, arg := range x.Args {
			if isCompound(arg) || hasCompoundOperand(arg) {
				return true
			}
		}
		return false
	case *syntax.Subscript:
		return isCompound(x.X) || isCompound(x.Index) || hasCompoundOperand(x.X) || hasCompoundOperand(x.Index)
	case *syntax.Attribute:
		return isCompound(x.X) || hasCompoundOperand(x.X)
	case *syntax.ListExpr:
		for _, elt := range x.Elts {
			if isCompound(elt) || hasCompoundOperand(elt) {
				return true
			}
		}
		return false
	case *syntax.TupleExpr:
		for _, elt := range x.Elts {
			if isCompound(elt) || hasCompoundOperand(elt) {
				return true
			}
		}
		return false
	}
	return false
}
