package passes

import (
	"strings"

	"github.com/gnoverse/canopy/internal/syntax"
)

// LoopStandardizer rewrites every for construct into one canonical
// indexed while form: explicit index initialization, a condition
// comparing the index to a bound, a body deriving the loop variable
// from the index, and an explicit increment at the end of the body.
// continue statements belonging to the rewritten loop execute the
// increment before re-testing the condition.
type LoopStandardizer struct{}

// NewLoopStandardizer returns the loop standardization pass.
func NewLoopStandardizer() Pass { return &LoopStandardizer{} }

func (*LoopStandardizer) Name() string { return "standardize-loops" }

func (*LoopStandardizer) Description() string {
	return "rewrite range and collection loops into the canonical indexed while form"
}

func (p *LoopStandardizer) Apply(ctx *Context, mod *syntax.Module) error {
	s := &standardizer{ctx: ctx}
	syntax.RewriteBlocks(mod, s.block)
	return nil
}

type standardizer struct {
	ctx *Context
}

func (s *standardizer) block(body []syntax.Stmt) []syntax.Stmt {
	out := make([]syntax.Stmt, 0, len(body))
	for _, stmt := range body {
		loop, ok := stmt.(*syntax.ForEach)
		if !ok {
			out = append(out, stmt)
			continue
		}
		rewritten, ok := s.rewrite(loop)
		if !ok {
			out = append(out, stmt)
			continue
		}
		out = append(out, rewritten...)
	}
	return out
}

func (s *standardizer) rewrite(loop *syntax.ForEach) ([]syntax.Stmt, bool) {
	if call, ok := rangeCall(loop.Iter); ok {
		return s.rewriteRange(loop, call)
	}
	return s.rewriteCollection(loop), true
}

func rangeCall(e syntax.Expr) (*syntax.Call, bool) {
	call, ok := e.(*syntax.Call)
	if !ok {
		return nil, false
	}
	fun, ok := call.Fun.(*syntax.Ident)
	if !ok || fun.Name != "range" || len(call.Args) == 0 || len(call.Args) > 3 {
		return nil, false
	}
	return call, true
}

// rewriteRange lowers "for i in range(start, stop, step)":
//
//	i = start
//	while i < stop:        (> for a negative literal step)
//	    ...body...
//	    i = i + step
//
// A non-literal step cannot pick the comparison direction, so the loop
// is left unrewritten with a warning.
func (s *standardizer) rewriteRange(loop *syntax.ForEach, call *syntax.Call) ([]syntax.Stmt, bool) {
	start := syntax.Expr(syntax.NewInt("0"))
	stop := call.Args[0]
	step := syntax.Expr(syntax.NewInt("1"))
	if len(call.Args) >= 2 {
		start = call.Args[0]
		stop = call.Args[1]
	}
	negative := false
	if len(call.Args) == 3 {
		step = call.Args[2]
		var ok bool
		negative, ok = literalStepSign(step)
		if !ok {
			s.ctx.Warnf(loop, "range loop with non-literal step left unrewritten")
			return nil, false
		}
	}

	cmp := "<"
	if negative {
		cmp = ">"
	}
	body := retargetContinues(loop.Body, loop.Target, step)
	body = append(body, increment(loop.Target, step))

	return []syntax.Stmt{
		&syntax.Assign{Target: syntax.NewIdent(loop.Target), Value: start},
		&syntax.While{
			Cond: &syntax.CompareExpr{Op: cmp, X: syntax.NewIdent(loop.Target), Y: stop},
			Body: body,
		},
	}, true
}

// rewriteCollection lowers "for x in expr":
//
//	seq = expr
//	idx = 0
//	while idx < len(seq):
//	    x = seq[idx]
//	    ...body...
//	    idx = idx + 1
//
// The iterable is evaluated exactly once, matching the original.
func (s *standardizer) rewriteCollection(loop *syntax.ForEach) []syntax.Stmt {
	seq := s.ctx.Names.Temp()
	idx := s.ctx.Names.Temp()
	one := syntax.Expr(syntax.NewInt("1"))

	body := []syntax.Stmt{
		&syntax.Assign{
			Target: syntax.NewIdent(loop.Target),
			Value:  &syntax.Subscript{X: syntax.NewIdent(seq), Index: syntax.NewIdent(idx)},
		},
	}
	body = append(body, retargetContinues(loop.Body, idx, one)...)
	body = append(body, increment(idx, one))

	return []syntax.Stmt{
		&syntax.Assign{Target: syntax.NewIdent(seq), Value: loop.Iter},
		&syntax.Assign{Target: syntax.NewIdent(idx), Value: syntax.NewInt("0")},
		&syntax.While{
			Cond: &syntax.CompareExpr{
				Op: "<",
				X:  syntax.NewIdent(idx),
				Y:  &syntax.Call{Fun: syntax.NewIdent("len"), Args: []syntax.Expr{syntax.NewIdent(seq)}},
			},
			Body: body,
		},
	}
}

func increment(name string, step syntax.Expr) syntax.Stmt {
	return &syntax.Assign{
		Target: syntax.NewIdent(name),
		Value:  &syntax.BinaryExpr{Op: "+", X: syntax.NewIdent(name), Y: syntax.CloneExpr(step)},
	}
}

// literalStepSign reports whether step is a nonzero integer literal and
// whether it is negative.
func literalStepSign(step syntax.Expr) (negative, ok bool) {
	switch x := step.(type) {
	case *syntax.Literal:
		if x.Kind != syntax.LitInt || strings.Trim(x.Value, "0") == "" {
			return false, false
		}
		return false, true
	case *syntax.UnaryExpr:
		if x.Op != "-" {
			return false, false
		}
		lit, isLit := x.X.(*syntax.Literal)
		if !isLit || lit.Kind != syntax.LitInt || strings.Trim(lit.Value, "0") == "" {
			return false, false
		}
		return true, true
	}
	return false, false
}

// retargetContinues inserts the index increment before every continue
// belonging to this loop, so the increment still executes before the
// condition re-tests. Nested loops own their continues and are not
// descended into.
func retargetContinues(body []syntax.Stmt, name string, step syntax.Expr) []syntax.Stmt {
	out := make([]syntax.Stmt, 0, len(body))
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *syntax.Continue:
			out = append(out, increment(name, step), s)
			continue
		case *syntax.If:
			s.Then = retargetContinues(s.Then, name, step)
			for i := range s.Elifs {
				s.Elifs[i].Body = retargetContinues(s.Elifs[i].Body, name, step)
			}
			s.Else = retargetContinues(s.Else, name, step)
		}
		out = append(out, stmt)
	}
	return out
}
