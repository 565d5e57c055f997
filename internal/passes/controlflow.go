package passes

import (
	"github.com/gnoverse/canopy/internal/branch"
	"github.com/gnoverse/canopy/internal/syntax"
)

// ControlFlow normalizes conditionals: every if/elif/else chain becomes
// a strictly binary nested if/else, a redundant trailing else behind a
// provably terminating branch is de-indented to follow the if, and a
// non-terminating branch guarded by a single terminating else is
// inverted into a guard clause.
type ControlFlow struct{}

// NewControlFlow returns the control-flow normalizer pass.
func NewControlFlow() Pass { return &ControlFlow{} }

func (*ControlFlow) Name() string { return "normalize-control-flow" }

func (*ControlFlow) Description() string {
	return "rewrite multi-branch conditionals into binary nested if/else and eliminate redundant else branches"
}

func (p *ControlFlow) Apply(ctx *Context, mod *syntax.Module) error {
	binarizeBody(mod.Body)
	syntax.RewriteBlocks(mod, flattenBlock)
	return nil
}

// binarizeBody unrolls every elif clause into an if nested in the else
// block, leaving only binary conditionals behind.
func binarizeBody(body []syntax.Stmt) {
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *syntax.FunctionDecl:
			binarizeBody(s.Body)
		case *syntax.ClassDecl:
			binarizeBody(s.Body)
		case *syntax.While:
			binarizeBody(s.Body)
		case *syntax.ForEach:
			binarizeBody(s.Body)
		case *syntax.If:
			binarize(s)
		}
	}
}

func binarize(s *syntax.If) {
	binarizeBody(s.Then)
	for i := range s.Elifs {
		binarizeBody(s.Elifs[i].Body)
	}
	binarizeBody(s.Else)

	if len(s.Elifs) == 0 {
		return
	}
	// build the nested chain inside out: the original else belongs to
	// the innermost elif
	inner := s.Else
	for i := len(s.Elifs) - 1; i >= 0; i-- {
		clause := s.Elifs[i]
		inner = []syntax.Stmt{&syntax.If{Cond: clause.Cond, Then: clause.Body, Else: inner}}
	}
	s.Elifs = nil
	s.Else = inner
}

// flattenBlock applies the else-elimination and guard-clause rewrites
// to the conditionals of one statement list. RewriteBlocks feeds it
// blocks innermost first, so one traversal reaches a fixpoint: hoisted
// tails never terminate, which is exactly what would re-enable an
// enclosing rewrite.
func flattenBlock(body []syntax.Stmt) []syntax.Stmt {
	out := make([]syntax.Stmt, 0, len(body))
	for _, stmt := range body {
		s, ok := stmt.(*syntax.If)
		if !ok || len(s.Else) == 0 {
			out = append(out, stmt)
			continue
		}
		switch {
		case branch.Terminates(s.Then):
			// if c: ...return / else: X  ->  if c: ...return / X
			hoisted := s.Else
			s.Else = nil
			out = append(out, s)
			out = append(out, flattenBlock(hoisted)...)
		case len(s.Else) == 1 && branch.StmtBranch(s.Else[0]).Deviates():
			// if c: X / else: return  ->  if not c: return / X
			guard := &syntax.If{Cond: invert(s.Cond), Then: s.Else}
			out = append(out, guard)
			out = append(out, flattenBlock(s.Then)...)
		default:
			out = append(out, s)
		}
	}
	return out
}

// invert negates a condition, unwrapping an existing not so the rewrite
// stays idempotent. The operand is moved, not copied: it is still
// evaluated exactly once, in its original position.
func invert(e syntax.Expr) syntax.Expr {
	if u, ok := e.(*syntax.UnaryExpr); ok && u.Op == "not" {
		return u.X
	}
	return &syntax.UnaryExpr{Op: "not", X: e}
}
