// Package branch classifies whether a statement or block always leaves
// the enclosing construct. The control-flow normalizer consults it
// before eliminating a redundant else branch.
package branch

import "github.com/gnoverse/canopy/internal/syntax"

// Branch stores a block's terminator classification.
type Branch struct {
	BranchKind
}

// BlockBranch classifies a statement list by its final statement.
func BlockBranch(body []syntax.Stmt) Branch {
	if len(body) == 0 {
		return Empty.Branch()
	}
	return StmtBranch(body[len(body)-1])
}

// StmtBranch classifies a single statement. A conditional deviates only
// when every one of its arms deviates and an else arm is present.
func StmtBranch(stmt syntax.Stmt) Branch {
	switch s := stmt.(type) {
	case *syntax.Return:
		return Return.Branch()
	case *syntax.Raise:
		return Raise.Branch()
	case *syntax.Break:
		return Break.Branch()
	case *syntax.Continue:
		return Continue.Branch()
	case *syntax.If:
		if len(s.Else) == 0 {
			return Regular.Branch()
		}
		if !BlockBranch(s.Then).Deviates() {
			return Regular.Branch()
		}
		for _, clause := range s.Elifs {
			if !BlockBranch(clause.Body).Deviates() {
				return Regular.Branch()
			}
		}
		if !BlockBranch(s.Else).Deviates() {
			return Regular.Branch()
		}
		return BlockBranch(s.Then)
	}
	return Regular.Branch()
}

// Terminates reports whether control can never fall out of the bottom
// of the block.
func Terminates(body []syntax.Stmt) bool {
	return BlockBranch(body).Deviates()
}
