package passes

import "github.com/gnoverse/canopy/internal/syntax"

// Docstrings removes documentation strings: a string literal standing
// alone as the first statement of a module, function, or class body.
// Bodies emptied by the removal get a pass statement so the block
// stays well formed.
type Docstrings struct{}

// NewDocstrings returns the docstring removal pass.
func NewDocstrings() Pass { return &Docstrings{} }

func (*Docstrings) Name() string { return "strip-docstrings" }

func (*Docstrings) Description() string {
	return "remove documentation strings from module, function, and class bodies"
}

func (p *Docstrings) Apply(ctx *Context, mod *syntax.Module) error {
	mod.Body = stripLeadingString(mod.Body)
	syntax.Inspect(mod, func(n syntax.Node) bool {
		switch s := n.(type) {
		case *syntax.FunctionDecl:
			s.Body = stripLeadingString(s.Body)
		case *syntax.ClassDecl:
			s.Body = stripLeadingString(s.Body)
		}
		return true
	})
	return nil
}

func stripLeadingString(body []syntax.Stmt) []syntax.Stmt {
	if len(body) == 0 {
		return body
	}
	stmt, ok := body[0].(*syntax.ExprStmt)
	if !ok {
		return body
	}
	lit, ok := stmt.X.(*syntax.Literal)
	if !ok || lit.Kind != syntax.LitString {
		return body
	}
	rest := body[1:]
	if len(rest) == 0 {
		return []syntax.Stmt{&syntax.Pass{}}
	}
	return rest
}
