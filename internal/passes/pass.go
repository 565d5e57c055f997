// Package passes holds the rewrite passes of the normalization
// pipeline. Each pass is a pure tree-to-tree rewrite of one
// normalization concern; the engine sequences them over a unit.
package passes

import (
	"fmt"

	"github.com/gnoverse/canopy/internal/syntax"
	tt "github.com/gnoverse/canopy/internal/types"
)

// Pass is one transformation algorithm. Apply mutates mod in place and
// returns an error only for a rewrite the pass cannot perform safely
// (*RewriteError); findings that do not invalidate the tree go through
// the context as diagnostics.
type Pass interface {
	Name() string
	Description() string
	Apply(ctx *Context, mod *syntax.Module) error
}

// ErrKind is the failure taxonomy for rewrite errors.
type ErrKind int

const (
	// StructuralViolation marks a tree shape the pass cannot rewrite.
	StructuralViolation ErrKind = iota
	// NamingConflict marks a rewrite that found no safe replacement name.
	NamingConflict
)

func (k ErrKind) String() string {
	switch k {
	case StructuralViolation:
		return "structural violation"
	case NamingConflict:
		return "naming conflict"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// RewriteError is a fatal pass failure. The engine discards the pass's
// mutations and aborts the unit.
type RewriteError struct {
	Kind ErrKind
	Pos  syntax.Position
	Msg  string
}

func (e *RewriteError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Pos.Line, e.Pos.Col, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func structuralErr(n syntax.Node, format string, args ...any) error {
	return &RewriteError{Kind: StructuralViolation, Pos: n.Pos(), Msg: fmt.Sprintf(format, args...)}
}

func namingErr(n syntax.Node, format string, args ...any) error {
	return &RewriteError{Kind: NamingConflict, Pos: n.Pos(), Msg: fmt.Sprintf(format, args...)}
}

// Context carries the per-unit state a pass invocation may use: the
// unit id, the temporary name generator, and the diagnostic sink. A
// fresh context is created per unit run and owned by the engine; no
// state survives the unit.
type Context struct {
	UnitID string
	Names  *NameGen

	pass  string
	diags []tt.Diagnostic
	fatal bool
}

// NewContext returns a context for one unit run with names seeded from
// every identifier observed in mod.
func NewContext(unitID string, mod *syntax.Module) *Context {
	return &Context{UnitID: unitID, Names: NewNameGen(mod)}
}

// SetPass stamps subsequent diagnostics with the running pass's name.
func (c *Context) SetPass(name string) { c.pass = name }

// Diagnostics returns everything recorded so far.
func (c *Context) Diagnostics() []tt.Diagnostic { return c.diags }

// Fatal reports whether a node-scoped fatal diagnostic was recorded.
// The engine commits the pass's tree but skips the remaining passes.
func (c *Context) Fatal() bool { return c.fatal }

// Infof records an info-level diagnostic.
func (c *Context) Infof(n syntax.Node, format string, args ...any) {
	c.record(tt.SeverityInfo, n, format, args...)
}

// Warnf records a warning: a construct left unrewritten because it
// falls outside the pass's handled cases.
func (c *Context) Warnf(n syntax.Node, format string, args ...any) {
	c.record(tt.SeverityWarning, n, format, args...)
}

// Fatalf records a node-scoped fatal diagnostic. Unlike a returned
// *RewriteError it does not discard the pass's other rewrites; it
// aborts the unit after the pass commits.
func (c *Context) Fatalf(n syntax.Node, format string, args ...any) {
	c.fatal = true
	c.record(tt.SeverityFatal, n, format, args...)
}

func (c *Context) record(sev tt.Severity, n syntax.Node, format string, args ...any) {
	var pos syntax.Position
	if n != nil {
		pos = n.Pos()
	}
	c.diags = append(c.diags, tt.Diagnostic{
		UnitID:   c.UnitID,
		Pass:     c.pass,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

// NameGen produces temporaries guaranteed distinct from every
// identifier observed anywhere in the unit, and from each other. One
// generator lives exactly as long as its unit's pipeline run.
type NameGen struct {
	used map[string]struct{}
	n    int
}

// NewNameGen seeds a generator with every name spelled in mod.
func NewNameGen(mod *syntax.Module) *NameGen {
	return &NameGen{used: syntax.CollectNames(mod)}
}

// Temp returns the next free temporary name (tmp_0, tmp_1, ...).
func (g *NameGen) Temp() string {
	for {
		name := fmt.Sprintf("tmp_%d", g.n)
		g.n++
		if _, taken := g.used[name]; !taken {
			g.used[name] = struct{}{}
			return name
		}
	}
}

// Reserve marks a name as taken so later temporaries avoid it.
func (g *NameGen) Reserve(name string) {
	g.used[name] = struct{}{}
}

// Taken reports whether name is already in use somewhere in the unit.
func (g *NameGen) Taken(name string) bool {
	_, ok := g.used[name]
	return ok
}
