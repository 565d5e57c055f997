// Package scope maps identifiers to their declaration sites across
// nested lexical scopes. Frames live in an arena and refer to their
// parent by index, so closures capturing enclosing scopes never form
// ownership cycles.
package scope

import (
	"fmt"

	"github.com/gnoverse/canopy/internal/syntax"
)

// BindKind classifies what a name is bound to.
type BindKind int

const (
	BindParam BindKind = iota
	BindLocal
	BindGlobal
	BindFunction
	BindClass
)

func (k BindKind) String() string {
	switch k {
	case BindParam:
		return "parameter"
	case BindLocal:
		return "local"
	case BindGlobal:
		return "global"
	case BindFunction:
		return "function"
	case BindClass:
		return "class"
	default:
		return fmt.Sprintf("BindKind(%d)", int(k))
	}
}

// Binding records one name's declaration inside a frame.
type Binding struct {
	Kind BindKind
	Decl syntax.Node
}

// NoParent marks the module frame, which has no enclosing frame.
const NoParent = -1

type frame struct {
	parent   int
	bindings map[string]Binding
	order    []string
	owner    syntax.Node
}

// Arena holds the lexical frames of one program unit.
type Arena struct {
	frames []frame
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Push appends a new frame whose enclosing frame is parent (NoParent
// for the module frame) and returns its index. owner is the node that
// introduced the scope.
func (a *Arena) Push(parent int, owner syntax.Node) int {
	a.frames = append(a.frames, frame{
		parent:   parent,
		bindings: make(map[string]Binding),
		owner:    owner,
	})
	return len(a.frames) - 1
}

// Parent returns the enclosing frame index, or NoParent.
func (a *Arena) Parent(idx int) int {
	return a.frames[idx].parent
}

// Owner returns the node that introduced the frame.
func (a *Arena) Owner(idx int) syntax.Node {
	return a.frames[idx].owner
}

// Bind records a declaration in the frame. A frame holds exactly one
// record per name: the first declaration wins and later bindings of the
// same name are no-ops (a name assigned twice declares once, and a
// parameter later assigned stays a parameter). Shadowing belongs in a
// pushed child frame.
func (a *Arena) Bind(idx int, name string, b Binding) {
	fr := &a.frames[idx]
	if _, ok := fr.bindings[name]; ok {
		return
	}
	fr.bindings[name] = b
	fr.order = append(fr.order, name)
}

// Lookup finds name in the frame itself, without walking parents.
func (a *Arena) Lookup(idx int, name string) (Binding, bool) {
	b, ok := a.frames[idx].bindings[name]
	return b, ok
}

// Resolve walks from the frame through its parents and returns the
// first binding for name along with the frame index holding it.
func (a *Arena) Resolve(idx int, name string) (Binding, int, bool) {
	for cur := idx; cur != NoParent; cur = a.frames[cur].parent {
		if b, ok := a.frames[cur].bindings[name]; ok {
			return b, cur, true
		}
	}
	return Binding{}, NoParent, false
}

// Declared returns the frame's names in first-declaration order.
func (a *Arena) Declared(idx int) []string {
	return a.frames[idx].order
}

// Visible reports every name resolvable from the frame, its own
// bindings included. Renaming consults it to keep replacement names
// clear of everything an enclosing scope can see.
func (a *Arena) Visible(idx int) map[string]struct{} {
	visible := make(map[string]struct{})
	for cur := idx; cur != NoParent; cur = a.frames[cur].parent {
		for name := range a.frames[cur].bindings {
			visible[name] = struct{}{}
		}
	}
	return visible
}
