package passes

import (
	"fmt"

	"github.com/gnoverse/canopy/internal/scope"
	"github.com/gnoverse/canopy/internal/syntax"
)

// Renamer replaces local and parameter names with systematic names
// derived from role and declaration order: parameters become arg_0,
// arg_1, ... by position, locals and comprehension variables become
// var_0, var_1, ... by first appearance. Module-level function and
// class names, method names, attributes, self/cls, builtins, and
// pipeline temporaries keep their names. Role and order derive from
// structural position alone, so re-running the pass reproduces the
// same names.
type Renamer struct{}

// NewRenamer returns the identifier renaming pass.
func NewRenamer() Pass { return &Renamer{} }

func (*Renamer) Name() string { return "rename-identifiers" }

func (*Renamer) Description() string {
	return "replace local and parameter names with systematic names derived from role and declaration order"
}

// reservedNames are builtins a replacement name must never collide
// with. Replacements are always arg_N/var_N, but the check keeps the
// invariant explicit.
var reservedNames = map[string]bool{
	"abs": true, "bool": true, "dict": true, "enumerate": true,
	"float": true, "int": true, "isinstance": true, "len": true,
	"list": true, "max": true, "min": true, "print": true,
	"range": true, "repr": true, "reversed": true, "set": true,
	"sorted": true, "str": true, "sum": true, "tuple": true,
	"type": true, "zip": true,
}

func (p *Renamer) Apply(ctx *Context, mod *syntax.Module) error {
	arena := scope.NewArena()
	moduleFrame := scope.BuildModule(arena, mod)
	visible := arena.Visible(moduleFrame)

	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *syntax.FunctionDecl:
			if err := renameFunction(s, visible); err != nil {
				return err
			}
		case *syntax.ClassDecl:
			// methods close over the module scope, not the class body
			for _, member := range s.Body {
				if method, ok := member.(*syntax.FunctionDecl); ok {
					if err := renameFunction(method, visible); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// renameFunction builds and applies the rename map for one function
// scope, then recurses into its nested functions. visible holds every
// name resolvable from the enclosing scopes, post-rename.
func renameFunction(fn *syntax.FunctionDecl, visible map[string]struct{}) error {
	arena := scope.NewArena()
	frame := scope.BuildFunction(arena, scope.NoParent, fn)

	// names this scope declares but the map must leave alone. A local
	// whose name is already visible from an enclosing scope is a
	// capture, not a fresh binding: assignment does not shadow, so the
	// enclosing mapping owns the name.
	keep := make(map[string]struct{})
	for _, name := range arena.Declared(frame) {
		binding, _ := arena.Lookup(frame, name)
		if !renameable(name, binding.Kind) {
			keep[name] = struct{}{}
			continue
		}
		if binding.Kind == scope.BindLocal {
			if _, captured := visible[name]; captured {
				keep[name] = struct{}{}
			}
		}
	}

	renames := make(map[string]string)
	image := make(map[string]struct{})
	avoid := func(candidate string) bool {
		if _, ok := visible[candidate]; ok {
			return true
		}
		if _, ok := image[candidate]; ok {
			return true
		}
		if _, ok := keep[candidate]; ok {
			return true
		}
		return reservedNames[candidate]
	}

	argCounter, varCounter := 0, 0
	for _, name := range arena.Declared(frame) {
		binding, _ := arena.Lookup(frame, name)
		if _, kept := keep[name]; kept || !renameable(name, binding.Kind) {
			continue
		}
		var replacement string
		if binding.Kind == scope.BindParam {
			replacement = nextName("arg", &argCounter, avoid)
		} else {
			replacement = nextName("var", &varCounter, avoid)
		}
		renames[name] = replacement
		image[replacement] = struct{}{}
	}

	// comprehension variables continue the local counter in
	// first-appearance order; each comprehension is its own scope
	comps := collectComps(fn.Body)
	compNames := make([]string, len(comps))
	for i := range comps {
		compNames[i] = nextName("var", &varCounter, avoid)
		image[compNames[i]] = struct{}{}
	}

	if err := checkBijective(fn, renames); err != nil {
		return err
	}

	// atomic application of the whole map
	for i, p := range fn.Params {
		if replacement, ok := renames[p]; ok {
			fn.Params[i] = replacement
		}
	}
	renameBody(fn.Body, renames)
	for i, comp := range comps {
		applyCompRename(comp, compNames[i])
	}

	// nested scopes see this scope's post-rename names
	nestedVisible := make(map[string]struct{}, len(visible))
	for name := range visible {
		nestedVisible[name] = struct{}{}
	}
	for name := range image {
		nestedVisible[name] = struct{}{}
	}
	for name := range keep {
		nestedVisible[name] = struct{}{}
	}

	for _, stmt := range nestedFunctions(fn.Body) {
		if err := renameFunction(stmt, nestedVisible); err != nil {
			return err
		}
	}
	return nil
}

// renameable reports whether a declaration participates in the map.
// Nested function and class names survive for the extractor, self and
// cls are interface names, and tmp_ names belong to the pipeline's
// temporary generator.
func renameable(name string, kind scope.BindKind) bool {
	if kind == scope.BindFunction || kind == scope.BindClass {
		return false
	}
	if name == "self" || name == "cls" {
		return false
	}
	if isTempName(name) {
		return false
	}
	return true
}

func isTempName(name string) bool {
	if len(name) < 5 || name[:4] != "tmp_" {
		return false
	}
	for _, c := range name[4:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func nextName(role string, counter *int, avoid func(string) bool) string {
	for {
		candidate := fmt.Sprintf("%s_%d", role, *counter)
		*counter++
		if !avoid(candidate) {
			return candidate
		}
	}
}

func checkBijective(fn *syntax.FunctionDecl, renames map[string]string) error {
	seen := make(map[string]string, len(renames))
	for original, replacement := range renames {
		if prev, ok := seen[replacement]; ok {
			return namingErr(fn, "in %s both %s and %s would be renamed to %s",
				fn.Name, prev, original, replacement)
		}
		seen[replacement] = original
	}
	return nil
}

// renameBody rewrites every identifier reference the map covers,
// descending into nested closures. Only parameters, lambda parameters,
// comprehension variables, and nested declaration names shadow; an
// inner assignment to an enclosing name mutates that binding, so the
// map applies to it.
func renameBody(body []syntax.Stmt, renames map[string]string) {
	shadowed := make(map[string]struct{})
	renameStmts(body, renames, shadowed)
}

func renameStmts(body []syntax.Stmt, renames map[string]string, shadowed map[string]struct{}) {
	for _, stmt := range body {
		renameStmt(stmt, renames, shadowed)
	}
}

func renameStmt(stmt syntax.Stmt, renames map[string]string, shadowed map[string]struct{}) {
	switch s := stmt.(type) {
	case *syntax.FunctionDecl:
		inner := shadowUnion(shadowed, shadowNames(s))
		renameStmts(s.Body, renames, inner)
	case *syntax.ClassDecl:
		renameStmts(s.Body, renames, shadowed)
	case *syntax.If:
		renameExpr(s.Cond, renames, shadowed)
		renameStmts(s.Then, renames, shadowed)
		for i := range s.Elifs {
			renameExpr(s.Elifs[i].Cond, renames, shadowed)
			renameStmts(s.Elifs[i].Body, renames, shadowed)
		}
		renameStmts(s.Else, renames, shadowed)
	case *syntax.While:
		renameExpr(s.Cond, renames, shadowed)
		renameStmts(s.Body, renames, shadowed)
	case *syntax.ForEach:
		if replacement, ok := lookupRename(s.Target, renames, shadowed); ok {
			s.Target = replacement
		}
		renameExpr(s.Iter, renames, shadowed)
		renameStmts(s.Body, renames, shadowed)
	case *syntax.Assign:
		renameExpr(s.Target, renames, shadowed)
		renameExpr(s.Value, renames, shadowed)
	case *syntax.AugAssign:
		renameExpr(s.Target, renames, shadowed)
		renameExpr(s.Value, renames, shadowed)
	case *syntax.ExprStmt:
		renameExpr(s.X, renames, shadowed)
	case *syntax.Return:
		if s.Value != nil {
			renameExpr(s.Value, renames, shadowed)
		}
	case *syntax.Raise:
		if s.Value != nil {
			renameExpr(s.Value, renames, shadowed)
		}
	}
}

func renameExpr(e syntax.Expr, renames map[string]string, shadowed map[string]struct{}) {
	switch x := e.(type) {
	case *syntax.Ident:
		if replacement, ok := lookupRename(x.Name, renames, shadowed); ok {
			x.Name = replacement
		}
	case *syntax.BinaryExpr:
		renameExpr(x.X, renames, shadowed)
		renameExpr(x.Y, renames, shadowed)
	case *syntax.UnaryExpr:
		renameExpr(x.X, renames, shadowed)
	case *syntax.BoolExpr:
		renameExpr(x.X, renames, shadowed)
		renameExpr(x.Y, renames, shadowed)
	case *syntax.CompareExpr:
		renameExpr(x.X, renames, shadowed)
		renameExpr(x.Y, renames, shadowed)
	case *syntax.Call:
		renameExpr(x.Fun, renames, shadowed)
		for _, arg := range x.Args {
			renameExpr(arg, renames, shadowed)
		}
	case *syntax.Attribute:
		renameExpr(x.X, renames, shadowed) // attribute names stay
	case *syntax.Subscript:
		renameExpr(x.X, renames, shadowed)
		renameExpr(x.Index, renames, shadowed)
	case *syntax.ListExpr:
		for _, elt := range x.Elts {
			renameExpr(elt, renames, shadowed)
		}
	case *syntax.TupleExpr:
		for _, elt := range x.Elts {
			renameExpr(elt, renames, shadowed)
		}
	case *syntax.Lambda:
		inner := shadowUnion(shadowed, x.Params)
		renameExpr(x.Body, renames, inner)
	case *syntax.ListComp:
		renameExpr(x.Iter, renames, shadowed) // the iterable evaluates outside
		inner := shadowUnion(shadowed, []string{x.Var})
		renameExpr(x.Elt, renames, inner)
		if x.Cond != nil {
			renameExpr(x.Cond, renames, inner)
		}
	}
}

func lookupRename(name string, renames map[string]string, shadowed map[string]struct{}) (string, bool) {
	if _, ok := shadowed[name]; ok {
		return "", false
	}
	replacement, ok := renames[name]
	return replacement, ok
}

func shadowUnion(shadowed map[string]struct{}, names []string) map[string]struct{} {
	inner := make(map[string]struct{}, len(shadowed)+len(names))
	for name := range shadowed {
		inner[name] = struct{}{}
	}
	for _, name := range names {
		inner[name] = struct{}{}
	}
	return inner
}

// nestedFunctions returns the function declarations belonging directly
// to this scope, at any block depth, skipping ones inside further
// nested functions (their own parent recursion handles those).
func nestedFunctions(body []syntax.Stmt) []*syntax.FunctionDecl {
	var fns []*syntax.FunctionDecl
	var walk func(stmts []syntax.Stmt)
	walk = func(stmts []syntax.Stmt) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *syntax.FunctionDecl:
				fns = append(fns, s)
			case *syntax.ClassDecl:
				walk(s.Body)
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
			}
		}
	}
	walk(body)
	return fns
}

// shadowNames lists the names a nested function truly rebinds: its
// parameters and the function and class declarations in its own body.
// Assignment and loop targets are not listed; writing to an enclosing
// name mutates the enclosing binding.
func shadowNames(fn *syntax.FunctionDecl) []string {
	arena := scope.NewArena()
	frame := scope.BuildFunction(arena, scope.NoParent, fn)
	var names []string
	for _, name := range arena.Declared(frame) {
		binding, _ := arena.Lookup(frame, name)
		switch binding.Kind {
		case scope.BindParam, scope.BindFunction, scope.BindClass:
			names = append(names, name)
		}
	}
	return names
}

// collectComps gathers the comprehensions belonging to this function
// scope in first-appearance order, skipping ones nested inside inner
// functions or lambdas.
func collectComps(body []syntax.Stmt) []*syntax.ListComp {
	var comps []*syntax.ListComp
	for _, stmt := range body {
		syntax.Inspect(stmt, func(n syntax.Node) bool {
			switch x := n.(type) {
			case *syntax.FunctionDecl, *syntax.Lambda:
				return false
			case *syntax.ListComp:
				comps = append(comps, x)
				// a nested comprehension in the iterable still belongs
				// to this scope
				return true
			}
			return true
		})
	}
	return comps
}

// applyCompRename renames one comprehension's variable and its
// references inside the element and condition.
func applyCompRename(comp *syntax.ListComp, replacement string) {
	if comp.Var == replacement {
		return
	}
	renames := map[string]string{comp.Var: replacement}
	shadowed := make(map[string]struct{})
	renameExpr(comp.Elt, renames, shadowed)
	if comp.Cond != nil {
		renameExpr(comp.Cond, renames, shadowed)
	}
	comp.Var = replacement
}
