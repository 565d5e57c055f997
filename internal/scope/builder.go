package scope

import "github.com/gnoverse/canopy/internal/syntax"

// BuildModule pushes the module frame and binds every top-level
// declaration: functions, classes, and module-level assignment targets.
func BuildModule(a *Arena, mod *syntax.Module) int {
	idx := a.Push(NoParent, mod)
	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *syntax.FunctionDecl:
			a.Bind(idx, s.Name, Binding{Kind: BindFunction, Decl: s})
		case *syntax.ClassDecl:
			a.Bind(idx, s.Name, Binding{Kind: BindClass, Decl: s})
		default:
			bindBlockTargets(a, idx, []syntax.Stmt{stmt}, BindGlobal)
		}
	}
	return idx
}

// BuildFunction pushes a frame for fn under parent and binds its
// parameters and, in first-appearance order, every name the body
// declares: assignment targets, loop targets, and nested function
// names. Nested function, lambda, and comprehension bodies are their
// own frames and are not descended into.
func BuildFunction(a *Arena, parent int, fn *syntax.FunctionDecl) int {
	idx := a.Push(parent, fn)
	for _, p := range fn.Params {
		a.Bind(idx, p, Binding{Kind: BindParam, Decl: fn})
	}
	bindBlockTargets(a, idx, fn.Body, BindLocal)
	return idx
}

// BuildLambda pushes a frame binding the lambda's parameters.
func BuildLambda(a *Arena, parent int, lam *syntax.Lambda) int {
	idx := a.Push(parent, lam)
	for _, p := range lam.Params {
		a.Bind(idx, p, Binding{Kind: BindParam, Decl: lam})
	}
	return idx
}

// BuildComp pushes a frame binding the comprehension variable.
func BuildComp(a *Arena, parent int, comp *syntax.ListComp) int {
	idx := a.Push(parent, comp)
	a.Bind(idx, comp.Var, Binding{Kind: BindLocal, Decl: comp})
	return idx
}

func bindBlockTargets(a *Arena, idx int, body []syntax.Stmt, kind BindKind) {
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *syntax.Assign:
			if target, ok := s.Target.(*syntax.Ident); ok {
				a.Bind(idx, target.Name, Binding{Kind: kind, Decl: s})
			}
		case *syntax.AugAssign:
			if target, ok := s.Target.(*syntax.Ident); ok {
				a.Bind(idx, target.Name, Binding{Kind: kind, Decl: s})
			}
		case *syntax.ForEach:
			a.Bind(idx, s.Target, Binding{Kind: kind, Decl: s})
			bindBlockTargets(a, idx, s.Body, kind)
		case *syntax.If:
			bindBlockTargets(a, idx, s.Then, kind)
			for _, clause := range s.Elifs {
				bindBlockTargets(a, idx, clause.Body, kind)
			}
			bindBlockTargets(a, idx, s.Else, kind)
		case *syntax.While:
			bindBlockTargets(a, idx, s.Body, kind)
		case *syntax.FunctionDecl:
			a.Bind(idx, s.Name, Binding{Kind: BindFunction, Decl: s})
		case *syntax.ClassDecl:
			a.Bind(idx, s.Name, Binding{Kind: BindClass, Decl: s})
		}
	}
}
