package syntax

import (
	"fmt"
	"strings"
)

const indentUnit = "    "

// Render serializes a program tree back to source text. The output
// re-parses to a structurally equal tree; it is not guaranteed to match
// the original spelling (comments and blank lines are not preserved).
func Render(mod *Module) string {
	var b strings.Builder
	for _, stmt := range mod.Body {
		renderStmt(&b, stmt, 0)
	}
	return b.String()
}

func renderStmt(b *strings.Builder, stmt Stmt, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	switch s := stmt.(type) {
	case *FunctionDecl:
		fmt.Fprintf(b, "%sdef %s(%s):\n", indent, s.Name, strings.Join(s.Params, ", "))
		renderBody(b, s.Body, depth+1)
	case *ClassDecl:
		fmt.Fprintf(b, "%sclass %s:\n", indent, s.Name)
		renderBody(b, s.Body, depth+1)
	case *If:
		fmt.Fprintf(b, "%sif %s:\n", indent, renderExpr(s.Cond))
		renderBody(b, s.Then, depth+1)
		for _, clause := range s.Elifs {
			fmt.Fprintf(b, "%selif %s:\n", indent, renderExpr(clause.Cond))
			renderBody(b, clause.Body, depth+1)
		}
		if len(s.Else) > 0 {
			fmt.Fprintf(b, "%selse:\n", indent)
			renderBody(b, s.Else, depth+1)
		}
	case *While:
		fmt.Fprintf(b, "%swhile %s:\n", indent, renderExpr(s.Cond))
		renderBody(b, s.Body, depth+1)
	case *ForEach:
		fmt.Fprintf(b, "%sfor %s in %s:\n", indent, s.Target, renderExpr(s.Iter))
		renderBody(b, s.Body, depth+1)
	case *Assign:
		fmt.Fprintf(b, "%s%s = %s\n", indent, renderExpr(s.Target), renderExpr(s.Value))
	case *AugAssign:
		fmt.Fprintf(b, "%s%s %s= %s\n", indent, renderExpr(s.Target), s.Op, renderExpr(s.Value))
	case *ExprStmt:
		fmt.Fprintf(b, "%s%s\n", indent, renderExpr(s.X))
	case *Return:
		if s.Value != nil {
			fmt.Fprintf(b, "%sreturn %s\n", indent, renderExpr(s.Value))
		} else {
			fmt.Fprintf(b, "%sreturn\n", indent)
		}
	case *Raise:
		if s.Value != nil {
			fmt.Fprintf(b, "%sraise %s\n", indent, renderExpr(s.Value))
		} else {
			fmt.Fprintf(b, "%sraise\n", indent)
		}
	case *Break:
		fmt.Fprintf(b, "%sbreak\n", indent)
	case *Continue:
		fmt.Fprintf(b, "%scontinue\n", indent)
	case *Pass:
		fmt.Fprintf(b, "%spass\n", indent)
	default:
		panic(fmt.Sprintf("render: unknown statement %T", stmt))
	}
}

func renderBody(b *strings.Builder, body []Stmt, depth int) {
	if len(body) == 0 {
		fmt.Fprintf(b, "%spass\n", strings.Repeat(indentUnit, depth))
		return
	}
	for _, stmt := range body {
		renderStmt(b, stmt, depth)
	}
}

// operator binding powers, loosest first; used to decide parenthesization
var precedence = map[string]int{
	"or":  1,
	"and": 2,
	"not": 3,
	"==":  4, "!=": 4, "<": 4, "<=": 4, ">": 4, ">=": 4, "in": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "//": 6, "%": 6,
	"u-": 7,
}

func renderExpr(e Expr) string {
	switch x := e.(type) {
	case *Ident:
		return x.Name
	case *Literal:
		return x.Value
	case *BinaryExpr:
		return fmt.Sprintf("%s %s %s",
			renderOperand(x.X, precedence[x.Op], false),
			x.Op,
			renderOperand(x.Y, precedence[x.Op], true))
	case *BoolExpr:
		return fmt.Sprintf("%s %s %s",
			renderOperand(x.X, precedence[x.Op], false),
			x.Op,
			renderOperand(x.Y, precedence[x.Op], true))
	case *CompareExpr:
		// both operands of equal binding get parens: the grammar has no
		// chained comparisons to re-parse into
		return fmt.Sprintf("%s %s %s",
			renderOperand(x.X, precedence[x.Op], true),
			x.Op,
			renderOperand(x.Y, precedence[x.Op], true))
	case *UnaryExpr:
		if x.Op == "not" {
			return "not " + renderOperand(x.X, precedence["not"], true)
		}
		return "-" + renderOperand(x.X, precedence["u-"], true)
	case *Call:
		args := make([]string, len(x.Args))
		for i, arg := range x.Args {
			args[i] = renderExpr(arg)
		}
		return fmt.Sprintf("%s(%s)", renderCallee(x.Fun), strings.Join(args, ", "))
	case *Attribute:
		return fmt.Sprintf("%s.%s", renderCallee(x.X), x.Name)
	case *Subscript:
		return fmt.Sprintf("%s[%s]", renderCallee(x.X), renderExpr(x.Index))
	case *ListExpr:
		elts := make([]string, len(x.Elts))
		for i, elt := range x.Elts {
			elts[i] = renderExpr(elt)
		}
		return "[" + strings.Join(elts, ", ") + "]"
	case *TupleExpr:
		elts := make([]string, len(x.Elts))
		for i, elt := range x.Elts {
			elts[i] = renderExpr(elt)
		}
		if len(elts) == 1 {
			return "(" + elts[0] + ",)"
		}
		return "(" + strings.Join(elts, ", ") + ")"
	case *Lambda:
		if len(x.Params) == 0 {
			return "lambda: " + renderExpr(x.Body)
		}
		return fmt.Sprintf("lambda %s: %s", strings.Join(x.Params, ", "), renderExpr(x.Body))
	case *ListComp:
		if x.Cond != nil {
			return fmt.Sprintf("[%s for %s in %s if %s]",
				renderExpr(x.Elt), x.Var, renderExpr(x.Iter), renderExpr(x.Cond))
		}
		return fmt.Sprintf("[%s for %s in %s]", renderExpr(x.Elt), x.Var, renderExpr(x.Iter))
	default:
		panic(fmt.Sprintf("render: unknown expression %T", e))
	}
}

// renderOperand parenthesizes a child of an infix operator when its own
// binding is looser, or equal on the right-hand side (all supported
// infix operators associate left).
func renderOperand(e Expr, parent int, right bool) string {
	text := renderExpr(e)
	child, infix := exprPrecedence(e)
	if !infix {
		if _, isLambda := e.(*Lambda); isLambda {
			return "(" + text + ")"
		}
		return text
	}
	if child < parent || (right && child == parent) {
		return "(" + text + ")"
	}
	return text
}

// renderCallee parenthesizes expressions whose postfix use would
// otherwise re-associate (lambdas and infix operands of calls,
// attributes, and subscripts).
func renderCallee(e Expr) string {
	text := renderExpr(e)
	if _, infix := exprPrecedence(e); infix {
		return "(" + text + ")"
	}
	if _, isLambda := e.(*Lambda); isLambda {
		return "(" + text + ")"
	}
	return text
}

func exprPrecedence(e Expr) (int, bool) {
	switch x := e.(type) {
	case *BinaryExpr:
		return precedence[x.Op], true
	case *BoolExpr:
		return precedence[x.Op], true
	case *CompareExpr:
		return precedence[x.Op], true
	case *UnaryExpr:
		if x.Op == "not" {
			return precedence["not"], true
		}
		return precedence["u-"], true
	}
	return 0, false
}
