package syntax

import "fmt"

// MalformedError reports a tree whose node shapes violate the
// invariants the rewrite passes rely on.
type MalformedError struct {
	Pos Position
	Msg string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%d:%d: malformed tree: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "//": true, "%": true,
}

var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true, "in": true,
}

// Validate checks that every node satisfies the arity and shape
// required by its kind. Trees built by Parse always validate; the check
// guards passes against malformed trees built programmatically.
func Validate(mod *Module) error {
	var err error
	fail := func(n Node, format string, args ...any) {
		if err == nil {
			err = &MalformedError{Pos: n.Pos(), Msg: fmt.Sprintf(format, args...)}
		}
	}
	Inspect(mod, func(n Node) bool {
		if err != nil {
			return false
		}
		switch x := n.(type) {
		case *FunctionDecl:
			if x.Name == "" {
				fail(x, "function declaration without a name")
			}
			seen := make(map[string]bool, len(x.Params))
			for _, p := range x.Params {
				if p == "" {
					fail(x, "function %s has an empty parameter name", x.Name)
				}
				if seen[p] {
					fail(x, "function %s repeats parameter %s", x.Name, p)
				}
				seen[p] = true
			}
			if len(x.Body) == 0 {
				fail(x, "function %s has an empty body", x.Name)
			}
		case *ClassDecl:
			if x.Name == "" {
				fail(x, "class declaration without a name")
			}
			if len(x.Body) == 0 {
				fail(x, "class %s has an empty body", x.Name)
			}
		case *If:
			if x.Cond == nil {
				fail(x, "if statement without a condition")
			}
			if len(x.Then) == 0 {
				fail(x, "if statement with an empty then branch")
			}
			for _, clause := range x.Elifs {
				if clause.Cond == nil {
					fail(x, "elif clause without a condition")
				}
				if len(clause.Body) == 0 {
					fail(x, "elif clause with an empty body")
				}
			}
		case *While:
			if x.Cond == nil {
				fail(x, "while statement without a condition")
			}
			if len(x.Body) == 0 {
				fail(x, "while statement with an empty body")
			}
		case *ForEach:
			if x.Target == "" {
				fail(x, "for statement without a loop target")
			}
			if x.Iter == nil {
				fail(x, "for statement without an iterable")
			}
			if len(x.Body) == 0 {
				fail(x, "for statement with an empty body")
			}
		case *Assign:
			if !isAssignable(x.Target) {
				fail(x, "assignment target must be a name, attribute, or subscript")
			}
			if x.Value == nil {
				fail(x, "assignment without a value")
			}
		case *AugAssign:
			if !isAssignable(x.Target) {
				fail(x, "augmented assignment target must be a name, attribute, or subscript")
			}
			if !binaryOps[x.Op] {
				fail(x, "unknown augmented assignment operator %q", x.Op)
			}
			if x.Value == nil {
				fail(x, "augmented assignment without a value")
			}
		case *ExprStmt:
			if x.X == nil {
				fail(x, "expression statement without an expression")
			}
		case *Ident:
			if x.Name == "" {
				fail(x, "identifier without a name")
			}
		case *Literal:
			if x.Value == "" {
				fail(x, "literal without a value")
			}
		case *BinaryExpr:
			if !binaryOps[x.Op] {
				fail(x, "unknown binary operator %q", x.Op)
			}
			if x.X == nil || x.Y == nil {
				fail(x, "binary expression missing an operand")
			}
		case *UnaryExpr:
			if x.Op != "-" && x.Op != "not" {
				fail(x, "unknown unary operator %q", x.Op)
			}
			if x.X == nil {
				fail(x, "unary expression missing its operand")
			}
		case *BoolExpr:
			if x.Op != "and" && x.Op != "or" {
				fail(x, "unknown boolean operator %q", x.Op)
			}
			if x.X == nil || x.Y == nil {
				fail(x, "boolean expression missing an operand")
			}
		case *CompareExpr:
			if !comparisonOps[x.Op] {
				fail(x, "unknown comparison operator %q", x.Op)
			}
			if x.X == nil || x.Y == nil {
				fail(x, "comparison missing an operand")
			}
		case *Call:
			if x.Fun == nil {
				fail(x, "call without a callee")
			}
		case *Attribute:
			if x.Name == "" {
				fail(x, "attribute access without a name")
			}
		case *Subscript:
			if x.X == nil || x.Index == nil {
				fail(x, "subscript missing its operand or index")
			}
		case *Lambda:
			if x.Body == nil {
				fail(x, "lambda without a body")
			}
		case *ListComp:
			if x.Var == "" || x.Elt == nil || x.Iter == nil {
				fail(x, "list comprehension missing its clause")
			}
		}
		return err == nil
	})
	return err
}
