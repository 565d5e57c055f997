package syntax

// Position locates a node in its source unit, for diagnostics.
type Position struct {
	Line int
	Col  int
}

func (p Position) IsValid() bool { return p.Line > 0 }

// Node is implemented by every element of a program tree.
type Node interface {
	Pos() Position
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

type node struct {
	Span Position
}

func (n node) Pos() Position { return n.Span }

// ----------------------------------------------------------------------------
// statements

// Module is the root of a program tree.
type Module struct {
	node
	Body []Stmt
}

// FunctionDecl is a def statement, either top-level, a class method,
// or nested inside another function.
type FunctionDecl struct {
	node
	Name   string
	Params []string
	Body   []Stmt
}

// ClassDecl is a class statement. Its body holds method declarations
// and plain statements.
type ClassDecl struct {
	node
	Name string
	Body []Stmt
}

// ElifClause is one elif arm of an If statement.
type ElifClause struct {
	node
	Cond Expr
	Body []Stmt
}

// If is a conditional. Elifs and Else may be empty.
type If struct {
	node
	Cond  Expr
	Then  []Stmt
	Elifs []ElifClause
	Else  []Stmt
}

// While is a condition-tested loop.
type While struct {
	node
	Cond Expr
	Body []Stmt
}

// ForEach is a for statement iterating a single target over an iterable.
type ForEach struct {
	node
	Target string
	Iter   Expr
	Body   []Stmt
}

// Assign is a single-target assignment. Target is an Ident, Attribute,
// or Subscript.
type Assign struct {
	node
	Target Expr
	Value  Expr
}

// AugAssign is an augmented assignment such as x += 1. Op is the
// underlying binary operator ("+", "-", "*", "/", "%").
type AugAssign struct {
	node
	Target Expr
	Op     string
	Value  Expr
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	node
	X Expr
}

// Return exits the enclosing function; Value may be nil.
type Return struct {
	node
	Value Expr
}

// Raise raises an exception; Value may be nil for a bare raise.
type Raise struct {
	node
	Value Expr
}

// Break exits the innermost enclosing loop.
type Break struct {
	node
}

// Continue re-enters the innermost enclosing loop.
type Continue struct {
	node
}

// Pass is the empty statement.
type Pass struct {
	node
}

func (*Module) stmtNode()       {}
func (*FunctionDecl) stmtNode() {}
func (*ClassDecl) stmtNode()    {}
func (*If) stmtNode()           {}
func (*While) stmtNode()        {}
func (*ForEach) stmtNode()      {}
func (*Assign) stmtNode()       {}
func (*AugAssign) stmtNode()    {}
func (*ExprStmt) stmtNode()     {}
func (*Return) stmtNode()       {}
func (*Raise) stmtNode()        {}
func (*Break) stmtNode()        {}
func (*Continue) stmtNode()     {}
func (*Pass) stmtNode()         {}

// ----------------------------------------------------------------------------
// expressions

// Ident is a name reference or binding occurrence.
type Ident struct {
	node
	Name string
}

// LitKind classifies a Literal.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitBool
	LitNone
)

// Literal is a constant. Value holds the source spelling: for strings
// it includes the quotes, for bools it is "True"/"False".
type Literal struct {
	node
	Kind  LitKind
	Value string
}

// BinaryExpr is an arithmetic operation ("+", "-", "*", "/", "//", "%").
type BinaryExpr struct {
	node
	Op string
	X  Expr
	Y  Expr
}

// UnaryExpr is "-" negation or "not".
type UnaryExpr struct {
	node
	Op string
	X  Expr
}

// BoolExpr is a short-circuiting "and"/"or". The parser left-folds
// chains, so X may itself be a BoolExpr of the same operator.
type BoolExpr struct {
	node
	Op string
	X  Expr
	Y  Expr
}

// CompareExpr is a single, unchained comparison
// ("==", "!=", "<", "<=", ">", ">=", "in").
type CompareExpr struct {
	node
	Op string
	X  Expr
	Y  Expr
}

// Call applies Fun to positional Args.
type Call struct {
	node
	Fun  Expr
	Args []Expr
}

// Attribute is a dotted access X.Name.
type Attribute struct {
	node
	X    Expr
	Name string
}

// Subscript is an index access X[Index].
type Subscript struct {
	node
	X     Expr
	Index Expr
}

// ListExpr is a list display.
type ListExpr struct {
	node
	Elts []Expr
}

// TupleExpr is a parenthesized tuple display.
type TupleExpr struct {
	node
	Elts []Expr
}

// Lambda is an inline anonymous function whose body is one expression.
type Lambda struct {
	node
	Params []string
	Body   Expr
}

// ListComp is a single-clause list comprehension
// [Elt for Var in Iter if Cond]; Cond may be nil.
type ListComp struct {
	node
	Elt  Expr
	Var  string
	Iter Expr
	Cond Expr
}

func (*Ident) exprNode()       {}
func (*Literal) exprNode()     {}
func (*BinaryExpr) exprNode()  {}
func (*UnaryExpr) exprNode()   {}
func (*BoolExpr) exprNode()    {}
func (*CompareExpr) exprNode() {}
func (*Call) exprNode()        {}
func (*Attribute) exprNode()   {}
func (*Subscript) exprNode()   {}
func (*ListExpr) exprNode()    {}
func (*TupleExpr) exprNode()   {}
func (*Lambda) exprNode()      {}
func (*ListComp) exprNode()    {}

// NewIdent builds a position-less name reference; passes use it for
// synthesized nodes.
func NewIdent(name string) *Ident { return &Ident{Name: name} }

// NewInt builds an integer literal from its source spelling.
func NewInt(value string) *Literal { return &Literal{Kind: LitInt, Value: value} }
