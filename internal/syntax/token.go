package syntax

import "fmt"

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	EOF TokenType = iota
	NEWLINE
	INDENT
	DEDENT

	// literals and names
	INT
	FLOAT
	STRING
	NAME

	// keywords
	DEF
	CLASS
	RETURN
	IF
	ELIF
	ELSE
	WHILE
	FOR
	IN
	BREAK
	CONTINUE
	PASS
	RAISE
	LAMBDA
	AND
	OR
	NOT
	TRUE
	FALSE
	NONE

	// operators
	PLUS
	MINUS
	STAR
	SLASH
	DOUBLESLASH
	PERCENT
	EQ        // ==
	NE        // !=
	LT        // <
	LE        // <=
	GT        // >
	GE        // >=
	ASSIGN    // =
	PLUSEQ    // +=
	MINUSEQ   // -=
	STAREQ    // *=
	SLASHEQ   // /=
	PERCENTEQ // %=

	// delimiters
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	COLON
	COMMA
	DOT
)

var tokenNames = map[TokenType]string{
	EOF:         "EOF",
	NEWLINE:     "NEWLINE",
	INDENT:      "INDENT",
	DEDENT:      "DEDENT",
	INT:         "INT",
	FLOAT:       "FLOAT",
	STRING:      "STRING",
	NAME:        "NAME",
	DEF:         "def",
	CLASS:       "class",
	RETURN:      "return",
	IF:          "if",
	ELIF:        "elif",
	ELSE:        "else",
	WHILE:       "while",
	FOR:         "for",
	IN:          "in",
	BREAK:       "break",
	CONTINUE:    "continue",
	PASS:        "pass",
	RAISE:       "raise",
	LAMBDA:      "lambda",
	AND:         "and",
	OR:          "or",
	NOT:         "not",
	TRUE:        "True",
	FALSE:       "False",
	NONE:        "None",
	PLUS:        "+",
	MINUS:       "-",
	STAR:        "*",
	SLASH:       "/",
	DOUBLESLASH: "//",
	PERCENT:     "%",
	EQ:          "==",
	NE:          "!=",
	LT:          "<",
	LE:          "<=",
	GT:          ">",
	GE:          ">=",
	ASSIGN:      "=",
	PLUSEQ:      "+=",
	MINUSEQ:     "-=",
	STAREQ:      "*=",
	SLASHEQ:     "/=",
	PERCENTEQ:   "%=",
	LPAREN:      "(",
	RPAREN:      ")",
	LBRACKET:    "[",
	RBRACKET:    "]",
	COLON:       ":",
	COMMA:       ",",
	DOT:         ".",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"def":      DEF,
	"class":    CLASS,
	"return":   RETURN,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"break":    BREAK,
	"continue": CONTINUE,
	"pass":     PASS,
	"raise":    RAISE,
	"lambda":   LAMBDA,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"True":     TRUE,
	"False":    FALSE,
	"None":     NONE,
}

// Token is one lexical unit of a source unit, carrying its position
// for diagnostics.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Col    int
}

func (t Token) Pos() Position { return Position{Line: t.Line, Col: t.Col} }
