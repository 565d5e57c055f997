package syntax

import (
	"fmt"
	"unicode"
)

// Lexer scans a source unit into a token stream. Indentation is
// significant: blocks open with INDENT and close with DEDENT, tracked
// by a stack of indentation widths.
type Lexer struct {
	source []rune
	start  int
	pos    int
	line   int
	col    int

	// indentation stack; depth suppresses layout inside brackets
	indents []int
	pending []Token
	depth   int
	atLine  bool

	err error
}

// NewLexer returns a lexer positioned at the start of source.
func NewLexer(source string) *Lexer {
	return &Lexer{
		source:  []rune(source),
		line:    1,
		col:     1,
		indents: []int{0},
		atLine:  true,
	}
}

// Tokenize scans the whole input. The stream always ends with EOF;
// a malformed input yields a non-nil error and a truncated stream.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.next()
		if l.err != nil {
			return tokens, l.err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) next() Token {
	for {
		if len(l.pending) > 0 {
			tok := l.pending[0]
			l.pending = l.pending[1:]
			return tok
		}
		if l.err != nil {
			return Token{Type: EOF, Line: l.line, Col: l.col}
		}

		if l.atLine && l.depth == 0 && !l.isAtEnd() {
			if tok, ok := l.handleIndent(); ok {
				return tok
			}
			continue
		}

		l.skipSpaces()

		if l.isAtEnd() {
			if !l.atLine {
				l.atLine = true
				return Token{Type: NEWLINE, Line: l.line, Col: l.col}
			}
			for len(l.indents) > 1 {
				l.indents = l.indents[:len(l.indents)-1]
				l.pending = append(l.pending, Token{Type: DEDENT, Line: l.line, Col: 1})
			}
			l.pending = append(l.pending, Token{Type: EOF, Line: l.line, Col: l.col})
			continue
		}

		l.start = l.pos
		startLine, startCol := l.line, l.col
		c := l.advance()

		switch c {
		case '\n':
			l.line++
			l.col = 1
			if l.depth > 0 {
				continue // implicit line joining inside brackets
			}
			l.atLine = true
			return Token{Type: NEWLINE, Lexeme: "\n", Line: startLine, Col: startCol}
		case '#':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
			continue
		case '+':
			if l.match('=') {
				return l.emit(PLUSEQ, startLine, startCol)
			}
			return l.emit(PLUS, startLine, startCol)
		case '-':
			if l.match('=') {
				return l.emit(MINUSEQ, startLine, startCol)
			}
			return l.emit(MINUS, startLine, startCol)
		case '*':
			if l.match('=') {
				return l.emit(STAREQ, startLine, startCol)
			}
			return l.emit(STAR, startLine, startCol)
		case '/':
			if l.match('/') {
				return l.emit(DOUBLESLASH, startLine, startCol)
			}
			if l.match('=') {
				return l.emit(SLASHEQ, startLine, startCol)
			}
			return l.emit(SLASH, startLine, startCol)
		case '%':
			if l.match('=') {
				return l.emit(PERCENTEQ, startLine, startCol)
			}
			return l.emit(PERCENT, startLine, startCol)
		case '=':
			if l.match('=') {
				return l.emit(EQ, startLine, startCol)
			}
			return l.emit(ASSIGN, startLine, startCol)
		case '!':
			if l.match('=') {
				return l.emit(NE, startLine, startCol)
			}
			return l.fail(startLine, startCol, "unexpected character %q", c)
		case '<':
			if l.match('=') {
				return l.emit(LE, startLine, startCol)
			}
			return l.emit(LT, startLine, startCol)
		case '>':
			if l.match('=') {
				return l.emit(GE, startLine, startCol)
			}
			return l.emit(GT, startLine, startCol)
		case '(':
			l.depth++
			return l.emit(LPAREN, startLine, startCol)
		case ')':
			l.depth--
			return l.emit(RPAREN, startLine, startCol)
		case '[':
			l.depth++
			return l.emit(LBRACKET, startLine, startCol)
		case ']':
			l.depth--
			return l.emit(RBRACKET, startLine, startCol)
		case ':':
			return l.emit(COLON, startLine, startCol)
		case ',':
			return l.emit(COMMA, startLine, startCol)
		case '.':
			return l.emit(DOT, startLine, startCol)
		case '\'', '"':
			return l.str(c, startLine, startCol)
		}

		if unicode.IsDigit(c) {
			return l.number(startLine, startCol)
		}
		if unicode.IsLetter(c) || c == '_' {
			return l.identifier(startLine, startCol)
		}

		return l.fail(startLine, startCol, "unexpected character %q", c)
	}
}

// handleIndent measures the leading whitespace of a fresh logical line
// and emits INDENT/DEDENT tokens against the indent stack. Blank lines
// and comment-only lines produce no layout tokens.
func (l *Lexer) handleIndent() (Token, bool) {
	spaces := 0
	for !l.isAtEnd() && (l.peek() == ' ' || l.peek() == '\t') {
		if l.peek() == '\t' {
			spaces += 8 - spaces%8
		} else {
			spaces++
		}
		l.advance()
	}

	if l.isAtEnd() {
		l.atLine = false
		return Token{}, false
	}
	if l.peek() == '\n' {
		l.advance()
		l.line++
		l.col = 1
		return Token{}, false
	}
	if l.peek() == '#' {
		for !l.isAtEnd() && l.peek() != '\n' {
			l.advance()
		}
		return Token{}, false
	}

	l.atLine = false
	current := l.indents[len(l.indents)-1]
	switch {
	case spaces > current:
		l.indents = append(l.indents, spaces)
		return Token{Type: INDENT, Line: l.line, Col: 1}, true
	case spaces < current:
		for len(l.indents) > 1 && l.indents[len(l.indents)-1] > spaces {
			l.indents = l.indents[:len(l.indents)-1]
			l.pending = append(l.pending, Token{Type: DEDENT, Line: l.line, Col: 1})
		}
		if l.indents[len(l.indents)-1] != spaces {
			l.fail(l.line, 1, "unindent does not match any outer indentation level")
			return Token{}, false
		}
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok, true
	}
	return Token{}, false
}

func (l *Lexer) number(line, col int) Token {
	typ := INT
	for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if !l.isAtEnd() && l.peek() == '.' && l.pos+1 < len(l.source) && unicode.IsDigit(l.source[l.pos+1]) {
		typ = FLOAT
		l.advance()
		for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	return Token{Type: typ, Lexeme: string(l.source[l.start:l.pos]), Line: line, Col: col}
}

func (l *Lexer) identifier(line, col int) Token {
	for !l.isAtEnd() && (unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_') {
		l.advance()
	}
	text := string(l.source[l.start:l.pos])
	if typ, ok := keywords[text]; ok {
		return Token{Type: typ, Lexeme: text, Line: line, Col: col}
	}
	return Token{Type: NAME, Lexeme: text, Line: line, Col: col}
}

// str scans a single- or double-quoted string. Escapes are kept
// verbatim in the lexeme; the renderer writes them back untouched.
func (l *Lexer) str(quote rune, line, col int) Token {
	for !l.isAtEnd() && l.peek() != quote {
		if l.peek() == '\n' {
			return l.fail(line, col, "unterminated string literal")
		}
		if l.peek() == '\\' {
			l.advance()
			if l.isAtEnd() {
				break
			}
		}
		l.advance()
	}
	if l.isAtEnd() {
		return l.fail(line, col, "unterminated string literal")
	}
	l.advance() // closing quote
	return Token{Type: STRING, Lexeme: string(l.source[l.start:l.pos]), Line: line, Col: col}
}

func (l *Lexer) skipSpaces() {
	for !l.isAtEnd() && (l.peek() == ' ' || l.peek() == '\t') {
		l.advance()
	}
}

func (l *Lexer) emit(typ TokenType, line, col int) Token {
	return Token{Type: typ, Lexeme: string(l.source[l.start:l.pos]), Line: line, Col: col}
}

func (l *Lexer) fail(line, col int, format string, args ...any) Token {
	if l.err == nil {
		l.err = fmt.Errorf("%d:%d: %s", line, col, fmt.Sprintf(format, args...))
	}
	return Token{Type: EOF, Line: line, Col: col}
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) advance() rune {
	c := l.source[l.pos]
	l.pos++
	l.col++
	return c
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.pos++
	l.col++
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}
