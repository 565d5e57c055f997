package syntax

import (
	"errors"
	"fmt"
)

// ParseError reports a source unit that is not a valid program in the
// supported subset.
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
}

// AsParseError unwraps err to a *ParseError, if it is one.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	ok := errors.As(err, &pe)
	return pe, ok
}

// Parse scans and parses one source unit into a program tree.
func Parse(source string) (*Module, error) {
	lx := NewLexer(source)
	tokens, err := lx.Tokenize()
	if err != nil {
		return nil, &ParseError{Pos: Position{Line: 1, Col: 1}, Msg: err.Error()}
	}
	p := &parser{tokens: tokens}
	mod, err := p.parseModule()
	if err != nil {
		return nil, err
	}
	return mod, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token    { return p.tokens[p.pos] }
func (p *parser) advance() Token { tok := p.tokens[p.pos]; p.pos++; return tok }

func (p *parser) at(typ TokenType) bool { return p.peek().Type == typ }

func (p *parser) accept(typ TokenType) bool {
	if p.at(typ) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(typ TokenType) (Token, error) {
	if !p.at(typ) {
		return Token{}, p.errorf("expected %s, found %s", typ, p.describe(p.peek()))
	}
	return p.advance(), nil
}

func (p *parser) describe(tok Token) string {
	switch tok.Type {
	case NAME, INT, FLOAT, STRING:
		return fmt.Sprintf("%s %q", tok.Type, tok.Lexeme)
	default:
		return tok.Type.String()
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Pos: p.peek().Pos(), Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseModule() (*Module, error) {
	mod := &Module{node: node{Span: Position{Line: 1, Col: 1}}}
	for !p.at(EOF) {
		if p.accept(NEWLINE) {
			continue
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		mod.Body = append(mod.Body, stmt)
	}
	return mod, nil
}

// parseBlock parses ": NEWLINE INDENT stmt+ DEDENT", the suite form
// shared by every compound statement.
func (p *parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	if _, err := p.expect(NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(INDENT); err != nil {
		return nil, err
	}
	var body []Stmt
	for !p.at(DEDENT) && !p.at(EOF) {
		if p.accept(NEWLINE) {
			continue
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if _, err := p.expect(DEDENT); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, p.errorf("empty block")
	}
	return body, nil
}

func (p *parser) parseStmt() (Stmt, error) {
	switch p.peek().Type {
	case DEF:
		return p.parseFunctionDecl()
	case CLASS:
		return p.parseClassDecl()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case FOR:
		return p.parseForEach()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *parser) parseFunctionDecl() (Stmt, error) {
	tok := p.advance() // def
	name, err := p.expect(NAME)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var params []string
	for !p.at(RPAREN) {
		param, err := p.expect(NAME)
		if err != nil {
			return nil, err
		}
		params = append(params, param.Lexeme)
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FunctionDecl{node: node{Span: tok.Pos()}, Name: name.Lexeme, Params: params, Body: body}, nil
}

func (p *parser) parseClassDecl() (Stmt, error) {
	tok := p.advance() // class
	name, err := p.expect(NAME)
	if err != nil {
		return nil, err
	}
	if p.accept(LPAREN) {
		// single base name allowed and discarded; inheritance carries no
		// meaning for the rewrites
		if !p.at(RPAREN) {
			if _, err := p.expect(NAME); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ClassDecl{node: node{Span: tok.Pos()}, Name: name.Lexeme, Body: body}, nil
}

func (p *parser) parseIf() (Stmt, error) {
	tok := p.advance() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &If{node: node{Span: tok.Pos()}, Cond: cond, Then: then}
	for p.at(ELIF) {
		elifTok := p.advance()
		elifCond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elifBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Elifs = append(stmt.Elifs, ElifClause{node: node{Span: elifTok.Pos()}, Cond: elifCond, Body: elifBody})
	}
	if p.accept(ELSE) {
		stmt.Else, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *parser) parseWhile() (Stmt, error) {
	tok := p.advance() // while
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &While{node: node{Span: tok.Pos()}, Cond: cond, Body: body}, nil
}

func (p *parser) parseForEach() (Stmt, error) {
	tok := p.advance() // for
	target, err := p.expect(NAME)
	if err != nil {
		return nil, err
	}
	if p.at(COMMA) {
		return nil, p.errorf("tuple-unpacking loop targets are not supported")
	}
	if _, err := p.expect(IN); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ForEach{node: node{Span: tok.Pos()}, Target: target.Lexeme, Iter: iter, Body: body}, nil
}

func (p *parser) parseSimpleStmt() (Stmt, error) {
	tok := p.peek()
	var stmt Stmt
	switch tok.Type {
	case RETURN:
		p.advance()
		ret := &Return{node: node{Span: tok.Pos()}}
		if !p.at(NEWLINE) && !p.at(EOF) {
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			ret.Value = value
		}
		stmt = ret
	case RAISE:
		p.advance()
		raise := &Raise{node: node{Span: tok.Pos()}}
		if !p.at(NEWLINE) && !p.at(EOF) {
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			raise.Value = value
		}
		stmt = raise
	case BREAK:
		p.advance()
		stmt = &Break{node: node{Span: tok.Pos()}}
	case CONTINUE:
		p.advance()
		stmt = &Continue{node: node{Span: tok.Pos()}}
	case PASS:
		p.advance()
		stmt = &Pass{node: node{Span: tok.Pos()}}
	default:
		var err error
		stmt, err = p.parseExprOrAssign()
		if err != nil {
			return nil, err
		}
	}
	if !p.at(EOF) {
		if _, err := p.expect(NEWLINE); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

var augOps = map[TokenType]string{
	PLUSEQ:    "+",
	MINUSEQ:   "-",
	STAREQ:    "*",
	SLASHEQ:   "/",
	PERCENTEQ: "%",
}

func (p *parser) parseExprOrAssign() (Stmt, error) {
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if op, ok := augOps[p.peek().Type]; ok {
		tok := p.advance()
		if !isAssignable(first) {
			return nil, &ParseError{Pos: tok.Pos(), Msg: "invalid augmented assignment target"}
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &AugAssign{node: node{Span: first.Pos()}, Target: first, Op: op, Value: value}, nil
	}
	if p.at(ASSIGN) {
		tok := p.advance()
		if !isAssignable(first) {
			return nil, &ParseError{Pos: tok.Pos(), Msg: "invalid assignment target"}
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.at(ASSIGN) {
			return nil, p.errorf("multiple assignment targets are not supported")
		}
		return &Assign{node: node{Span: first.Pos()}, Target: first, Value: value}, nil
	}
	return &ExprStmt{node: node{Span: first.Pos()}, X: first}, nil
}

func isAssignable(e Expr) bool {
	switch e.(type) {
	case *Ident, *Attribute, *Subscript:
		return true
	}
	return false
}

// ----------------------------------------------------------------------------
// expressions, by descending precedence:
// lambda < or < and < not < comparison < additive < multiplicative
// < unary minus < postfix < primary

func (p *parser) parseExpr() (Expr, error) {
	if p.at(LAMBDA) {
		return p.parseLambda()
	}
	return p.parseOr()
}

func (p *parser) parseLambda() (Expr, error) {
	tok := p.advance() // lambda
	var params []string
	for p.at(NAME) {
		params = append(params, p.advance().Lexeme)
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Lambda{node: node{Span: tok.Pos()}, Params: params, Body: body}, nil
}

func (p *parser) parseOr() (Expr, error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(OR) {
		tok := p.advance()
		y, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		x = &BoolExpr{node: node{Span: tok.Pos()}, Op: "or", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseAnd() (Expr, error) {
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.at(AND) {
		tok := p.advance()
		y, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		x = &BoolExpr{node: node{Span: tok.Pos()}, Op: "and", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.at(NOT) {
		tok := p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{node: node{Span: tok.Pos()}, Op: "not", X: x}, nil
	}
	return p.parseComparison()
}

var compareOps = map[TokenType]string{
	EQ: "==",
	NE: "!=",
	LT: "<",
	LE: "<=",
	GT: ">",
	GE: ">=",
	IN: "in",
}

func (p *parser) parseComparison() (Expr, error) {
	x, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := compareOps[p.peek().Type]
	if !ok {
		return x, nil
	}
	tok := p.advance()
	y, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, chained := compareOps[p.peek().Type]; chained {
		return nil, p.errorf("chained comparisons are not supported")
	}
	return &CompareExpr{node: node{Span: tok.Pos()}, Op: op, X: x, Y: y}, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	x, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(PLUS) || p.at(MINUS) {
		tok := p.advance()
		y, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{node: node{Span: tok.Pos()}, Op: tok.Type.String(), X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(STAR) || p.at(SLASH) || p.at(DOUBLESLASH) || p.at(PERCENT) {
		tok := p.advance()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{node: node{Span: tok.Pos()}, Op: tok.Type.String(), X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.at(MINUS) {
		tok := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{node: node{Span: tok.Pos()}, Op: "-", X: x}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(LPAREN):
			p.advance()
			var args []Expr
			for !p.at(RPAREN) {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.accept(COMMA) {
					break
				}
			}
			if _, err := p.expect(RPAREN); err != nil {
				return nil, err
			}
			x = &Call{node: node{Span: x.Pos()}, Fun: x, Args: args}
		case p.at(DOT):
			p.advance()
			name, err := p.expect(NAME)
			if err != nil {
				return nil, err
			}
			x = &Attribute{node: node{Span: x.Pos()}, X: x, Name: name.Lexeme}
		case p.at(LBRACKET):
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET); err != nil {
				return nil, err
			}
			x = &Subscript{node: node{Span: x.Pos()}, X: x, Index: index}
		default:
			return x, nil
		}
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NAME:
		p.advance()
		return &Ident{node: node{Span: tok.Pos()}, Name: tok.Lexeme}, nil
	case INT:
		p.advance()
		return &Literal{node: node{Span: tok.Pos()}, Kind: LitInt, Value: tok.Lexeme}, nil
	case FLOAT:
		p.advance()
		return &Literal{node: node{Span: tok.Pos()}, Kind: LitFloat, Value: tok.Lexeme}, nil
	case STRING:
		p.advance()
		return &Literal{node: node{Span: tok.Pos()}, Kind: LitString, Value: tok.Lexeme}, nil
	case TRUE, FALSE:
		p.advance()
		return &Literal{node: node{Span: tok.Pos()}, Kind: LitBool, Value: tok.Lexeme}, nil
	case NONE:
		p.advance()
		return &Literal{node: node{Span: tok.Pos()}, Kind: LitNone, Value: "None"}, nil
	case LPAREN:
		return p.parseParenOrTuple()
	case LBRACKET:
		return p.parseListOrComp()
	case LAMBDA:
		return p.parseLambda()
	default:
		return nil, p.errorf("unexpected %s in expression", p.describe(tok))
	}
}

func (p *parser) parseParenOrTuple() (Expr, error) {
	tok := p.advance() // (
	if p.at(RPAREN) {
		p.advance()
		return &TupleExpr{node: node{Span: tok.Pos()}}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(COMMA) {
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return first, nil
	}
	elts := []Expr{first}
	for p.accept(COMMA) {
		if p.at(RPAREN) {
			break
		}
		elt, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, elt)
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return &TupleExpr{node: node{Span: tok.Pos()}, Elts: elts}, nil
}

func (p *parser) parseListOrComp() (Expr, error) {
	tok := p.advance() // [
	if p.at(RBRACKET) {
		p.advance()
		return &ListExpr{node: node{Span: tok.Pos()}}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.at(FOR) {
		p.advance()
		name, err := p.expect(NAME)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(IN); err != nil {
			return nil, err
		}
		iter, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		comp := &ListComp{node: node{Span: tok.Pos()}, Elt: first, Var: name.Lexeme, Iter: iter}
		if p.accept(IF) {
			comp.Cond, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		return comp, nil
	}
	elts := []Expr{first}
	for p.accept(COMMA) {
		if p.at(RBRACKET) {
			break
		}
		elt, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, elt)
	}
	if _, err := p.expect(RBRACKET); err != nil {
		return nil, err
	}
	return &ListExpr{node: node{Span: tok.Pos()}, Elts: elts}, nil
}
