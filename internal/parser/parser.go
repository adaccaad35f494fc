// internal/parser/parser.go
package parser

import (
	"strconv"
	"strings"

	"lolcode/internal/errors"
	"lolcode/internal/lexer"
)

// Options tune the statement parser.
type Options struct {
	// StrictLoopLabels rejects IM OUTTA YR labels that do not match the
	// innermost open IM IN YR.
	StrictLoopLabels bool
}

// Parser parses one line at a time. Block structure that spans lines is
// tracked on its structure stack, which lives as long as the Parser.
type Parser struct {
	tokens  []lexer.Token
	current int
	line    int
	opts    Options
	frames  []frame
	loops   []loopFrame
}

func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// ParseExpression parses a complete expression from tokens.
func ParseExpression(tokens []lexer.Token) (Expr, error) {
	p := NewParser(Options{})
	p.reset(tokens)
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.isAtEnd() {
		return nil, p.errorAt(p.peek(), "unexpected '%s' after expression", p.peek().Lexeme)
	}
	return expr, nil
}

func (p *Parser) reset(tokens []lexer.Token) {
	p.tokens = tokens
	p.current = 0
	p.line = 0
	if len(tokens) > 0 {
		p.line = tokens[0].Line
	}
}

// --- expressions, lowest precedence first ---

func (p *Parser) expression() (Expr, error) {
	return p.concat()
}

func (p *Parser) concat() (Expr, error) {
	if p.match("SMOOSH") {
		ops, err := p.operandList("SMOOSH")
		if err != nil {
			return nil, err
		}
		return &Concat{Operands: ops}, nil
	}
	return p.logicalOr()
}

func (p *Parser) logicalOr() (Expr, error) {
	switch {
	case p.match("ANY OF"):
		ops, err := p.operandList("ANY OF")
		if err != nil {
			return nil, err
		}
		return &Logical{Op: "ANY OF", Operands: ops}, nil
	case p.check("EITHER OF"), p.check("WON OF"):
		op := p.advance().Lexeme
		left, right, err := p.operands(op)
		if err != nil {
			return nil, err
		}
		return &Logical{Op: op, Operands: []Expr{left, right}}, nil
	}
	return p.logicalAnd()
}

func (p *Parser) logicalAnd() (Expr, error) {
	switch {
	case p.match("ALL OF"):
		ops, err := p.operandList("ALL OF")
		if err != nil {
			return nil, err
		}
		return &Logical{Op: "ALL OF", Operands: ops}, nil
	case p.check("BOTH OF"):
		op := p.advance().Lexeme
		left, right, err := p.operands(op)
		if err != nil {
			return nil, err
		}
		return &Logical{Op: op, Operands: []Expr{left, right}}, nil
	}
	return p.comparison()
}

func (p *Parser) comparison() (Expr, error) {
	if p.checkAny("BIGGR OF", "SMALLR OF", "BOTH SAEM", "DIFFRINT") {
		op := p.advance().Lexeme
		left, right, err := p.operands(op)
		if err != nil {
			return nil, err
		}
		return &Comparison{Op: op, Left: left, Right: right}, nil
	}
	return p.additive()
}

func (p *Parser) additive() (Expr, error) {
	if p.checkAny("SUM OF", "DIFF OF") {
		return p.arithmetic()
	}
	return p.multiplicative()
}

func (p *Parser) multiplicative() (Expr, error) {
	if p.checkAny("PRODUKT OF", "QUOSHUNT OF", "MOD OF") {
		return p.arithmetic()
	}
	return p.unary()
}

func (p *Parser) arithmetic() (Expr, error) {
	op := p.advance().Lexeme
	left, right, err := p.operands(op)
	if err != nil {
		return nil, err
	}
	return &Arithmetic{Op: op, Left: left, Right: right}, nil
}

func (p *Parser) unary() (Expr, error) {
	if p.match("NOT") {
		operand, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "NOT", Operand: operand}, nil
	}
	return p.primary()
}

func (p *Parser) primary() (Expr, error) {
	if p.isAtEnd() {
		return nil, p.errorAtEnd("unexpected end of line in expression")
	}

	tok := p.peek()
	switch tok.Type {
	case lexer.TokenString:
		p.advance()
		return &StringLit{Value: tok.Value}, nil
	case lexer.TokenInteger:
		p.advance()
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, p.errorAt(tok, "integer literal %s is out of range", tok.Lexeme)
		}
		return &IntLit{Value: n}, nil
	case lexer.TokenFloat:
		p.advance()
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorAt(tok, "invalid NUMBAR literal %s", tok.Lexeme)
		}
		return &FloatLit{Value: f}, nil
	case lexer.TokenBoolean:
		p.advance()
		return &BoolLit{Value: tok.Lexeme == "WIN"}, nil
	case lexer.TokenTypeName:
		p.advance()
		return &TypeLit{Type: TypeName(tok.Lexeme)}, nil
	case lexer.TokenIdent:
		p.advance()
		return &Ident{Name: tok.Lexeme}, nil
	}

	if tok.Is("MAEK") {
		return p.cast()
	}
	return nil, p.errorAt(tok, "unexpected '%s' in expression", tok.Lexeme)
}

// cast parses MAEK expr [A] type.
func (p *Parser) cast() (Expr, error) {
	p.advance()
	operand, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.match("A")
	target, err := p.typeName("MAEK")
	if err != nil {
		return nil, err
	}
	return &Cast{Operand: operand, Target: target}, nil
}

func (p *Parser) typeName(after string) (TypeName, error) {
	if p.isAtEnd() {
		return "", p.errorAtEnd("expected type after %s", after)
	}
	tok := p.peek()
	if tok.Type != lexer.TokenTypeName {
		return "", p.errorAt(tok, "expected type after %s, found '%s'", after, tok.Lexeme)
	}
	p.advance()
	return TypeName(tok.Lexeme), nil
}

// operands parses "a AN b" for a prefix binary operator.
func (p *Parser) operands(op string) (Expr, Expr, error) {
	left, err := p.expression()
	if err != nil {
		return nil, nil, err
	}
	if !p.match("AN") {
		if p.isAtEnd() {
			return nil, nil, p.errorAtEnd("expected AN after first operand of %s", op)
		}
		return nil, nil, p.errorAt(p.peek(), "expected AN after first operand of %s, found '%s'", op, p.peek().Lexeme)
	}
	right, err := p.expression()
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// operandList parses "a [AN b ...] [MKAY]".
func (p *Parser) operandList(op string) ([]Expr, error) {
	if p.isAtEnd() || p.check("MKAY") {
		return nil, p.errorAtEnd("expected operand after %s", op)
	}
	first, err := p.expression()
	if err != nil {
		return nil, err
	}
	ops := []Expr{first}
	for p.match("AN") {
		next, err := p.expression()
		if err != nil {
			return nil, err
		}
		ops = append(ops, next)
	}
	p.match("MKAY")
	return ops, nil
}

// speculate runs fn and rewinds the cursor if it fails.
func (p *Parser) speculate(fn func() (Expr, error)) (Expr, bool) {
	mark := p.current
	expr, err := fn()
	if err != nil {
		p.current = mark
		return nil, false
	}
	return expr, true
}

// --- cursor helpers ---

func (p *Parser) match(phrase string) bool {
	if p.check(phrase) {
		p.current++
		return true
	}
	return false
}

func (p *Parser) check(phrase string) bool {
	return !p.isAtEnd() && p.peek().Is(phrase)
}

func (p *Parser) checkAny(phrases ...string) bool {
	for _, ph := range phrases {
		if p.check(ph) {
			return true
		}
	}
	return false
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.current]
	p.current++
	return tok
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(offset int) (lexer.Token, bool) {
	i := p.current + offset
	if i >= len(p.tokens) {
		return lexer.Token{}, false
	}
	return p.tokens[i], true
}

func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens)
}

func (p *Parser) rest() string {
	parts := make([]string, 0, len(p.tokens)-p.current)
	for _, tok := range p.tokens[p.current:] {
		parts = append(parts, tok.Lexeme)
	}
	return strings.Join(parts, " ")
}

func (p *Parser) errorAt(tok lexer.Token, format string, args ...interface{}) *errors.LolError {
	return errors.Syntaxf(tok.Line, tok.Column, format, args...)
}

func (p *Parser) errorAtEnd(format string, args ...interface{}) *errors.LolError {
	col := 1
	if n := len(p.tokens); n > 0 {
		last := p.tokens[n-1]
		col = last.Column + len([]rune(last.Lexeme))
	}
	return errors.Syntaxf(p.line, col, format, args...)
}
