package parser

import (
	"lolcode/internal/errors"
	"lolcode/internal/lexer"
)

type frameKind int

const (
	frameIf frameKind = iota
	frameSwitch
)

// frame is one open O RLY? or WTF? block on the structure stack.
type frame struct {
	kind       frameKind
	line       int
	hasPrimary bool // YA RLY seen
	hasElse    bool // NO WAI seen
	hasCase    bool // OMG seen
	hasDefault bool // OMGWTF seen
}

type loopFrame struct {
	label string
	line  int
}

// ParseLine parses the tokens of one source line into a statement and
// checks it against the structure stack.
func (p *Parser) ParseLine(tokens []lexer.Token) (Stmt, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	p.reset(tokens)

	head := p.peek()
	stmt, err := p.statement()
	if err != nil {
		return nil, err
	}
	if !p.isAtEnd() {
		return nil, p.errorAt(p.peek(), "unexpected tokens after %s: %s", head.Lexeme, p.rest())
	}
	return p.structure(stmt, head)
}

func (p *Parser) statement() (Stmt, error) {
	tok := p.peek()

	if tok.Type == lexer.TokenIdent {
		return p.identStatement()
	}

	if tok.Type == lexer.TokenKeyword {
		switch tok.Lexeme {
		case "HAI":
			p.advance()
			s := &ProgramStart{}
			if !p.isAtEnd() && (p.peek().Type == lexer.TokenFloat || p.peek().Type == lexer.TokenInteger) {
				s.Version = p.advance().Lexeme
			}
			return s, nil
		case "KTHXBYE":
			p.advance()
			return &ProgramEnd{}, nil
		case "WAZZUP":
			p.advance()
			return &VarBlockStart{}, nil
		case "BUHBYE":
			p.advance()
			return &VarBlockEnd{}, nil
		case "I HAS A":
			return p.declaration()
		case "VISIBLE":
			return p.visible()
		case "GIMMEH":
			p.advance()
			name, err := p.identifier("GIMMEH")
			if err != nil {
				return nil, err
			}
			return &Gimmeh{Name: name}, nil
		case "O RLY?":
			p.advance()
			return &IfStart{}, nil
		case "YA RLY":
			p.advance()
			return &Then{}, nil
		case "MEBBE":
			p.advance()
			cond, err := p.expression()
			if err != nil {
				return nil, err
			}
			return &ElseIf{Cond: cond}, nil
		case "NO WAI":
			p.advance()
			return &Else{}, nil
		case "OIC":
			p.advance()
			// Resolved to SwitchEnd by the structure stack when it closes a WTF?.
			return &IfEnd{}, nil
		case "WTF?":
			p.advance()
			s := &SwitchStart{}
			if !p.isAtEnd() {
				subject, err := p.expression()
				if err != nil {
					return nil, err
				}
				s.Subject = subject
			}
			return s, nil
		case "OMG":
			return p.caseLabel()
		case "OMGWTF":
			p.advance()
			return &DefaultCase{}, nil
		case "GTFO":
			p.advance()
			return &Break{}, nil
		case "IM IN YR":
			return p.loopStart()
		case "IM OUTTA YR":
			p.advance()
			label, err := p.identifier("IM OUTTA YR")
			if err != nil {
				return nil, err
			}
			return &LoopEnd{Label: label}, nil
		}
	}

	if tok.Type == lexer.TokenOperator || tok.IsLiteral() {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Expr: expr}, nil
	}

	return nil, p.errorAt(tok, "unexpected statement '%s'", tok.Lexeme)
}

// identStatement disambiguates a line that starts with an identifier by
// looking at the second token.
func (p *Parser) identStatement() (Stmt, error) {
	name := p.peek().Lexeme
	next, ok := p.peekAt(1)
	if !ok {
		p.advance()
		return &ExprStmt{Expr: &Ident{Name: name}}, nil
	}

	switch {
	case next.Is("R"):
		p.current += 2
		expr, err := p.requireExpression("R")
		if err != nil {
			return nil, err
		}
		return &Assign{Name: name, Expr: expr}, nil
	case next.Is("ITZ"):
		p.current += 2
		expr, err := p.requireExpression("ITZ")
		if err != nil {
			return nil, err
		}
		return &Declare{Name: name, Init: expr}, nil
	case next.Is("IS NOW A"):
		p.current += 2
		target, err := p.typeName("IS NOW A")
		if err != nil {
			return nil, err
		}
		return &Recast{Name: name, Target: target}, nil
	}

	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: expr}, nil
}

func (p *Parser) declaration() (Stmt, error) {
	p.advance()
	name, err := p.identifier("I HAS A")
	if err != nil {
		return nil, err
	}
	decl := &Declare{Name: name}
	if p.match("ITZ") {
		init, err := p.requireExpression("ITZ")
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	return decl, nil
}

func (p *Parser) visible() (Stmt, error) {
	p.advance()
	first, err := p.requireExpression("VISIBLE")
	if err != nil {
		return nil, err
	}
	s := &Visible{Exprs: []Expr{first}}
	for !p.isAtEnd() && !p.check("!") {
		mark := p.current
		p.match("AN")
		expr, ok := p.speculate(p.expression)
		if !ok {
			// Leave the leftovers for ParseLine to report.
			p.current = mark
			break
		}
		s.Exprs = append(s.Exprs, expr)
	}
	if p.match("!") {
		s.NoNewline = true
	}
	return s, nil
}

func (p *Parser) caseLabel() (Stmt, error) {
	p.advance()
	if p.isAtEnd() {
		return nil, p.errorAtEnd("expected literal value after OMG")
	}
	tok := p.peek()
	value, ok := p.speculate(p.primary)
	if !ok || !IsLiteral(value) {
		return nil, p.errorAt(tok, "OMG case value must be a literal, found '%s'", tok.Lexeme)
	}
	return &Case{Value: value}, nil
}

func (p *Parser) loopStart() (Stmt, error) {
	p.advance()
	label, err := p.identifier("IM IN YR")
	if err != nil {
		return nil, err
	}
	loop := &LoopStart{Label: label}

	switch {
	case p.match("UPPIN YR"):
		loop.Step = StepUp
	case p.match("NERFIN YR"):
		loop.Step = StepDown
	}
	if loop.Step != StepNone {
		name, err := p.identifier("loop operation")
		if err != nil {
			return nil, err
		}
		loop.Var = name
	}

	switch {
	case p.match("WILE"):
		loop.Mode = LoopWhile
	case p.match("TIL"):
		loop.Mode = LoopUntil
	}
	if loop.Mode != LoopForever {
		keyword := "WILE"
		if loop.Mode == LoopUntil {
			keyword = "TIL"
		}
		cond, err := p.requireExpression(keyword)
		if err != nil {
			return nil, err
		}
		loop.Cond = cond
	}
	return loop, nil
}

func (p *Parser) identifier(after string) (string, error) {
	if p.isAtEnd() {
		return "", p.errorAtEnd("expected variable name after %s", after)
	}
	tok := p.peek()
	if tok.Type != lexer.TokenIdent {
		return "", p.errorAt(tok, "expected variable name after %s, found '%s'", after, tok.Lexeme)
	}
	p.advance()
	return tok.Lexeme, nil
}

func (p *Parser) requireExpression(after string) (Expr, error) {
	if p.isAtEnd() {
		return nil, p.errorAtEnd("expected expression after %s", after)
	}
	return p.expression()
}

// structure validates stmt against the open blocks and updates the stack.
func (p *Parser) structure(stmt Stmt, head lexer.Token) (Stmt, error) {
	top := p.top()

	if top != nil && top.kind == frameIf && !top.hasPrimary {
		switch stmt.(type) {
		case *Then, *ElseIf, *Else, *IfEnd:
		default:
			return nil, p.errorAt(head, "expected YA RLY after O RLY?, found '%s'", head.Lexeme)
		}
	}
	if top != nil && top.kind == frameSwitch && !top.hasCase && !top.hasDefault {
		switch stmt.(type) {
		case *Case, *DefaultCase, *IfEnd:
		default:
			return nil, p.errorAt(head, "expected OMG after WTF?, found '%s'", head.Lexeme)
		}
	}

	switch s := stmt.(type) {
	case *IfStart:
		p.frames = append(p.frames, frame{kind: frameIf, line: head.Line})

	case *Then:
		if top == nil || top.kind != frameIf {
			return nil, p.errorAt(head, "YA RLY without preceding O RLY?")
		}
		if top.hasPrimary {
			return nil, p.errorAt(head, "duplicate YA RLY in O RLY? block")
		}
		top.hasPrimary = true

	case *ElseIf:
		if top == nil || top.kind != frameIf {
			return nil, p.errorAt(head, "MEBBE without preceding O RLY?")
		}
		if !top.hasPrimary {
			return nil, p.errorAt(head, "MEBBE without preceding YA RLY")
		}
		if top.hasElse {
			return nil, p.errorAt(head, "MEBBE after NO WAI")
		}

	case *Else:
		if top == nil || top.kind != frameIf {
			return nil, p.errorAt(head, "NO WAI without preceding O RLY?")
		}
		if !top.hasPrimary {
			return nil, p.errorAt(head, "NO WAI without preceding YA RLY")
		}
		if top.hasElse {
			return nil, p.errorAt(head, "duplicate NO WAI in O RLY? block")
		}
		top.hasElse = true

	case *IfEnd:
		if top == nil {
			return nil, p.errorAt(head, "OIC without open O RLY? or WTF?")
		}
		closed := *top
		p.frames = p.frames[:len(p.frames)-1]
		if closed.kind == frameSwitch {
			if !closed.hasCase {
				return nil, p.errorAt(head, "WTF? block closed without any OMG")
			}
			return &SwitchEnd{}, nil
		}
		if !closed.hasPrimary {
			return nil, p.errorAt(head, "O RLY? block closed without YA RLY")
		}

	case *SwitchStart:
		p.frames = append(p.frames, frame{kind: frameSwitch, line: head.Line})

	case *Case:
		if top == nil || top.kind != frameSwitch {
			return nil, p.errorAt(head, "OMG outside WTF? block")
		}
		top.hasCase = true

	case *DefaultCase:
		if top == nil || top.kind != frameSwitch {
			return nil, p.errorAt(head, "OMGWTF outside WTF? block")
		}
		top.hasDefault = true

	case *LoopStart:
		if p.opts.StrictLoopLabels {
			p.loops = append(p.loops, loopFrame{label: s.Label, line: head.Line})
		}

	case *LoopEnd:
		if p.opts.StrictLoopLabels {
			if len(p.loops) == 0 {
				return nil, p.errorAt(head, "IM OUTTA YR %s without IM IN YR", s.Label)
			}
			open := p.loops[len(p.loops)-1]
			p.loops = p.loops[:len(p.loops)-1]
			if open.label != s.Label {
				return nil, p.errorAt(head, "IM OUTTA YR %s does not match IM IN YR %s on line %d", s.Label, open.label, open.line)
			}
		}
	}

	return stmt, nil
}

func (p *Parser) top() *frame {
	if len(p.frames) == 0 {
		return nil
	}
	return &p.frames[len(p.frames)-1]
}

// Finish reports blocks that are still open once every line is parsed.
func (p *Parser) Finish() []*errors.LolError {
	var errs []*errors.LolError
	for _, f := range p.frames {
		opener := "O RLY?"
		if f.kind == frameSwitch {
			opener = "WTF?"
		}
		errs = append(errs, errors.Syntaxf(f.line, 1, "%s opened on line %d is never closed with OIC", opener, f.line))
	}
	for _, l := range p.loops {
		errs = append(errs, errors.Syntaxf(l.line, 1, "IM IN YR %s opened on line %d is never closed", l.label, l.line))
	}
	p.frames = nil
	p.loops = nil
	return errs
}
