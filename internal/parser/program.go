package parser

import (
	"lolcode/internal/errors"
	"lolcode/internal/lexer"
)

// Line is one assembled source line. Stmt is nil when the line failed to
// parse; the raw tokens are kept for the inspection views either way.
type Line struct {
	Number int
	Tokens []lexer.Token
	Stmt   Stmt
}

// Program is the assembled statement sequence and every lexical and syntax
// diagnostic found while building it.
type Program struct {
	Lines  []Line
	Errors []*errors.LolError
}

// Statements returns the lines that produced a statement, in source order.
func (p *Program) Statements() []Line {
	out := make([]Line, 0, len(p.Lines))
	for _, l := range p.Lines {
		if l.Stmt != nil {
			out = append(out, l)
		}
	}
	return out
}

// OK reports whether the program assembled without diagnostics.
func (p *Program) OK() bool { return len(p.Errors) == 0 }

// Assemble parses tokens into a Program with default options.
func Assemble(tokens []lexer.Token) *Program {
	return AssembleWithOptions(tokens, Options{})
}

type assembler struct {
	parser   *Parser
	prog     *Program
	startAt  int // line of the first HAI, 0 if none
	endAt    int // line of the first KTHXBYE, 0 if none
	varBlock int // line of the open WAZZUP, 0 if none
}

// AssembleWithOptions groups tokens by line, parses each line and then
// checks the program-level markers.
func AssembleWithOptions(tokens []lexer.Token, opts Options) *Program {
	a := &assembler{
		parser: NewParser(opts),
		prog:   &Program{},
	}

	lastLine := 1
	for _, lineTokens := range lexer.GroupByLine(tokens) {
		number := lineTokens[0].Line
		lastLine = number
		a.prog.Lines = append(a.prog.Lines, Line{
			Number: number,
			Tokens: lineTokens,
			Stmt:   a.line(lineTokens),
		})
	}

	a.prog.Errors = append(a.prog.Errors, a.parser.Finish()...)
	a.finish(lastLine)
	return a.prog
}

func (a *assembler) line(tokens []lexer.Token) Stmt {
	illegal := false
	for _, tok := range tokens {
		if tok.Type == lexer.TokenIllegal {
			a.prog.Errors = append(a.prog.Errors, errors.NewLexicalError(tok.Value, tok.Line, tok.Column))
			illegal = true
		}
	}
	if illegal {
		return nil
	}

	stmt, err := a.parser.ParseLine(tokens)
	if err != nil {
		a.fail(err)
		return nil
	}

	head := tokens[0]
	switch stmt.(type) {
	case *ProgramStart:
		if a.startAt != 0 {
			a.add(errors.Syntaxf(head.Line, head.Column, "duplicate HAI, program already started on line %d", a.startAt))
			return nil
		}
		a.startAt = head.Line

	case *ProgramEnd:
		if a.endAt != 0 {
			a.add(errors.Syntaxf(head.Line, head.Column, "duplicate KTHXBYE, program already ended on line %d", a.endAt))
			return nil
		}
		a.endAt = head.Line

	case *VarBlockStart:
		if a.varBlock != 0 {
			a.add(errors.Syntaxf(head.Line, head.Column, "WAZZUP inside WAZZUP opened on line %d", a.varBlock))
			return nil
		}
		a.varBlock = head.Line

	case *VarBlockEnd:
		if a.varBlock == 0 {
			a.add(errors.Syntaxf(head.Line, head.Column, "BUHBYE without preceding WAZZUP"))
			return nil
		}
		a.varBlock = 0

	case *Declare:

	default:
		if a.varBlock != 0 {
			a.add(errors.Syntaxf(head.Line, head.Column, "only declarations are allowed between WAZZUP and BUHBYE, found '%s'", head.Lexeme))
			return nil
		}
	}
	return stmt
}

func (a *assembler) finish(lastLine int) {
	if a.varBlock != 0 {
		a.add(errors.Syntaxf(a.varBlock, 1, "WAZZUP opened on line %d is never closed with BUHBYE", a.varBlock))
	}
	switch {
	case a.startAt == 0:
		a.add(errors.Syntaxf(1, 1, "program must start with HAI"))
	case a.endAt != 0 && a.endAt < a.startAt:
		a.add(errors.Syntaxf(a.endAt, 1, "KTHXBYE appears before HAI"))
	}
	if a.endAt == 0 {
		a.add(errors.Syntaxf(lastLine, 1, "program must end with KTHXBYE"))
	}
}

func (a *assembler) fail(err error) {
	if le, ok := err.(*errors.LolError); ok {
		a.add(le)
		return
	}
	a.add(errors.NewSyntaxError(err.Error(), 0, 0))
}

func (a *assembler) add(e *errors.LolError) {
	a.prog.Errors = append(a.prog.Errors, e)
}
