package formatter

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
	"github.com/kr/text"

	"lolcode/internal/lexer"
	"lolcode/internal/parser"
)

// Formatter re-indents LOLCODE source by block nesting. Only leading
// whitespace changes, so comments and failing lines survive untouched.
type Formatter struct {
	indent    int
	indentStr string
	output    strings.Builder
	lineBreak string
}

func NewFormatter() *Formatter {
	return &Formatter{
		indentStr: "  ",
		lineBreak: "\n",
	}
}

// WithIndent sets the string written once per nesting level.
func (f *Formatter) WithIndent(s string) *Formatter {
	f.indentStr = s
	return f
}

func (f *Formatter) Format(source string, prog *parser.Program) string {
	f.output.Reset()
	f.indent = 0

	stmts := make(map[int]parser.Stmt, len(prog.Lines))
	for _, l := range prog.Lines {
		if l.Stmt != nil {
			stmts[l.Number] = l.Stmt
		}
	}

	lines := strings.Split(strings.TrimRight(source, "\n"), "\n")
	for i, raw := range lines {
		content := strings.TrimSpace(raw)
		if content == "" {
			f.output.WriteString(f.lineBreak)
			continue
		}
		before, level, after := f.levels(stmts[i+1])
		f.indent += before
		f.writeIndent(f.indent + level)
		f.output.WriteString(content)
		f.output.WriteString(f.lineBreak)
		f.indent += after
		if f.indent < 0 {
			f.indent = 0
		}
	}

	return f.output.String()
}

// levels returns the indent change applied before the line, the extra
// indent for the line itself, and the change applied after it.
func (f *Formatter) levels(stmt parser.Stmt) (before, level, after int) {
	switch stmt.(type) {
	case *parser.ProgramStart, *parser.VarBlockStart, *parser.LoopStart:
		return 0, 0, 1
	case *parser.ProgramEnd, *parser.VarBlockEnd, *parser.LoopEnd:
		return -1, 0, 0
	case *parser.IfStart, *parser.SwitchStart:
		return 0, 0, 2
	case *parser.Then, *parser.ElseIf, *parser.Else, *parser.Case, *parser.DefaultCase:
		return 0, -1, 0
	case *parser.IfEnd, *parser.SwitchEnd:
		return -2, 0, 0
	}
	return 0, 0, 0
}

func (f *Formatter) writeIndent(n int) {
	for i := 0; i < n; i++ {
		f.output.WriteString(f.indentStr)
	}
}

// Tokens renders the lexeme table: one token per row with its position and
// classification.
func Tokens(tokens []lexer.Token) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-8s %-9s %s\n", "LINE:COL", "TYPE", "LEXEME"))
	for _, tok := range tokens {
		pos := fmt.Sprintf("%d:%d", tok.Line, tok.Column)
		lexeme := tok.Lexeme
		if tok.Type == lexer.TokenIllegal {
			lexeme = fmt.Sprintf("%s  (%s)", tok.Lexeme, tok.Value)
		}
		sb.WriteString(fmt.Sprintf("%-8s %-9s %s\n", pos, tok.Type, lexeme))
	}
	return sb.String()
}

// Tree renders the parse sequence, indented by block nesting. With ast set
// each statement is followed by its node structure.
func Tree(prog *parser.Program, ast bool) string {
	var sb strings.Builder
	depth := 0
	f := NewFormatter()
	for _, l := range prog.Lines {
		if l.Stmt == nil {
			sb.WriteString(fmt.Sprintf("%4d  <error>\n", l.Number))
			continue
		}
		before, level, after := f.levels(l.Stmt)
		depth += before
		if depth < 0 {
			depth = 0
		}
		prefix := strings.Repeat("  ", max(depth+level, 0))

		sb.WriteString(fmt.Sprintf("%4d  %s%s\n", l.Number, prefix, l.Stmt))
		if ast {
			node := fmt.Sprintf("%# v", pretty.Formatter(l.Stmt))
			sb.WriteString(text.Indent(node+"\n", "      "+prefix+"  "))
		}
		depth += after
	}
	return sb.String()
}
