// internal/repl/repl.go
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"lolcode/internal/config"
	"lolcode/internal/driver"
	"lolcode/internal/errors"
	"lolcode/internal/interpreter"
	"lolcode/internal/lexer"
	"lolcode/internal/parser"
	"lolcode/internal/reporting"
)

// REPL keeps every accepted line and replays the whole session on each new
// chunk, printing only what is new. Answers given to GIMMEH are replayed
// in order, so earlier prompts are not asked again.
type REPL struct {
	scanner     *bufio.Scanner
	out         io.Writer
	cfg         config.Config
	interactive bool

	lines    []string
	inputs   []string
	printed  int
	reported int
	last     *interpreter.Result
}

func New(in io.Reader, out io.Writer, cfg config.Config) *REPL {
	r := &REPL{
		scanner: bufio.NewScanner(in),
		out:     out,
		cfg:     cfg,
	}
	if f, ok := in.(*os.File); ok {
		r.interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return r
}

func Start(cfg config.Config) error {
	r := New(os.Stdin, os.Stdout, cfg)
	if r.interactive {
		fmt.Fprintln(r.out, "LOLCODE REPL | type 'exit' to quit, ':vars' for variables")
	}
	return r.Run()
}

func (r *REPL) Run() error {
	var pending []string
	for {
		if len(pending) == 0 {
			r.prompt(">>> ")
		} else {
			r.prompt("... ")
		}
		if !r.scanner.Scan() {
			break
		}
		line := r.scanner.Text()

		if len(pending) == 0 {
			switch strings.TrimSpace(line) {
			case "":
				continue
			case "exit", "KTHXBYE":
				return nil
			case "HAI":
				continue
			case ":vars":
				r.showVariables()
				continue
			case ":reset":
				r.reset()
				continue
			}
		}

		pending = append(pending, line)
		prog := parser.AssembleWithOptions(lexer.Tokenize(r.source(pending)), r.cfg.ParserOptions())
		if openBlocks(prog) > 0 {
			continue
		}
		if len(prog.Errors) > 0 {
			for _, msg := range errors.Messages(prog.Errors) {
				fmt.Fprintln(r.out, msg)
			}
			pending = nil
			continue
		}

		r.lines = append(r.lines, pending...)
		pending = nil
		if err := r.execute(); err != nil {
			return err
		}
	}
	return r.scanner.Err()
}

func (r *REPL) source(extra []string) string {
	body := append(append([]string{}, r.lines...), extra...)
	return "HAI\n" + strings.Join(body, "\n") + "\nKTHXBYE"
}

func (r *REPL) execute() error {
	src := r.source(nil)
	res := driver.Run(src, r.cfg.ParserOptions(), r.cfg.RunOptions(r.inputs))

	for res.Status == interpreter.StatusSuspended {
		r.flush(res)
		r.prompt(res.Pending)
		if res.Pending == "" {
			r.prompt(res.Continuation.Prompt + "> ")
		}
		if !r.scanner.Scan() {
			return r.scanner.Err()
		}
		input := r.scanner.Text()
		r.inputs = append(r.inputs, input)

		var err error
		res, err = res.Continuation.Resume(input)
		if err != nil {
			return err
		}
	}

	r.flush(res)
	r.last = res
	return nil
}

// flush prints output lines and diagnostics not shown by an earlier replay.
func (r *REPL) flush(res *interpreter.Result) {
	for ; r.printed < len(res.Output); r.printed++ {
		fmt.Fprintln(r.out, res.Output[r.printed])
	}
	for ; r.reported < len(res.Errors); r.reported++ {
		fmt.Fprintln(r.out, res.Errors[r.reported].Error())
	}
}

func (r *REPL) showVariables() {
	if r.last == nil {
		return
	}
	report := reporting.FromResult(r.last)
	report.Output, report.Pending, report.Diagnostics = nil, "", nil
	fmt.Fprint(r.out, strings.TrimPrefix(reporting.Text(report), "\n"))
}

func (r *REPL) reset() {
	r.lines, r.inputs = nil, nil
	r.printed, r.reported = 0, 0
	r.last = nil
}

func (r *REPL) prompt(s string) {
	if r.interactive && s != "" {
		fmt.Fprint(r.out, s)
	}
}

// openBlocks counts block openers without a closer. A chunk is complete
// when it reaches zero.
func openBlocks(prog *parser.Program) int {
	depth := 0
	for _, l := range prog.Statements() {
		switch l.Stmt.(type) {
		case *parser.IfStart, *parser.SwitchStart, *parser.LoopStart:
			depth++
		case *parser.IfEnd, *parser.SwitchEnd, *parser.LoopEnd:
			depth--
		}
	}
	return depth
}
