// cmd/lolcode/commands/commands.go
//
// Package commands implements the lolcode subcommands. Each command parses
// its own flags over the environment configuration and returns an error;
// ErrFailed means the failure was already reported.
package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"lolcode/internal/config"
	"lolcode/internal/driver"
	lolerrors "lolcode/internal/errors"
	"lolcode/internal/formatter"
	"lolcode/internal/interpreter"
	"lolcode/internal/repl"
	"lolcode/internal/reporting"
	"lolcode/internal/session"
	golden "lolcode/internal/testing"
)

// ErrFailed is returned after a command has printed its own diagnostics.
var ErrFailed = errors.New("failed")

// Env is what a command reads from and writes to.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Config config.Config
}

// Default wires a command to the process streams and LOLCODE_* settings.
func Default() *Env {
	return &Env{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr, Config: config.Load()}
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// flags registers the options every running command shares.
func (e *Env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.Stderr)
	fs.IntVar(&e.Config.MaxIterations, "max-iterations", e.Config.MaxIterations, "loop iteration ceiling")
	fs.BoolVar(&e.Config.StrictLabels, "strict-labels", e.Config.StrictLabels, "require IM OUTTA YR labels to match")
	fs.BoolVar(&e.Config.Debug, "debug", e.Config.Debug, "attach stack traces to internal errors")
	fs.BoolVar(&e.Config.Lenient, "lenient", e.Config.Lenient, "run the statements that parsed despite syntax errors")
	return fs
}

func (e *Env) file(fs *flag.FlagSet, args []string) (string, string, error) {
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if fs.NArg() != 1 {
		return "", "", errors.Errorf("usage: lolcode %s [flags] <file.lol>", fs.Name())
	}
	path := fs.Arg(0)
	src, err := driver.ReadSource(path)
	return path, src, err
}

func terminal(f interface{}) bool {
	file, ok := f.(*os.File)
	return ok && (isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd()))
}

// RunCommand executes a program. GIMMEH answers come from -input flags
// first, then from stdin one line at a time.
func RunCommand(e *Env, args []string) error {
	fs := e.flags("run")
	fs.StringVar(&e.Config.Format, "format", e.Config.Format, "report format: text, json or yaml")
	stats := fs.Bool("stats", false, "print a run summary to stderr")
	var inputs stringList
	fs.Var(&inputs, "input", "GIMMEH answer (repeatable)")

	_, src, err := e.file(fs, args)
	if err != nil {
		return err
	}

	res := driver.Run(src, e.Config.ParserOptions(), e.Config.RunOptions(inputs))
	stdin := bufio.NewScanner(e.Stdin)
	text := e.Config.Format == "" || e.Config.Format == config.DefaultFormat
	printed := 0

	for res.Status == interpreter.StatusSuspended {
		if text {
			for ; printed < len(res.Output); printed++ {
				fmt.Fprintln(e.Stdout, res.Output[printed])
			}
		}
		if terminal(e.Stdin) {
			prompt := res.Pending
			if prompt == "" {
				prompt = res.Continuation.Prompt + "> "
			}
			fmt.Fprint(e.Stderr, prompt)
		}
		if !stdin.Scan() {
			break
		}
		if res, err = res.Continuation.Resume(stdin.Text()); err != nil {
			return err
		}
	}

	report := reporting.FromResult(res)
	if text {
		report.Output = report.Output[printed:]
	}
	if err := reporting.Write(e.Stdout, e.Config.Format, report); err != nil {
		return err
	}
	if *stats {
		fmt.Fprintln(e.Stderr, reporting.Summary(report))
	}
	if res.Status != interpreter.StatusCompleted || len(res.Errors) > 0 {
		return ErrFailed
	}
	return nil
}

// TokensCommand prints the lexeme table.
func TokensCommand(e *Env, args []string) error {
	_, src, err := e.file(e.flags("tokens"), args)
	if err != nil {
		return err
	}
	fmt.Fprint(e.Stdout, formatter.Tokens(driver.Tokenize(src)))
	return nil
}

// ParseCommand prints the parse sequence followed by any diagnostics.
func ParseCommand(e *Env, args []string) error {
	fs := e.flags("parse")
	ast := fs.Bool("ast", false, "dump each statement node")
	_, src, err := e.file(fs, args)
	if err != nil {
		return err
	}

	prog := driver.Parse(src, e.Config.ParserOptions())
	fmt.Fprint(e.Stdout, formatter.Tree(prog, *ast))
	return e.diagnose(prog.Errors)
}

// CheckCommand parses without running.
func CheckCommand(e *Env, args []string) error {
	path, src, err := e.file(e.flags("check"), args)
	if err != nil {
		return err
	}
	prog := driver.Parse(src, e.Config.ParserOptions())
	if err := e.diagnose(prog.Errors); err != nil {
		return err
	}
	fmt.Fprintf(e.Stdout, "%s: ok, %d statements\n", path, len(prog.Statements()))
	return nil
}

// FmtCommand re-indents a program by block nesting.
func FmtCommand(e *Env, args []string) error {
	fs := e.flags("fmt")
	write := fs.Bool("w", false, "write the result back to the file")
	indent := fs.String("indent", "  ", "indent unit")
	path, src, err := e.file(fs, args)
	if err != nil {
		return err
	}

	prog := driver.Parse(src, e.Config.ParserOptions())
	out := formatter.NewFormatter().WithIndent(*indent).Format(src, prog)
	if !*write {
		fmt.Fprint(e.Stdout, out)
		return nil
	}
	if out == src {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.Wrapf(os.WriteFile(path, []byte(out), info.Mode().Perm()), "write %s", path)
}

// ReplCommand starts the interactive session.
func ReplCommand(e *Env, args []string) error {
	if err := e.flags("repl").Parse(args); err != nil {
		return err
	}
	if e.Stdin == os.Stdin && e.Stdout == os.Stdout {
		return repl.Start(e.Config)
	}
	return repl.New(e.Stdin, e.Stdout, e.Config).Run()
}

// ServeCommand runs the WebSocket session server until interrupted.
func ServeCommand(e *Env, args []string) error {
	fs := e.flags("serve")
	fs.StringVar(&e.Config.Listen, "listen", e.Config.Listen, "address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := session.NewServer(e.Config.Listen, e.Config.ParserOptions(), e.Config.RunOptions(nil))
	return srv.ListenAndServe(ctx)
}

// TestCommand runs golden tests under the given files or directories.
func TestCommand(e *Env, args []string) error {
	fs := e.flags("test")
	cfg := &golden.TestConfig{}
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose output")
	fs.StringVar(&cfg.Filter, "run", "", "only run tests whose name contains this")
	fs.BoolVar(&cfg.FailFast, "failfast", false, "stop at the first failure")
	fs.StringVar(&cfg.OutputFormat, "format", "text", "report format: text, json or junit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Parser = e.Config.ParserOptions()
	cfg.Run = e.Config.RunOptions(nil)
	cfg.Color = terminal(e.Stdout)

	roots := fs.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}
	runner := golden.NewTestRunner(cfg, e.Stdout)
	found := 0
	for _, root := range roots {
		suites, err := golden.DiscoverTests(root)
		if err != nil {
			return err
		}
		for _, s := range suites {
			found += len(s.Tests)
			runner.AddSuite(s)
		}
	}
	if found == 0 {
		return errors.Errorf("no %s files found", golden.SourceExt)
	}

	if !runner.Run().OK() {
		return ErrFailed
	}
	return nil
}

func (e *Env) diagnose(errs []*lolerrors.LolError) error {
	if len(errs) == 0 {
		return nil
	}
	for _, err := range errs {
		fmt.Fprint(e.Stderr, err.Detailed())
	}
	return ErrFailed
}
