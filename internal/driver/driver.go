// Package driver glues the lexer, assembler and interpreter together.
package driver

import (
	"os"

	"github.com/pkg/errors"

	lolerrors "lolcode/internal/errors"
	"lolcode/internal/interpreter"
	"lolcode/internal/lexer"
	"lolcode/internal/parser"
)

func Tokenize(source string) []lexer.Token {
	return lexer.Tokenize(source)
}

// Parse tokenizes and assembles source. Diagnostics carry their source line.
func Parse(source string, opts parser.Options) *parser.Program {
	prog := parser.AssembleWithOptions(lexer.Tokenize(source), opts)
	lolerrors.AttachSource(prog.Errors, source)
	return prog
}

// Run parses and evaluates source. A program with diagnostics is rejected
// without running.
func Run(source string, popts parser.Options, opts interpreter.Options) *interpreter.Result {
	res := interpreter.New(Parse(source, popts), opts).Run()
	lolerrors.AttachSource(res.Errors, source)
	return res
}

// ReadSource loads a program file.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	return string(data), nil
}
