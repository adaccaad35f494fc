// cmd/lolcode/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"

	"lolcode/cmd/lolcode/commands"
)

const VERSION = "1.2.0"

// Build variables - can be set during build with ldflags
var (
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(lolcode())
}

func lolcode() int {
	log.SetFlags(0)
	log.SetPrefix("lolcode: ")

	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return 2
	}

	var cmd func(*commands.Env, []string) error
	switch args[0] {
	case "run":
		cmd = commands.RunCommand
	case "tokens":
		cmd = commands.TokensCommand
	case "parse":
		cmd = commands.ParseCommand
	case "check":
		cmd = commands.CheckCommand
	case "fmt":
		cmd = commands.FmtCommand
	case "repl":
		cmd = commands.ReplCommand
	case "serve":
		cmd = commands.ServeCommand
	case "test":
		cmd = commands.TestCommand
	case "version", "--version", "-v":
		fmt.Printf("lolcode %s (commit %s, built %s)\n", VERSION, GitCommit, BuildDate)
		return 0
	case "help", "--help", "-h":
		showUsage()
		return 0
	default:
		log.Printf("unknown command %q", args[0])
		showUsage()
		return 2
	}

	if err := cmd(commands.Default(), args[1:]); err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, commands.ErrFailed):
		default:
			log.Printf("Error: %v", err)
		}
		return 1
	}
	return 0
}

func showUsage() {
	fmt.Fprintln(os.Stderr, `LOLCODE interpreter

Usage:
  lolcode run <file.lol>      Run a program
  lolcode tokens <file.lol>   Print the token table
  lolcode parse <file.lol>    Print the parse sequence (-ast for node dumps)
  lolcode check <file.lol>    Check a program without running it
  lolcode fmt <file.lol>      Re-indent a program (-w to rewrite the file)
  lolcode test [paths...]     Run golden .lol/.out tests
  lolcode repl                Start the interactive session
  lolcode serve               Serve runs over WebSocket
  lolcode version             Show version information

Environment:
  LOLCODE_MAX_ITERATIONS, LOLCODE_FORMAT, LOLCODE_LISTEN,
  LOLCODE_DEBUG, LOLCODE_STRICT_LABELS`)
}
