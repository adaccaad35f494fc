package config

import (
	"github.com/xyproto/env/v2"

	"lolcode/internal/interpreter"
	"lolcode/internal/parser"
)

// Config holds the runtime options shared by every command.
type Config struct {
	MaxIterations int
	Format        string // text, json or yaml
	Listen        string
	Debug         bool
	StrictLabels  bool
	Lenient       bool
}

const (
	DefaultFormat = "text"
	DefaultListen = "127.0.0.1:8642"
)

// Load reads LOLCODE_* environment variables over the defaults.
func Load() Config {
	cfg := Config{
		MaxIterations: env.Int("LOLCODE_MAX_ITERATIONS", interpreter.DefaultMaxIterations),
		Format:        env.Str("LOLCODE_FORMAT", DefaultFormat),
		Listen:        env.Str("LOLCODE_LISTEN", DefaultListen),
		Debug:         env.Bool("LOLCODE_DEBUG"),
		StrictLabels:  env.Bool("LOLCODE_STRICT_LABELS"),
		Lenient:       env.Bool("LOLCODE_LENIENT"),
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = interpreter.DefaultMaxIterations
	}
	return cfg
}

func (c Config) ParserOptions() parser.Options {
	return parser.Options{StrictLoopLabels: c.StrictLabels}
}

// RunOptions builds interpreter options for a run fed with inputs.
func (c Config) RunOptions(inputs []string) interpreter.Options {
	return interpreter.Options{
		MaxIterations: c.MaxIterations,
		Inputs:        inputs,
		Debug:         c.Debug,
		Lenient:       c.Lenient,
	}
}
