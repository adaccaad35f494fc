// Package reporting encodes run results for the CLI and the session server.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"lolcode/internal/interpreter"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Report is the serializable view of an interpreter.Result.
type Report struct {
	RunID       string       `json:"run_id" yaml:"run_id"`
	Status      string       `json:"status" yaml:"status"`
	Output      []string     `json:"output" yaml:"output"`
	Pending     string       `json:"pending,omitempty" yaml:"pending,omitempty"`
	Variables   []Variable   `json:"variables" yaml:"variables"`
	IT          Variable     `json:"it" yaml:"it"`
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Statements  int          `json:"statements" yaml:"statements"`
	Prompt      string       `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

type Variable struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

type Diagnostic struct {
	Kind    string `json:"kind" yaml:"kind"`
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
	Message string `json:"message" yaml:"message"`
}

func FromResult(res *interpreter.Result) *Report {
	r := &Report{
		RunID:       res.RunID,
		Status:      res.Status.String(),
		Output:      append([]string{}, res.Output...),
		Pending:     res.Pending,
		Variables:   make([]Variable, 0, len(res.Variables)),
		IT:          variable(interpreter.ImplicitVar, res.IT),
		Diagnostics: make([]Diagnostic, 0, len(res.Errors)),
		Statements:  res.Statements,
	}
	for _, b := range res.Variables {
		r.Variables = append(r.Variables, variable(b.Name, b.Value))
	}
	for _, e := range res.Errors {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Kind:    string(e.Type),
			Line:    e.Location.Line,
			Column:  e.Location.Column,
			Message: e.Message,
		})
	}
	if res.Continuation != nil {
		r.Prompt = res.Continuation.Prompt
	}
	return r
}

func variable(name string, v interpreter.Value) Variable {
	return Variable{Name: name, Type: v.Kind().String(), Value: v.String()}
}

// Write encodes r in the named format: text, json or yaml.
func Write(w io.Writer, format string, r *Report) error {
	switch format {
	case "", "text":
		_, err := io.WriteString(w, Text(r))
		return errors.Wrap(err, "write text report")
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(r), "encode json report")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return errors.Wrap(err, "encode yaml report")
		}
		return errors.Wrap(enc.Close(), "encode yaml report")
	}
	return errors.Wrapf(ErrUnknownFormat, "%q", format)
}

// Text renders the output, the diagnostics and the variable table.
func Text(r *Report) string {
	var sb strings.Builder
	for _, line := range r.Output {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if r.Pending != "" {
		sb.WriteString(r.Pending)
		sb.WriteString("\n")
	}

	if len(r.Diagnostics) > 0 {
		sb.WriteString("\n")
		for _, d := range r.Diagnostics {
			sb.WriteString(fmt.Sprintf("Line %d: %s\n", d.Line, d.Message))
		}
	}

	if len(r.Variables) > 0 {
		sb.WriteString("\n")
		width := len("IDENTIFIER")
		for _, v := range r.Variables {
			if len(v.Name) > width {
				width = len(v.Name)
			}
		}
		sb.WriteString(fmt.Sprintf("%-*s  %-6s  %s\n", width, "IDENTIFIER", "TYPE", "VALUE"))
		for _, v := range r.Variables {
			sb.WriteString(fmt.Sprintf("%-*s  %-6s  %s\n", width, v.Name, v.Type, v.Value))
		}
	}
	return sb.String()
}

// Summary is the one-line run statistic printed by the CLI.
func Summary(r *Report) string {
	return fmt.Sprintf("%s: %s statements, %s, %s",
		r.Status,
		humanize.Comma(int64(r.Statements)),
		plural(len(r.Variables), "variable"),
		plural(len(r.Diagnostics), "diagnostic"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}
