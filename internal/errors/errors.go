// internal/errors/errors.go
package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	LexicalError  ErrorType = "LexicalError"
	SyntaxError   ErrorType = "SyntaxError"
	SemanticError ErrorType = "SemanticError"
	RuntimeError  ErrorType = "RuntimeError"
)

// SourceLocation represents a location in source code
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// LolError is a diagnostic tied to a source line. It never aborts a run;
// callers collect them next to the output.
type LolError struct {
	Type     ErrorType
	Message  string
	Location SourceLocation
	Source   string // The source line where error occurred
	Cause    error
}

// Error renders the diagnostic as "Line {n}: {message}".
func (e *LolError) Error() string {
	if e.Location.Line <= 0 {
		return e.Message
	}
	return fmt.Sprintf("Line %d: %s", e.Location.Line, e.Message)
}

func (e *LolError) Unwrap() error { return e.Cause }

// Detailed renders the diagnostic with its kind, location and a caret under
// the offending column when the source line is known.
func (e *LolError) Detailed() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s\n", e.Type, e.Message))

	if e.Location.Line > 0 {
		if e.Location.File != "" {
			sb.WriteString(fmt.Sprintf("  at %s:%d:%d\n", e.Location.File, e.Location.Line, e.Location.Column))
		} else {
			sb.WriteString(fmt.Sprintf("  at line %d, column %d\n", e.Location.Line, e.Location.Column))
		}

		if e.Source != "" {
			gutter := fmt.Sprintf("  %d | ", e.Location.Line)
			sb.WriteString(fmt.Sprintf("\n%s%s\n", gutter, e.Source))
			sb.WriteString(strings.Repeat(" ", len(gutter)))
			if e.Location.Column > 0 {
				sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
			}
			sb.WriteString("^\n")
		}
	}

	return sb.String()
}

func newError(kind ErrorType, message string, line, column int) *LolError {
	return &LolError{
		Type:    kind,
		Message: message,
		Location: SourceLocation{
			Line:   line,
			Column: column,
		},
	}
}

// NewLexicalError creates a new lexical error
func NewLexicalError(message string, line, column int) *LolError {
	return newError(LexicalError, message, line, column)
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(message string, line, column int) *LolError {
	return newError(SyntaxError, message, line, column)
}

// NewSemanticError creates a new semantic error
func NewSemanticError(message string, line, column int) *LolError {
	return newError(SemanticError, message, line, column)
}

// NewRuntimeError creates a new runtime error
func NewRuntimeError(message string, line, column int) *LolError {
	return newError(RuntimeError, message, line, column)
}

// Syntaxf is NewSyntaxError with a format string.
func Syntaxf(line, column int, format string, args ...interface{}) *LolError {
	return NewSyntaxError(fmt.Sprintf(format, args...), line, column)
}

// Semanticf is NewSemanticError with a format string.
func Semanticf(line, column int, format string, args ...interface{}) *LolError {
	return NewSemanticError(fmt.Sprintf(format, args...), line, column)
}

// WithSource adds source code context to the error
func (e *LolError) WithSource(source string) *LolError {
	e.Source = source
	return e
}

// WithFile records the file name the error belongs to
func (e *LolError) WithFile(file string) *LolError {
	e.Location.File = file
	return e
}

// CausedBy attaches an underlying host error
func (e *LolError) CausedBy(cause error) *LolError {
	e.Cause = cause
	return e
}

// AttachSource fills in the Source field of every error from the program text.
func AttachSource(errs []*LolError, source string) {
	lines := strings.Split(source, "\n")
	for _, e := range errs {
		idx := e.Location.Line - 1
		if e.Source == "" && idx >= 0 && idx < len(lines) {
			e.Source = strings.TrimRight(lines[idx], "\r\n\t ")
		}
	}
}

// Messages renders each error with Error().
func Messages(errs []*LolError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
