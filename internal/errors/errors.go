// Package errors carries the script-level error taxonomy every stage of the
// pipeline (lexer, parser, compiler, VM) raises through.
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// ErrorType is one of the eight script-level error kinds.
type ErrorType string

const (
	ParseError       ErrorType = "ParseError"
	CompileError     ErrorType = "CompileError"
	TypeError        ErrorType = "TypeError"
	NameError        ErrorType = "NameError"
	ArithmeticError  ErrorType = "ArithmeticError"
	StackError       ErrorType = "StackError"
	AssertionFailure ErrorType = "AssertionFailure"
	BuiltinArgError  ErrorType = "BuiltinArgError"
)

// SourceLocation is a location in the original script source.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (l SourceLocation) known() bool { return l.File != "" || l.Line != 0 }

// ScriptError is the error type every fatal condition in the pipeline is
// raised as. Cause, when set, is the underlying Go error wrapped with
// github.com/pkg/errors, which records the Go stack at the wrap site;
// CauseStack renders it. The CLI's error report does not print it.
type ScriptError struct {
	Type     ErrorType
	Message  string
	Location SourceLocation
	Cause    error
}

func (e *ScriptError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Type, e.Message))
	if e.Location.known() {
		sb.WriteString(fmt.Sprintf(" (at %s:%d:%d)", e.Location.File, e.Location.Line, e.Location.Column))
	}
	return sb.String()
}

func (e *ScriptError) Unwrap() error { return e.Cause }

// New builds a located-less ScriptError.
func New(t ErrorType, message string) *ScriptError {
	return &ScriptError{Type: t, Message: message}
}

// Newf builds a located-less ScriptError with a formatted message.
func Newf(t ErrorType, format string, args ...interface{}) *ScriptError {
	return &ScriptError{Type: t, Message: fmt.Sprintf(format, args...)}
}

// At sets the source location on a ScriptError and returns it, for chaining
// at the call site: `return errors.Newf(...).At(file, line, col)`.
func (e *ScriptError) At(file string, line, column int) *ScriptError {
	e.Location = SourceLocation{File: file, Line: line, Column: column}
	return e
}

// Wrap attaches cause to a ScriptError via pkg/errors so the originating Go
// stack is recorded, without leaking it into Error().
func (e *ScriptError) Wrap(cause error) *ScriptError {
	if cause != nil {
		e.Cause = pkgerrors.WithStack(cause)
	}
	return e
}

// Wrapf wraps an existing Go error as a ScriptError in one call.
func Wrapf(cause error, t ErrorType, format string, args ...interface{}) *ScriptError {
	return Newf(t, format, args...).Wrap(cause)
}

// CauseStack renders the wrapped Go stack trace, if any.
func CauseStack(err error) string {
	se, ok := err.(*ScriptError)
	if !ok || se.Cause == nil {
		return ""
	}
	return fmt.Sprintf("%+v", se.Cause)
}
