package errors

import (
	"fmt"
	"io"
	"strings"
)

// EngineError is the interface implemented by all engine errors.
type EngineError interface {
	error // Embed the standard error interface
	Pos() Position
	Kind() string // e.g., "Syntax", "Type", "Runtime", "Invariant"
	// Message returns the specific error message without position info.
	Message() string
	Unwrap() error // For error wrapping support (errors.Is/As)
}

func format(kind string, pos Position, msg string) string {
	if pos.Line == 0 {
		return fmt.Sprintf("%s Error: %s", kind, msg)
	}
	return fmt.Sprintf("%s Error at %d:%d: %s", kind, pos.Line, pos.Column, msg)
}

// --- Language-level errors ---
// These are ordinary results: the caller may report them and carry on.

// SyntaxError represents a malformed input: a shell command that cannot be
// tokenized, or a regular expression pattern that does not compile.
type SyntaxError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *SyntaxError) Error() string   { return format("Syntax", e.Position, e.Msg) }
func (e *SyntaxError) Pos() Position   { return e.Position }
func (e *SyntaxError) Kind() string    { return "Syntax" }
func (e *SyntaxError) Message() string { return e.Msg }
func (e *SyntaxError) Unwrap() error   { return e.Cause }
func (e *SyntaxError) CausedBy(cause error) *SyntaxError {
	e.Cause = cause
	return e
}

// TypeError represents a property operation the target object refuses,
// e.g. adding a key to a non-extensible object.
type TypeError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *TypeError) Error() string   { return format("Type", e.Position, e.Msg) }
func (e *TypeError) Pos() Position   { return e.Position }
func (e *TypeError) Kind() string    { return "Type" }
func (e *TypeError) Message() string { return e.Msg }
func (e *TypeError) Unwrap() error   { return e.Cause }
func (e *TypeError) CausedBy(cause error) *TypeError {
	e.Cause = cause
	return e
}

// RuntimeError represents a failure while executing a shell command, such as
// a reference to an unbound name.
type RuntimeError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *RuntimeError) Error() string   { return format("Runtime", e.Position, e.Msg) }
func (e *RuntimeError) Pos() Position   { return e.Position }
func (e *RuntimeError) Kind() string    { return "Runtime" }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return e.Cause }
func (e *RuntimeError) CausedBy(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// --- Fatal errors ---
// These are never returned. They are raised with panic and indicate that the
// heap can no longer be trusted.

// InvariantError reports a broken internal invariant: a dangling handle,
// mismatched key/value arrays, a wrong retain mask length or a live object
// referencing data the collector removed.
type InvariantError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *InvariantError) Error() string   { return format("Invariant", e.Position, e.Msg) }
func (e *InvariantError) Pos() Position   { return e.Position }
func (e *InvariantError) Kind() string    { return "Invariant" }
func (e *InvariantError) Message() string { return e.Msg }
func (e *InvariantError) Unwrap() error   { return e.Cause }
func (e *InvariantError) CausedBy(cause error) *InvariantError {
	e.Cause = cause
	return e
}

// ExhaustionError reports that the heap grew past its configured limit.
type ExhaustionError struct {
	Position
	Msg   string
	Limit uint64
	Used  uint64
	Cause error
}

func (e *ExhaustionError) Error() string   { return format("Exhaustion", e.Position, e.Msg) }
func (e *ExhaustionError) Pos() Position   { return e.Position }
func (e *ExhaustionError) Kind() string    { return "Exhaustion" }
func (e *ExhaustionError) Message() string { return e.Msg }
func (e *ExhaustionError) Unwrap() error   { return e.Cause }
func (e *ExhaustionError) CausedBy(cause error) *ExhaustionError {
	e.Cause = cause
	return e
}

// IsFatal reports whether err belongs to the fatal class.
func IsFatal(err error) bool {
	switch err.(type) {
	case *InvariantError, *ExhaustionError:
		return true
	}
	return false
}

// --- Error Reporting ---

// FprintErrors prints a list of engine errors to w in a user-friendly format,
// including the source line and position marker.
func FprintErrors(w io.Writer, source string, errors []EngineError) {
	if len(errors) == 0 {
		return
	}

	lines := strings.Split(source, "\n")

	for _, err := range errors {
		pos := err.Pos()
		kind := err.Kind()
		msg := err.Message()

		// Line numbers are 1-based
		lineIdx := pos.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			fmt.Fprintf(w, "%s Error: %s\n", kind, msg)
			continue
		}

		sourceLine := lines[lineIdx]
		trimmedLine := strings.TrimRight(sourceLine, "\r\n\t ")

		// Format: <Kind> Error at <Line>:<Column>: <Message>
		fmt.Fprintf(w, "%s Error at %d:%d: %s\n", kind, pos.Line, pos.Column, msg)
		fmt.Fprintf(w, "  %s\n", trimmedLine)

		col := pos.Column - 1
		if col < 0 {
			col = 0
		}
		fmt.Fprintf(w, "  %s^\n", strings.Repeat(" ", col))
		fmt.Fprintln(w)
	}
}
