package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrParse indicates malformed corpus input, such as an unterminated fence.
	ErrParse = errors.New("parse error")

	// ErrTimeout indicates an execution exceeded its wall-clock budget or was
	// cancelled before its scheduled work settled.
	ErrTimeout = errors.New("timeout")

	// ErrRuntime indicates the snippet's own code failed during evaluation.
	ErrRuntime = errors.New("runtime error")

	// ErrReportInconsistency indicates an internal invariant violation.
	// It is the only fatal condition and aborts the run.
	ErrReportInconsistency = errors.New("report inconsistency")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
)

// ErrorKind classifies an ExecError.
type ErrorKind string

// Error kinds.
const (
	ErrorKindParse               ErrorKind = "parse_error"
	ErrorKindTimeout             ErrorKind = "timeout"
	ErrorKindRuntime             ErrorKind = "runtime"
	ErrorKindReportInconsistency ErrorKind = "report_inconsistency"
)

// sentinel returns the sentinel error matching the kind.
func (k ErrorKind) sentinel() error {
	switch k {
	case ErrorKindParse:
		return ErrParse
	case ErrorKindTimeout:
		return ErrTimeout
	case ErrorKindRuntime:
		return ErrRuntime
	case ErrorKindReportInconsistency:
		return ErrReportInconsistency
	default:
		return nil
	}
}

// ExecError is the failure descriptor attached to records and results.
// ParseError, Timeout and Runtime errors are data; only ReportInconsistency
// propagates as a Go error out of a run.
type ExecError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`

	// Line and Column locate the failure in the snippet when known (1-based).
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`

	// Stack is the snippet-level stack trace for runtime errors, if any.
	Stack string `json:"stack,omitempty"`
}

// NewExecError creates an ExecError of the given kind.
func NewExecError(kind ErrorKind, format string, args ...any) *ExecError {
	return &ExecError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error returns the error message, including line and column if available.
func (e *ExecError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d, col %d)", e.Kind, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is the sentinel for this error's kind.
func (e *ExecError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Clone returns a copy that does not share memory with e.
func (e *ExecError) Clone() *ExecError {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
