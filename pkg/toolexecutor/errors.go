package toolexecutor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool is returned when a tool name is not registered
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMissingArgument is returned when a required parameter is absent
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidArgument is returned when a value cannot be coerced to its parameter type
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnexpectedArgument is returned when a call carries a key the tool does not declare
	ErrUnexpectedArgument = errors.New("unexpected argument")

	// ErrDuplicateTool is returned when a tool name is registered twice
	ErrDuplicateTool = errors.New("duplicate tool")

	// ErrRegistrySealed is returned when registering after the registry was sealed
	ErrRegistrySealed = errors.New("registry is sealed")
)

// ValidationError describes the single reason a candidate plan was rejected.
// Kind is one of the validation sentinels above.
type ValidationError struct {
	Step   int    // 1-based position of the offending call in the plan
	Tool   string // tool name as proposed
	Param  string // parameter or argument key, empty for unknown tools
	Kind   error
	Detail string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("step %d (%s): %v", e.Step, e.Tool, e.Kind)
	if e.Param != "" {
		msg += " " + e.Param
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// FailureKind classifies a handler failure for the execution engine
type FailureKind int

const (
	// FailureRecoverable is an expected domain failure; the plan continues
	FailureRecoverable FailureKind = iota
	// FailureBlocking is recoverable, but the immediately next step depends on it
	FailureBlocking
	// FailureFatal means the handler or its environment is in an invalid state
	FailureFatal
)

func (k FailureKind) String() string {
	switch k {
	case FailureRecoverable:
		return "recoverable"
	case FailureBlocking:
		return "blocking"
	case FailureFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ToolFailure is the error type tool handlers return to classify a failure.
// Handlers that return a plain error are treated as recoverable.
type ToolFailure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *ToolFailure) Error() string {
	if f.Err == nil {
		return f.Message
	}
	if f.Message == "" {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s: %v", f.Message, f.Err)
}

func (f *ToolFailure) Unwrap() error {
	return f.Err
}

// Recoverable reports an expected failure of a single step.
func Recoverable(message string, err error) error {
	return &ToolFailure{Kind: FailureRecoverable, Message: message, Err: err}
}

// Blocking reports a recoverable failure whose output the next step needs.
func Blocking(message string, err error) error {
	return &ToolFailure{Kind: FailureBlocking, Message: message, Err: err}
}

// Fatal reports a failure that must halt the whole plan.
func Fatal(message string, err error) error {
	return &ToolFailure{Kind: FailureFatal, Message: message, Err: err}
}

// ClassifyFailure returns the failure kind of a handler error
func ClassifyFailure(err error) FailureKind {
	var failure *ToolFailure
	if errors.As(err, &failure) {
		return failure.Kind
	}
	return FailureRecoverable
}

// FatalError is returned by Engine.Execute when a step failed fatally or the
// run was interrupted. The partial report is returned alongside it.
type FatalError struct {
	Step int // 1-based
	Tool string
	Err  error
}

func (e *FatalError) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("execution halted before step %d: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step %d (%s) failed fatally: %v", e.Step, e.Tool, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
