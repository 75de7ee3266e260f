package cli

import (
	"fmt"

	"github.com/harun/toolpilot/pkg/agent"
)

// Process exit codes
const (
	ExitOK            = agent.ExitOK
	ExitFailure       = agent.ExitFailure
	ExitPartial       = agent.ExitPartial
	ExitClarification = agent.ExitClarification
)

// ExitError carries a process exit code out of a command. Err is printed
// when set; a nil Err means the command already reported the problem.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func failure(err error) *ExitError {
	return &ExitError{Code: ExitFailure, Err: err}
}
