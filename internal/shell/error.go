package shell

import (
	"errors"
	"fmt"
)

// ExitError carries the exit code a stopped application asked for.
type ExitError struct {
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exited with code %d", e.ExitCode)
}

func NewExitError(exitCode int) *ExitError {
	return &ExitError{ExitCode: exitCode}
}

// ExitCode returns the exit code for err: 0 for nil, the code of an
// *ExitError, and 1 for any other error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode
	}

	return 1
}
