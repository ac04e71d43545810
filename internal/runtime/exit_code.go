// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ExitCommandNotFound is the shell status for a command missing from PATH.
	ExitCommandNotFound ExitCode = 127
	// ExitSignalBase is added to the signal number when a process is killed.
	ExitSignalBase ExitCode = 128
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is the status of a compiler, build or driver command (0-255).
	ExitCode int

	// InvalidExitCodeError is returned for a status outside 0-255, which some
	// platforms report for abnormal terminations.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside 0-255.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess reports whether the command succeeded.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// IsCommandNotFound reports whether the shell could not find the command.
func (c ExitCode) IsCommandNotFound() bool { return c == ExitCommandNotFound }

// Signal returns the signal that killed the command, if the status encodes one.
func (c ExitCode) Signal() (int, bool) {
	if c > ExitSignalBase && c <= 255 {
		return int(c - ExitSignalBase), true
	}
	return 0, false
}

func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
