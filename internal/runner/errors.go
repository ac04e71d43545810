// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/runtime"
)

var (
	// ErrBuildFailed is the sentinel error wrapped by BuildError.
	ErrBuildFailed = errors.New("build failed")
	// ErrExecutionFailed is the sentinel error wrapped by ExecutionError.
	ErrExecutionFailed = errors.New("execution failed")
	// ErrDriverNotFound is returned when a backend's driver directory is missing.
	ErrDriverNotFound = errors.New("driver directory not found")
	// ErrMissingArtifacts is returned when Run is called without generated artifacts.
	ErrMissingArtifacts = errors.New("no generated artifacts")
)

type (
	// BuildError is returned when a scenario's driver could not be built.
	BuildError struct {
		Scenario  matrix.Scenario
		ExitCode  runtime.ExitCode
		Output    string
		ErrOutput string
		Err       error
	}

	// ExecutionError is returned when a built driver exits non-zero or cannot run.
	// Output holds whatever the driver printed before failing.
	ExecutionError struct {
		Scenario  matrix.Scenario
		ExitCode  runtime.ExitCode
		Output    string
		ErrOutput string
		Err       error
	}
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	return describe("build", e.Scenario, e.ExitCode, e.ErrOutput, e.Err)
}

// Unwrap returns ErrBuildFailed and the underlying cause.
func (e *BuildError) Unwrap() []error {
	return unwrap(ErrBuildFailed, e.Err)
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return describe("run", e.Scenario, e.ExitCode, e.ErrOutput, e.Err)
}

// Unwrap returns ErrExecutionFailed and the underlying cause.
func (e *ExecutionError) Unwrap() []error {
	return unwrap(ErrExecutionFailed, e.Err)
}

func describe(step string, s matrix.Scenario, code runtime.ExitCode, stderr string, err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", step, s.Label())
	switch {
	case err != nil:
		fmt.Fprintf(&sb, ": %v", err)
	case code != 0:
		if sig, ok := code.Signal(); ok {
			fmt.Fprintf(&sb, ": exited with status %d (signal %d)", code, sig)
		} else {
			fmt.Fprintf(&sb, ": exited with status %d", code)
		}
	}
	if line := lastLine(stderr); line != "" {
		fmt.Fprintf(&sb, ": %s", line)
	}
	return sb.String()
}

func unwrap(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, cause}
}

// lastLine returns the last non-blank line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n\r\t "), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
