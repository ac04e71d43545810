// SPDX-License-Identifier: MPL-2.0

package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/runtime"
)

var (
	// ErrSchemaNotFound is the sentinel error wrapped by SchemaNotFoundError.
	ErrSchemaNotFound = errors.New("schema not found")
	// ErrGenerationFailed is the sentinel error wrapped by GenerationError.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrNoArtifacts is returned when the compiler exits cleanly without writing files.
	ErrNoArtifacts = errors.New("compiler produced no files")
)

type (
	// SchemaNotFoundError is returned when the schema path is missing or not a file.
	SchemaNotFoundError struct {
		Path   string
		Reason string
	}

	// GenerationError describes a failed generation of one pair.
	GenerationError struct {
		Pair matrix.Pair
		// ExitCode is the compiler's exit status (0 when it never ran or succeeded).
		ExitCode runtime.ExitCode
		// Output and ErrOutput are the compiler's captured streams.
		Output    string
		ErrOutput string
		// Err is the underlying cause, if any.
		Err error
	}
)

// Error implements the error interface.
func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("schema %s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrSchemaNotFound for errors.Is compatibility.
func (e *SchemaNotFoundError) Unwrap() error { return ErrSchemaNotFound }

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "generate %s", e.Pair)
	switch {
	case e.Err != nil:
		fmt.Fprintf(&sb, ": %v", e.Err)
	case e.ExitCode != 0:
		fmt.Fprintf(&sb, ": compiler exited with status %d", e.ExitCode)
	}
	if line := lastLine(e.ErrOutput); line != "" {
		fmt.Fprintf(&sb, ": %s", line)
	}
	return sb.String()
}

// Unwrap returns ErrGenerationFailed and the underlying cause.
func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGenerationFailed}
	}
	return []error{ErrGenerationFailed, e.Err}
}

// lastLine returns the last non-blank line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n\r\t "), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
