// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"
)

const (
	// NameVirtual identifies the embedded interpreter runtime.
	NameVirtual = "virtual"
	// NameNative identifies the host shell runtime.
	NameNative = "native"

	// TemplateEnvPrefix prefixes every variable bitbench injects into templates.
	TemplateEnvPrefix = "BB_"
	// ConfigEnvPrefix prefixes configuration overrides read from the environment.
	ConfigEnvPrefix = "BITBENCH_"
)

var (
	// ErrTimeout is the sentinel error wrapped by TimeoutError.
	ErrTimeout = errors.New("command timed out")
	// ErrUnknownRuntime is returned by New for an unrecognized runtime name.
	ErrUnknownRuntime = errors.New("unknown runtime")
	// ErrEmptyScript is returned when an Invocation has no script.
	ErrEmptyScript = errors.New("script has no content to execute")
	// ErrFlockUnavailable is returned by AcquireRunLock on platforms without flock.
	// Callers run without cross-process serialization.
	ErrFlockUnavailable = errors.New("flock not available on this platform")
)

type (
	// Runtime executes one shell script to completion.
	Runtime interface {
		// Name returns the runtime name.
		Name() string
		// Run executes inv and returns its result. Run never returns nil.
		Run(ctx context.Context, inv *Invocation) *Result
	}

	// Invocation describes one script execution.
	Invocation struct {
		// Name labels the invocation in logs and errors (e.g. "build c/standard/O1").
		Name string
		// Script is the shell source to execute.
		Script string
		// Dir is the working directory. Empty means the current directory.
		Dir string
		// Env is layered on top of the filtered host environment.
		Env map[string]string
		// Stdout and Stderr, when set, receive output as it is produced in addition
		// to the captured copy in Result.
		Stdout io.Writer
		Stderr io.Writer
		// Timeout bounds the execution. Zero disables the limit.
		Timeout time.Duration
	}

	// Result holds the outcome of an Invocation.
	Result struct {
		// ExitCode is the script's exit status.
		ExitCode ExitCode
		// Output is the captured stdout.
		Output string
		// ErrOutput is the captured stderr.
		ErrOutput string
		// Duration is the wall-clock time of the execution.
		Duration time.Duration
		// Error is set when the script could not be run to completion
		// (parse failure, missing shell, timeout, cancellation).
		Error error
	}

	// TimeoutError is returned when an Invocation exceeds its Timeout.
	TimeoutError struct {
		Name    string
		Timeout time.Duration
	}

	// capture tees output into buffers and the optional live writers.
	capture struct {
		stdout bytes.Buffer
		stderr bytes.Buffer
	}
)

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Name, e.Timeout)
}

// Unwrap returns ErrTimeout for errors.Is compatibility.
func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// Success reports whether the script ran to completion with exit code 0.
func (r *Result) Success() bool {
	return r.Error == nil && r.ExitCode.IsSuccess()
}

// New returns the runtime registered under name.
func New(name string) (Runtime, error) {
	switch name {
	case NameVirtual, "":
		return NewVirtualRuntime(), nil
	case NameNative:
		return NewNativeRuntime(), nil
	default:
		return nil, fmt.Errorf("%w %q (valid: virtual, native)", ErrUnknownRuntime, name)
	}
}

// EnvToSlice converts an environment map to a KEY=VALUE slice sorted by key.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// FilterBitbenchEnvVars drops BB_* and BITBENCH_* variables from environ so that a
// template which itself invokes bitbench does not inherit the outer run's values.
func FilterBitbenchEnvVars(environ []string) []string {
	result := make([]string, 0, len(environ))
	for _, e := range environ {
		name, _, ok := strings.Cut(e, "=")
		if ok && (strings.HasPrefix(name, TemplateEnvPrefix) || strings.HasPrefix(name, ConfigEnvPrefix)) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// buildEnviron returns the host environment with inv.Env layered on top.
func buildEnviron(inv *Invocation) []string {
	return append(FilterBitbenchEnvVars(os.Environ()), EnvToSlice(inv.Env)...)
}

// withTimeout derives the execution context for inv.
func withTimeout(ctx context.Context, inv *Invocation) (context.Context, context.CancelFunc) {
	if inv.Timeout > 0 {
		return context.WithTimeout(ctx, inv.Timeout)
	}
	return context.WithCancel(ctx)
}

func (c *capture) writers(inv *Invocation) (stdout, stderr io.Writer) {
	stdout, stderr = &c.stdout, &c.stderr
	if inv.Stdout != nil {
		stdout = io.MultiWriter(&c.stdout, inv.Stdout)
	}
	if inv.Stderr != nil {
		stderr = io.MultiWriter(&c.stderr, inv.Stderr)
	}
	return stdout, stderr
}

// finish fills the captured output into r and converts a deadline hit into a
// TimeoutError. parent is the caller's context, runCtx the derived one.
func (c *capture) finish(r *Result, parent, runCtx context.Context, inv *Invocation, start time.Time) *Result {
	r.Output = c.stdout.String()
	r.ErrOutput = c.stderr.String()
	r.Duration = time.Since(start)

	switch {
	case parent.Err() != nil:
		r.Error = fmt.Errorf("%s: %w", inv.Name, parent.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		r.Error = &TimeoutError{Name: inv.Name, Timeout: inv.Timeout}
	}
	if r.Error != nil && r.ExitCode == 0 {
		r.ExitCode = 1
	}
	return r
}
