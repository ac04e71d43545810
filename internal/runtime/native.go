// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the shell exits or
// is killed, so that a background child holding stdout cannot hang the run.
const waitDelay = 2 * time.Second

// NativeRuntime executes scripts with the host's POSIX shell.
type NativeRuntime struct {
	// Shell is the shell binary. Empty means "sh" from PATH.
	Shell string
}

// NewNativeRuntime creates a new native runtime
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name
func (r *NativeRuntime) Name() string {
	return NameNative
}

// Run executes inv with "<shell> -c <script>".
func (r *NativeRuntime) Run(ctx context.Context, inv *Invocation) *Result {
	start := time.Now()

	if strings.TrimSpace(inv.Script) == "" {
		return &Result{ExitCode: 1, Error: fmt.Errorf("%s: %w", inv.Name, ErrEmptyScript)}
	}

	shell, err := r.getShell()
	if err != nil {
		return &Result{ExitCode: 1, Error: err}
	}

	runCtx, cancel := withTimeout(ctx, inv)
	defer cancel()

	var c capture
	cmd := exec.CommandContext(runCtx, shell, "-c", inv.Script)
	cmd.Dir = inv.Dir
	cmd.Env = buildEnviron(inv)
	cmd.Stdout, cmd.Stderr = c.writers(inv)
	cmd.WaitDelay = waitDelay

	return c.finish(extractExitCode(cmd.Run()), ctx, runCtx, inv, start)
}

// getShell resolves the shell binary.
func (r *NativeRuntime) getShell() (string, error) {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}
	path, err := exec.LookPath(shell)
	if err != nil {
		return "", fmt.Errorf("no shell found: %w", err)
	}
	return path, nil
}

// extractExitCode determines the exit code from a command execution error.
func extractExitCode(err error) *Result {
	result := &Result{}
	if err == nil {
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode := ExitCode(exitErr.ExitCode())
		if validateErr := exitCode.Validate(); validateErr != nil {
			// -1 means the process was killed by a signal.
			result.ExitCode = 1
			result.Error = fmt.Errorf("process terminated: %w", err)
			return result
		}
		result.ExitCode = exitCode
		return result
	}

	// Some other error (e.g., permission denied)
	result.ExitCode = 1
	result.Error = err
	return result
}
