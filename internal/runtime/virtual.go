// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime executes scripts using the mvdan/sh interpreter. Builtins run
// in-process; external commands (cc, go, python3) are started by the
// interpreter's default exec handler.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a new virtual runtime
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name
func (r *VirtualRuntime) Name() string {
	return NameVirtual
}

// Parse checks script syntax without running it.
func (r *VirtualRuntime) Parse(name, script string) (*syntax.File, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyScript
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), name)
	if err != nil {
		return nil, fmt.Errorf("script syntax error: %w", err)
	}
	return prog, nil
}

// Run executes inv in a fresh interpreter.
func (r *VirtualRuntime) Run(ctx context.Context, inv *Invocation) *Result {
	start := time.Now()

	prog, err := r.Parse(inv.Name, inv.Script)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("%s: %w", inv.Name, err)}
	}

	var c capture
	stdout, stderr := c.writers(inv)

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(buildEnviron(inv)...)),
		interp.StdIO(nil, stdout, stderr),
		interp.ExecHandlers(r.execHandler(inv.Name)),
	}
	if inv.Dir != "" {
		opts = append(opts, interp.Dir(inv.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	runCtx, cancel := withTimeout(ctx, inv)
	defer cancel()

	result := &Result{}
	if err := runner.Run(runCtx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			result.ExitCode = ExitCode(exitStatus)
		} else {
			result.ExitCode = 1
			result.Error = fmt.Errorf("%s: script execution failed: %w", inv.Name, err)
		}
	}

	return c.finish(result, ctx, runCtx, inv, start)
}

// execHandler logs every external command the script starts before handing it
// to the default handler.
func (r *VirtualRuntime) execHandler(name string) func(interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			slog.Debug("exec", "invocation", name, "args", args)
			return next(ctx, args)
		}
	}
}
