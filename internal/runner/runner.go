// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitproto/bitbench/internal/generator"
	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/runtime"
	"github.com/bitproto/bitbench/internal/workspace"
)

// Template variables passed to build and run commands.
const (
	EnvGenDir    = "BB_GEN_DIR"
	EnvDriverDir = "BB_DRIVER_DIR"
	EnvBuildDir  = "BB_BUILD_DIR"
	EnvOptFlag   = "BB_OPT_FLAG"
	EnvOptLevel  = "BB_OPT_LEVEL"
	EnvBackend   = "BB_BACKEND"
	EnvMode      = "BB_MODE"
	EnvFilter    = "BB_FILTER"
)

type (
	// Backend describes how one backend's driver is built and run.
	Backend struct {
		// Build is the build template. Empty means no build step.
		Build string
		// Run executes the driver and prints timings on stdout.
		Run string
		// DriverDir holds the driver sources.
		DriverDir string
		// Env holds extra KEY=VALUE entries.
		Env []string
	}

	// Options configures a Runner.
	Options struct {
		Backends map[matrix.Backend]Backend
		// Timeout bounds each build and each run separately. Zero disables the limit.
		Timeout   time.Duration
		Runtime   runtime.Runtime
		Workspace *workspace.Workspace
		// Stdout and Stderr, when set, receive build and driver output live.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runner builds and executes scenarios.
	Runner struct {
		opts Options
	}

	// RunResult holds the outcome of one successful scenario.
	RunResult struct {
		Scenario matrix.Scenario
		BuildDir string
		// Built reports whether a build step ran.
		Built         bool
		BuildOutput   string
		BuildDuration time.Duration
		// Output is the driver's stdout, the raw timing report.
		Output    string
		ErrOutput string
		Duration  time.Duration
	}
)

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Runtime == nil {
		opts.Runtime = runtime.NewVirtualRuntime()
	}
	return &Runner{opts: opts}
}

// Run builds (when the backend has a build step) and executes scenario s against
// artifacts. Failures are *BuildError or *ExecutionError.
func (r *Runner) Run(ctx context.Context, s matrix.Scenario, artifacts *generator.GenerationResult) (*RunResult, error) {
	normalized := s.Normalize()
	if normalized.Level != s.Level && s.Level != "" {
		slog.Debug("optimization level not supported by backend, using none",
			"backend", s.Backend.String(), "requested", s.Level.String())
	}
	s = normalized

	backend, ok := r.opts.Backends[s.Backend]
	if !ok {
		return nil, &matrix.UnsupportedBackendError{Value: s.Backend}
	}
	if artifacts == nil || artifacts.Pair != s.Pair() {
		return nil, &BuildError{Scenario: s, Err: ErrMissingArtifacts}
	}

	driverDir, err := filepath.Abs(backend.DriverDir)
	if err != nil {
		return nil, &BuildError{Scenario: s, Err: err}
	}
	if info, statErr := os.Stat(driverDir); statErr != nil || !info.IsDir() {
		return nil, &BuildError{Scenario: s, Err: fmt.Errorf("%w: %s", ErrDriverNotFound, driverDir)}
	}

	buildDir := r.opts.Workspace.BuildDir(s)
	if err := r.opts.Workspace.FreshDir(buildDir); err != nil {
		return nil, &BuildError{Scenario: s, Err: err}
	}

	env := scenarioEnv(s, artifacts.OutputDir, driverDir, buildDir, backend.Env)
	result := &RunResult{Scenario: s, BuildDir: buildDir}

	if strings.TrimSpace(backend.Build) != "" {
		slog.Debug("building driver", "scenario", s.Label(), "dir", buildDir)
		res := r.opts.Runtime.Run(ctx, r.invocation("build "+s.Label(), backend.Build, buildDir, env))
		if !res.Success() {
			return nil, &BuildError{
				Scenario:  s,
				ExitCode:  res.ExitCode,
				Output:    res.Output,
				ErrOutput: res.ErrOutput,
				Err:       res.Error,
			}
		}
		result.Built = true
		result.BuildOutput = res.Output
		result.BuildDuration = res.Duration
	}

	slog.Debug("running driver", "scenario", s.Label())
	res := r.opts.Runtime.Run(ctx, r.invocation("run "+s.Label(), backend.Run, buildDir, env))
	if !res.Success() {
		return nil, &ExecutionError{
			Scenario:  s,
			ExitCode:  res.ExitCode,
			Output:    res.Output,
			ErrOutput: res.ErrOutput,
			Err:       res.Error,
		}
	}

	result.Output = res.Output
	result.ErrOutput = res.ErrOutput
	result.Duration = res.Duration
	return result, nil
}

func (r *Runner) invocation(name, script, dir string, env map[string]string) *runtime.Invocation {
	return &runtime.Invocation{
		Name:    name,
		Script:  script,
		Dir:     dir,
		Env:     env,
		Stdout:  r.opts.Stdout,
		Stderr:  r.opts.Stderr,
		Timeout: r.opts.Timeout,
	}
}

// scenarioEnv builds the template variables of one scenario. Backend env entries
// cannot override the BB_ variables.
func scenarioEnv(s matrix.Scenario, genDir, driverDir, buildDir string, extra []string) map[string]string {
	env := make(map[string]string, len(extra)+8)
	for _, kv := range extra {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	env[EnvGenDir] = genDir
	env[EnvDriverDir] = driverDir
	env[EnvBuildDir] = buildDir
	env[EnvOptFlag] = s.Level.Flag()
	env[EnvOptLevel] = string(s.Level)
	env[EnvBackend] = string(s.Backend)
	env[EnvMode] = string(s.Mode.Kind)
	env[EnvFilter] = s.Mode.Filter
	return env
}
