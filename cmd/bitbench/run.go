// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitproto/bitbench/internal/config"
	"github.com/bitproto/bitbench/internal/generator"
	"github.com/bitproto/bitbench/internal/issue"
	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/orchestrator"
	"github.com/bitproto/bitbench/internal/report"
	"github.com/bitproto/bitbench/internal/runner"
	"github.com/bitproto/bitbench/internal/runtime"
	"github.com/bitproto/bitbench/internal/workspace"
)

type (
	// matrixFlags select the scenarios. Shared by run and plan.
	matrixFlags struct {
		matrixFile string
		filter     string
	}

	runFlags struct {
		matrixFlags
		schema                  string
		keepWorkspace           bool
		failOnRunError          bool
		haltOnGenerationFailure bool
		timeout                 time.Duration
		shell                   string
		jsonFile                string
		yamlFile                string
		chartFile               string
	}
)

func newRunCommand(app *App) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [target...]",
		Short: "Generate, build and run the benchmark matrix",
		Long: `Generate, build and run the benchmark matrix.

Targets default to "full". Each (backend, mode) pair is generated once, right before
its first scenario; a generation failure skips that pair's scenarios and fails the run.
Build and run failures are reported in place and the run continues.

Exit status: 0 on success, 1 when a generation (or another fatal step) failed,
2 when --fail-on-run-error is set and a build or run failed, 130 when interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmarks(cmd.Context(), app, cmd, flags, args)
		},
	}

	f := cmd.Flags()
	addMatrixFlags(cmd, &flags.matrixFlags)
	f.StringVar(&flags.schema, "schema", "", "bitproto schema to benchmark (overrides config 'schema')")
	f.BoolVar(&flags.keepWorkspace, "keep-workspace", false, "keep generated sources and build directories after the run")
	f.BoolVar(&flags.failOnRunError, "fail-on-run-error", false, "exit non-zero when any build or run fails")
	f.BoolVar(&flags.haltOnGenerationFailure, "halt-on-generation-failure", false, "stop at the first generation failure")
	f.DurationVar(&flags.timeout, "timeout", 0, "per build and per run timeout (overrides config 'run.timeout')")
	f.StringVar(&flags.shell, "shell", "", "command template shell: virtual or native (overrides config 'run.shell')")
	f.StringVar(&flags.jsonFile, "json", "", "write the run as JSON to `FILE`")
	f.StringVar(&flags.yamlFile, "yaml", "", "write the run as YAML to `FILE`")
	f.StringVar(&flags.chartFile, "chart", "", "write an HTML throughput chart to `FILE`")
	return cmd
}

func addMatrixFlags(cmd *cobra.Command, flags *matrixFlags) {
	cmd.Flags().StringVar(&flags.matrixFile, "matrix", "", "matrix file defining targets (.cue, .toml, .yaml)")
	cmd.Flags().StringVar(&flags.filter, "filter", "", "entity filter of the built-in optimization-mode target (overrides config 'optimize.filter')")
}

// applyRunFlags overlays explicitly set flags on cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, flags runFlags) error {
	changed := cmd.Flags().Changed
	if changed("schema") {
		cfg.Schema = flags.schema
	}
	if changed("keep-workspace") {
		cfg.KeepWorkspace = flags.keepWorkspace
	}
	if changed("fail-on-run-error") {
		cfg.Run.FailOnRunError = flags.failOnRunError
	}
	if changed("halt-on-generation-failure") {
		cfg.Run.HaltOnGenerationFailure = flags.haltOnGenerationFailure
	}
	if changed("timeout") {
		cfg.Run.Timeout = flags.timeout
	}
	if changed("shell") {
		cfg.Run.Shell = config.ShellMode(flags.shell)
	}
	if changed("filter") {
		cfg.Optimize.Filter = flags.filter
	}
	return cfg.Validate()
}

// resolveMatrix expands targets from the matrix file or the built-in set.
func resolveMatrix(cfg *config.Config, flags matrixFlags, targets []string) (matrix.Matrix, []string, error) {
	if len(targets) == 0 {
		targets = []string{matrix.TargetFull}
	}

	ts := matrix.DefaultTargets(cfg.Optimize.Filter)
	resource := "built-in targets"
	if flags.matrixFile != "" {
		var err error
		resource = flags.matrixFile
		if ts, err = matrix.LoadFile(flags.matrixFile); err != nil {
			return matrix.Matrix{}, nil, actionable(err, issue.MatrixInvalidId, "load matrix", resource)
		}
	}

	m, order, err := ts.Resolve(targets...)
	if err != nil {
		return matrix.Matrix{}, nil, actionable(err, issue.UnknownTargetId, "resolve targets", resource,
			"Run 'bitbench targets' to list the available targets")
	}
	if err := m.Validate(); err != nil {
		return matrix.Matrix{}, nil, actionable(err, issue.MatrixInvalidId, "validate matrix", resource)
	}
	return m, order, nil
}

func runBenchmarks(ctx context.Context, app *App, cmd *cobra.Command, flags runFlags, targets []string) error {
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		return actionable(err, issue.ConfigInvalidId, "load config", app.configFile)
	}
	if err := applyRunFlags(cmd, cfg, flags); err != nil {
		return actionable(err, issue.ConfigInvalidId, "apply flags", "run")
	}

	m, order, err := resolveMatrix(cfg, flags.matrixFlags, targets)
	if err != nil {
		return err
	}
	slog.Debug("resolved targets", "order", order, "scenarios", m.Len())

	pattern, err := config.CompileTimingPattern(cfg.Report.TimingPattern)
	if err != nil {
		return actionable(err, issue.ConfigInvalidId, "compile timing pattern", "report.timing_pattern")
	}
	extractor, err := report.NewExtractor(pattern)
	if err != nil {
		return actionable(err, issue.ConfigInvalidId, "compile timing pattern", "report.timing_pattern")
	}

	rt, err := runtime.New(string(cfg.Run.Shell))
	if err != nil {
		return actionable(err, issue.ConfigInvalidId, "select shell", string(cfg.Run.Shell))
	}

	ws, err := workspace.New(cfg.WorkspaceRoot, cfg.KeepWorkspace)
	if err != nil {
		return actionable(err, 0, "create workspace", cfg.WorkspaceRoot)
	}
	defer func() {
		if closeErr := ws.Close(); closeErr != nil {
			slog.Warn("failed to remove workspace", "root", ws.Root(), "error", closeErr)
		}
	}()

	backends, err := runnerBackends(cfg)
	if err != nil {
		return actionable(err, issue.ConfigInvalidId, "configure backends", "backends")
	}

	var live io.Writer
	if app.verbose {
		live = app.stderr
	}

	console := report.NewConsole(app.stdout, report.ConsoleOptions{
		Styles:    app.Styles(cfg.Report.Color),
		Extractor: extractor,
	})

	orch := orchestrator.New(orchestrator.Options{
		Schema: cfg.Schema,
		Generator: generator.New(generator.Options{
			Command:   cfg.Compiler.Command,
			Backends:  configuredBackends(backends),
			Timeout:   cfg.Compiler.Timeout,
			Runtime:   rt,
			Workspace: ws,
			Stdout:    live,
			Stderr:    live,
		}),
		Runner: runner.New(runner.Options{
			Backends:  backends,
			Timeout:   cfg.Run.Timeout,
			Runtime:   rt,
			Workspace: ws,
			Stdout:    live,
			Stderr:    live,
		}),
		Reporter:                console,
		Lock:                    runLock(cfg.Run),
		HaltOnGenerationFailure: cfg.Run.HaltOnGenerationFailure,
	})

	sum, runErr := orch.Run(ctx, m)
	if sum == nil {
		return actionable(runErr, 0, "run benchmark", cfg.Schema)
	}

	if err := writeExports(sum, extractor, console.Comparison, flags); err != nil {
		return actionable(err, 0, "export report", "")
	}

	if app.verbose {
		explainFailures(app.stderr, sum)
	}

	if code := sum.ExitCode(cfg.Run.FailOnRunError); code != orchestrator.ExitOK {
		return &ExitError{Code: runtime.ExitCode(code)}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// runnerBackends converts the configured backends.
func runnerBackends(cfg *config.Config) (map[matrix.Backend]runner.Backend, error) {
	backends := make(map[matrix.Backend]runner.Backend, len(matrix.Backends()))
	for _, b := range matrix.Backends() {
		bc, err := cfg.Backend(b)
		if err != nil {
			return nil, err
		}
		backends[b] = runner.Backend{Build: bc.Build, Run: bc.Run, DriverDir: bc.DriverDir, Env: bc.Env}
	}
	return backends, nil
}

// configuredBackends lists the backends of m in declaration order.
func configuredBackends(m map[matrix.Backend]runner.Backend) []matrix.Backend {
	var out []matrix.Backend
	for _, b := range matrix.Backends() {
		if _, ok := m[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

// runLock returns the cross-process lock function, or nil when exclusive runs are off.
func runLock(rc config.RunConfig) orchestrator.LockFunc {
	if !rc.Exclusive {
		return nil
	}
	return func() (func(), error) {
		lock, err := runtime.AcquireRunLock(rc.LockFile)
		if err != nil {
			return nil, err
		}
		return lock.Release, nil
	}
}

func writeExports(sum *orchestrator.Summary, ex *report.Extractor, cmp *report.Comparison, flags runFlags) error {
	if cmp == nil {
		cmp = report.Compare(sum, ex)
	}
	doc := report.NewDocument(sum, ex, cmp)

	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{flags.jsonFile, func(w io.Writer) error { return report.WriteJSON(w, doc) }},
		{flags.yamlFile, func(w io.Writer) error { return report.WriteYAML(w, doc) }},
		{flags.chartFile, func(w io.Writer) error { return report.WriteChart(w, cmp) }},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := writeFile(out.path, out.write); err != nil {
			return err
		}
		slog.Info("report written", "path", out.path)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return write(f)
}

// explainFailures renders the troubleshooting entry of every distinct failure kind.
func explainFailures(w io.Writer, sum *orchestrator.Summary) {
	seen := make(map[issue.Id]bool)
	var errs []error
	for _, f := range sum.GenerationFailures {
		errs = append(errs, f.Err)
	}
	for _, o := range sum.Outcomes {
		if o.Status == orchestrator.StatusFailed {
			errs = append(errs, o.Err)
		}
	}

	for _, err := range errs {
		id := classifyError(err)
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		if rendered, renderErr := issue.Get(id).Render("dark"); renderErr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}
