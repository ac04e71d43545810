// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bitproto/bitbench/internal/matrix"
)

const (
	// ShellVirtual runs command templates in the embedded mvdan/sh interpreter.
	ShellVirtual ShellMode = "virtual"
	// ShellNative runs command templates with the host's sh.
	ShellNative ShellMode = "native"

	// ColorAuto colors output only when stdout is a terminal.
	ColorAuto ColorMode = "auto"
	// ColorAlways forces colored output.
	ColorAlways ColorMode = "always"
	// ColorNever disables colored output.
	ColorNever ColorMode = "never"

	// DefaultCompilerCommand invokes bitproto. BB_OPTIMIZE is "1" in optimized mode
	// and BB_FILTER holds the entity filter.
	DefaultCompilerCommand = `bitproto ${BB_OPTIMIZE:+-O} ${BB_FILTER:+-F "$BB_FILTER"} "$BB_LANG" "$BB_SCHEMA" "$BB_OUT_DIR"`

	// DefaultTimingPattern matches driver lines such as
	// "encode: called 1000000 times, total 0.12s, per call 120ns". The last duration
	// on the line wins.
	DefaultTimingPattern = `(?i)\b(?P<op>encode|decode)\b.*[^0-9.](?P<value>[0-9]+(?:\.[0-9]+)?)\s*(?P<unit>ns|us|µs|ms|s)\b`
)

var (
	// ErrInvalidShellMode is returned when a ShellMode value is not recognized.
	ErrInvalidShellMode = errors.New("invalid shell mode")
	// ErrInvalidColorMode is returned when a ColorMode value is not recognized.
	ErrInvalidColorMode = errors.New("invalid color mode")
	// ErrInvalidTimingPattern is returned when report.timing_pattern is unusable.
	ErrInvalidTimingPattern = errors.New("invalid timing pattern")
	// ErrNegativeTimeout is returned when a timeout is below zero.
	ErrNegativeTimeout = errors.New("timeout must not be negative")
	// ErrMissingCommand is returned when a required command template is empty.
	ErrMissingCommand = errors.New("missing command template")
	// ErrInvalidEnvEntry is returned when an env entry is not KEY=VALUE.
	ErrInvalidEnvEntry = errors.New("env entry must be KEY=VALUE")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ShellMode selects how command templates are executed.
	ShellMode string

	// ColorMode controls styled console output.
	ColorMode string

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the bitbench configuration.
	Config struct {
		// Schema is the benchmark schema file fed to the compiler.
		Schema string `json:"schema" mapstructure:"schema"`
		// DriverRoot holds one driver program directory per backend (c/, go/, py/).
		DriverRoot string `json:"driver_root" mapstructure:"driver_root"`
		// WorkspaceRoot is where per-run workspaces are created (default: OS temp dir).
		WorkspaceRoot string `json:"workspace_root" mapstructure:"workspace_root"`
		// KeepWorkspace keeps generated and built artifacts after the run.
		KeepWorkspace bool `json:"keep_workspace" mapstructure:"keep_workspace"`
		// Compiler configures the code generator invocation.
		Compiler CompilerConfig `json:"compiler" mapstructure:"compiler"`
		// Backends configures build and run templates per backend.
		Backends BackendsConfig `json:"backends" mapstructure:"backends"`
		// Run configures scenario execution policy.
		Run RunConfig `json:"run" mapstructure:"run"`
		// Optimize configures the optimization-mode target group.
		Optimize OptimizeConfig `json:"optimize" mapstructure:"optimize"`
		// Report configures result extraction and rendering.
		Report ReportConfig `json:"report" mapstructure:"report"`
	}

	// CompilerConfig configures the code generator.
	CompilerConfig struct {
		// Command is the shell template that generates one (backend, mode) pair.
		Command string `json:"command" mapstructure:"command"`
		// Timeout bounds one generation. Zero disables the limit.
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// BackendsConfig holds per-backend settings.
	BackendsConfig struct {
		C  BackendConfig `json:"c" mapstructure:"c"`
		Go BackendConfig `json:"go" mapstructure:"go"`
		Py BackendConfig `json:"py" mapstructure:"py"`
	}

	// BackendConfig configures how one backend's driver is built and run.
	BackendConfig struct {
		// Build is the build template. Empty means the backend needs no build step.
		Build string `json:"build" mapstructure:"build"`
		// Run is the template that executes the driver and prints timings.
		Run string `json:"run" mapstructure:"run"`
		// DriverDir overrides <driver_root>/<backend>.
		DriverDir string `json:"driver_dir" mapstructure:"driver_dir"`
		// Env adds KEY=VALUE environment entries to build and run. A list keeps
		// key case intact, which Viper does not do for map keys.
		Env []string `json:"env" mapstructure:"env"`
	}

	// RunConfig configures the orchestrator's failure and scheduling policy.
	RunConfig struct {
		// Timeout bounds each build and each driver execution. Zero disables the limit.
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
		// Exclusive serializes builds and runs across bitbench processes with a file lock.
		Exclusive bool `json:"exclusive" mapstructure:"exclusive"`
		// FailOnRunError makes build/execution failures produce a non-zero exit code.
		FailOnRunError bool `json:"fail_on_run_error" mapstructure:"fail_on_run_error"`
		// HaltOnGenerationFailure stops the whole matrix at the first generation failure
		// instead of skipping only the scenarios of the failed pair.
		HaltOnGenerationFailure bool `json:"halt_on_generation_failure" mapstructure:"halt_on_generation_failure"`
		// Shell selects the command template executor.
		Shell ShellMode `json:"shell" mapstructure:"shell"`
		// LockFile overrides the cross-process lock path.
		LockFile string `json:"lock_file" mapstructure:"lock_file"`
	}

	// OptimizeConfig configures optimized generation.
	OptimizeConfig struct {
		// Filter restricts optimized codegen to one message type. Empty means all.
		Filter string `json:"filter" mapstructure:"filter"`
	}

	// ReportConfig configures timing extraction and console rendering.
	ReportConfig struct {
		// TimingPattern is a regexp with named groups op, value and unit.
		TimingPattern string `json:"timing_pattern" mapstructure:"timing_pattern"`
		// Color controls styled output.
		Color ColorMode `json:"color" mapstructure:"color"`
	}
)

// String returns the string representation of the ShellMode.
func (m ShellMode) String() string { return string(m) }

// Validate returns an error if the ShellMode is not recognized.
func (m ShellMode) Validate() error {
	switch m {
	case ShellVirtual, ShellNative:
		return nil
	default:
		return fmt.Errorf("%w %q (valid: virtual, native)", ErrInvalidShellMode, m)
	}
}

// String returns the string representation of the ColorMode.
func (m ColorMode) String() string { return string(m) }

// Validate returns an error if the ColorMode is not recognized.
func (m ColorMode) Validate() error {
	switch m {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	default:
		return fmt.Errorf("%w %q (valid: auto, always, never)", ErrInvalidColorMode, m)
	}
}

// Backend returns the settings for b with DriverDir resolved against DriverRoot.
func (c *Config) Backend(b matrix.Backend) (BackendConfig, error) {
	var bc BackendConfig
	switch b {
	case matrix.BackendC:
		bc = c.Backends.C
	case matrix.BackendGo:
		bc = c.Backends.Go
	case matrix.BackendPython:
		bc = c.Backends.Py
	default:
		return BackendConfig{}, &matrix.UnsupportedBackendError{Value: b}
	}
	if bc.DriverDir == "" {
		bc.DriverDir = filepath.Join(c.DriverRoot, string(b))
	}
	return bc, nil
}

// Validate checks every field and reports all field errors at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Schema) == "" {
		errs = append(errs, errors.New("schema: must not be empty"))
	}
	if strings.TrimSpace(c.Compiler.Command) == "" {
		errs = append(errs, fmt.Errorf("compiler.command: %w", ErrMissingCommand))
	}
	if c.Compiler.Timeout < 0 {
		errs = append(errs, fmt.Errorf("compiler.timeout: %w", ErrNegativeTimeout))
	}
	for _, b := range matrix.Backends() {
		bc, _ := c.Backend(b)
		if strings.TrimSpace(bc.Run) == "" {
			errs = append(errs, fmt.Errorf("backends.%s.run: %w", b, ErrMissingCommand))
		}
		for _, kv := range bc.Env {
			if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
				errs = append(errs, fmt.Errorf("backends.%s.env: %w: %q", b, ErrInvalidEnvEntry, kv))
			}
		}
	}
	if c.Run.Timeout < 0 {
		errs = append(errs, fmt.Errorf("run.timeout: %w", ErrNegativeTimeout))
	}
	if err := c.Run.Shell.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("run.shell: %w", err))
	}
	if err := c.Report.Color.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("report.color: %w", err))
	}
	if _, err := CompileTimingPattern(c.Report.TimingPattern); err != nil {
		errs = append(errs, fmt.Errorf("report.timing_pattern: %w", err))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// CompileTimingPattern compiles a timing regexp and checks that it defines the
// op, value and unit groups.
func CompileTimingPattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTimingPattern, err)
	}
	for _, group := range []string{"op", "value", "unit"} {
		if re.SubexpIndex(group) < 0 {
			return nil, fmt.Errorf("%w: missing named group %q", ErrInvalidTimingPattern, group)
		}
	}
	return re, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns the sentinel and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the built-in configuration, matching the benchmark layout
// of the bitproto repository (drone.bitproto plus one driver directory per backend).
func DefaultConfig() *Config {
	return &Config{
		Schema:        "drone.bitproto",
		DriverRoot:    "benchmark",
		WorkspaceRoot: "",
		KeepWorkspace: false,
		Compiler: CompilerConfig{
			Command: DefaultCompilerCommand,
			Timeout: 5 * time.Minute,
		},
		Backends: BackendsConfig{
			C: BackendConfig{
				Build: `cc $BB_OPT_FLAG -I"$BB_GEN_DIR" -I"$BB_DRIVER_DIR" -o bench "$BB_DRIVER_DIR"/*.c "$BB_GEN_DIR"/*.c`,
				Run:   `./bench`,
				Env:   []string{},
			},
			Go: BackendConfig{
				Build: `cp -R "$BB_DRIVER_DIR"/. . && mkdir -p bp && cp "$BB_GEN_DIR"/*.go bp/ && go build -o bench .`,
				Run:   `./bench`,
				Env:   []string{},
			},
			Py: BackendConfig{
				Build: "",
				Run:   `PYTHONPATH="$BB_GEN_DIR" python3 "$BB_DRIVER_DIR/main.py"`,
				Env:   []string{},
			},
		},
		Run: RunConfig{
			Timeout:                 15 * time.Minute,
			Exclusive:               true,
			FailOnRunError:          false,
			HaltOnGenerationFailure: false,
			Shell:                   ShellVirtual,
		},
		Optimize: OptimizeConfig{
			Filter: matrix.DefaultEntityFilter,
		},
		Report: ReportConfig{
			TimingPattern: DefaultTimingPattern,
			Color:         ColorAuto,
		},
	}
}
