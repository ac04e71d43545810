// SPDX-License-Identifier: MPL-2.0

package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/runtime"
	"github.com/bitproto/bitbench/internal/workspace"
)

// Template variables passed to the compiler command.
const (
	EnvSchema   = "BB_SCHEMA"
	EnvBackend  = "BB_BACKEND"
	EnvLang     = "BB_LANG"
	EnvOutDir   = "BB_OUT_DIR"
	EnvOptimize = "BB_OPTIMIZE"
	EnvFilter   = "BB_FILTER"
)

type (
	// Options configures a Generator.
	Options struct {
		// Command is the compiler command template.
		Command string
		// Backends lists the configured backends. Empty accepts every known backend.
		Backends []matrix.Backend
		// Timeout bounds one generation. Zero disables the limit.
		Timeout time.Duration
		// Runtime executes the template.
		Runtime runtime.Runtime
		// Workspace owns the artifact and staging directories.
		Workspace *workspace.Workspace
		// Stdout and Stderr, when set, receive compiler output live.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Generator produces backend artifacts from the schema.
	Generator struct {
		opts Options
	}

	// GenerationResult describes the artifacts of one pair.
	GenerationResult struct {
		Pair matrix.Pair
		// OutputDir is the pair's artifact directory.
		OutputDir string
		// Files lists generated files relative to OutputDir, sorted.
		Files []string
		// Digest is an xxhash over Files and their contents.
		Digest string
		// Output and ErrOutput are the compiler's captured streams.
		Output    string
		ErrOutput string
		// Duration is the compiler's wall-clock time.
		Duration time.Duration
	}
)

// New creates a Generator.
func New(opts Options) *Generator {
	if opts.Runtime == nil {
		opts.Runtime = runtime.NewVirtualRuntime()
	}
	return &Generator{opts: opts}
}

// CheckSchema returns the absolute schema path, or a SchemaNotFoundError when it
// does not name a regular file.
func CheckSchema(schema string) (string, error) {
	if schema == "" {
		return "", &SchemaNotFoundError{Path: schema, Reason: "no schema configured"}
	}
	info, err := os.Stat(schema)
	switch {
	case os.IsNotExist(err):
		return "", &SchemaNotFoundError{Path: schema, Reason: "no such file"}
	case err != nil:
		return "", &SchemaNotFoundError{Path: schema, Reason: err.Error()}
	case info.IsDir():
		return "", &SchemaNotFoundError{Path: schema, Reason: "is a directory"}
	}
	abs, err := filepath.Abs(schema)
	if err != nil {
		return "", fmt.Errorf("resolve schema path: %w", err)
	}
	return abs, nil
}

// Generate runs the compiler for (backend, mode) and installs its output as the
// pair's artifacts. The schema is only read.
func (g *Generator) Generate(ctx context.Context, schema string, backend matrix.Backend, mode matrix.GenerationMode) (*GenerationResult, error) {
	if err := backend.Validate(); err != nil {
		return nil, err
	}
	if len(g.opts.Backends) > 0 && !slices.Contains(g.opts.Backends, backend) {
		return nil, &matrix.UnsupportedBackendError{Value: backend}
	}
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	schemaPath, err := CheckSchema(schema)
	if err != nil {
		return nil, err
	}

	pair := matrix.Pair{Backend: backend, Mode: mode}
	staging, err := g.opts.Workspace.Stage(pair)
	if err != nil {
		return nil, &GenerationError{Pair: pair, Err: err}
	}
	// Removing a staging directory that ReplaceDir already moved is a no-op.
	defer func() { _ = os.RemoveAll(staging) }()

	slog.Info("generating artifacts", "pair", pair.String())

	res := g.opts.Runtime.Run(ctx, &runtime.Invocation{
		Name:    "generate " + pair.String(),
		Script:  g.opts.Command,
		Env:     compilerEnv(schemaPath, pair, staging),
		Stdout:  g.opts.Stdout,
		Stderr:  g.opts.Stderr,
		Timeout: g.opts.Timeout,
	})
	if !res.Success() {
		return nil, &GenerationError{
			Pair:      pair,
			ExitCode:  res.ExitCode,
			Output:    res.Output,
			ErrOutput: res.ErrOutput,
			Err:       res.Error,
		}
	}

	digest, err := workspace.DigestDir(staging)
	if err != nil {
		return nil, &GenerationError{Pair: pair, Output: res.Output, ErrOutput: res.ErrOutput, Err: err}
	}
	if len(digest.Files) == 0 {
		return nil, &GenerationError{Pair: pair, Output: res.Output, ErrOutput: res.ErrOutput, Err: ErrNoArtifacts}
	}

	outDir := g.opts.Workspace.GenDir(pair)
	if err := workspace.ReplaceDir(staging, outDir); err != nil {
		return nil, &GenerationError{Pair: pair, Output: res.Output, ErrOutput: res.ErrOutput, Err: err}
	}

	slog.Debug("artifacts generated",
		"pair", pair.String(), "dir", outDir, "files", len(digest.Files), "digest", digest.String(), "duration", res.Duration)

	return &GenerationResult{
		Pair:      pair,
		OutputDir: outDir,
		Files:     digest.Files,
		Digest:    digest.String(),
		Output:    res.Output,
		ErrOutput: res.ErrOutput,
		Duration:  res.Duration,
	}, nil
}

// compilerEnv builds the template variables of one generation.
func compilerEnv(schema string, pair matrix.Pair, outDir string) map[string]string {
	env := map[string]string{
		EnvSchema:   schema,
		EnvBackend:  string(pair.Backend),
		EnvLang:     string(pair.Backend),
		EnvOutDir:   outDir,
		EnvOptimize: "",
		EnvFilter:   "",
	}
	if pair.Mode.IsOptimized() {
		env[EnvOptimize] = "1"
		env[EnvFilter] = pair.Mode.Filter
	}
	return env
}
