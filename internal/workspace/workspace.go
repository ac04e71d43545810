// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bitproto/bitbench/internal/matrix"

	"github.com/google/uuid"
)

const (
	dirPrefix  = "bitbench-"
	genDir     = "gen"
	buildDir   = "build"
	stagingDir = "staging"
	// runIDLength is the number of uuid characters kept in the run id.
	runIDLength = 8
)

// ErrWorkspaceClosed is returned when a closed workspace is used.
var ErrWorkspaceClosed = errors.New("workspace closed")

// Workspace is the directory tree of one bitbench run.
type Workspace struct {
	root   string
	runID  string
	keep   bool
	closed bool
}

// New creates a workspace under parent (the OS temp dir when empty). When keep is
// set, Close leaves the tree on disk.
func New(parent string, keep bool) (*Workspace, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace parent %s: %w", parent, err)
	}

	runID := uuid.NewString()[:runIDLength]
	root := filepath.Join(parent, dirPrefix+runID)
	for _, sub := range []string{genDir, buildDir, stagingDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create workspace %s: %w", root, err)
		}
	}

	slog.Debug("workspace created", "root", root, "run_id", runID)
	return &Workspace{root: root, runID: runID, keep: keep}, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string { return w.root }

// RunID returns the short run identifier embedded in Root.
func (w *Workspace) RunID() string { return w.runID }

// Keep reports whether Close leaves the tree on disk.
func (w *Workspace) Keep() bool { return w.keep }

// GenDir returns the artifact directory of a pair. Distinct pairs never share
// a directory.
func (w *Workspace) GenDir(p matrix.Pair) string {
	return filepath.Join(w.root, genDir, string(p.Backend), p.Mode.Key())
}

// BuildDir returns the build directory of a scenario.
func (w *Workspace) BuildDir(s matrix.Scenario) string {
	s = s.Normalize()
	return filepath.Join(w.root, buildDir, string(s.Backend), s.Mode.Key(), string(s.Level))
}

// Stage creates a new, empty staging directory for a pair's generation.
func (w *Workspace) Stage(p matrix.Pair) (string, error) {
	if w.closed {
		return "", ErrWorkspaceClosed
	}
	dir, err := os.MkdirTemp(filepath.Join(w.root, stagingDir), p.Key()+"-*")
	if err != nil {
		return "", fmt.Errorf("create staging directory for %s: %w", p, err)
	}
	return dir, nil
}

// FreshDir removes path and recreates it empty.
func (w *Workspace) FreshDir(path string) error {
	if w.closed {
		return ErrWorkspaceClosed
	}
	return ResetDir(path)
}

// Close removes the workspace unless it was created with keep.
func (w *Workspace) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.keep {
		slog.Info("workspace kept", "root", w.root)
		return nil
	}
	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("remove workspace %s: %w", w.root, err)
	}
	return nil
}
