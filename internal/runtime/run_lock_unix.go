// SPDX-License-Identifier: MPL-2.0

//go:build unix

package runtime

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// lockFileName is the well-known lock file name shared by all bitbench processes.
// An orphaned zero-byte lock file is harmless: the kernel releases the flock when
// the fd is closed, including on process crash.
const lockFileName = "bitbench.lock"

// RunLock holds a blocking exclusive flock on a file, serializing builds and
// timed runs across bitbench processes so they do not skew each other's numbers.
type RunLock struct {
	file *os.File
}

// AcquireRunLock opens (or creates) the lock file at path and acquires a blocking
// exclusive flock. An empty path selects DefaultLockPath.
func AcquireRunLock(path string) (*RunLock, error) {
	if path == "" {
		path = DefaultLockPath()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	return &RunLock{file: f}, nil
}

// Release unlocks the flock and closes the file descriptor. It is safe to call
// multiple times.
func (l *RunLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		slog.Debug("flock unlock failed", "error", err)
	}
	if err := l.file.Close(); err != nil {
		slog.Debug("lock file close failed", "error", err)
	}
	l.file = nil
}

// DefaultLockPath returns the lock file path in $XDG_RUNTIME_DIR, falling back
// to os.TempDir().
func DefaultLockPath() string {
	return lockFilePathWith(os.Getenv)
}

// lockFilePathWith returns the lock file path using the provided getenv function.
func lockFilePathWith(getenv func(string) string) string {
	dir := getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, lockFileName)
}
