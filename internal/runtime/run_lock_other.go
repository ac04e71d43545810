// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package runtime

// RunLock is the stub used where flock is unavailable. Release is a no-op.
type RunLock struct{}

// AcquireRunLock always fails with ErrFlockUnavailable on this platform.
func AcquireRunLock(string) (*RunLock, error) {
	return nil, ErrFlockUnavailable
}

// Release is a no-op on this platform.
func (l *RunLock) Release() {}

// DefaultLockPath returns "" on this platform.
func DefaultLockPath() string { return "" }
