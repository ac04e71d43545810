// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// BackendC generates C sources (a .c and a .h file per schema).
	BackendC Backend = "c"
	// BackendGo generates a Go package.
	BackendGo Backend = "go"
	// BackendPython generates a Python module.
	BackendPython Backend = "py"
)

// ErrUnsupportedBackend is the sentinel error wrapped by UnsupportedBackendError.
var ErrUnsupportedBackend = errors.New("unsupported backend")

type (
	// Backend names one target language of the compiler. The values match the
	// language argument the compiler accepts on its command line.
	Backend string

	// UnsupportedBackendError is returned when a Backend value is not recognized.
	// It wraps ErrUnsupportedBackend for errors.Is() compatibility.
	UnsupportedBackendError struct {
		Value Backend
	}
)

// Backends returns all supported backends in their canonical report order.
func Backends() []Backend {
	return []Backend{BackendC, BackendGo, BackendPython}
}

// ParseBackend converts user input into a Backend. Matching is case-insensitive and
// accepts "python" as an alias of "py".
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	if b == "python" {
		b = BackendPython
	}
	if err := b.Validate(); err != nil {
		return "", err
	}
	return b, nil
}

// Error implements the error interface for UnsupportedBackendError.
func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported backend %q (valid: c, go, py)", e.Value)
}

// Unwrap returns ErrUnsupportedBackend for errors.Is() compatibility.
func (e *UnsupportedBackendError) Unwrap() error { return ErrUnsupportedBackend }

// String returns the string representation of the Backend.
func (b Backend) String() string { return string(b) }

// Validate returns an error if the Backend is not one of the supported backends.
func (b Backend) Validate() error {
	switch b {
	case BackendC, BackendGo, BackendPython:
		return nil
	default:
		return &UnsupportedBackendError{Value: b}
	}
}

// SupportsNativeOptimization reports whether the backend's build step accepts a
// native compiler optimization flag. Only the C backend does; Go and Python always
// use their toolchain defaults.
func (b Backend) SupportsNativeOptimization() bool {
	return b == BackendC
}

// DisplayName returns the human-readable language name used in report headers.
func (b Backend) DisplayName() string {
	switch b {
	case BackendC:
		return "C"
	case BackendGo:
		return "Go"
	case BackendPython:
		return "Python"
	default:
		return string(b)
	}
}
