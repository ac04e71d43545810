// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// LevelNone builds with the toolchain's default optimization (no flag).
	LevelNone OptimizationLevel = "none"
	// LevelO1 builds with -O1.
	LevelO1 OptimizationLevel = "O1"
	// LevelO2 builds with -O2.
	LevelO2 OptimizationLevel = "O2"
)

// ErrInvalidOptimizationLevel is the sentinel error wrapped by InvalidOptimizationLevelError.
var ErrInvalidOptimizationLevel = errors.New("invalid optimization level")

type (
	// OptimizationLevel is a native compiler optimization level. It only affects the
	// build step of backends that support native optimization.
	OptimizationLevel string

	// InvalidOptimizationLevelError is returned when an OptimizationLevel value is
	// not recognized. It wraps ErrInvalidOptimizationLevel for errors.Is() compatibility.
	InvalidOptimizationLevelError struct {
		Value OptimizationLevel
	}
)

// ParseOptimizationLevel accepts "", "none", "0", "1", "2", "O1", "-O2" and similar
// spellings. The empty string maps to LevelNone.
func ParseOptimizationLevel(s string) (OptimizationLevel, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "-")
	switch strings.ToLower(v) {
	case "", "none", "0", "o0":
		return LevelNone, nil
	case "1", "o1":
		return LevelO1, nil
	case "2", "o2":
		return LevelO2, nil
	default:
		return "", &InvalidOptimizationLevelError{Value: OptimizationLevel(s)}
	}
}

// Error implements the error interface for InvalidOptimizationLevelError.
func (e *InvalidOptimizationLevelError) Error() string {
	return fmt.Sprintf("invalid optimization level %q (valid: none, O1, O2)", e.Value)
}

// Unwrap returns ErrInvalidOptimizationLevel for errors.Is() compatibility.
func (e *InvalidOptimizationLevelError) Unwrap() error { return ErrInvalidOptimizationLevel }

// String returns the string representation of the OptimizationLevel.
func (l OptimizationLevel) String() string { return string(l) }

// Validate returns an error if the level is not one of the defined levels.
func (l OptimizationLevel) Validate() error {
	switch l {
	case LevelNone, LevelO1, LevelO2:
		return nil
	default:
		return &InvalidOptimizationLevelError{Value: l}
	}
}

// Flag returns the native compiler flag for the level. LevelNone has no flag.
func (l OptimizationLevel) Flag() string {
	switch l {
	case LevelO1:
		return "-O1"
	case LevelO2:
		return "-O2"
	default:
		return ""
	}
}
