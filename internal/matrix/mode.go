// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// ModeStandard asks the compiler for its baseline output.
	ModeStandard ModeKind = "standard"
	// ModeOptimized asks the compiler for size/speed tuned output.
	ModeOptimized ModeKind = "optimized"
)

var (
	// ErrInvalidMode is the sentinel error wrapped by InvalidModeError.
	ErrInvalidMode = errors.New("invalid generation mode")

	// modeKeyReplacer maps entity filter characters that are unsafe in directory
	// names onto underscores.
	modeKeyReplacer = strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_", "*", "_")
)

type (
	// ModeKind is the code generation mode requested from the compiler.
	ModeKind string

	// GenerationMode is a ModeKind plus, for optimized generation, an entity filter
	// restricting optimization to one named message type. An empty filter means
	// "all entities". GenerationMode is comparable and may be used as a map key.
	GenerationMode struct {
		Kind   ModeKind
		Filter string
	}

	// InvalidModeError is returned when a GenerationMode is malformed.
	// It wraps ErrInvalidMode for errors.Is() compatibility.
	InvalidModeError struct {
		Mode   GenerationMode
		Reason string
	}
)

// Standard returns the standard generation mode.
func Standard() GenerationMode {
	return GenerationMode{Kind: ModeStandard}
}

// Optimized returns the optimized generation mode restricted to filter.
func Optimized(filter string) GenerationMode {
	return GenerationMode{Kind: ModeOptimized, Filter: strings.TrimSpace(filter)}
}

// ParseMode builds a GenerationMode from its textual kind and filter.
// An empty kind defaults to standard.
func ParseMode(kind, filter string) (GenerationMode, error) {
	var m GenerationMode
	switch ModeKind(strings.ToLower(strings.TrimSpace(kind))) {
	case "", ModeStandard:
		m = GenerationMode{Kind: ModeStandard, Filter: strings.TrimSpace(filter)}
	case ModeOptimized, "optimize", "o":
		m = Optimized(filter)
	default:
		m = GenerationMode{Kind: ModeKind(kind), Filter: filter}
	}
	if err := m.Validate(); err != nil {
		return GenerationMode{}, err
	}
	return m, nil
}

// Error implements the error interface for InvalidModeError.
func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid generation mode %q: %s", e.Mode.Kind, e.Reason)
}

// Unwrap returns ErrInvalidMode for errors.Is() compatibility.
func (e *InvalidModeError) Unwrap() error { return ErrInvalidMode }

// Validate returns an error if the kind is unknown or a standard mode carries a filter.
func (m GenerationMode) Validate() error {
	switch m.Kind {
	case ModeStandard:
		if m.Filter != "" {
			return &InvalidModeError{Mode: m, Reason: "entity filter is only valid in optimized mode"}
		}
		return nil
	case ModeOptimized:
		return nil
	default:
		return &InvalidModeError{Mode: m, Reason: "valid: standard, optimized"}
	}
}

// IsOptimized reports whether the mode requests optimized generation.
func (m GenerationMode) IsOptimized() bool { return m.Kind == ModeOptimized }

// String renders the mode as it appears in report labels, e.g. "optimized[Drone]".
func (m GenerationMode) String() string {
	if m.Filter == "" {
		return string(m.Kind)
	}
	return fmt.Sprintf("%s[%s]", m.Kind, m.Filter)
}

// Key returns a filesystem-safe identifier for the mode, e.g. "optimized-Drone".
// Filters that had to be rewritten, or that contain '-', get a hash suffix of the
// raw filter so that distinct modes never share a key.
func (m GenerationMode) Key() string {
	if m.Filter == "" {
		return string(m.Kind)
	}
	safe := modeKeyReplacer.Replace(m.Filter)
	if safe == m.Filter && !strings.Contains(m.Filter, "-") {
		return string(m.Kind) + "-" + safe
	}
	return string(m.Kind) + "-" + safe + "-" + strconv.FormatUint(xxhash.Sum64String(m.Filter), 16)
}
