// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"errors"
	"fmt"
)

// ErrInvalidScenario is the sentinel error wrapped by InvalidScenarioError.
var ErrInvalidScenario = errors.New("invalid scenario")

type (
	// Pair is the unit of code generation: one backend in one generation mode.
	Pair struct {
		Backend Backend
		Mode    GenerationMode
	}

	// Scenario is one fully specified benchmark run and one report section.
	Scenario struct {
		Backend Backend
		Mode    GenerationMode
		Level   OptimizationLevel
	}

	// InvalidScenarioError is returned when a Scenario has invalid fields.
	// It wraps ErrInvalidScenario for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidScenarioError struct {
		Scenario    Scenario
		FieldErrors []error
	}
)

// NewScenario returns a normalized scenario.
func NewScenario(b Backend, m GenerationMode, l OptimizationLevel) Scenario {
	return Scenario{Backend: b, Mode: m, Level: l}.Normalize()
}

// String renders the pair as "backend/mode".
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Backend, p.Mode)
}

// Key returns a filesystem-safe identifier for the pair.
func (p Pair) Key() string {
	return string(p.Backend) + "-" + p.Mode.Key()
}

// Pair returns the (backend, mode) pair whose artifacts the scenario consumes.
func (s Scenario) Pair() Pair {
	return Pair{Backend: s.Backend, Mode: s.Mode}
}

// Normalize defaults an empty level to LevelNone and drops any level on backends
// that do not support native optimization.
func (s Scenario) Normalize() Scenario {
	if s.Level == "" || !s.Backend.SupportsNativeOptimization() {
		s.Level = LevelNone
	}
	return s
}

// Label renders the scenario as "backend/mode/level", e.g. "c/optimized[Drone]/O2".
func (s Scenario) Label() string {
	level := s.Level
	if level == "" {
		level = LevelNone
	}
	return fmt.Sprintf("%s/%s/%s", s.Backend, s.Mode, level)
}

// Key returns a filesystem-safe identifier for the scenario.
func (s Scenario) Key() string {
	return s.Pair().Key() + "-" + string(s.Normalize().Level)
}

// Validate checks every field and reports all field errors at once.
func (s Scenario) Validate() error {
	var errs []error
	if err := s.Backend.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Mode.Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.Level != "" {
		if err := s.Level.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &InvalidScenarioError{Scenario: s, FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidScenarioError.
func (e *InvalidScenarioError) Error() string {
	return fmt.Sprintf("invalid scenario %s: %v", e.Scenario.Label(), errors.Join(e.FieldErrors...))
}

// Unwrap returns the sentinel and the field errors so errors.Is matches both
// ErrInvalidScenario and the individual field sentinels.
func (e *InvalidScenarioError) Unwrap() []error {
	return append([]error{ErrInvalidScenario}, e.FieldErrors...)
}
