// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMatrix is the sentinel error wrapped by InvalidMatrixError.
	ErrInvalidMatrix = errors.New("invalid matrix")
	// ErrDuplicateScenario is returned when a matrix lists the same scenario twice.
	ErrDuplicateScenario = errors.New("duplicate scenario")
)

type (
	// Matrix is an ordered sequence of scenarios. Order only matters for report
	// readability; each scenario is independently reproducible.
	Matrix struct {
		Scenarios []Scenario
	}

	// InvalidMatrixError is returned when a Matrix has invalid entries.
	// It wraps ErrInvalidMatrix for errors.Is() compatibility.
	InvalidMatrixError struct {
		FieldErrors []error
	}
)

// New returns a matrix of the given scenarios, normalized.
func New(scenarios ...Scenario) Matrix {
	m := Matrix{Scenarios: make([]Scenario, 0, len(scenarios))}
	for _, s := range scenarios {
		m.Scenarios = append(m.Scenarios, s.Normalize())
	}
	return m
}

// Len returns the number of scenarios.
func (m Matrix) Len() int { return len(m.Scenarios) }

// Validate checks every scenario and rejects duplicates.
func (m Matrix) Validate() error {
	var errs []error
	seen := make(map[Scenario]int, len(m.Scenarios))
	for i, s := range m.Scenarios {
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("scenarios[%d]: %w", i, err))
			continue
		}
		n := s.Normalize()
		if first, ok := seen[n]; ok {
			errs = append(errs, fmt.Errorf("scenarios[%d]: %w %s (same as scenarios[%d])", i, ErrDuplicateScenario, n.Label(), first))
			continue
		}
		seen[n] = i
	}
	if len(errs) > 0 {
		return &InvalidMatrixError{FieldErrors: errs}
	}
	return nil
}

// Pairs returns the distinct (backend, mode) pairs in order of first appearance.
func (m Matrix) Pairs() []Pair {
	seen := make(map[Pair]bool)
	var pairs []Pair
	for _, s := range m.Scenarios {
		p := s.Pair()
		if seen[p] {
			continue
		}
		seen[p] = true
		pairs = append(pairs, p)
	}
	return pairs
}

// ScenariosFor returns the scenarios consuming pair p, in matrix order.
func (m Matrix) ScenariosFor(p Pair) []Scenario {
	var out []Scenario
	for _, s := range m.Scenarios {
		if s.Pair() == p {
			out = append(out, s)
		}
	}
	return out
}

// Append adds scenarios that are not already present, keeping the first occurrence.
func (m Matrix) Append(scenarios ...Scenario) Matrix {
	seen := make(map[Scenario]bool, len(m.Scenarios))
	for _, s := range m.Scenarios {
		seen[s.Normalize()] = true
	}
	out := Matrix{Scenarios: append([]Scenario(nil), m.Scenarios...)}
	for _, s := range scenarios {
		n := s.Normalize()
		if seen[n] {
			continue
		}
		seen[n] = true
		out.Scenarios = append(out.Scenarios, n)
	}
	return out
}

// Error implements the error interface for InvalidMatrixError.
func (e *InvalidMatrixError) Error() string {
	return fmt.Sprintf("invalid matrix: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns the sentinel and the field errors.
func (e *InvalidMatrixError) Unwrap() []error {
	return append([]error{ErrInvalidMatrix}, e.FieldErrors...)
}
