// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/bitproto/bitbench/internal/dag"
)

const (
	// TargetStandard runs every backend in standard mode at default optimization.
	TargetStandard = "standard"
	// TargetNativeO1 runs the C backend built with -O1.
	TargetNativeO1 = "native-o1"
	// TargetNativeO2 runs the C backend built with -O2.
	TargetNativeO2 = "native-o2"
	// TargetOptimizationMode runs every backend in the compiler's optimized mode.
	TargetOptimizationMode = "optimization-mode"
	// TargetFull runs all of the above in sequence.
	TargetFull = "full"

	// DefaultEntityFilter is the message type the bundled benchmark schema optimizes.
	DefaultEntityFilter = "Drone"
)

var (
	// ErrUnknownTarget is returned when a requested target is not defined.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrInvalidTarget is the sentinel error wrapped by InvalidTargetError.
	ErrInvalidTarget = errors.New("invalid target")

	targetNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

type (
	// Target is a named group of scenarios, the CLI's unit of selection.
	// DependsOn names targets whose scenarios run before this target's own.
	Target struct {
		Name      string
		DependsOn []string
		Scenarios []Scenario
	}

	// TargetSet is an ordered collection of targets with unique names.
	TargetSet struct {
		targets map[string]Target
		order   []string
	}

	// InvalidTargetError is returned when a target definition is malformed.
	InvalidTargetError struct {
		Name   string
		Reason string
	}
)

// Error implements the error interface for InvalidTargetError.
func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidTarget for errors.Is() compatibility.
func (e *InvalidTargetError) Unwrap() error { return ErrInvalidTarget }

// DefaultTargets returns the built-in target groups. filter is the entity filter used
// by the optimization-mode group; an empty filter optimizes all entities.
func DefaultTargets(filter string) *TargetSet {
	opt := Optimized(filter)
	set, err := NewTargetSet(
		Target{
			Name: TargetStandard,
			Scenarios: []Scenario{
				NewScenario(BackendC, Standard(), LevelNone),
				NewScenario(BackendGo, Standard(), LevelNone),
				NewScenario(BackendPython, Standard(), LevelNone),
			},
		},
		Target{
			Name:      TargetNativeO1,
			Scenarios: []Scenario{NewScenario(BackendC, Standard(), LevelO1)},
		},
		Target{
			Name:      TargetNativeO2,
			Scenarios: []Scenario{NewScenario(BackendC, Standard(), LevelO2)},
		},
		Target{
			Name: TargetOptimizationMode,
			Scenarios: []Scenario{
				NewScenario(BackendC, opt, LevelNone),
				NewScenario(BackendC, opt, LevelO1),
				NewScenario(BackendC, opt, LevelO2),
				NewScenario(BackendGo, opt, LevelNone),
				NewScenario(BackendPython, opt, LevelNone),
			},
		},
		Target{
			Name:      TargetFull,
			DependsOn: []string{TargetStandard, TargetNativeO1, TargetNativeO2, TargetOptimizationMode},
		},
	)
	if err != nil {
		// The built-in definitions are static; failing here is a programming error.
		panic(err)
	}
	return set
}

// NewTargetSet validates and collects targets. Names must be unique, every
// dependency must name a target of the set, and every scenario must be valid.
func NewTargetSet(targets ...Target) (*TargetSet, error) {
	s := &TargetSet{targets: make(map[string]Target, len(targets))}
	for _, t := range targets {
		if !targetNamePattern.MatchString(t.Name) {
			return nil, &InvalidTargetError{Name: t.Name, Reason: "name must match " + targetNamePattern.String()}
		}
		if _, dup := s.targets[t.Name]; dup {
			return nil, &InvalidTargetError{Name: t.Name, Reason: "defined more than once"}
		}
		if len(t.DependsOn) == 0 && len(t.Scenarios) == 0 {
			return nil, &InvalidTargetError{Name: t.Name, Reason: "needs scenarios or depends_on"}
		}
		if err := New(t.Scenarios...).Validate(); err != nil {
			return nil, fmt.Errorf("target %q: %w", t.Name, err)
		}
		s.targets[t.Name] = t
		s.order = append(s.order, t.Name)
	}
	for _, name := range s.order {
		for _, dep := range s.targets[name].DependsOn {
			if _, ok := s.targets[dep]; !ok {
				return nil, &InvalidTargetError{Name: name, Reason: fmt.Sprintf("depends on undefined target %q", dep)}
			}
		}
	}
	return s, nil
}

// Names returns target names in definition order.
func (s *TargetSet) Names() []string {
	return append([]string(nil), s.order...)
}

// Get returns the target named name.
func (s *TargetSet) Get(name string) (Target, bool) {
	t, ok := s.targets[name]
	return t, ok
}

// Resolve expands the requested targets and their dependencies into one matrix.
// Dependencies come before their dependants; otherwise targets keep request order.
// Scenarios already contributed by an earlier target are not repeated.
func (s *TargetSet) Resolve(names ...string) (Matrix, []string, error) {
	g := dag.New()
	visited := make(map[string]bool)
	var visit func(name string) error
	visit = func(name string) error {
		t, ok := s.targets[name]
		if !ok {
			return fmt.Errorf("%w %q (available: %s)", ErrUnknownTarget, name, s.available())
		}
		if visited[name] {
			return nil
		}
		visited[name] = true
		g.AddNode(name)
		for _, dep := range t.DependsOn {
			g.AddEdge(dep, name)
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range names {
		if err := visit(name); err != nil {
			return Matrix{}, nil, err
		}
	}

	order, err := g.Sort()
	if err != nil {
		return Matrix{}, nil, fmt.Errorf("resolve targets: %w", err)
	}

	var m Matrix
	for _, name := range order {
		m = m.Append(s.targets[name].Scenarios...)
	}
	return m, order, nil
}

func (s *TargetSet) available() string {
	names := s.Names()
	sort.Strings(names)
	return fmt.Sprint(names)
}
