// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load config"},
			expected: "failed to load config",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "read schema", Resource: "drone.bitproto"},
			expected: "failed to read schema: drone.bitproto",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "parse matrix", Cause: errors.New("unknown field \"lvl\"")},
			expected: "failed to parse matrix: unknown field \"lvl\"",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "generate artifacts",
				Resource:  "c/optimized[Drone]",
				Cause:     errors.New("exit status 1"),
			},
			expected: "failed to generate artifacts: c/optimized[Drone]: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "run benchmark", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if (&ActionableError{Operation: "x"}).Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	inner := errors.New("no such file")
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "simple",
			err:      &ActionableError{Operation: "load config"},
			contains: []string{"failed to load config"},
			excludes: []string{"•", "Error chain"},
		},
		{
			name: "suggestions",
			err: &ActionableError{
				Operation:   "read schema",
				Resource:    "drone.bitproto",
				Suggestions: []string{"Pass --schema", "Run from the benchmark root"},
			},
			contains: []string{"failed to read schema", "• Pass --schema", "• Run from the benchmark root"},
		},
		{
			name: "chain hidden when not verbose",
			err: &ActionableError{
				Operation: "load config",
				Cause:     fmt.Errorf("open: %w", inner),
			},
			excludes: []string{"Error chain"},
		},
		{
			name: "chain shown when verbose",
			err: &ActionableError{
				Operation: "load config",
				Cause:     fmt.Errorf("open: %w", inner),
			},
			verbose:  true,
			contains: []string{"Error chain:", "1. open: no such file", "2. no such file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(tt.verbose)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Format() = %q, should contain %q", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("Format() = %q, should not contain %q", got, unwanted)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("run benchmark").
		WithResource("go/standard/none").
		WithSuggestion("first").
		WithSuggestions("second", "third").
		WithIssue(BuildFailedId).
		Wrap(cause).
		Build()

	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Operation != "run benchmark" || ae.Resource != "go/standard/none" {
		t.Errorf("unexpected context: %+v", ae)
	}
	if len(ae.Suggestions) != 3 || !ae.HasSuggestions() {
		t.Errorf("Suggestions = %v, want 3 entries", ae.Suggestions)
	}
	if ae.Issue != BuildFailedId {
		t.Errorf("Issue = %d, want %d", ae.Issue, BuildFailedId)
	}
	if !errors.Is(ae, cause) {
		t.Error("built error should wrap the cause")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation should return untyped nil, got %v", err)
	}
}

func TestWrapHelpers(t *testing.T) {
	if WrapWithOperation(nil, "x") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
	if WrapWithContext(nil, "x", "y") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}

	cause := errors.New("cause")
	if got := WrapWithContext(cause, "load matrix", "bench.toml").Error(); got != "failed to load matrix: bench.toml: cause" {
		t.Errorf("WrapWithContext().Error() = %q", got)
	}
	if got := NewActionableError("plan").Error(); got != "failed to plan" {
		t.Errorf("NewActionableError().Error() = %q", got)
	}
}

func TestIssueOf(t *testing.T) {
	inner := NewErrorContext().WithOperation("generate").WithIssue(GenerationFailedId).Build()
	outer := NewErrorContext().WithOperation("run").Wrap(fmt.Errorf("pair c/standard: %w", inner)).Build()

	got, ok := IssueOf(outer)
	if !ok || got.Id() != GenerationFailedId {
		t.Errorf("IssueOf() = %v, %v; want GenerationFailed entry", got, ok)
	}

	if _, ok := IssueOf(errors.New("plain")); ok {
		t.Error("IssueOf() should not find an entry in a plain error")
	}
	if _, ok := IssueOf(NewActionableError("no issue")); ok {
		t.Error("IssueOf() should not find an entry when none is linked")
	}
}
