// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bitproto/bitbench/internal/generator"
	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/runner"
	"github.com/bitproto/bitbench/internal/runtime"
)

func TestNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from    State
		event   Event
		want    State
		wantErr bool
	}{
		{StateIdle, Event{Kind: EventGenerate}, StateGenerating, false},
		{StateIdle, Event{Kind: EventRun}, StateRunning, false},
		{StateIdle, Event{Kind: EventFinish}, StateDone, false},
		{StateGenerating, Event{Kind: EventRun}, StateRunning, false},
		{StateGenerating, Event{Kind: EventGenerationFailed, Severity: SeverityFatal}, StateReporting, false},
		{StateRunning, Event{Kind: EventRunFinished}, StateReporting, false},
		{StateRunning, Event{Kind: EventRunFinished, Severity: SeverityRecoverable}, StateReporting, false},
		{StateReporting, Event{Kind: EventGenerate}, StateGenerating, false},
		{StateReporting, Event{Kind: EventRun}, StateRunning, false},
		{StateReporting, Event{Kind: EventFinish, Severity: SeverityRecoverable}, StateDone, false},
		{StateReporting, Event{Kind: EventFinish, Severity: SeverityFatal}, StateFailed, false},
		{StateRunning, Event{Kind: EventAbort}, StateFailed, false},
		{StateGenerating, Event{Kind: EventAbort}, StateFailed, false},

		{StateIdle, Event{Kind: EventRunFinished}, StateIdle, true},
		{StateRunning, Event{Kind: EventGenerate}, StateRunning, true},
		{StateGenerating, Event{Kind: EventFinish}, StateGenerating, true},
		{StateRunning, Event{Kind: EventFinish}, StateRunning, true},
		{StateDone, Event{Kind: EventGenerate}, StateDone, true},
		{StateFailed, Event{Kind: EventAbort}, StateFailed, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s+%s", tt.from, tt.event.Kind), func(t *testing.T) {
			t.Parallel()

			got, err := Next(tt.from, tt.event)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Next() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSeverityOf(t *testing.T) {
	t.Parallel()

	s := matrix.NewScenario(matrix.BackendGo, matrix.Standard(), matrix.LevelNone)
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"nil", nil, SeverityNone},
		{"build", &runner.BuildError{Scenario: s}, SeverityRecoverable},
		{"execution", &runner.ExecutionError{Scenario: s}, SeverityRecoverable},
		{"run timeout", &runner.ExecutionError{Scenario: s, Err: &runtime.TimeoutError{Name: "run"}}, SeverityRecoverable},
		{"generation", &generator.GenerationError{Pair: s.Pair()}, SeverityFatal},
		{"generation timeout", &generator.GenerationError{Pair: s.Pair(), Err: &runtime.TimeoutError{Name: "gen"}}, SeverityFatal},
		{"schema", &generator.SchemaNotFoundError{Path: "x"}, SeverityFatal},
		{"backend", &matrix.UnsupportedBackendError{Value: "rust"}, SeverityFatal},
		{"canceled", context.Canceled, SeverityFatal},
		{"unknown", errors.New("boom"), SeverityFatal},
	}

	for _, tt := range tests {
		if got := SeverityOf(tt.err); got != tt.want {
			t.Errorf("SeverityOf(%s) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestStringers(t *testing.T) {
	t.Parallel()

	if StateGenerating.String() != "generating" || State(99).String() != "state(99)" {
		t.Error("State.String() mismatch")
	}
	if EventRunFinished.String() != "run-finished" {
		t.Error("EventKind.String() mismatch")
	}
	if SeverityFatal.String() != "fatal" {
		t.Error("Severity.String() mismatch")
	}
	if !StateDone.IsTerminal() || StateReporting.IsTerminal() {
		t.Error("IsTerminal() mismatch")
	}
}
