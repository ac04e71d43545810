// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"errors"
	"fmt"
)

const (
	// StateIdle is the state before the first event.
	StateIdle State = iota
	// StateGenerating means a pair's artifacts are being generated.
	StateGenerating
	// StateRunning means a scenario is being built and executed.
	StateRunning
	// StateReporting means a result (or failure) is being reported.
	StateReporting
	// StateDone is the terminal state of a run without fatal errors.
	StateDone
	// StateFailed is the terminal state of a run with a fatal error or an abort.
	StateFailed
)

const (
	// EventGenerate starts the generation of a pair.
	EventGenerate EventKind = iota + 1
	// EventGenerationFailed ends a generation with an error.
	EventGenerationFailed
	// EventRun starts a scenario. From StateGenerating it means generation succeeded.
	EventRun
	// EventRunFinished ends a scenario, successfully or not.
	EventRunFinished
	// EventFinish ends the walk. Its Severity is the worst severity seen.
	EventFinish
	// EventAbort stops the walk immediately (cancellation, halt policy).
	EventAbort
)

const (
	// SeverityNone means no error.
	SeverityNone Severity = iota
	// SeverityRecoverable errors affect one scenario; the walk continues.
	SeverityRecoverable
	// SeverityFatal errors invalidate a pair or the whole run.
	SeverityFatal
)

// ErrInvalidTransition is returned by Next for an event the state does not accept.
var ErrInvalidTransition = errors.New("invalid state transition")

type (
	// State is a state of the orchestration state machine.
	State int

	// EventKind identifies an input of the state machine.
	EventKind int

	// Severity classifies an error's effect on the run.
	Severity int

	// Event is one input of the state machine.
	Event struct {
		Kind     EventKind
		Severity Severity
	}

	// InvalidTransitionError describes a rejected transition.
	InvalidTransitionError struct {
		From  State
		Event Event
	}
)

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot handle %s", e.From, e.Event.Kind)
}

// Unwrap returns ErrInvalidTransition for errors.Is compatibility.
func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// Next returns the state that follows from applying ev in state s. It has no side
// effects; the orchestrator performs the work each state names.
func Next(s State, ev Event) (State, error) {
	if s.IsTerminal() {
		return s, &InvalidTransitionError{From: s, Event: ev}
	}

	switch ev.Kind {
	case EventAbort:
		return StateFailed, nil
	case EventGenerate:
		if s == StateIdle || s == StateReporting {
			return StateGenerating, nil
		}
	case EventGenerationFailed:
		if s == StateGenerating {
			return StateReporting, nil
		}
	case EventRun:
		if s == StateIdle || s == StateReporting || s == StateGenerating {
			return StateRunning, nil
		}
	case EventRunFinished:
		if s == StateRunning {
			return StateReporting, nil
		}
	case EventFinish:
		if s == StateIdle || s == StateReporting {
			if ev.Severity >= SeverityFatal {
				return StateFailed, nil
			}
			return StateDone, nil
		}
	}

	return s, &InvalidTransitionError{From: s, Event: ev}
}

// IsTerminal reports whether no event is accepted in s.
func (s State) IsTerminal() bool { return s == StateDone || s == StateFailed }

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateRunning:
		return "running"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventGenerate:
		return "generate"
	case EventGenerationFailed:
		return "generation-failed"
	case EventRun:
		return "run"
	case EventRunFinished:
		return "run-finished"
	case EventFinish:
		return "finish"
	case EventAbort:
		return "abort"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityRecoverable:
		return "recoverable"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}
