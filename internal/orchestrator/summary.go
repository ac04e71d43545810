// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"time"

	"github.com/bitproto/bitbench/internal/generator"
	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/runner"
)

const (
	// StatusSucceeded means the scenario built and ran.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the scenario's build or run failed.
	StatusFailed Status = "failed"
	// StatusSkipped means the scenario never reached the runner.
	StatusSkipped Status = "skipped"
)

// Process exit codes derived from a Summary.
const (
	ExitOK = 0
	// ExitFatal is used when a generation (or another fatal step) failed.
	ExitFatal = 1
	// ExitRunFailures is used for build/execution failures when they are configured
	// to fail the run.
	ExitRunFailures = 2
	// ExitCanceled follows the shell convention for SIGINT.
	ExitCanceled = 130
)

type (
	// Status is the final status of one scenario.
	Status string

	// Outcome is the result of one scenario.
	Outcome struct {
		Scenario matrix.Scenario
		Status   Status
		// Result is set for succeeded scenarios.
		Result *runner.RunResult
		// Output is the timing report, or the partial output of a failed run.
		Output string
		// Err is the failure, or the reason a scenario was skipped.
		Err      error
		Severity Severity
		Duration time.Duration
	}

	// GenerationFailure records a pair whose generation failed.
	GenerationFailure struct {
		Pair matrix.Pair
		Err  error
	}

	// Summary is the complete record of one run.
	Summary struct {
		Outcomes           []Outcome
		Generations        []*generator.GenerationResult
		GenerationFailures []GenerationFailure
		// State is the terminal state.
		State State
		// Trace lists every state entered, starting with StateIdle.
		Trace []State
		// Halted is set when the halt policy stopped the walk.
		Halted bool
		// Canceled is set when the context was canceled mid-walk.
		Canceled bool
		Started  time.Time
		Finished time.Time
	}
)

// Backend returns the backend of the failed pair.
func (f GenerationFailure) Backend() matrix.Backend { return f.Pair.Backend }

// Mode returns the generation mode of the failed pair.
func (f GenerationFailure) Mode() matrix.ModeKind { return f.Pair.Mode.Kind }

// Filter returns the entity filter of the failed pair.
func (f GenerationFailure) Filter() string { return f.Pair.Mode.Filter }

// Counts returns the number of succeeded, failed and skipped scenarios.
func (s *Summary) Counts() (succeeded, failed, skipped int) {
	for _, o := range s.Outcomes {
		switch o.Status {
		case StatusSucceeded:
			succeeded++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// AnyFailed reports whether any scenario failed or was skipped, or any generation failed.
func (s *Summary) AnyFailed() bool {
	_, failed, skipped := s.Counts()
	return failed > 0 || skipped > 0 || len(s.GenerationFailures) > 0
}

// Labels returns the scenario labels in report order.
func (s *Summary) Labels() []string {
	labels := make([]string, len(s.Outcomes))
	for i, o := range s.Outcomes {
		labels[i] = o.Scenario.Label()
	}
	return labels
}

// ExitCode maps the summary to a process exit code. Generation failures always
// produce a non-zero code; build and execution failures only when failOnRunError
// is set.
func (s *Summary) ExitCode(failOnRunError bool) int {
	switch {
	case s.Canceled:
		return ExitCanceled
	case s.State == StateFailed || len(s.GenerationFailures) > 0:
		return ExitFatal
	}
	if _, failed, _ := s.Counts(); failed > 0 && failOnRunError {
		return ExitRunFailures
	}
	return ExitOK
}

// Elapsed returns the wall-clock duration of the run.
func (s *Summary) Elapsed() time.Duration {
	return s.Finished.Sub(s.Started)
}
