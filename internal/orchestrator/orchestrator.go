// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bitproto/bitbench/internal/generator"
	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/runner"
)

var (
	// ErrSkippedGenerationFailed is the skip reason for scenarios of a failed pair.
	ErrSkippedGenerationFailed = errors.New("skipped: generation failed")
	// ErrSkippedHalted is the skip reason for scenarios after a halt.
	ErrSkippedHalted = errors.New("skipped: run halted after generation failure")
)

type (
	// Generator produces the artifacts of one pair.
	Generator interface {
		Generate(ctx context.Context, schema string, backend matrix.Backend, mode matrix.GenerationMode) (*generator.GenerationResult, error)
	}

	// Runner builds and executes one scenario.
	Runner interface {
		Run(ctx context.Context, s matrix.Scenario, artifacts *generator.GenerationResult) (*runner.RunResult, error)
	}

	// Reporter receives progress in walk order.
	Reporter interface {
		// ScenarioStarted is called before a scenario runs or is reported as skipped.
		ScenarioStarted(s matrix.Scenario)
		// ScenarioFinished is called with every scenario's outcome.
		ScenarioFinished(o Outcome)
		// GenerationFailed is called once per failed pair.
		GenerationFailed(f GenerationFailure)
		// Finished is called once with the final summary.
		Finished(sum *Summary)
	}

	// LockFunc acquires the cross-process run lock and returns its release function.
	LockFunc func() (release func(), err error)

	// Clock supplies timestamps.
	Clock interface {
		Now() time.Time
	}

	// Options configures an Orchestrator.
	Options struct {
		Schema    string
		Generator Generator
		Runner    Runner
		// Reporter may be nil.
		Reporter Reporter
		// Lock, when set, is held around every scenario's build and run.
		Lock LockFunc
		// HaltOnGenerationFailure stops the walk at the first generation failure.
		HaltOnGenerationFailure bool
		// Clock defaults to the system clock.
		Clock Clock
	}

	// Orchestrator runs matrices.
	Orchestrator struct {
		opts Options
	}

	systemClock struct{}

	nopReporter struct{}

	// walk holds the mutable state of one Run.
	walk struct {
		o         *Orchestrator
		sum       *Summary
		state     State
		worst     Severity
		generated map[matrix.Pair]*generator.GenerationResult
		failed    map[matrix.Pair]bool
	}
)

func (systemClock) Now() time.Time { return time.Now() }

func (nopReporter) ScenarioStarted(matrix.Scenario)    {}
func (nopReporter) ScenarioFinished(Outcome)           {}
func (nopReporter) GenerationFailed(GenerationFailure) {}
func (nopReporter) Finished(*Summary)                  {}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	return &Orchestrator{opts: opts}
}

// Run walks m. It returns an error without a summary when m is invalid or the
// schema does not exist, and returns the summary together with ctx.Err() when
// the walk was canceled.
func (o *Orchestrator) Run(ctx context.Context, m matrix.Matrix) (*Summary, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	schema, err := generator.CheckSchema(o.opts.Schema)
	if err != nil {
		return nil, err
	}

	w := &walk{
		o:         o,
		sum:       &Summary{Started: o.opts.Clock.Now(), Trace: []State{StateIdle}},
		state:     StateIdle,
		generated: make(map[matrix.Pair]*generator.GenerationResult),
		failed:    make(map[matrix.Pair]bool),
	}

	slog.Debug("walking matrix", "scenarios", m.Len(), "pairs", len(m.Pairs()))

	for i, s := range m.Scenarios {
		if ctx.Err() != nil {
			w.sum.Canceled = true
			break
		}
		if halt := w.scenario(ctx, schema, s); halt {
			w.skipRest(m.Scenarios[i+1:])
			break
		}
	}

	if w.sum.Canceled || ctx.Err() != nil {
		w.sum.Canceled = true
		w.step(Event{Kind: EventAbort})
	} else {
		w.step(Event{Kind: EventFinish, Severity: w.worst})
	}

	w.sum.State = w.state
	w.sum.Finished = o.opts.Clock.Now()
	o.opts.Reporter.Finished(w.sum)

	if w.sum.Canceled {
		return w.sum, ctx.Err()
	}
	return w.sum, nil
}

// scenario processes one scenario and reports whether the walk must halt.
func (w *walk) scenario(ctx context.Context, schema string, s matrix.Scenario) bool {
	opts := w.o.opts
	pair := s.Pair()

	if w.failed[pair] {
		w.skip(s, ErrSkippedGenerationFailed)
		return false
	}

	artifacts, ok := w.generated[pair]
	if !ok {
		w.step(Event{Kind: EventGenerate})
		res, err := opts.Generator.Generate(ctx, schema, pair.Backend, pair.Mode)
		if err != nil {
			if ctx.Err() != nil {
				w.sum.Canceled = true
				return false
			}
			sev := SeverityOf(err)
			w.step(Event{Kind: EventGenerationFailed, Severity: sev})
			w.raise(sev)
			w.failed[pair] = true

			failure := GenerationFailure{Pair: pair, Err: err}
			w.sum.GenerationFailures = append(w.sum.GenerationFailures, failure)
			slog.Error("generation failed", "backend", pair.Backend.String(), "mode", string(pair.Mode.Kind), "filter", pair.Mode.Filter, "error", err)
			opts.Reporter.GenerationFailed(failure)

			if opts.HaltOnGenerationFailure {
				w.sum.Halted = true
				w.skip(s, ErrSkippedHalted)
				return true
			}
			w.skip(s, ErrSkippedGenerationFailed)
			return false
		}
		artifacts = res
		w.generated[pair] = res
		w.sum.Generations = append(w.sum.Generations, res)
	}

	opts.Reporter.ScenarioStarted(s)
	w.step(Event{Kind: EventRun})

	release := w.lock()
	start := opts.Clock.Now()
	res, err := opts.Runner.Run(ctx, s, artifacts)
	elapsed := opts.Clock.Now().Sub(start)
	release()

	sev := SeverityOf(err)
	w.step(Event{Kind: EventRunFinished, Severity: sev})
	w.raise(sev)

	outcome := Outcome{Scenario: s.Normalize(), Severity: sev, Duration: elapsed}
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		outcome.Output = partialOutput(err)
		slog.Warn("scenario failed", "scenario", s.Label(), "severity", sev.String(), "error", err)
	} else {
		outcome.Status = StatusSucceeded
		outcome.Result = res
		outcome.Output = res.Output
	}
	w.record(outcome)

	if ctx.Err() != nil {
		w.sum.Canceled = true
	}
	return false
}

// skip reports s as skipped with reason.
func (w *walk) skip(s matrix.Scenario, reason error) {
	w.o.opts.Reporter.ScenarioStarted(s)
	w.record(Outcome{Scenario: s.Normalize(), Status: StatusSkipped, Err: reason, Severity: SeverityFatal})
}

func (w *walk) skipRest(rest []matrix.Scenario) {
	for _, s := range rest {
		w.skip(s, ErrSkippedHalted)
	}
}

func (w *walk) record(o Outcome) {
	w.sum.Outcomes = append(w.sum.Outcomes, o)
	w.o.opts.Reporter.ScenarioFinished(o)
}

func (w *walk) raise(sev Severity) {
	w.worst = max(w.worst, sev)
}

// step applies ev. An invalid transition is a programming error in the walk.
func (w *walk) step(ev Event) {
	next, err := Next(w.state, ev)
	if err != nil {
		panic(fmt.Sprintf("orchestrator: %v", err))
	}
	if next != w.state {
		slog.Debug("state", "from", w.state.String(), "to", next.String(), "event", ev.Kind.String())
	}
	w.state = next
	w.sum.Trace = append(w.sum.Trace, next)
}

// lock acquires the run lock if configured. A lock failure is logged and the
// scenario runs unserialized.
func (w *walk) lock() func() {
	if w.o.opts.Lock == nil {
		return func() {}
	}
	release, err := w.o.opts.Lock()
	if err != nil {
		slog.Warn("running without cross-process lock", "error", err)
		return func() {}
	}
	return release
}

// partialOutput extracts whatever a failed step printed on stdout.
func partialOutput(err error) string {
	var ee *runner.ExecutionError
	if errors.As(err, &ee) {
		return ee.Output
	}
	var be *runner.BuildError
	if errors.As(err, &be) {
		return be.Output
	}
	return ""
}
