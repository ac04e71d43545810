// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bitproto/bitbench/internal/generator"
	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/runner"
)

type fakeGenerator struct {
	mu    sync.Mutex
	fail  map[matrix.Pair]bool
	calls []matrix.Pair
}

func (g *fakeGenerator) Generate(_ context.Context, schema string, b matrix.Backend, m matrix.GenerationMode) (*generator.GenerationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := matrix.Pair{Backend: b, Mode: m}
	g.calls = append(g.calls, p)
	if g.fail[p] {
		return nil, &generator.GenerationError{Pair: p, ExitCode: 1, ErrOutput: "compiler: bad schema"}
	}
	return &generator.GenerationResult{Pair: p, OutputDir: filepath.Join(filepath.Dir(schema), p.Key()), Digest: "0123456789abcdef"}, nil
}

type fakeRunner struct {
	mu sync.Mutex
	// buildFail and execFail are keyed by scenario label.
	buildFail map[string]bool
	execFail  map[string]bool
	// onRun, when set, is called before every run.
	onRun func(matrix.Scenario)
	calls []string
}

func (r *fakeRunner) Run(_ context.Context, s matrix.Scenario, a *generator.GenerationResult) (*runner.RunResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, s.Label())
	r.mu.Unlock()

	if r.onRun != nil {
		r.onRun(s)
	}
	if a == nil || a.Pair != s.Pair() {
		return nil, errors.New("runner got artifacts for the wrong pair")
	}
	switch {
	case r.buildFail[s.Label()]:
		return nil, &runner.BuildError{Scenario: s, ExitCode: 2, ErrOutput: "undefined: Drone"}
	case r.execFail[s.Label()]:
		return nil, &runner.ExecutionError{Scenario: s, ExitCode: 1, Output: "encode: 10ns\n"}
	}
	return &runner.RunResult{Scenario: s, Output: "encode: 100ns\ndecode: 80ns\n"}, nil
}

type recordingReporter struct {
	events  []string
	summary *Summary
}

func (r *recordingReporter) ScenarioStarted(s matrix.Scenario) {
	r.events = append(r.events, "start "+s.Label())
}

func (r *recordingReporter) ScenarioFinished(o Outcome) {
	r.events = append(r.events, string(o.Status)+" "+o.Scenario.Label())
}

func (r *recordingReporter) GenerationFailed(f GenerationFailure) {
	r.events = append(r.events, "generation-failed "+f.Pair.String())
}

func (r *recordingReporter) Finished(sum *Summary) {
	r.summary = sum
	r.events = append(r.events, "finished "+sum.State.String())
}

func writeSchema(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "drone.bitproto")
	if err := os.WriteFile(path, []byte("proto drone\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sc(b matrix.Backend, m matrix.GenerationMode, l matrix.OptimizationLevel) matrix.Scenario {
	return matrix.NewScenario(b, m, l)
}
