// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bitproto/bitbench/internal/config"
	"github.com/bitproto/bitbench/internal/generator"
	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/orchestrator"
	"github.com/bitproto/bitbench/internal/runner"
)

var (
	cNone  = matrix.NewScenario(matrix.BackendC, matrix.Standard(), matrix.LevelNone)
	cO2    = matrix.NewScenario(matrix.BackendC, matrix.Standard(), matrix.LevelO2)
	goStd  = matrix.NewScenario(matrix.BackendGo, matrix.Standard(), matrix.LevelNone)
	pyOpt  = matrix.NewScenario(matrix.BackendPython, matrix.Optimized("Drone"), matrix.LevelNone)
	start0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func defaultExtractor(t *testing.T) *Extractor {
	t.Helper()

	re, err := config.CompileTimingPattern(config.DefaultTimingPattern)
	require.NoError(t, err)
	ex, err := NewExtractor(re)
	require.NoError(t, err)
	return ex
}

func sampleSummary() *orchestrator.Summary {
	return &orchestrator.Summary{
		Started:  start0,
		Finished: start0.Add(2 * time.Second),
		State:    orchestrator.StateFailed,
		Outcomes: []orchestrator.Outcome{
			{Scenario: cNone, Status: orchestrator.StatusSucceeded, Output: "encode: 200ns/op\ndecode: 100 ns/op\n", Duration: time.Second},
			{Scenario: cO2, Status: orchestrator.StatusSucceeded, Output: "encode 50ns\ndecode 0.05 us\n", Duration: time.Second},
			{Scenario: goStd, Status: orchestrator.StatusFailed, Err: &runner.BuildError{Scenario: goStd, ExitCode: 2, ErrOutput: "undefined: bp"}, Output: "partial"},
			{Scenario: pyOpt, Status: orchestrator.StatusSkipped, Err: orchestrator.ErrSkippedGenerationFailed},
		},
		Generations: []*generator.GenerationResult{
			{Pair: cNone.Pair(), OutputDir: "/ws/gen/c/standard", Files: []string{"drone_bp.c", "drone_bp.h"}, Digest: "00000000deadbeef"},
		},
		GenerationFailures: []orchestrator.GenerationFailure{
			{Pair: pyOpt.Pair(), Err: &generator.GenerationError{Pair: pyOpt.Pair(), ExitCode: 1, ErrOutput: "unknown message Drone"}},
		},
	}
}

func TestExtractor(t *testing.T) {
	t.Parallel()

	ex := defaultExtractor(t)
	tests := []struct {
		name   string
		output string
		want   []Measurement
	}{
		{"nanoseconds", "encode: 120ns\ndecode: 80ns", []Measurement{{OpEncode, 120}, {OpDecode, 80}}},
		{"units", "Encode took 1.5 us\nDECODE 2ms", []Measurement{{OpEncode, 1500}, {OpDecode, 2e6}}},
		{"micro sign", "decode 3µs", []Measurement{{OpDecode, 3000}}},
		{"last duration on line", "encode: called 1000 times, total 0.04s, per call 42ns", []Measurement{{OpEncode, 42}}},
		{"decimal value", "decode took 0.25 ms", []Measurement{{OpDecode, 250000}}},
		{"later line wins", "encode: 10ns\nencode: 12ns", []Measurement{{OpEncode, 12}}},
		{"noise", "warming up\nbench done", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ex.Extract(tt.output))
		})
	}
}

func TestExtractor_LongLines(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 200*1024)
	output := "encode: 120ns\n" + long + "\ndecode: 80ns\n"

	assert.Equal(t, []Measurement{{OpEncode, 120}, {OpDecode, 80}}, defaultExtractor(t).Extract(output))
}

func TestNewExtractor_RequiresGroups(t *testing.T) {
	t.Parallel()

	_, err := NewExtractor(regexp.MustCompile(`(?P<op>\w+) (?P<value>\d+)`))
	require.Error(t, err)
}

func TestFormatNs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "12.0ns", FormatNs(12))
	assert.Equal(t, "1.50µs", FormatNs(1500))
	assert.Equal(t, "2.00ms", FormatNs(2e6))
	assert.Equal(t, "3.00s", FormatNs(3e9))
}

func TestCompare(t *testing.T) {
	t.Parallel()

	cmp := Compare(sampleSummary(), defaultExtractor(t))

	assert.Equal(t, []string{OpEncode, OpDecode}, cmp.Ops)
	assert.Equal(t, map[string]string{OpEncode: cNone.Label(), OpDecode: cNone.Label()}, cmp.Baselines)
	require.Len(t, cmp.Rows, 4)

	assert.InDelta(t, 1.0, cmp.Rows[0].Relative[OpEncode], 1e-9)
	assert.InDelta(t, 4.0, cmp.Rows[1].Relative[OpEncode], 1e-9)
	assert.InDelta(t, 2.0, cmp.Rows[1].Relative[OpDecode], 1e-9)
	assert.Empty(t, cmp.Rows[2].Ns, "failed scenarios are not measured")
	assert.Equal(t, orchestrator.StatusSkipped, cmp.Rows[3].Status)
	assert.False(t, cmp.Empty())
}

func TestCompare_BaselineSkipsFailures(t *testing.T) {
	t.Parallel()

	sum := &orchestrator.Summary{Outcomes: []orchestrator.Outcome{
		{Scenario: cNone, Status: orchestrator.StatusFailed, Output: "encode 1ns", Err: errors.New("boom")},
		{Scenario: goStd, Status: orchestrator.StatusSucceeded, Output: "encode 30ns"},
		{Scenario: cO2, Status: orchestrator.StatusSucceeded, Output: "encode 10ns"},
	}}
	cmp := Compare(sum, defaultExtractor(t))

	assert.Equal(t, goStd.Label(), cmp.Baselines[OpEncode])
	assert.InDelta(t, 3.0, cmp.Rows[2].Relative[OpEncode], 1e-9)
	_, hasDecode := cmp.Baselines[OpDecode]
	assert.False(t, hasDecode)
}

func TestComparisonTable(t *testing.T) {
	t.Parallel()

	out := Compare(sampleSummary(), defaultExtractor(t)).Table(PlainStyles())

	for _, want := range []string{"scenario", "encode ×", "c/standard/O2", "4.00x", "50.0ns", "skipped"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[")
}

func TestConsole_Sections(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	con := NewConsole(&buf, ConsoleOptions{Styles: PlainStyles(), Extractor: defaultExtractor(t)})
	sum := sampleSummary()

	con.GenerationFailed(sum.GenerationFailures[0])
	for _, o := range sum.Outcomes {
		con.ScenarioStarted(o.Scenario)
		con.ScenarioFinished(o)
	}
	con.Finished(sum)

	out := buf.String()
	assert.Contains(t, out, "generation failed for backend py, mode optimized (filter Drone)")
	assert.Contains(t, out, "▶ C · standard · -O2 (c/standard/O2)")
	assert.Contains(t, out, "▶ C · standard · no optimization flag (c/standard/none)")
	assert.Contains(t, out, "▶ Python · optimized[Drone] (py/optimized[Drone]/none)")
	assert.Contains(t, out, "  encode: 200ns/op")
	assert.Contains(t, out, "✗ build go/standard/none")
	assert.Contains(t, out, "⊘ skipped: generation failed")
	assert.Contains(t, out, "Relative throughput")
	assert.Contains(t, out, "2 succeeded, 1 failed, 1 skipped, 1 generation failure(s) in 2s: failed")
	require.NotNil(t, con.Comparison)

	// Sections appear in report order.
	var order []int
	for _, o := range sum.Outcomes {
		order = append(order, strings.Index(out, "("+o.Scenario.Label()+")"))
	}
	assert.IsIncreasing(t, order)
}

func TestSummaryLine(t *testing.T) {
	t.Parallel()

	sum := &orchestrator.Summary{State: orchestrator.StateDone, Started: start0, Finished: start0.Add(1500 * time.Millisecond)}
	assert.Equal(t, "0 succeeded in 1.5s: done", SummaryLine(sum, PlainStyles()))

	sum.Canceled = true
	assert.True(t, strings.HasSuffix(SummaryLine(sum, PlainStyles()), ": canceled"))
}

func TestExports(t *testing.T) {
	t.Parallel()

	ex := defaultExtractor(t)
	sum := sampleSummary()
	doc := NewDocument(sum, ex, Compare(sum, ex))

	var jsonBuf bytes.Buffer
	require.NoError(t, WriteJSON(&jsonBuf, doc))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &decoded))
	assert.Equal(t, "failed", decoded["state"])
	scenarios, ok := decoded["scenarios"].([]any)
	require.True(t, ok)
	require.Len(t, scenarios, 4)
	first, ok := scenarios[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "c/standard/none", first["label"])
	assert.Len(t, first["measurements"], 2)

	var yamlBuf bytes.Buffer
	require.NoError(t, WriteYAML(&yamlBuf, doc))
	var fromYAML Document
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	require.Len(t, fromYAML.GenerationFailures, 1)
	assert.Equal(t, "py", fromYAML.GenerationFailures[0].Backend)
	assert.Equal(t, "Drone", fromYAML.GenerationFailures[0].Filter)
	assert.Equal(t, "00000000deadbeef", fromYAML.Generations[0].Digest)
	assert.Empty(t, fromYAML.Scenarios[3].Duration, "skipped scenarios have no duration")
}

func TestWriteChart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, Compare(sampleSummary(), defaultExtractor(t))))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "bitproto relative throughput")
	assert.Contains(t, out, "c/standard/O2")
}

func TestPlan(t *testing.T) {
	t.Parallel()

	m := matrix.New(cNone, goStd, cO2)
	out := Plan(m)

	assert.Contains(t, out, "3 scenario(s), 2 generation(s)")
	assert.Less(t, strings.Index(out, "generate c/standard"), strings.Index(out, "generate go/standard"))
	assert.Contains(t, out, "c/standard/O2 (-O2)")
}

func TestTargets(t *testing.T) {
	t.Parallel()

	out := Targets(matrix.DefaultTargets(matrix.DefaultEntityFilter))
	for _, name := range []string{matrix.TargetStandard, matrix.TargetNativeO1, matrix.TargetFull} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "depends on "+matrix.TargetStandard)
}

func TestNewRenderer_ColorNever(t *testing.T) {
	t.Parallel()

	st := NewStyles(NewRenderer(&bytes.Buffer{}, config.ColorNever))
	assert.Equal(t, "ok", st.Success.Render("ok"))
}
