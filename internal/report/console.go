// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/orchestrator"
)

type (
	// ConsoleOptions configures a Console.
	ConsoleOptions struct {
		Styles Styles
		// Extractor enables the comparison table at the end of the run. May be nil.
		Extractor *Extractor
	}

	// Console is an orchestrator.Reporter that prints one section per scenario.
	Console struct {
		w    io.Writer
		opts ConsoleOptions
		// Comparison is set by Finished when an Extractor is configured.
		Comparison *Comparison
	}
)

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer, opts ConsoleOptions) *Console {
	return &Console{w: w, opts: opts}
}

// SectionTitle names a scenario's backend, mode (with filter) and level.
func SectionTitle(s matrix.Scenario) string {
	s = s.Normalize()
	title := fmt.Sprintf("%s · %s", s.Backend.DisplayName(), s.Mode)
	if flag := s.Level.Flag(); flag != "" {
		title += " · " + flag
	} else if s.Backend.SupportsNativeOptimization() {
		title += " · no optimization flag"
	}
	return title
}

// ScenarioStarted prints the section header.
func (c *Console) ScenarioStarted(s matrix.Scenario) {
	st := c.opts.Styles
	fmt.Fprintf(c.w, "\n%s %s\n", st.Title.Render("▶ "+SectionTitle(s)), st.Subtitle.Render("("+s.Label()+")"))
}

// ScenarioFinished prints the timing report, the error, or the skip reason.
func (c *Console) ScenarioFinished(o orchestrator.Outcome) {
	st := c.opts.Styles
	switch o.Status {
	case orchestrator.StatusSucceeded:
		c.writeOutput(o.Output)
		fmt.Fprintln(c.w, st.Success.Render("✓ "+o.Duration.Round(time.Millisecond).String()))
	case orchestrator.StatusFailed:
		c.writeOutput(o.Output)
		fmt.Fprintln(c.w, st.Error.Render("✗ "+firstLine(o.Err)))
	case orchestrator.StatusSkipped:
		fmt.Fprintln(c.w, st.Warning.Render("⊘ "+firstLine(o.Err)))
	}
}

// GenerationFailed prints the failed pair before its first skipped scenario.
func (c *Console) GenerationFailed(f orchestrator.GenerationFailure) {
	st := c.opts.Styles
	mode := string(f.Mode())
	if f.Filter() != "" {
		mode += " (filter " + f.Filter() + ")"
	}
	fmt.Fprintf(c.w, "\n%s\n", st.Error.Render(fmt.Sprintf("✗ generation failed for backend %s, mode %s", f.Backend(), mode)))
	fmt.Fprintln(c.w, st.Output.Render(indent(f.Err.Error())))
}

// Finished prints the comparison table and the summary line.
func (c *Console) Finished(sum *orchestrator.Summary) {
	st := c.opts.Styles
	fmt.Fprintln(c.w)

	if c.opts.Extractor != nil {
		c.Comparison = Compare(sum, c.opts.Extractor)
		if !c.Comparison.Empty() {
			fmt.Fprintln(c.w, st.Title.Render("Relative throughput"))
			fmt.Fprintln(c.w, c.Comparison.Table(st))
		}
	}

	fmt.Fprintln(c.w, SummaryLine(sum, st))
}

// SummaryLine renders the counts, the elapsed time and the terminal state.
func SummaryLine(sum *orchestrator.Summary, st Styles) string {
	succeeded, failed, skipped := sum.Counts()
	parts := []string{st.Success.Render(fmt.Sprintf("%d succeeded", succeeded))}
	if failed > 0 {
		parts = append(parts, st.Error.Render(fmt.Sprintf("%d failed", failed)))
	}
	if skipped > 0 {
		parts = append(parts, st.Warning.Render(fmt.Sprintf("%d skipped", skipped)))
	}
	if n := len(sum.GenerationFailures); n > 0 {
		parts = append(parts, st.Error.Render(fmt.Sprintf("%d generation failure(s)", n)))
	}

	state := st.Success.Render(sum.State.String())
	switch {
	case sum.Canceled:
		state = st.Warning.Render("canceled")
	case sum.Halted:
		state = st.Error.Render("halted")
	case sum.State == orchestrator.StateFailed:
		state = st.Error.Render(sum.State.String())
	}

	return fmt.Sprintf("%s in %s: %s", strings.Join(parts, ", "), sum.Elapsed().Round(time.Millisecond), state)
}

func (c *Console) writeOutput(out string) {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return
	}
	fmt.Fprintln(c.w, c.opts.Styles.Output.Render(indent(out)))
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func firstLine(err error) string {
	if err == nil {
		return ""
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg
}
