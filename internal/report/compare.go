// SPDX-License-Identifier: MPL-2.0

package report

import (
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bitproto/bitbench/internal/orchestrator"
)

type (
	// Comparison relates every scenario's timings to a per-operation baseline.
	Comparison struct {
		// Ops lists operations: encode and decode first, then others by first appearance.
		Ops  []string `json:"ops" yaml:"ops"`
		Rows []Row    `json:"rows" yaml:"rows"`
		// Baselines maps an operation to the label of its baseline scenario.
		Baselines map[string]string `json:"baselines" yaml:"baselines"`
	}

	// Row is one scenario of a Comparison.
	Row struct {
		Label  string              `json:"label" yaml:"label"`
		Status orchestrator.Status `json:"status" yaml:"status"`
		// Ns maps an operation to its ns/op.
		Ns map[string]float64 `json:"ns_per_op,omitempty" yaml:"ns_per_op,omitempty"`
		// Relative maps an operation to baseline_ns / ns: above 1 is faster than the baseline.
		Relative map[string]float64 `json:"relative,omitempty" yaml:"relative,omitempty"`
	}
)

// Compare builds the comparison for sum. The baseline of an operation is the
// first successful scenario in report order that measured it.
func Compare(sum *orchestrator.Summary, ex *Extractor) *Comparison {
	cmp := &Comparison{Ops: []string{OpEncode, OpDecode}, Baselines: make(map[string]string)}
	baseline := make(map[string]float64)

	for _, o := range sum.Outcomes {
		row := Row{Label: o.Scenario.Label(), Status: o.Status}
		if o.Status == orchestrator.StatusSucceeded {
			for _, m := range ex.Extract(o.Output) {
				if row.Ns == nil {
					row.Ns = make(map[string]float64)
				}
				row.Ns[m.Op] = m.NsPerOp
				if !slices.Contains(cmp.Ops, m.Op) {
					cmp.Ops = append(cmp.Ops, m.Op)
				}
				if _, ok := baseline[m.Op]; !ok && m.NsPerOp > 0 {
					baseline[m.Op] = m.NsPerOp
					cmp.Baselines[m.Op] = row.Label
				}
			}
		}
		cmp.Rows = append(cmp.Rows, row)
	}

	for i := range cmp.Rows {
		row := &cmp.Rows[i]
		for op, ns := range row.Ns {
			base, ok := baseline[op]
			if !ok || ns <= 0 {
				continue
			}
			if row.Relative == nil {
				row.Relative = make(map[string]float64)
			}
			row.Relative[op] = base / ns
		}
	}
	return cmp
}

// Empty reports whether no scenario produced a measurement.
func (c *Comparison) Empty() bool {
	return len(c.Baselines) == 0
}

// Table renders the comparison as a bordered table.
func (c *Comparison) Table(st Styles) string {
	headers := []string{"scenario", "status"}
	for _, op := range c.Ops {
		headers = append(headers, op, op+" ×")
	}

	rows := make([][]string, 0, len(c.Rows))
	for _, r := range c.Rows {
		cells := []string{r.Label, string(r.Status)}
		for _, op := range c.Ops {
			ns, ok := r.Ns[op]
			if !ok {
				cells = append(cells, "-", "-")
				continue
			}
			rel := "-"
			if x, ok := r.Relative[op]; ok {
				rel = strconv.FormatFloat(x, 'f', 2, 64) + "x"
			}
			cells = append(cells, FormatNs(ns), rel)
		}
		rows = append(rows, cells)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.Header
			}
			if row < 0 || row >= len(c.Rows) {
				return st.Cell
			}
			r := c.Rows[row]
			switch {
			case col == 1 && r.Status == orchestrator.StatusSucceeded:
				return st.Cell.Foreground(ColorSuccess)
			case col == 1 && r.Status == orchestrator.StatusFailed:
				return st.Cell.Foreground(ColorError)
			case col == 1:
				return st.Cell.Foreground(ColorWarning)
			case col == 0 && c.isBaseline(r.Label):
				return st.Cell.Foreground(ColorHighlight)
			}
			return st.Cell
		})
	return t.String()
}

func (c *Comparison) isBaseline(label string) bool {
	for _, l := range c.Baselines {
		if l == label {
			return true
		}
	}
	return false
}
