// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/bitproto/bitbench/internal/orchestrator"
)

// WriteChart renders the relative throughput of every successful scenario as an
// HTML bar chart, one series per operation.
func WriteChart(w io.Writer, cmp *Comparison) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "bitproto relative throughput",
			Subtitle: baselineSubtitle(cmp),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "× baseline"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 30}}),
	)

	var labels []string
	var rows []Row
	for _, r := range cmp.Rows {
		if r.Status == orchestrator.StatusSucceeded && len(r.Relative) > 0 {
			labels = append(labels, r.Label)
			rows = append(rows, r)
		}
	}
	bar.SetXAxis(labels)

	for _, op := range cmp.Ops {
		data := make([]opts.BarData, len(rows))
		for i, r := range rows {
			if x, ok := r.Relative[op]; ok {
				data[i] = opts.BarData{Value: x}
			} else {
				data[i] = opts.BarData{Value: "-"}
			}
		}
		bar.AddSeries(op, data)
	}

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func baselineSubtitle(cmp *Comparison) string {
	var s string
	for _, op := range cmp.Ops {
		if label, ok := cmp.Baselines[op]; ok {
			if s != "" {
				s += ", "
			}
			s += fmt.Sprintf("%s baseline: %s", op, label)
		}
	}
	return s
}
