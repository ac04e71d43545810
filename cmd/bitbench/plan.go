// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitproto/bitbench/internal/issue"
	"github.com/bitproto/bitbench/internal/report"
)

func newPlanCommand(app *App) *cobra.Command {
	var flags matrixFlags

	cmd := &cobra.Command{
		Use:   "plan [target...]",
		Short: "Show the scenarios a run would execute",
		Long: `Show the scenarios a run would execute, grouped by the generation that feeds
them. Nothing is generated or built.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return actionable(err, issue.ConfigInvalidId, "load config", app.configFile)
			}
			if cmd.Flags().Changed("filter") {
				cfg.Optimize.Filter = flags.filter
			}

			m, order, err := resolveMatrix(cfg, flags, args)
			if err != nil {
				return err
			}

			st := app.Styles(cfg.Report.Color)
			fmt.Fprintln(app.stdout, st.Subtitle.Render(fmt.Sprintf("targets: %v", order)))
			fmt.Fprint(app.stdout, report.Plan(m))
			return nil
		},
	}
	addMatrixFlags(cmd, &flags)
	return cmd
}
