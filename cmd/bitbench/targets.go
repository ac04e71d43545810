// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitproto/bitbench/internal/issue"
	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/report"
)

func newTargetsCommand(app *App) *cobra.Command {
	var flags matrixFlags

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List target groups and their dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return actionable(err, issue.ConfigInvalidId, "load config", app.configFile)
			}
			if cmd.Flags().Changed("filter") {
				cfg.Optimize.Filter = flags.filter
			}

			ts := matrix.DefaultTargets(cfg.Optimize.Filter)
			if flags.matrixFile != "" {
				if ts, err = matrix.LoadFile(flags.matrixFile); err != nil {
					return actionable(err, issue.MatrixInvalidId, "load matrix", flags.matrixFile)
				}
			}

			fmt.Fprint(app.stdout, report.Targets(ts))
			return nil
		},
	}
	addMatrixFlags(cmd, &flags)
	return cmd
}
