// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/bitproto/bitbench/internal/config"
	"github.com/bitproto/bitbench/internal/issue"
	"github.com/bitproto/bitbench/internal/report"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "bitbench",
		Short: "Benchmark the bitproto code generators",
		Long: `Benchmark the bitproto code generators.

bitbench generates encoders and decoders for one schema with every backend (C, Go,
Python) in standard and optimized mode, builds each language's driver (C at several
optimization levels), runs it and compares the reported encode/decode timings.

Examples:
  bitbench run                       Run the full matrix
  bitbench run standard native-o2    Run selected targets
  bitbench plan full                 Show what would run
  bitbench targets                   List targets
  bitbench config show               Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.setupLogging()
		},
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/bitbench/config.cue or ./bitbench.cue)")

	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.AddCommand(
		newRunCommand(app),
		newPlanCommand(app),
		newTargetsCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with its status. It is called by main.main().
func Execute() {
	os.Exit(execute(context.Background(), NewApp(Dependencies{})))
}

func execute(ctx context.Context, app *App) int {
	err := fang.Execute(
		ctx,
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			writeError(w, err, app.verbose)
		}),
	)
	return exitCode(err)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return int(exitErr.Code)
	}
	return 1
}

// writeError prints err for the user. ExitErrors without a cause were already
// reported by the command and print nothing.
func writeError(w io.Writer, err error, verbose bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	st := report.NewStyles(report.NewRenderer(w, config.ColorAuto))
	fmt.Fprintf(w, "%s %s\n", st.Error.Render("Error:"), formatErrorForDisplay(err, verbose))

	if !verbose {
		return
	}
	if entry, ok := issue.IssueOf(err); ok {
		if rendered, renderErr := entry.Render("dark"); renderErr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors render
// their suggestions, and in verbose mode the full chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
