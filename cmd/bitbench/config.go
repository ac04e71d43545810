// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitproto/bitbench/internal/config"
	"github.com/bitproto/bitbench/internal/issue"
	"github.com/bitproto/bitbench/internal/matrix"
)

// newConfigCommand creates the `bitbench config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bitbench configuration",
		Long: `Manage bitbench configuration.

Configuration is read from the first of:
  - the file given with --config
  - Linux: ~/.config/bitbench/config.cue
    macOS: ~/Library/Application Support/bitbench/config.cue
    Windows: %APPDATA%\bitbench\config.cue
  - ./bitbench.cue

Any key can be overridden with a BITBENCH_ environment variable, e.g.
BITBENCH_RUN_TIMEOUT=30m.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return actionable(err, issue.ConfigInvalidId, "load config", app.configFile)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	var local bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, local)
		},
	}
	initCmd.Flags().BoolVar(&local, "local", false, "write ./"+config.LocalConfigFile+" instead of the user config file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		return actionable(err, issue.ConfigInvalidId, "load config", app.configFile)
	}

	st := app.Styles(cfg.Report.Color)
	key := st.Highlight.Render
	value := st.Success.Render
	out := app.stdout

	fmt.Fprintln(out, st.Title.Render("Current Configuration"))
	fmt.Fprintln(out)

	path, err := config.ResolvePath(app.loadOptions())
	switch {
	case err != nil:
		return actionable(err, issue.ConfigInvalidId, "resolve config path", app.configFile)
	case path == "":
		fmt.Fprintf(out, "%s: %s\n", key("Config file"), st.Subtitle.Render("(using defaults)"))
	default:
		fmt.Fprintf(out, "%s: %s\n", key("Config file"), path)
	}
	fmt.Fprintln(out)

	workspaceRoot := cfg.WorkspaceRoot
	if workspaceRoot == "" {
		workspaceRoot = st.Subtitle.Render("(system temp dir)")
	}
	fmt.Fprintf(out, "%s: %s\n", key("schema"), value(cfg.Schema))
	fmt.Fprintf(out, "%s: %s\n", key("driver_root"), value(cfg.DriverRoot))
	fmt.Fprintf(out, "%s: %s\n", key("workspace_root"), workspaceRoot)
	fmt.Fprintf(out, "%s: %s\n", key("keep_workspace"), value(fmt.Sprint(cfg.KeepWorkspace)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", key("compiler"))
	fmt.Fprintf(out, "  command: %s\n", value(cfg.Compiler.Command))
	fmt.Fprintf(out, "  timeout: %s\n", value(cfg.Compiler.Timeout.String()))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", key("backends"))
	for _, b := range matrix.Backends() {
		bc, err := cfg.Backend(b)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s:\n", key(b.String()))
		build := bc.Build
		if build == "" {
			build = st.Subtitle.Render("(none)")
		} else {
			build = value(build)
		}
		fmt.Fprintf(out, "    build: %s\n", build)
		fmt.Fprintf(out, "    run: %s\n", value(bc.Run))
		fmt.Fprintf(out, "    driver_dir: %s\n", value(bc.DriverDir))
		if len(bc.Env) > 0 {
			fmt.Fprintf(out, "    env: %s\n", value(strings.Join(bc.Env, " ")))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", key("run"))
	fmt.Fprintf(out, "  timeout: %s\n", value(cfg.Run.Timeout.String()))
	fmt.Fprintf(out, "  exclusive: %s\n", value(fmt.Sprint(cfg.Run.Exclusive)))
	fmt.Fprintf(out, "  fail_on_run_error: %s\n", value(fmt.Sprint(cfg.Run.FailOnRunError)))
	fmt.Fprintf(out, "  halt_on_generation_failure: %s\n", value(fmt.Sprint(cfg.Run.HaltOnGenerationFailure)))
	fmt.Fprintf(out, "  shell: %s\n", value(string(cfg.Run.Shell)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", key("optimize"))
	fmt.Fprintf(out, "  filter: %s\n", value(cfg.Optimize.Filter))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", key("report"))
	fmt.Fprintf(out, "  timing_pattern: %s\n", value(cfg.Report.TimingPattern))
	fmt.Fprintf(out, "  color: %s\n", value(string(cfg.Report.Color)))

	return nil
}

func initConfig(app *App, local bool) error {
	st := app.Styles(config.ColorAuto)

	if local {
		path := config.LocalConfigFile
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(app.stdout, "%s %s already exists\n", st.Warning.Render("•"), path)
			return nil
		}
		if err := os.WriteFile(path, []byte(config.GenerateCUE(config.DefaultConfig())), 0o644); err != nil {
			return actionable(err, 0, "create config", path)
		}
		fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", st.Success.Render("✓"), path)
		return nil
	}

	path, created, err := config.CreateDefaultConfig(config.LoadOptions{})
	if err != nil {
		return actionable(err, 0, "create config", "")
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s %s already exists\n", st.Warning.Render("•"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", st.Success.Render("✓"), path)
	return nil
}

func showConfigPath(app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "User config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	fmt.Fprintf(app.stdout, "Local config file: %s\n", config.LocalConfigFile)

	path, err := config.ResolvePath(app.loadOptions())
	if err != nil {
		return actionable(err, issue.ConfigInvalidId, "resolve config path", app.configFile)
	}
	if path == "" {
		path = "(none, using defaults)"
	}
	fmt.Fprintf(app.stdout, "Active: %s\n", path)
	return nil
}
