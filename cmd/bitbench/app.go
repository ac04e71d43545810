// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"github.com/bitproto/bitbench/internal/config"
	"github.com/bitproto/bitbench/internal/report"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Every command handler
	// receives it instead of reaching for globals.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer

		// set by the root command's persistent flags
		verbose    bool
		configFile string
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &App{Config: deps.Config, stdout: deps.Stdout, stderr: deps.Stderr}
}

// LoadConfig loads configuration honoring --config.
func (a *App) LoadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, a.loadOptions())
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.configFile}
}

// Styles returns console styles for stdout in the given color mode.
func (a *App) Styles(mode config.ColorMode) report.Styles {
	return report.NewStyles(report.NewRenderer(a.stdout, mode))
}

// setupLogging installs a charmbracelet/log logger on stderr as the slog default.
func (a *App) setupLogging() {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix:          "bitbench",
		Level:           level,
		ReportTimestamp: a.verbose,
	})
	slog.SetDefault(slog.New(logger))
}
