// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bitproto/bitbench/internal/issue"
	"github.com/bitproto/bitbench/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "bitbench"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFile is the project-local config file looked up in the working directory.
	LocalConfigFile = "bitbench.cue"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "BITBENCH"
)

// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the bitbench configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ResolvePath returns the config file that Load would read, or "" when only
// defaults apply.
func ResolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'bitbench config show' to see the default configuration").
				Wrap(fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(cuePath) {
		return cuePath, nil
	}
	if fileExists(LocalConfigFile) {
		return LocalConfigFile, nil
	}
	return "", nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := ResolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'bitbench config dump' to see a complete, valid file").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Fix the listed fields or unset them to fall back to defaults").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("schema", d.Schema)
	v.SetDefault("driver_root", d.DriverRoot)
	v.SetDefault("workspace_root", d.WorkspaceRoot)
	v.SetDefault("keep_workspace", d.KeepWorkspace)
	v.SetDefault("compiler.command", d.Compiler.Command)
	v.SetDefault("compiler.timeout", d.Compiler.Timeout)
	for name, bc := range map[string]BackendConfig{"c": d.Backends.C, "go": d.Backends.Go, "py": d.Backends.Py} {
		v.SetDefault("backends."+name+".build", bc.Build)
		v.SetDefault("backends."+name+".run", bc.Run)
		v.SetDefault("backends."+name+".driver_dir", bc.DriverDir)
		v.SetDefault("backends."+name+".env", bc.Env)
	}
	v.SetDefault("run.timeout", d.Run.Timeout)
	v.SetDefault("run.exclusive", d.Run.Exclusive)
	v.SetDefault("run.fail_on_run_error", d.Run.FailOnRunError)
	v.SetDefault("run.halt_on_generation_failure", d.Run.HaltOnGenerationFailure)
	v.SetDefault("run.shell", string(d.Run.Shell))
	v.SetDefault("run.lock_file", d.Run.LockFile)
	v.SetDefault("optimize.filter", d.Optimize.Filter)
	v.SetDefault("report.timing_pattern", d.Report.TimingPattern)
	v.SetDefault("report.color", string(d.Report.Color))
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Config decodes to map[string]any rather than a struct so that Viper keeps
// defaults and env overrides for keys the file leaves unset.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	unified, err := cueutil.Unify([]byte(configSchema), data, "#Config", cueutil.WithFilename(path), cueutil.WithConcrete(false))
	if err != nil {
		return err
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config file into the config directory
// unless one already exists. It returns the path of the file.
func CreateDefaultConfig(opts LoadOptions) (string, bool, error) {
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", false, err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// bitbench configuration file\n\n")

	fmt.Fprintf(&sb, "schema:         %q\n", cfg.Schema)
	fmt.Fprintf(&sb, "driver_root:    %q\n", cfg.DriverRoot)
	if cfg.WorkspaceRoot != "" {
		fmt.Fprintf(&sb, "workspace_root: %q\n", cfg.WorkspaceRoot)
	}
	fmt.Fprintf(&sb, "keep_workspace: %v\n", cfg.KeepWorkspace)

	sb.WriteString("\ncompiler: {\n")
	fmt.Fprintf(&sb, "\tcommand: %q\n", cfg.Compiler.Command)
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.Compiler.Timeout.String())
	sb.WriteString("}\n")

	sb.WriteString("\nbackends: {\n")
	writeBackend(&sb, "c", cfg.Backends.C)
	writeBackend(&sb, "go", cfg.Backends.Go)
	writeBackend(&sb, "py", cfg.Backends.Py)
	sb.WriteString("}\n")

	sb.WriteString("\nrun: {\n")
	fmt.Fprintf(&sb, "\ttimeout:                    %q\n", cfg.Run.Timeout.String())
	fmt.Fprintf(&sb, "\texclusive:                  %v\n", cfg.Run.Exclusive)
	fmt.Fprintf(&sb, "\tfail_on_run_error:          %v\n", cfg.Run.FailOnRunError)
	fmt.Fprintf(&sb, "\thalt_on_generation_failure: %v\n", cfg.Run.HaltOnGenerationFailure)
	fmt.Fprintf(&sb, "\tshell:                      %q\n", cfg.Run.Shell)
	if cfg.Run.LockFile != "" {
		fmt.Fprintf(&sb, "\tlock_file:                  %q\n", cfg.Run.LockFile)
	}
	sb.WriteString("}\n")

	sb.WriteString("\noptimize: {\n")
	fmt.Fprintf(&sb, "\tfilter: %q\n", cfg.Optimize.Filter)
	sb.WriteString("}\n")

	sb.WriteString("\nreport: {\n")
	fmt.Fprintf(&sb, "\ttiming_pattern: %q\n", cfg.Report.TimingPattern)
	fmt.Fprintf(&sb, "\tcolor:          %q\n", cfg.Report.Color)
	sb.WriteString("}\n")

	return sb.String()
}

func writeBackend(sb *strings.Builder, name string, bc BackendConfig) {
	fmt.Fprintf(sb, "\t%s: {\n", name)
	fmt.Fprintf(sb, "\t\tbuild: %q\n", bc.Build)
	fmt.Fprintf(sb, "\t\trun:   %q\n", bc.Run)
	if bc.DriverDir != "" {
		fmt.Fprintf(sb, "\t\tdriver_dir: %q\n", bc.DriverDir)
	}
	if len(bc.Env) > 0 {
		sb.WriteString("\t\tenv: [")
		for i, kv := range bc.Env {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%q", kv)
		}
		sb.WriteString("]\n")
	}
	sb.WriteString("\t}\n")
}
