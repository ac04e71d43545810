// SPDX-License-Identifier: MPL-2.0

// Package config handles bitbench configuration using Viper with CUE as the file format.
//
// Configuration is loaded from, in order of precedence:
//   - the file passed with --config
//   - $XDG_CONFIG_HOME/bitbench/config.cue (~/Library/Application Support/bitbench on
//     macOS, %APPDATA%\bitbench on Windows)
//   - ./bitbench.cue in the current directory
//
// Every key has a default, so running without any file is valid. Environment variables
// prefixed with BITBENCH_ override file values (run.timeout -> BITBENCH_RUN_TIMEOUT).
// Files are validated against the embedded config_schema.cue before they reach Viper.
package config
