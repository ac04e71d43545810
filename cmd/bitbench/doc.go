// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the bitbench command-line interface.
package cmd
