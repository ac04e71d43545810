// SPDX-License-Identifier: MPL-2.0

// Command bitbench benchmarks the bitproto code generators.
package main

import cmd "github.com/bitproto/bitbench/cmd/bitbench"

func main() {
	cmd.Execute()
}
