// SPDX-License-Identifier: MPL-2.0

// Package matrix defines the benchmark data model: target backends, generation
// modes, native optimization levels, and the scenarios built from them.
//
// A Scenario is one benchmark run. Scenarios sharing a (backend, mode) Pair share
// one set of generated artifacts, since the native optimization level only affects
// the build step. A Matrix is an ordered list of scenarios; named Targets group
// scenarios the way the benchmark make targets do ("standard", "native-o1",
// "optimization-mode", "full") and may depend on each other.
//
// Matrices can be declared in CUE, TOML, or YAML files (see LoadFile). CUE files are
// validated against the embedded matrix_schema.cue before decoding.
package matrix
