// SPDX-License-Identifier: MPL-2.0

// Package orchestrator walks a benchmark matrix: it generates each (backend, mode)
// pair once, right before the pair's first scenario, runs every scenario through
// the runner in declaration order, and hands each outcome to a Reporter.
//
// Control flow is driven by the pure transition function Next. Errors are
// classified by SeverityOf: a Fatal error for a pair skips only that pair's
// scenarios (unless HaltOnGenerationFailure is set) and makes the run end Failed;
// a Recoverable error is reported in place of the scenario's timings and the walk
// continues.
package orchestrator
