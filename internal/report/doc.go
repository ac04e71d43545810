// SPDX-License-Identifier: MPL-2.0

// Package report renders benchmark runs: the live console report, the relative
// throughput comparison, machine-readable exports, an HTML chart and the plan tree.
package report
