// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and the troubleshooting catalog.
//
// ActionableError carries the failed operation, the resource, remediation hints and
// an optional link to a catalog entry whose Markdown is rendered with glamour in
// verbose mode.
package issue
