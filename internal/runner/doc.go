// SPDX-License-Identifier: MPL-2.0

// Package runner builds one scenario's driver against its generated artifacts and
// executes it, capturing the timing report the driver prints.
//
// Every scenario gets a freshly emptied build directory, so a build with a new
// optimization flag never reuses an object or binary from an earlier scenario.
package runner
