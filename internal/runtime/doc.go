// SPDX-License-Identifier: MPL-2.0

// Package runtime executes bitbench command templates.
//
// Two runtime implementations are available:
//   - virtual: runs templates in the embedded mvdan/sh interpreter, so quoting and
//     parameter expansion behave the same on every host
//   - native: runs templates with the host's POSIX sh
//
// Both implement Runtime. An Invocation carries the script, working directory,
// extra environment and an optional timeout; the returned Result always carries the
// captured stdout and stderr, including partial output of a failed or timed-out run.
//
// AcquireRunLock provides a cross-process flock used to keep concurrent bitbench
// processes from building and timing drivers at the same time.
package runtime
