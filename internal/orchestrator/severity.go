// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"errors"

	"github.com/bitproto/bitbench/internal/runner"
)

// SeverityOf classifies err. Build and execution failures (including timeouts
// of those steps) are Recoverable; generation failures, a missing schema, an
// unsupported backend and anything unrecognized are Fatal.
func SeverityOf(err error) Severity {
	switch {
	case err == nil:
		return SeverityNone
	case errors.Is(err, runner.ErrBuildFailed), errors.Is(err, runner.ErrExecutionFailed):
		return SeverityRecoverable
	default:
		return SeverityFatal
	}
}
