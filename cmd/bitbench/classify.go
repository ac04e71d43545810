// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/bitproto/bitbench/internal/config"
	"github.com/bitproto/bitbench/internal/generator"
	"github.com/bitproto/bitbench/internal/issue"
	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/runner"
	"github.com/bitproto/bitbench/internal/runtime"
)

// classifyError maps a failure to its troubleshooting entry.
func classifyError(err error) issue.Id {
	var genErr *generator.GenerationError
	switch {
	case errors.Is(err, generator.ErrSchemaNotFound):
		return issue.SchemaNotFoundId
	case errors.Is(err, matrix.ErrUnsupportedBackend):
		return issue.UnsupportedBackendId
	case errors.Is(err, matrix.ErrUnknownTarget):
		return issue.UnknownTargetId
	case errors.Is(err, matrix.ErrInvalidMatrix), errors.Is(err, matrix.ErrInvalidTarget),
		errors.Is(err, matrix.ErrUnsupportedMatrixFormat), errors.Is(err, matrix.ErrInvalidScenario):
		return issue.MatrixInvalidId
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrConfigNotFound):
		return issue.ConfigInvalidId
	case errors.Is(err, runtime.ErrTimeout):
		return issue.StepTimeoutId
	case errors.As(err, &genErr) && genErr.ExitCode.IsCommandNotFound():
		return issue.CompilerNotFoundId
	case errors.Is(err, generator.ErrGenerationFailed), errors.Is(err, generator.ErrNoArtifacts):
		return issue.GenerationFailedId
	case errors.Is(err, runner.ErrDriverNotFound):
		return issue.DriverNotFoundId
	case errors.Is(err, runner.ErrBuildFailed):
		return issue.BuildFailedId
	case errors.Is(err, runner.ErrExecutionFailed):
		return issue.ExecutionFailedId
	case errors.Is(err, runtime.ErrFlockUnavailable):
		return issue.RunLockUnavailableId
	default:
		return 0
	}
}

// actionable wraps err for display, linking its troubleshooting entry (fallback
// when err is not recognized). Errors that are already actionable keep their
// context and only gain the link.
func actionable(err error, fallback issue.Id, operation, resource string, suggestions ...string) error {
	if err == nil {
		return nil
	}
	id := classifyError(err)
	if id == 0 {
		id = fallback
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if ae.Issue == 0 {
			ae.Issue = id
		}
		return err
	}
	return issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithSuggestions(suggestions...).
		WithIssue(id).
		Wrap(err).
		BuildError()
}
