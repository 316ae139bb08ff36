package commands

import (
	"context"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-l10n/internal/catalog"
	"github.com/goliatone/go-l10n/internal/stats"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
	containerNotFoundCode   = "STATS_CONTAINER_NOT_FOUND"
	recomputeFailedPrefix   = "STATS_RECOMPUTE_FAILED"
)

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(executeErrorCode(err))
}

// executeErrorCode gives callers a stable code for the failures a stats
// command can produce. A failed recompute carries its stage, e.g.
// STATS_RECOMPUTE_FAILED_PERSIST.
func executeErrorCode(err error) string {
	if stats.IsNotFound(err) || catalog.IsNotFound(err) {
		return containerNotFoundCode
	}
	var recompute *stats.RecomputeError
	if errors.As(err, &recompute) {
		if stage := strings.TrimSpace(recompute.Stage); stage != "" {
			return recomputeFailedPrefix + "_" + strings.ToUpper(stage)
		}
		return recomputeFailedPrefix
	}
	return commandExecuteFailed
}
