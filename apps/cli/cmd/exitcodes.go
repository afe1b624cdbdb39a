package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/reqchain/packages/core/graph"
	"github.com/abdul-hamid-achik/reqchain/packages/core/loader"
	"github.com/abdul-hamid-achik/reqchain/packages/core/runner"
	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
)

// Exit codes for reqchain CLI
const (
	// ExitSuccess indicates every call passed
	ExitSuccess = 0

	// ExitCallFailure indicates one or more calls failed
	ExitCallFailure = 1

	// ExitParseError indicates a schema loading or validation error
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries an exit code for failures that were already reported.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// configError marks failures of the tool configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }

func (e *configError) Unwrap() error { return e.err }

// usageError marks invalid flag or argument combinations.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func exitCodeFor(err error) int {
	var cfgErr *configError
	var usage *usageError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &cfgErr), errors.Is(err, runner.ErrReservedEnvironment):
		return ExitConfigError
	case errors.Is(err, schema.ErrInvalidSchema),
		errors.Is(err, loader.ErrNameConflict),
		errors.Is(err, loader.ErrMisplacedProject),
		errors.Is(err, loader.ErrImportCycle),
		errors.Is(err, loader.ErrMissingProject),
		errors.Is(err, schema.ErrRequestNotFound),
		errors.Is(err, schema.ErrSequenceNotFound),
		errors.Is(err, graph.ErrCircularDependency):
		return ExitParseError
	case errors.Is(err, runner.ErrTransport):
		return ExitNetworkError
	default:
		return ExitCallFailure
	}
}
