package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/resolve"
)

const (
	exitOK           = 0
	exitGeneric      = 1
	exitUsage        = 2
	exitAuth         = 3
	exitNotFound     = 4
	exitForbidden    = 5
	exitRateLimited  = 6
	exitServer       = 7
	exitNetwork      = 8
	exitInsufficient = 9
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if handled, ok := err.(*handledError); ok {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	var usage *usageError
	if errors.As(err, &usage) {
		return exitUsage
	}
	var notFound *resolve.NotFoundError
	var ambiguous *resolve.AmbiguousError
	if errors.As(err, &notFound) || errors.As(err, &ambiguous) {
		return exitUsage
	}
	if code := exitCodeFromStructured(err); code != 0 {
		return code
	}
	if isUsageError(err) {
		return exitUsage
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return exitNetwork
	}
	return exitGeneric
}

func exitCodeFromStructured(err error) int {
	structured := api.StructuredErrorFromError(err)
	if structured == nil {
		return 0
	}
	switch structured.Code {
	case api.ErrUnauthorized:
		return exitAuth
	case api.ErrForbidden:
		return exitForbidden
	case api.ErrNotFound:
		return exitNotFound
	case api.ErrInsufficientBalance:
		return exitInsufficient
	case api.ErrRateLimited:
		return exitRateLimited
	case api.ErrServerError:
		return exitServer
	case api.ErrNetwork, api.ErrTimeout:
		return exitNetwork
	case api.ErrBadRequest, api.ErrValidation:
		return exitUsage
	default:
		return 0
	}
}

// isUsageError recognizes cobra's own argument and flag errors.
func isUsageError(err error) bool {
	msg := strings.ToLower(err.Error())
	indicators := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"required flag(s)",
		"requires at least",
		"requires exactly",
		"accepts at most",
		"accepts 1 arg",
		"invalid argument",
	}
	for _, indicator := range indicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
