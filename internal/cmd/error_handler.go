package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/display"
	"github.com/gamex/gamex-cli/internal/resolve"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var authErr *api.NotAuthenticatedError
	var httpErr *api.HTTPError
	var netErr *api.NetworkError
	var decErr *api.DecodeError
	var structured *api.StructuredError
	var ambiguous *resolve.AmbiguousError
	var notFound *resolve.NotFoundError

	switch {
	case errors.As(err, &authErr):
		if authErr.Err != nil {
			fmt.Fprintf(&msg, "Not logged in: the saved session could not be read (%v).\n\n", authErr.Err)
		} else {
			msg.WriteString("Not logged in.\n\n")
		}
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: gamex auth login\n")
		msg.WriteString("  - New here? Run: gamex auth register\n")

	case api.IsInsufficientBalance(err):
		fmt.Fprintf(&msg, "Insufficient balance: %s\n", backendMessage(err))
		var short *shortageError
		if errors.As(err, &short) {
			fmt.Fprintf(&msg, "  Required: %s\n", rupiah(short.required))
			fmt.Fprintf(&msg, "  Balance:  %s\n", rupiah(short.balance))
			fmt.Fprintf(&msg, "  Short:    %s\n", display.FormatRupiah(short.shortage))
		}
		msg.WriteString("\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check your balance: gamex me\n")
		msg.WriteString("  - Top up: gamex deposits create --amount <rupiah>\n")

	case errors.As(err, &httpErr):
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n", httpErr.StatusCode, backendMessage(err))
		if httpErr.FieldErrors != "" {
			fmt.Fprintf(&msg, "Validation errors:\n%s\n", httpErr.FieldErrors)
		}
		msg.WriteString("\n")
		msg.WriteString(suggestionsForStatusCode(httpErr.StatusCode))

	case errors.As(err, &netErr):
		fmt.Fprintf(&msg, "Network error: %v\n\n", netErr.Err)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check your connection and retry\n")
		msg.WriteString("  - Verify the backend origin: --base-url or GAMEX_BASE_URL\n")
		msg.WriteString("  - Raise the limit with --timeout if the backend is slow\n")

	case errors.As(err, &decErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", decErr.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Re-run with --debug to see the raw response\n")
		msg.WriteString("  - Check that --base-url points at the GameX API\n")

	case errors.As(err, &ambiguous):
		fmt.Fprintf(&msg, "Error: %s\n\nUse the game id to pick one.\n", ambiguous.Error())

	case errors.As(err, &notFound):
		fmt.Fprintf(&msg, "Error: %s\n\nRun: gamex games list\n", notFound.Error())

	case errors.As(err, &structured):
		fmt.Fprintf(&msg, "Error: %s\n", structured.Message)
		if structured.Suggestion != "" {
			fmt.Fprintf(&msg, "\nSuggestion: %s\n", structured.Suggestion)
		}

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

// backendMessage prefers the backend's message over the generic status text.
func backendMessage(err error) string {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return err.Error()
}

func suggestionsForStatusCode(code int) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400:
		suggestions.WriteString("  - Check your request parameters\n")
		suggestions.WriteString("  - Use --debug to see the full request\n")

	case 401:
		suggestions.WriteString("  - Your session may have expired\n")
		suggestions.WriteString("  - Run: gamex auth login\n")

	case 403:
		suggestions.WriteString("  - You don't have permission for this action\n")
		suggestions.WriteString("  - Run: gamex auth refresh-role\n")

	case 404:
		suggestions.WriteString("  - The resource doesn't exist\n")
		suggestions.WriteString("  - Check the ID is correct\n")

	case 422:
		suggestions.WriteString("  - Validation failed\n")
		suggestions.WriteString("  - Check your input values\n")

	case 429:
		suggestions.WriteString("  - Too many requests\n")
		suggestions.WriteString("  - Wait and retry in a few seconds\n")

	case 500, 502, 503, 504:
		suggestions.WriteString("  - Server error - not your fault\n")
		suggestions.WriteString("  - Wait and retry\n")

	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}

// ExitWithError prints error with suggestions and exits
func ExitWithError(err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprint(os.Stderr, HandleError(err))
	os.Exit(ExitCode(err))
}
