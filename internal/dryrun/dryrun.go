// Package dryrun previews mutating API calls without sending them.
package dryrun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

type contextKey struct{}

// WithDryRun returns a context with dry-run mode enabled/disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, contextKey{}, enabled)
}

// IsEnabled returns true if dry-run mode is enabled.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(contextKey{}).(bool); ok {
		return v
	}
	return false
}

// Preview describes the request a command would send.
type Preview struct {
	Operation string         `json:"operation"`
	Method    string         `json:"method"`
	URL       string         `json:"url"`
	Body      any            `json:"body,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// NotIdempotent is the warning attached to order and deposit creation.
const NotIdempotent = "not idempotent: running this again creates a duplicate record"

// Write outputs the preview as text. Details are sorted by key.
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n[DRY-RUN] Would %s\n", p.Operation)
	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")
	_, _ = fmt.Fprintf(w, "%s %s\n", p.Method, p.URL)

	if p.Body != nil {
		if data, err := json.MarshalIndent(p.Body, "", "  "); err == nil {
			_, _ = fmt.Fprintf(w, "%s\n", data)
		}
	}
	_, _ = fmt.Fprintln(w)

	if len(p.Details) > 0 {
		keys := make([]string, 0, len(p.Details))
		for k := range p.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "  %s: %v\n", k, p.Details[k])
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(p.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "Warnings:")
		for _, warning := range p.Warnings {
			_, _ = fmt.Fprintf(w, "  ! %s\n", warning)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")
	_, _ = fmt.Fprintln(w, "No changes made (dry-run mode)")
}
