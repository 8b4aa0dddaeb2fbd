// Package outfmt renders command results as text tables, JSON or JSON lines,
// with optional jq filtering and Go templates.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gamex/gamex-cli/internal/filter"
)

// Mode represents the output format mode
type Mode int

const (
	// Text is the default human-readable output
	Text Mode = iota
	// JSON outputs structured JSON
	JSON
	// JSONL outputs one compact JSON value per line
	JSONL
)

type (
	modeKey     struct{}
	compactKey  struct{}
	queryKey    struct{}
	templateKey struct{}
)

// Parse parses an output mode string
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return Text, nil
	case "json":
		return JSON, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	default:
		return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json', 'jsonl' or 'ndjson')", s)
	}
}

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	default:
		return "text"
	}
}

// WithMode adds the output mode to the context
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

// ModeFromContext retrieves the output mode from context
func ModeFromContext(ctx context.Context) Mode {
	if mode, ok := ctx.Value(modeKey{}).(Mode); ok {
		return mode
	}
	return Text
}

// IsJSON returns true for both JSON and JSONL output.
func IsJSON(ctx context.Context) bool {
	mode := ModeFromContext(ctx)
	return mode == JSON || mode == JSONL
}

func WithCompact(ctx context.Context, compact bool) context.Context {
	return context.WithValue(ctx, compactKey{}, compact)
}

func IsCompact(ctx context.Context) bool {
	c, _ := ctx.Value(compactKey{}).(bool)
	return c
}

// WithQuery adds a jq query to the context
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

func GetQuery(ctx context.Context) string {
	q, _ := ctx.Value(queryKey{}).(string)
	return q
}

// WithTemplate adds a Go template to the context
func WithTemplate(ctx context.Context, tmpl string) context.Context {
	return context.WithValue(ctx, templateKey{}, tmpl)
}

func GetTemplate(ctx context.Context) string {
	t, _ := ctx.Value(templateKey{}).(string)
	return t
}

// WriteJSON writes a value as pretty-printed JSON
func WriteJSON(w io.Writer, v any) error {
	return WriteJSONMaybeCompact(w, v, false)
}

// WriteJSONMaybeCompact writes JSON, using compact format if compact is true.
func WriteJSONMaybeCompact(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// ApplyQuery normalizes v and runs the jq query over its JSON form.
func ApplyQuery(v any, query string) (any, error) {
	v = normalizeJSONOutput(v)
	if query == "" {
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return filter.ApplyFromJSON(data, query)
}

// normalizeJSONOutput wraps top-level slices as {"items": [...]} so list
// output has the same envelope shape as single objects. Nil slices become
// empty lists.
func normalizeJSONOutput(v any) any {
	if v == nil {
		return v
	}
	switch v.(type) {
	case []byte, json.RawMessage:
		return v
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return v
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return map[string]any{"items": []any{}}
	}
	return map[string]any{"items": rv.Interface()}
}

// lines splits a value into JSONL records: the elements of an items or
// data list, or the value itself.
func lines(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		for _, key := range []string{"items", "data"} {
			if list, ok := t[key].([]any); ok {
				return list
			}
		}
	}
	return []any{v}
}
