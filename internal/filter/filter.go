// Package filter applies jq expressions (via gojq) to command output.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// listKeys are the envelope keys that hold a list: "items" for wrapped
// slices and "data" for Laravel pagination.
var listKeys = []string{"items", "data"}

// NormalizeExpression fixes shell-escaped operators in jq expressions.
// Zsh escapes ! to \! even in single quotes, breaking operators like !=.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// Compile parses expr so flag errors surface before any request is sent.
func Compile(expr string) (*gojq.Query, error) {
	query, err := gojq.Parse(NormalizeExpression(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return query, nil
}

// Apply applies a jq expression to decoded JSON data. A single result is
// returned as is; several results come back as a slice.
//
// Expressions written against a bare array (".[] | ...") also work on a
// list envelope such as {"data": [...]}.
func Apply(data any, expression string) (any, error) {
	if expression == "" {
		return data, nil
	}
	query, err := Compile(expression)
	if err != nil {
		return nil, err
	}

	results, err := runQuery(query, data)
	if err != nil {
		if list, ok := envelopeList(data, expression, err); ok {
			if fallback, fallbackErr := runQuery(query, list); fallbackErr == nil {
				results, err = fallback, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func runQuery(query *gojq.Query, data any) ([]any, error) {
	iter := query.Run(data)

	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func envelopeList(data any, expression string, runErr error) (any, bool) {
	if !looksLikeRootArrayQuery(expression) {
		return nil, false
	}
	if !strings.Contains(runErr.Error(), "expected an object but got") {
		return nil, false
	}
	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range listKeys {
		if list, ok := m[key].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

func looksLikeRootArrayQuery(expression string) bool {
	expr := strings.TrimSpace(expression)
	return strings.HasPrefix(expr, ".[]") || strings.HasPrefix(expr, "[.[]") || strings.HasPrefix(expr, "(.[]")
}

// ApplyFromJSON applies a jq expression to JSON bytes and returns the result
// as a Go value for the caller to format.
func ApplyFromJSON(jsonData []byte, expression string) (any, error) {
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return Apply(data, expression)
}

// ApplyToJSON applies a jq expression to JSON bytes and returns
// pretty-printed JSON.
func ApplyToJSON(jsonData []byte, expression string) ([]byte, error) {
	if expression == "" {
		return jsonData, nil
	}
	result, err := ApplyFromJSON(jsonData, expression)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(result, "", "  ")
}
