package outfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"text/template"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/display"
)

// WriteTemplate renders data using a Go text/template string. Besides the
// builtins it offers json, rupiah ("15000.00" -> "Rp 15.000") and ts
// (backend timestamp -> "16 Nov 2025, 10:07").
func WriteTemplate(w io.Writer, v any, tmpl string) error {
	funcs := template.FuncMap{
		"json": func(val any) (string, error) {
			buf := &bytes.Buffer{}
			enc := json.NewEncoder(buf)
			enc.SetIndent("", "  ")
			if err := enc.Encode(val); err != nil {
				return "", err
			}
			return buf.String(), nil
		},
		"rupiah": func(val any) string {
			return display.FormatRupiah(api.Money(fmt.Sprint(val)).Int())
		},
		"ts": func(val any) string {
			s, _ := val.(string)
			return display.FormatTimestamp(s)
		},
	}

	t, err := template.New("output").Funcs(funcs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return formatTemplateError("invalid template", err)
	}
	if err := t.Execute(w, v); err != nil {
		return formatTemplateError("template execution error", err)
	}
	return nil
}

var templateLocationPattern = regexp.MustCompile(`:(\d+):(\d+):`)

func formatTemplateError(kind string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if matches := templateLocationPattern.FindStringSubmatch(msg); len(matches) == 3 {
		return fmt.Errorf("%s at line %s, column %s: %s", kind, matches[1], matches[2], msg)
	}
	return fmt.Errorf("%s: %w", kind, err)
}
