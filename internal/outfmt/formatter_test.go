package outfmt

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

type page struct {
	CurrentPage int   `json:"current_page"`
	Data        []row `json:"data"`
}

type row struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

func newFormatter(ctx context.Context) (*Formatter, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewFormatter(ctx, out, errOut), out, errOut
}

func TestFormatter_Output_Text(t *testing.T) {
	f, out, _ := newFormatter(context.Background())
	if err := f.Output(row{ID: 1}); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("text mode should not write JSON, got %q", out.String())
	}
}

func TestFormatter_Output_JSON(t *testing.T) {
	f, out, _ := newFormatter(WithMode(context.Background(), JSON))
	if err := f.Output(row{ID: 1, Status: "pending"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"status": "pending"`) {
		t.Errorf("got %q", out.String())
	}
}

func TestFormatter_Output_JSONCompactWithQuery(t *testing.T) {
	ctx := WithQuery(WithCompact(WithMode(context.Background(), JSON), true), ".status")
	f, out, _ := newFormatter(ctx)
	if err := f.Output(row{ID: 1, Status: "success"}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "\"success\"\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestFormatter_Output_JSONL(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"slice", []row{{1, "pending"}, {2, "success"}}, "{\"id\":1,\"status\":\"pending\"}\n{\"id\":2,\"status\":\"success\"}\n"},
		{"page", page{CurrentPage: 1, Data: []row{{3, "failed"}}}, "{\"id\":3,\"status\":\"failed\"}\n"},
		{"object", row{ID: 4}, "{\"id\":4,\"status\":\"\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, out, _ := newFormatter(WithMode(context.Background(), JSONL))
			if err := f.Output(tt.data); err != nil {
				t.Fatal(err)
			}
			if out.String() != tt.want {
				t.Errorf("got %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestFormatter_Output_Template(t *testing.T) {
	ctx := WithTemplate(WithMode(context.Background(), JSON), "{{range .items}}#{{.id}} {{.status}}\n{{end}}")
	f, out, _ := newFormatter(ctx)
	if err := f.Output([]row{{1, "pending"}, {2, "success"}}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "#1 pending\n#2 success\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestFormatter_Table(t *testing.T) {
	f, out, _ := newFormatter(context.Background())
	if !f.StartTable([]string{"ID", "STATUS"}) {
		t.Fatal("StartTable should return true in text mode")
	}
	f.Row("1", "pending")
	f.Row("22", "success")
	if err := f.EndTable(); err != nil {
		t.Fatal(err)
	}
	want := "ID  STATUS\n1   pending\n22  success\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}

	jf, jout, _ := newFormatter(WithMode(context.Background(), JSON))
	if jf.StartTable([]string{"ID"}) {
		t.Error("StartTable should return false in JSON mode")
	}
	if jout.Len() != 0 {
		t.Error("StartTable should not write in JSON mode")
	}
}

func TestFormatter_Empty(t *testing.T) {
	f, _, errOut := newFormatter(context.Background())
	f.Empty("No orders found")
	if errOut.String() != "No orders found\n" {
		t.Errorf("got %q", errOut.String())
	}
}
