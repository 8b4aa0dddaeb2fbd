package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootHelpUsesCustomText(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"--help"}); err != nil {
			t.Fatalf("--help: %v", err)
		}
	})
	for _, want := range []string{"gamex <command>", "orders create", "deposits create", "--dry-run"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestUnknownCommandSuggestion(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"ordres"})
	})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(stderr, `Did you mean "orders"?`) {
		t.Errorf("expected suggestion, got %q", stderr)
	}
	if got := ExitCode(err); got != exitUsage {
		t.Errorf("ExitCode = %d, want %d", got, exitUsage)
	}
}

func TestUnknownFlagSuggestion(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	stderr := captureStderr(t, func() {
		_ = Execute(context.Background(), []string{"deposits", "create", "--amout", "50000"})
	})
	if !strings.Contains(stderr, `Did you mean "--amount"?`) {
		t.Errorf("expected flag suggestion, got %q", stderr)
	}
	if !strings.Contains(stderr, "gamex deposits create --help") {
		t.Errorf("expected help pointer, got %q", stderr)
	}
}

func TestJSONConflictsWithTextOutput(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"games", "list", "--json", "--output", "text"})
	})
	if err == nil || !strings.Contains(err.Error(), "--json conflicts") {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if got := ExitCode(err); got != exitUsage {
		t.Errorf("ExitCode = %d, want %d", got, exitUsage)
	}
}

func TestQueryImpliesJSON(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"games", "list", "--jq", ".items[0].id"}); err != nil {
			t.Fatalf("games list --jq: %v", err)
		}
	})
	if strings.TrimSpace(output) == "" || strings.Contains(output, "NAME") {
		t.Fatalf("expected a jq result, got %q", output)
	}
}

func TestInvalidQueryIsUsageError(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"games", "list", "--jq", ".[] | "})
	})
	if got := ExitCode(err); got != exitUsage {
		t.Fatalf("ExitCode = %d, want %d (err %v)", got, exitUsage, err)
	}
}

func TestTimeoutMustBePositive(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"games", "list", "--timeout", "0s"})
	})
	if err == nil || !strings.Contains(err.Error(), "--timeout must be > 0") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestInvalidConfigIsUsageError(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	t.Setenv("GAMEX_SESSION_BACKEND", "floppy")
	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"games", "list"})
	})
	if err == nil {
		t.Fatal("expected config error")
	}
	if got := ExitCode(err); got != exitUsage {
		t.Fatalf("ExitCode = %d, want %d", got, exitUsage)
	}
}

func TestTemplateFromFile(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	path := filepath.Join(t.TempDir(), "games.tmpl")
	if err := os.WriteFile(path, []byte(`{{range .items}}{{.id}};{{end}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"games", "list", "--template", "@" + path}); err != nil {
			t.Fatalf("games list --template: %v", err)
		}
	})
	if !strings.Contains(output, "mobile-legends;") {
		t.Fatalf("template output = %q", output)
	}
}

func TestExtractFlag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"unknown flag: --amout", "--amout"},
		{"unknown flag: --amout.", "--amout"},
		{"unknown shorthand flag: 'z' in -z", "-z"},
		{"no flag here", ""},
	}
	for _, tt := range tests {
		if got := extractFlag(tt.in); got != tt.want {
			t.Errorf("extractFlag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractQuoted(t *testing.T) {
	if got := extractQuoted(`unknown command "ordres" for "gamex"`); got != "ordres" {
		t.Fatalf("extractQuoted = %q", got)
	}
	if got := extractQuoted("nothing quoted"); got != "" {
		t.Fatalf("extractQuoted = %q, want empty", got)
	}
}
