package cmd

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gamex/gamex-cli/internal/session"
)

const meAdminBody = `{"user":{"id":1,"name":"Budi","email":"budi@example.com","balance":"150000","role":"admin"}}`

func TestAuthLoginCommand(t *testing.T) {
	var body map[string]any
	handler := newRouteHandler().
		On("POST", "/api/auth/login", captureJSONBody(&body, jsonResponse(200,
			`{"access_token":"tok-123","token_type":"Bearer","user":{"id":1,"name":"Budi","email":"budi@example.com","role":"user"}}`))).
		On("GET", "/api/auth/me", jsonResponse(200, meAdminBody))
	env := setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"auth", "login", "--email", "budi@example.com", "--password", "secret123"})
		if err != nil {
			t.Fatalf("auth login: %v", err)
		}
	})

	if body["email"] != "budi@example.com" || body["password"] != "secret123" {
		t.Errorf("login body = %v", body)
	}
	token, err := env.store.Token()
	if err != nil || token != "tok-123" {
		t.Fatalf("stored token = %q, %v", token, err)
	}
	// The role from /me wins over the one in the login response.
	if env.store.Role() != session.RoleAdmin {
		t.Errorf("role = %q, want admin", env.store.Role())
	}
	if !strings.Contains(output, "Logged in as Budi <budi@example.com> (role: admin)") {
		t.Errorf("output = %q", output)
	}
}

func TestAuthLoginCommand_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing email", []string{"auth", "login", "--password", "x"}, "--email is required"},
		{"bad email", []string{"auth", "login", "--email", "not-an-email", "--password", "x"}, "email"},
		{"missing password", []string{"auth", "login", "--email", "budi@example.com"}, "--password is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newRouteHandler()
			setupTestEnvWithHandler(t, handler)
			t.Setenv("GAMEX_FORCE_INTERACTIVE", "")

			var err error
			stderr := captureStderr(t, func() {
				err = Execute(context.Background(), append(tt.args, "--no-input"))
			})
			if got := ExitCode(err); got != exitUsage {
				t.Fatalf("ExitCode = %d, want %d (err %v)", got, exitUsage, err)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr %q missing %q", stderr, tt.want)
			}
			if handler.Hits("POST", "/api/auth/login") != 0 {
				t.Error("login endpoint should not be called")
			}
		})
	}
}

func TestAuthLoginCommand_BadCredentials(t *testing.T) {
	env := setupTestEnvWithHandler(t, newRouteHandler().
		On("POST", "/api/auth/login", jsonResponse(401, `{"message":"Invalid credentials"}`)))

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "login", "--email", "budi@example.com", "--password", "wrong"})
	})
	if got := ExitCode(err); got != exitAuth {
		t.Fatalf("ExitCode = %d, want %d", got, exitAuth)
	}
	if !strings.Contains(stderr, "Invalid credentials") {
		t.Errorf("stderr = %q", stderr)
	}
	if env.store.IsLoggedIn() {
		t.Error("nothing should be stored on failure")
	}
}

func TestAuthRegisterCommand_WithoutToken(t *testing.T) {
	env := setupTestEnvWithHandler(t, newRouteHandler().
		On("POST", "/api/auth/register", jsonResponse(201, `{"message":"Registered","user":{"id":5,"name":"Sari","email":"sari@example.com"}}`)))

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"auth", "register", "--name", "Sari", "--email", "sari@example.com", "--password", "password123"})
		if err != nil {
			t.Fatalf("auth register: %v", err)
		}
	})
	if !strings.Contains(output, "gamex auth login") {
		t.Errorf("output = %q", output)
	}
	if env.store.IsLoggedIn() {
		t.Error("no token should be stored")
	}
}

func TestAuthRegisterCommand_ShortPassword(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnvWithHandler(t, handler)

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "register", "--name", "Sari", "--email", "sari@example.com", "--password", "short"})
	})
	if got := ExitCode(err); got != exitUsage {
		t.Fatalf("ExitCode = %d, want %d", got, exitUsage)
	}
	if handler.Hits("POST", "/api/auth/register") != 0 {
		t.Error("register endpoint should not be called")
	}
}

func TestAuthLogoutCommand(t *testing.T) {
	env := setupTestEnv(t, jsonResponse(200, `{}`))
	env.login(session.RoleAdmin)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "logout"}); err != nil {
			t.Fatalf("auth logout: %v", err)
		}
	})
	if env.store.IsLoggedIn() || env.store.IsAdmin() {
		t.Error("session should be cleared")
	}
	if !strings.Contains(output, "Logged out") {
		t.Errorf("output = %q", output)
	}
}

func TestAuthStatusCommand_NotLoggedIn(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "status"}); err != nil {
			t.Fatalf("auth status: %v", err)
		}
	})
	if !strings.Contains(output, "Not logged in (profile default)") {
		t.Errorf("output = %q", output)
	}
}

func TestAuthStatusCommand_JSONWithJWT(t *testing.T) {
	env := setupTestEnv(t, jsonResponse(200, `{}`))
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if err := env.store.Save(token); err != nil {
		t.Fatal(err)
	}

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "status", "--json"}); err != nil {
			t.Fatalf("auth status: %v", err)
		}
	})

	var status authStatus
	if err := json.Unmarshal([]byte(output), &status); err != nil {
		t.Fatalf("invalid JSON %q: %v", output, err)
	}
	if !status.LoggedIn || status.Subject != "42" || !status.Expired {
		t.Errorf("status = %+v", status)
	}
	if status.Role != session.RoleUser {
		t.Errorf("role = %q, want default user", status.Role)
	}
	if strings.Contains(output, token) {
		t.Error("token must be redacted")
	}
	if !strings.HasPrefix(status.Token, "****") {
		t.Errorf("token = %q", status.Token)
	}
}

func TestAuthRefreshRoleCommand(t *testing.T) {
	env := setupTestEnvWithHandler(t, newRouteHandler().
		On("GET", "/api/auth/me", jsonResponse(200, meAdminBody)))
	env.login(session.RoleUser)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "refresh-role"}); err != nil {
			t.Fatalf("auth refresh-role: %v", err)
		}
	})
	if !strings.Contains(output, "Role updated: admin") {
		t.Errorf("output = %q", output)
	}
	if !env.store.IsAdmin() {
		t.Error("role should be cached as admin")
	}
}

func TestAuthRefreshRoleCommand_FailureKeepsRole(t *testing.T) {
	env := setupTestEnvWithHandler(t, newRouteHandler().
		On("GET", "/api/auth/me", jsonResponse(500, `{"message":"boom"}`)))
	env.login(session.RoleAdmin)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "refresh-role"})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(stderr, `cached role "admin" kept`) {
		t.Errorf("stderr = %q", stderr)
	}
	if !env.store.IsAdmin() {
		t.Error("cached role must survive a failed refresh")
	}
}

func TestAuthRefreshRoleCommand_NotLoggedIn(t *testing.T) {
	setupTestEnv(t, jsonResponse(200, `{}`))
	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "refresh-role"})
	})
	if got := ExitCode(err); got != exitAuth {
		t.Fatalf("ExitCode = %d, want %d", got, exitAuth)
	}
}
