package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamex/gamex-cli/internal/api"
	"github.com/gamex/gamex-cli/internal/events"
	"github.com/gamex/gamex-cli/internal/session"
)

const mlbbProducts = `{
  "category": {"id": 1, "name": "Mobile Legends", "code": "MLBB"},
  "products": [
    {"id": 12, "kode": "ML86", "nama": "86 Diamonds", "keterangan": "86 Diamonds", "harga": "20000", "status": 1, "category_id": 1},
    {"id": 13, "kode": "ML172", "nama": "172 Diamonds", "keterangan": "", "harga": "40000", "status": 0, "category_id": 1}
  ]
}`

const createdOrder = `{
  "message": "Transaksi berhasil dibuat",
  "transaction": {"id": 101, "user_id": 1, "product_id": 12, "target_id": "123456789", "server_id": "2001", "amount": "20000", "status": "pending"},
  "new_balance": "130000"
}`

func orderRoutes() *routeHandler {
	return newRouteHandler().
		On("GET", "/api/categories/1/products", jsonResponse(200, mlbbProducts))
}

func TestOrdersCreate(t *testing.T) {
	var body map[string]any
	handler := orderRoutes().
		On("POST", "/api/transactions", captureJSONBody(&body, jsonResponse(201, createdOrder)))
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleUser)

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"orders", "create", "--game", "mlbb", "--product", "12", "--player", "123456789", "--zone", "2001"})
		require.NoError(t, err)
	})

	assert.EqualValues(t, 12, body["product_id"])
	assert.Equal(t, "123456789", body["target_id"])
	assert.Equal(t, "2001", body["server_id"])

	for _, want := range []string{"Order:", "#101", "86 Diamonds", "123456789 (2001)", "Rp 20.000", "Pending", "Rp 130.000", "gamex orders status 101"} {
		assert.Contains(t, output, want)
	}

	got := env.published.all()
	require.Len(t, got, 1)
	assert.Equal(t, events.OrderCreated, got[0].Type)
	assert.Equal(t, 101, got[0].ID)
	assert.EqualValues(t, 20000, got[0].Amount)
}

func TestOrdersCreate_DryRunDoesNotPost(t *testing.T) {
	handler := orderRoutes().
		On("POST", "/api/transactions", jsonResponse(201, createdOrder))
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleUser)

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"orders", "create", "--game", "1", "--product", "12", "--player", "123456789", "--zone", "2001", "--dry-run", "--json"})
		require.NoError(t, err)
	})

	assert.Zero(t, handler.Hits("POST", "/api/transactions"))
	assert.Empty(t, env.published.all())

	var preview struct {
		DryRun  bool `json:"dry_run"`
		Preview struct {
			Method   string   `json:"method"`
			URL      string   `json:"url"`
			Warnings []string `json:"warnings"`
		} `json:"preview"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &preview))
	assert.True(t, preview.DryRun)
	assert.Equal(t, "POST", preview.Preview.Method)
	assert.True(t, strings.HasSuffix(preview.Preview.URL, "/api/transactions"))
	assert.NotEmpty(t, preview.Preview.Warnings)
}

func TestOrdersCreate_InsufficientBalance(t *testing.T) {
	handler := orderRoutes().
		On("POST", "/api/transactions", jsonResponse(422,
			`{"message":"Saldo tidak mencukupi","required":"20000","current_balance":"5000","shortage":15000}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleUser)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"orders", "create", "--game", "mlbb", "--product", "12", "--player", "123456789", "--zone", "2001"})
	})

	require.Error(t, err)
	assert.Equal(t, exitInsufficient, ExitCode(err))
	assert.Contains(t, stderr, "Insufficient balance")
	assert.Contains(t, stderr, "Required: Rp 20.000")
	assert.Contains(t, stderr, "Short:    Rp 15.000")
	assert.Empty(t, env.published.all())
}

func TestOrdersCreate_InsufficientBalanceJSON(t *testing.T) {
	handler := orderRoutes().
		On("POST", "/api/transactions", jsonResponse(422,
			`{"message":"Saldo tidak mencukupi","required":"20000","current_balance":"5000","shortage":15000}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleUser)

	stderr := captureStderr(t, func() {
		_ = Execute(context.Background(), []string{"orders", "create", "--game", "mlbb", "--product", "12", "--player", "123456789", "--zone", "2001", "--json"})
	})

	var parsed struct {
		Error struct {
			Code    string         `json:"code"`
			Context map[string]any `json:"context"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stderr), &parsed), stderr)
	assert.Equal(t, "insufficient_balance", parsed.Error.Code)
	assert.EqualValues(t, 15000, parsed.Error.Context["shortage"])
}

func TestOrdersCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing game", []string{"--product", "12", "--player", "1"}, "--game is required"},
		{"missing product", []string{"--game", "mlbb", "--player", "1"}, "--product is required"},
		{"missing zone", []string{"--game", "mlbb", "--product", "12", "--player", "123456789"}, "requires a server zone"},
		{"unknown product", []string{"--game", "mlbb", "--product", "99", "--player", "123456789", "--zone", "2001"}, "product 99 is not in category 1"},
		{"inactive product", []string{"--game", "mlbb", "--product", "13", "--player", "123456789", "--zone", "2001"}, "not available"},
		{"unknown game", []string{"--game", "zzzz", "--product", "12", "--player", "1"}, "zzzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := orderRoutes()
			env := setupTestEnvWithHandler(t, handler)
			env.login(session.RoleUser)

			var err error
			stderr := captureStderr(t, func() {
				err = Execute(context.Background(), append([]string{"orders", "create", "--no-input"}, tt.args...))
			})
			assert.Equal(t, exitUsage, ExitCode(err), "err: %v", err)
			assert.Contains(t, stderr, tt.want)
			assert.Zero(t, handler.Hits("POST", "/api/transactions"))
		})
	}
}

func TestOrdersCreate_NotLoggedIn(t *testing.T) {
	handler := orderRoutes()
	setupTestEnvWithHandler(t, handler)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"orders", "create", "--game", "mlbb", "--product", "12", "--player", "123456789", "--zone", "2001"})
	})
	assert.Equal(t, exitAuth, ExitCode(err))
	assert.Contains(t, stderr, "gamex auth login")
	assert.Zero(t, handler.Hits("POST", "/api/transactions"))
}

func TestOrdersStatus(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/transactions/101", jsonResponse(200,
			`{"transaction":{"id":101,"target_id":"123456789","amount":"20000","status":"process"}}`)).
		On("GET", "/api/transactions/101/refresh-status", jsonResponse(200,
			`{"message":"Status updated","transaction":{"id":101,"target_id":"123456789","amount":"20000","status":"success","product":{"id":12,"keterangan":"86 Diamonds"}}}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleUser)

	var output string
	stderr := captureStderr(t, func() {
		output = captureStdout(t, func() {
			require.NoError(t, Execute(context.Background(), []string{"orders", "status", "#101"}))
		})
	})
	assert.Contains(t, output, "86 Diamonds")
	assert.Contains(t, output, "Success")
	assert.Contains(t, output, "Your transaction completed successfully!")
	assert.Contains(t, output, "Status updated")
	assert.NotContains(t, output, "not re-checked")
	assert.NotContains(t, stderr, "Warning")

	assert.Equal(t, 1, handler.Hits("GET", "/api/transactions/101"))
	assert.Equal(t, 1, handler.Hits("GET", "/api/transactions/101/refresh-status"))
	assert.Equal(t, []string{events.OrderStatus}, env.published.types())
}

func TestOrdersStatus_RefreshedJSON(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/transactions/7", jsonResponse(200,
			`{"transaction":{"id":7,"target_id":"1","amount":"5000","status":"paid"}}`)).
		On("GET", "/api/transactions/7/refresh-status", jsonResponse(200,
			`{"transaction":{"id":7,"target_id":"1","amount":"5000","status":"refund"}}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleUser)

	var output string
	_ = captureStderr(t, func() {
		output = captureStdout(t, func() {
			require.NoError(t, Execute(context.Background(), []string{"orders", "status", "7", "--json"}))
		})
	})
	var view struct {
		Transaction struct {
			Status string `json:"status"`
		} `json:"transaction"`
		PreviousStatus string `json:"previous_status"`
		Refreshed      bool   `json:"refreshed"`
		Presentation   struct {
			Tier           string `json:"tier"`
			Terminal       bool   `json:"terminal"`
			RefreshAllowed bool   `json:"refresh_allowed"`
		} `json:"presentation"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &view), output)
	assert.True(t, view.Refreshed)
	assert.Equal(t, "paid", view.PreviousStatus)
	assert.Equal(t, "refund", view.Transaction.Status)
	assert.Equal(t, "negative", view.Presentation.Tier)
	assert.True(t, view.Presentation.Terminal)
	assert.False(t, view.Presentation.RefreshAllowed)
}

func TestOrdersStatus_TerminalOrderIsNotRefreshed(t *testing.T) {
	for _, st := range []string{"success", "failed", "refund"} {
		t.Run(st, func(t *testing.T) {
			handler := newRouteHandler().
				On("GET", "/api/transactions/42", jsonResponse(200,
					fmt.Sprintf(`{"transaction":{"id":42,"target_id":"1","amount":"5000","status":%q}}`, st))).
				On("GET", "/api/transactions/42/refresh-status", jsonResponse(200,
					`{"transaction":{"id":42,"target_id":"1","amount":"5000","status":"pending"}}`))
			env := setupTestEnvWithHandler(t, handler)
			env.login(session.RoleUser)

			output := captureStdout(t, func() {
				require.NoError(t, Execute(context.Background(), []string{"orders", "status", "42"}))
			})
			assert.Contains(t, output, "Order is final; not re-checked with the provider.")
			assert.Zero(t, handler.Hits("GET", "/api/transactions/42/refresh-status"))
			assert.Empty(t, env.published.types())

			jsonOut := captureStdout(t, func() {
				require.NoError(t, Execute(context.Background(), []string{"orders", "status", "42", "-o", "json"}))
			})
			var view struct {
				Refreshed bool `json:"refreshed"`
				Tx        struct {
					Status string `json:"status"`
				} `json:"transaction"`
			}
			require.NoError(t, json.Unmarshal([]byte(jsonOut), &view), jsonOut)
			assert.False(t, view.Refreshed)
			assert.Equal(t, st, view.Tx.Status)
			assert.Zero(t, handler.Hits("GET", "/api/transactions/42/refresh-status"))
		})
	}
}

func TestOrdersStatus_WarnsOnUnexpectedTransition(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		warn     bool
	}{
		{"pending straight to success", "pending", "success", true},
		{"paid back to pending", "paid", "pending", true},
		{"pending to paid", "pending", "paid", false},
		{"process to refund", "process", "refund", false},
		{"unchanged", "process", "process", false},
		{"unknown status", "pending", "on_hold", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newRouteHandler().
				On("GET", "/api/transactions/9", jsonResponse(200,
					fmt.Sprintf(`{"transaction":{"id":9,"amount":"5000","status":%q}}`, tt.from))).
				On("GET", "/api/transactions/9/refresh-status", jsonResponse(200,
					fmt.Sprintf(`{"transaction":{"id":9,"amount":"5000","status":%q}}`, tt.to)))
			env := setupTestEnvWithHandler(t, handler)
			env.login(session.RoleUser)

			stderr := captureStderr(t, func() {
				_ = captureStdout(t, func() {
					require.NoError(t, Execute(context.Background(), []string{"orders", "status", "9"}))
				})
			})
			want := fmt.Sprintf("Warning: order 9 moved from %q to %q", tt.from, tt.to)
			if tt.warn {
				assert.Contains(t, stderr, want)
			} else {
				assert.NotContains(t, stderr, "Warning:")
			}
			assert.Equal(t, 1, handler.Hits("GET", "/api/transactions/9/refresh-status"))
		})
	}
}

func TestOrdersStatus_NotFound(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/transactions/5", jsonResponse(404, `{"message":"Transaction not found"}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleUser)

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"orders", "status", "5"})
	})
	assert.Equal(t, exitNotFound, ExitCode(err))
	assert.Zero(t, handler.Hits("GET", "/api/transactions/5/refresh-status"))
}

func TestOrdersRefresh_Bulk(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/transactions/1/refresh-status", jsonResponse(200, `{"transaction":{"id":1,"amount":"10000","status":"process"}}`)).
		On("GET", "/api/transactions/2/refresh-status", jsonResponse(200, `{"transaction":{"id":2,"amount":"20000","status":"success"}}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleUser)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"orders", "refresh", "1,2", "3", "--json"}))
	})

	var result struct {
		Results []struct {
			ID      int    `json:"id"`
			Success bool   `json:"success"`
			Error   string `json:"error"`
		} `json:"results"`
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &result), output)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{result.Results[0].ID, result.Results[1].ID, result.Results[2].ID})
	assert.False(t, result.Results[2].Success)

	types := env.published.types()
	assert.Len(t, types, 2)
	assert.True(t, slices.Contains(types, events.OrderStatus))
}

func TestOrdersRefresh_AllFail(t *testing.T) {
	env := setupTestEnvWithHandler(t, newRouteHandler())
	env.login(session.RoleUser)

	var err error
	_ = captureStdout(t, func() {
		_ = captureStderr(t, func() {
			err = Execute(context.Background(), []string{"orders", "refresh", "8", "9"})
		})
	})
	assert.Equal(t, exitNotFound, ExitCode(err))
}

func TestOrdersMine(t *testing.T) {
	env := setupTestEnvWithHandler(t, newRouteHandler().
		On("GET", "/api/transactions/my", jsonResponse(200, `{
			"current_page": 1, "last_page": 2, "per_page": 1, "total": 2,
			"next_page_url": "https://api.example.com/api/transactions/my?page=2",
			"data": [{"id": 101, "product_id": 12, "target_id": "123456789", "server_id": "2001", "amount": "20000", "status": "paid", "created_at": "2026-10-01T08:00:00.000000Z"}]
		}`)))
	env.login(session.RoleUser)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"orders", "mine"}))
	})
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "product 12")
	assert.Contains(t, output, "Paid")
	assert.NotContains(t, output, "USER")
	assert.Contains(t, output, "Page 1 of 2 (2 total), next: --page 2")
}

const lightOrdersPage = `{
	"current_page": 1, "last_page": 1, "per_page": 15, "total": 3,
	"data": [
		{"id": 101, "target_id": "123456789", "server_id": "2001", "amount": "20000", "status": "success", "created_at": "2026-10-01T08:00:00.000000Z"},
		{"id": 102, "target_id": "55", "amount": "5000", "status": "process"},
		{"id": 103, "target_id": "56", "amount": "7000", "status": "on_hold"}
	]
}`

type lightRow struct {
	ID     int    `json:"id"`
	Status string `json:"st"`
	Amount int64  `json:"amt"`
	Target string `json:"tgt"`
	At     string `json:"at"`
}

func TestOrdersMine_Light(t *testing.T) {
	for _, flag := range []string{"--light", "--li"} {
		t.Run(flag, func(t *testing.T) {
			env := setupTestEnvWithHandler(t, newRouteHandler().
				On("GET", "/api/transactions/my", jsonResponse(200, lightOrdersPage)))
			env.login(session.RoleUser)

			output := captureStdout(t, func() {
				require.NoError(t, Execute(context.Background(), []string{"orders", "mine", flag}))
			})
			assert.Equal(t, 1, strings.Count(strings.TrimSpace(output), "\n")+1, "compact output is a single line")
			assert.NotContains(t, output, "PACKAGE")

			var got struct {
				Items []lightRow `json:"items"`
			}
			require.NoError(t, json.Unmarshal([]byte(output), &got), output)
			require.Len(t, got.Items, 3)
			assert.Equal(t, lightRow{ID: 101, Status: "s", Amount: 20000, Target: "123456789 (2001)", At: "2026-10-01T08:00:00.000000Z"}, got.Items[0])
			assert.Equal(t, "pr", got.Items[1].Status)
			assert.Empty(t, got.Items[1].At)
			assert.Equal(t, "on_hold", got.Items[2].Status, "unknown statuses pass through")
		})
	}
}

func TestOrdersList_LightJSONQuery(t *testing.T) {
	env := setupTestEnvWithHandler(t, newRouteHandler().
		On("GET", "/api/transactions", jsonResponse(200, lightOrdersPage)))
	env.login(session.RoleAdmin)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"orders", "list", "--light", "--json", "--jq", "[.items[].st]"}))
	})
	var statuses []string
	require.NoError(t, json.Unmarshal([]byte(output), &statuses), output)
	assert.Equal(t, []string{"s", "pr", "on_hold"}, statuses)
}

func TestOrdersMine_Empty(t *testing.T) {
	env := setupTestEnvWithHandler(t, newRouteHandler().
		On("GET", "/api/transactions/my", jsonResponse(200, `{"current_page":1,"last_page":1,"per_page":15,"total":0,"data":[]}`)))
	env.login(session.RoleUser)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"orders", "mine"}))
	})
	assert.Contains(t, output, "No orders found")
}

func TestOrdersMine_Since(t *testing.T) {
	recent := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	env := setupTestEnvWithHandler(t, newRouteHandler().
		On("GET", "/api/transactions/my", jsonResponse(200, fmt.Sprintf(`{
			"current_page": 1, "last_page": 1, "per_page": 15, "total": 2,
			"data": [
				{"id": 201, "product_id": 12, "target_id": "1", "amount": "20000", "status": "success", "created_at": %q},
				{"id": 202, "product_id": 12, "target_id": "2", "amount": "20000", "status": "success", "created_at": "2020-01-01T00:00:00.000000Z"}
			]
		}`, recent))))
	env.login(session.RoleUser)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"orders", "mine", "--since", "7d", "--json"}))
	})
	var page api.Paginated[api.Transaction]
	require.NoError(t, json.Unmarshal([]byte(output), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, 201, page.Data[0].ID)
}

func TestOrdersMine_InvalidSince(t *testing.T) {
	env := setupTestEnv(t, jsonResponse(200, `{}`))
	env.login(session.RoleUser)

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"orders", "mine", "--since", "soon"})
	})
	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestOrdersList_RequiresAdmin(t *testing.T) {
	handler := newRouteHandler()
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleUser)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"orders", "list"})
	})
	assert.Equal(t, exitForbidden, ExitCode(err))
	assert.Contains(t, stderr, "admin")
	assert.Zero(t, handler.Hits("GET", "/api/transactions"))
}

func TestOrdersList_Admin(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/transactions", jsonResponse(200, `{
			"current_page": 3, "last_page": 3, "per_page": 15, "total": 31,
			"data": [{"id": 55, "user_id": 9, "product_id": 12, "target_id": "1", "amount": "20000", "status": "failed"}]
		}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleAdmin)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"orders", "list", "--page", "3"}))
	})
	assert.Contains(t, output, "USER")
	assert.Contains(t, output, "Failed")
	assert.Contains(t, output, "Page 3 of 3 (31 total)")
	assert.NotContains(t, output, "next:")
	assert.Equal(t, 1, handler.Hits("GET", "/api/transactions"))
}

func TestOrdersList_PastLastPageWarns(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/transactions", jsonResponse(200,
			`{"current_page": 5, "last_page": 3, "per_page": 15, "total": 31, "data": []}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(session.RoleAdmin)

	var output string
	stderr := captureStderr(t, func() {
		output = captureStdout(t, func() {
			require.NoError(t, Execute(context.Background(), []string{"orders", "list", "--page", "5"}))
		})
	})
	assert.Contains(t, stderr, "Warning: page 5 is past the last page (3).")
	assert.Contains(t, output, "No orders found")
}

func TestOrdersMine_InconsistentPageWarns(t *testing.T) {
	env := setupTestEnvWithHandler(t, newRouteHandler().
		On("GET", "/api/transactions/my", jsonResponse(200, `{
			"current_page": 1, "last_page": 1, "per_page": 1, "total": 2,
			"data": [
				{"id": 1, "target_id": "1", "amount": "5000", "status": "pending"},
				{"id": 2, "target_id": "1", "amount": "5000", "status": "success"}
			]
		}`)))
	env.login(session.RoleUser)

	var output string
	stderr := captureStderr(t, func() {
		output = captureStdout(t, func() {
			require.NoError(t, Execute(context.Background(), []string{"orders", "mine"}))
		})
	})
	assert.Contains(t, stderr, "Warning: inconsistent page from the backend (page 1 of 1, 2 rows for 1 per page).")
	assert.Contains(t, output, "Pending")
}

func TestOrdersList_InvalidPage(t *testing.T) {
	env := setupTestEnv(t, jsonResponse(200, `{}`))
	env.login(session.RoleAdmin)

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"orders", "list", "--page", "0"})
	})
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestWithShortage_ComputesMissingShortage(t *testing.T) {
	err := withShortage(&api.HTTPError{
		Op:         "transactions.create",
		StatusCode: 422,
		Body:       `{"message":"Saldo tidak mencukupi","required":"30000","current_balance":"10000"}`,
	})
	var short *shortageError
	require.ErrorAs(t, err, &short)
	assert.EqualValues(t, 20000, short.shortage)
}

func TestWithShortage_PassesOtherErrors(t *testing.T) {
	orig := &api.HTTPError{Op: "deposits.create", StatusCode: 422, Body: `{"required":"1"}`}
	assert.Same(t, orig, withShortage(orig))
}
