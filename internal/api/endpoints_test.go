package api

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewEndpointsNormalizesBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://api.example.com", "https://api.example.com/"},
		{"https://api.example.com/", "https://api.example.com/"},
		{"  https://api.example.com  ", "https://api.example.com/"},
		{"", DefaultBaseURL},
	}
	for _, tt := range tests {
		if got := NewEndpoints(tt.in).Base; got != tt.want {
			t.Errorf("NewEndpoints(%q).Base = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEndpointPaths(t *testing.T) {
	e := NewEndpoints("https://api.example.com")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"login", e.Login(), "https://api.example.com/api/auth/login"},
		{"register", e.Register(), "https://api.example.com/api/auth/register"},
		{"me", e.Me(), "https://api.example.com/api/auth/me"},
		{"balance", e.Balance(), "https://api.example.com/api/auth/me"},
		{"profile", e.Profile(), "https://api.example.com/api/auth/me"},
		{"topup", e.Topup(), "https://api.example.com/api/topup"},
		{"deposits", e.Deposits(), "https://api.example.com/api/deposits"},
		{"deposit status", e.DepositStatus(7), "https://api.example.com/api/deposits/7/refresh-status"},
		{"products", e.CategoryProducts(3), "https://api.example.com/api/categories/3/products"},
		{"transactions", e.Transactions(), "https://api.example.com/api/transactions"},
		{"transaction", e.Transaction(12), "https://api.example.com/api/transactions/12"},
		{"transaction status", e.TransactionStatus(12), "https://api.example.com/api/transactions/12/refresh-status"},
		{"my transactions", e.MyTransactions(), "https://api.example.com/api/transactions/my"},
		{"transactions page", e.TransactionsPage(2), "https://api.example.com/api/transactions?page=2"},
		{"admin users", e.AdminUsers(), "https://api.example.com/api/admin/users"},
		{"admin users page", e.AdminUsersPage(4), "https://api.example.com/api/admin/users?page=4"},
		{"admin user", e.AdminUser(9), "https://api.example.com/api/admin/users/9"},
		{"toggle role", e.AdminUserToggleRole(9), "https://api.example.com/api/admin/users/9/toggle-role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestCategoryProductsContainsID(t *testing.T) {
	e := NewEndpoints(DefaultBaseURL)
	for _, id := range []int{1, 2, 10, 99, 12345, 0, -3} {
		url := e.CategoryProducts(id)
		if !strings.Contains(url, fmt.Sprintf("/%d/", id)) {
			t.Errorf("CategoryProducts(%d) = %q, missing id", id, url)
		}
		if !strings.HasSuffix(url, "/products") {
			t.Errorf("CategoryProducts(%d) = %q, want /products suffix", id, url)
		}
	}
}

func TestPageEndpointsContainPageQuery(t *testing.T) {
	e := NewEndpoints(DefaultBaseURL)
	for n := 1; n <= 50; n++ {
		want := fmt.Sprintf("?page=%d", n)
		if got := e.AdminUsersPage(n); !strings.Contains(got, want) {
			t.Errorf("AdminUsersPage(%d) = %q, missing %q", n, got, want)
		}
		if got := e.TransactionsPage(n); !strings.HasSuffix(got, want) {
			t.Errorf("TransactionsPage(%d) = %q, missing %q", n, got, want)
		}
	}
}

func TestEndpointsAreTotal(t *testing.T) {
	e := NewEndpoints(DefaultBaseURL)
	// zero and negative values are passed through untouched
	if got := e.Transaction(-1); got != DefaultBaseURL+"api/transactions/-1" {
		t.Errorf("Transaction(-1) = %q", got)
	}
	if got := e.AdminUsersPage(0); got != DefaultBaseURL+"api/admin/users?page=0" {
		t.Errorf("AdminUsersPage(0) = %q", got)
	}
}
