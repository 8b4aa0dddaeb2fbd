package api

import (
	"strconv"
	"strings"
)

// DefaultBaseURL is the production backend origin.
const DefaultBaseURL = "https://api.amazon.web.id/"

// Endpoints builds fully-qualified URLs against one base origin.
//
// Builders never fail and never validate ids or page numbers: a zero or
// negative id produces a URL the backend will reject, which is the caller's
// problem.
type Endpoints struct {
	Base string
}

// NewEndpoints returns builders rooted at base. A trailing slash is added when
// missing so every path can be appended verbatim.
func NewEndpoints(base string) Endpoints {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return Endpoints{Base: base}
}

func (e Endpoints) path(p string) string {
	return e.Base + p
}

func (e Endpoints) withID(prefix string, id int, suffix string) string {
	return e.Base + prefix + "/" + strconv.Itoa(id) + suffix
}

func (e Endpoints) withPage(p string, page int) string {
	return e.Base + p + "?page=" + strconv.Itoa(page)
}

func (e Endpoints) Login() string    { return e.path("api/auth/login") }
func (e Endpoints) Register() string { return e.path("api/auth/register") }

// Me returns the profile endpoint, which also carries the wallet balance.
func (e Endpoints) Me() string      { return e.path("api/auth/me") }
func (e Endpoints) Balance() string { return e.Me() }
func (e Endpoints) Profile() string { return e.Me() }

func (e Endpoints) Topup() string    { return e.path("api/topup") }
func (e Endpoints) Deposits() string { return e.path("api/deposits") }

func (e Endpoints) DepositStatus(id int) string {
	return e.withID("api/deposits", id, "/refresh-status")
}

func (e Endpoints) CategoryProducts(categoryID int) string {
	return e.withID("api/categories", categoryID, "/products")
}

func (e Endpoints) Transactions() string { return e.path("api/transactions") }

func (e Endpoints) Transaction(id int) string {
	return e.withID("api/transactions", id, "")
}

func (e Endpoints) TransactionStatus(id int) string {
	return e.withID("api/transactions", id, "/refresh-status")
}

func (e Endpoints) MyTransactions() string { return e.path("api/transactions/my") }

func (e Endpoints) TransactionsPage(page int) string {
	return e.withPage("api/transactions", page)
}

func (e Endpoints) AdminUsers() string { return e.path("api/admin/users") }

func (e Endpoints) AdminUsersPage(page int) string {
	return e.withPage("api/admin/users", page)
}

func (e Endpoints) AdminUser(id int) string {
	return e.withID("api/admin/users", id, "")
}

func (e Endpoints) AdminUserToggleRole(id int) string {
	return e.withID("api/admin/users", id, "/toggle-role")
}
