package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Role values stored in the session and returned by the backend.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Money is a decimal-string monetary amount as sent by the backend
// ("15000.00"). Numbers are accepted too and kept in their textual form.
type Money string

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*m = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Money(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cannot unmarshal %s into Money", data)
	}
	*m = Money(n.String())
	return nil
}

// Decimal parses the amount. ok is false when the text is not a number.
func (m Money) Decimal() (d decimal.Decimal, ok bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(string(m)))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Int returns the amount truncated toward zero, or 0 when unparseable.
func (m Money) Int() int64 {
	d, ok := m.Decimal()
	if !ok {
		return 0
	}
	return d.IntPart()
}

func (m Money) String() string { return string(m) }

// FlexInt handles JSON numbers that may come as strings or integers.
type FlexInt int

func (fi *FlexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*fi = 0
		return nil
	}
	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*fi = FlexInt(i)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*fi = 0
			return nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*fi = FlexInt(i)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*fi = FlexInt(int(f))
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into FlexInt", data)
}

// FlexString accepts a JSON string or number and keeps the text, so a
// player id sent as 12345 reads the same as "12345".
type FlexString string

func (fs *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*fs = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*fs = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("cannot unmarshal %s into FlexString", data)
	}
	*fs = FlexString(n.String())
	return nil
}

// FlexBool accepts true/false, 0/1 and their string forms.
type FlexBool bool

func (fb *FlexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(strings.ToLower(string(bytes.TrimSpace(data))), `"`) {
	case "true", "1":
		*fb = true
	case "false", "0", "", "null":
		*fb = false
	default:
		return fmt.Errorf("cannot unmarshal %s into FlexBool", data)
	}
	return nil
}

// User is a wallet owner as returned by /api/auth/me and the admin endpoints.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Balance   Money  `json:"balance"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		*plain
		ID FlexInt `json:"id"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.ID = int(aux.ID)
	return nil
}

type UserResponse struct {
	User *User `json:"user"`
}

// Product is one purchasable denomination within a game category.
type Product struct {
	ID          int      `json:"id"`
	Code        string   `json:"kode"`
	Name        string   `json:"nama"`
	Description string   `json:"keterangan"`
	Price       Money    `json:"harga"`
	Active      FlexBool `json:"status"`
	CategoryID  int      `json:"category_id"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	aux := struct {
		*plain
		ID         FlexInt `json:"id"`
		CategoryID FlexInt `json:"category_id"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.ID, p.CategoryID = int(aux.ID), int(aux.CategoryID)
	return nil
}

// Label returns the best human-readable name for the product.
func (p Product) Label() string {
	if p.Description != "" {
		return p.Description
	}
	return p.Name
}

type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt string    `json:"created_at,omitempty"`
	UpdatedAt string    `json:"updated_at,omitempty"`
	Products  []Product `json:"products,omitempty"`
}

// ProductResponse is the body of GET /api/categories/{id}/products.
type ProductResponse struct {
	Category *Category `json:"category"`
	Products []Product `json:"products"`
}

// Items returns the product list, falling back to the products nested in the
// category when the top-level list is absent.
func (r ProductResponse) Items() []Product {
	if len(r.Products) > 0 {
		return r.Products
	}
	if r.Category != nil && len(r.Category.Products) > 0 {
		return r.Category.Products
	}
	return []Product{}
}

// Transaction is a top-up order for a player account.
type Transaction struct {
	ID            int      `json:"id"`
	UserID        int      `json:"user_id"`
	ProductID     int      `json:"product_id"`
	TargetID      string   `json:"target_id"`
	ServerID      string   `json:"server_id,omitempty"`
	PaymentMethod string   `json:"payment_method,omitempty"`
	Amount        Money    `json:"amount"`
	Status        string   `json:"status"`
	ProviderTrxID string   `json:"provider_trx_id,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
	Product       *Product `json:"product,omitempty"`
}

// UnmarshalJSON accepts ids as numbers or strings, and player and zone ids
// as strings or numbers.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	aux := struct {
		*plain
		ID        FlexInt    `json:"id"`
		UserID    FlexInt    `json:"user_id"`
		ProductID FlexInt    `json:"product_id"`
		TargetID  FlexString `json:"target_id"`
		ServerID  FlexString `json:"server_id"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.ID, t.UserID, t.ProductID = int(aux.ID), int(aux.UserID), int(aux.ProductID)
	t.TargetID, t.ServerID = string(aux.TargetID), string(aux.ServerID)
	return nil
}

// TransactionResponse is the body of POST /api/transactions. On a 422 the
// balance fields explain the shortfall.
type TransactionResponse struct {
	Message        string       `json:"message"`
	Transaction    *Transaction `json:"transaction,omitempty"`
	NewBalance     Money        `json:"new_balance,omitempty"`
	Required       Money        `json:"required,omitempty"`
	CurrentBalance Money        `json:"current_balance,omitempty"`
	Shortage       FlexInt      `json:"shortage,omitempty"`
}

func (r TransactionResponse) InsufficientBalance() bool {
	return r.Shortage > 0
}

type TransactionStatusResponse struct {
	Message     string       `json:"message,omitempty"`
	Transaction *Transaction `json:"transaction"`
}

// Deposit is a wallet top-up paid by QRIS. TotalAmount is Amount plus the
// random surcharge that makes the payment uniquely identifiable.
type Deposit struct {
	ID           int     `json:"id"`
	UserID       int     `json:"user_id"`
	Amount       Money   `json:"amount"`
	RandomAmount FlexInt `json:"random_amount"`
	TotalAmount  Money   `json:"total_amount"`
	QRISCode     string  `json:"qris_code,omitempty"`
	QRISImage    string  `json:"qris_image,omitempty"`
	Status       string  `json:"status"`
	PaidAt       string  `json:"paid_at,omitempty"`
	CancelledAt  string  `json:"cancelled_at,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
	UpdatedAt    string  `json:"updated_at,omitempty"`
}

func (d *Deposit) UnmarshalJSON(data []byte) error {
	type plain Deposit
	aux := struct {
		*plain
		ID     FlexInt `json:"id"`
		UserID FlexInt `json:"user_id"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.ID, d.UserID = int(aux.ID), int(aux.UserID)
	return nil
}

type DepositData struct {
	Deposit      *Deposit `json:"deposit"`
	QRISImageURL string   `json:"qris_image_url,omitempty"`
	Instructions []string `json:"instructions"`
	Status       string   `json:"status,omitempty"`
}

type DepositResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    *DepositData `json:"data"`
}

// EffectiveStatus prefers the envelope status and falls back to the deposit's.
func (r DepositResponse) EffectiveStatus() string {
	if r.Data == nil {
		return ""
	}
	if r.Data.Status != "" {
		return r.Data.Status
	}
	if r.Data.Deposit != nil {
		return r.Data.Deposit.Status
	}
	return ""
}

// Paginated is a Laravel length-aware page.
type Paginated[T any] struct {
	CurrentPage  int    `json:"current_page"`
	Data         []T    `json:"data"`
	FirstPageURL string `json:"first_page_url,omitempty"`
	From         *int   `json:"from"`
	LastPage     int    `json:"last_page"`
	LastPageURL  string `json:"last_page_url,omitempty"`
	NextPageURL  string `json:"next_page_url,omitempty"`
	Path         string `json:"path,omitempty"`
	PerPage      int    `json:"per_page"`
	PrevPageURL  string `json:"prev_page_url,omitempty"`
	To           *int   `json:"to"`
	Total        int    `json:"total"`
}

func (p Paginated[T]) HasNextPage() bool {
	return p.NextPageURL != ""
}

// Valid checks 1 <= current_page <= last_page and len(data) <= per_page.
func (p Paginated[T]) Valid() bool {
	if p.CurrentPage < 1 || p.CurrentPage > p.LastPage {
		return false
	}
	return len(p.Data) <= p.PerPage
}

type ToggleRoleResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user,omitempty"`
}

// Role returns the user's role, defaulting to "user".
func (r AuthResponse) Role() string {
	if r.User != nil && r.User.Role != "" {
		return r.User.Role
	}
	return RoleUser
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TransactionRequest struct {
	ProductID int    `json:"product_id"`
	TargetID  string `json:"target_id"`
	ServerID  string `json:"server_id,omitempty"`
}

type DepositRequest struct {
	Amount int64 `json:"amount"`
}

type TopupRequest struct {
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

// UpdateUserRequest carries the editable user fields. Balance is sent as a
// decimal string, like every other amount.
type UpdateUserRequest struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Balance string `json:"balance,omitempty"`
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}
