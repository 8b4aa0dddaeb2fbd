// Package status turns order and deposit status strings into what the CLI
// shows, and encodes which transitions the backend can make.
package status

import "time"

// ExitDelay is how long a terminal status stays on screen before
// `--follow-exit` returns.
const ExitDelay = 3 * time.Second

// Tier is the presentation class of a status.
type Tier string

const (
	TierNeutral  Tier = "neutral"
	TierPositive Tier = "positive"
	TierNegative Tier = "negative"
)

// Transaction is a top-up order status.
type Transaction string

const (
	TxPending Transaction = "pending"
	TxPaid    Transaction = "paid"
	TxProcess Transaction = "process"
	TxSuccess Transaction = "success"
	TxFailed  Transaction = "failed"
	TxRefund  Transaction = "refund"
	TxUnknown Transaction = "unknown"
)

// Deposit is a wallet deposit status.
type Deposit string

const (
	DepPending   Deposit = "pending"
	DepSuccess   Deposit = "success"
	DepCancelled Deposit = "cancelled"
	DepUnknown   Deposit = "unknown"
)

// ParseTransaction maps s to a known status by exact match.
func ParseTransaction(s string) Transaction {
	switch t := Transaction(s); t {
	case TxPending, TxPaid, TxProcess, TxSuccess, TxFailed, TxRefund:
		return t
	}
	return TxUnknown
}

// ParseDeposit maps s to a known status by exact match.
func ParseDeposit(s string) Deposit {
	switch d := Deposit(s); d {
	case DepPending, DepSuccess, DepCancelled:
		return d
	}
	return DepUnknown
}

// Presentation is what a status looks like to the user.
type Presentation struct {
	Status         string `json:"status"`
	Tier           Tier   `json:"tier"`
	Label          string `json:"label"`
	Message        string `json:"message"`
	Terminal       bool   `json:"terminal"`
	RefreshAllowed bool   `json:"refresh_allowed"`
}

var transactionViews = map[Transaction]Presentation{
	TxPending: {Tier: TierNeutral, Label: "Pending", Message: "Your transaction is waiting for payment"},
	TxPaid:    {Tier: TierNeutral, Label: "Paid", Message: "Payment received, processing your order"},
	TxProcess: {Tier: TierNeutral, Label: "Processing", Message: "Your transaction is being processed"},
	TxSuccess: {Tier: TierPositive, Label: "Success", Message: "Your transaction completed successfully!", Terminal: true},
	TxFailed:  {Tier: TierNegative, Label: "Failed", Message: "Your transaction has failed", Terminal: true},
	TxRefund:  {Tier: TierNegative, Label: "Refunded", Message: "Your transaction has been refunded", Terminal: true},
}

var depositViews = map[Deposit]Presentation{
	DepPending:   {Tier: TierNeutral, Label: "Pending", Message: "Waiting for payment"},
	DepSuccess:   {Tier: TierPositive, Label: "Success", Message: "Deposit successful! Your balance has been updated", Terminal: true},
	DepCancelled: {Tier: TierNegative, Label: "Cancelled", Message: "Deposit cancelled", Terminal: true},
}

// ReduceTransaction presents an order status. Unknown strings are shown as
// is, in the neutral tier, with refresh still allowed.
func ReduceTransaction(s string) Presentation {
	p, ok := transactionViews[ParseTransaction(s)]
	if !ok {
		p = Presentation{Tier: TierNeutral, Label: s, Message: "Transaction status: " + s}
	}
	p.Status = s
	p.RefreshAllowed = !p.Terminal
	return p
}

// ReduceDeposit presents a deposit status.
func ReduceDeposit(s string) Presentation {
	p, ok := depositViews[ParseDeposit(s)]
	if !ok {
		p = Presentation{Tier: TierNeutral, Label: s, Message: "Deposit status: " + s}
	}
	p.Status = s
	p.RefreshAllowed = !p.Terminal
	return p
}

var transactionEdges = map[Transaction][]Transaction{
	TxPending: {TxPaid, TxFailed},
	TxPaid:    {TxProcess, TxFailed},
	TxProcess: {TxSuccess, TxFailed, TxRefund},
}

var depositEdges = map[Deposit][]Deposit{
	DepPending: {DepSuccess, DepCancelled},
}

// CanTransition reports whether an order may move from one status to
// another. Staying put is always allowed.
func CanTransition(from, to string) bool {
	f, t := ParseTransaction(from), ParseTransaction(to)
	if f == TxUnknown || t == TxUnknown {
		return false
	}
	if f == t {
		return true
	}
	for _, next := range transactionEdges[f] {
		if next == t {
			return true
		}
	}
	return false
}

// CanTransitionDeposit is CanTransition for deposits.
func CanTransitionDeposit(from, to string) bool {
	f, t := ParseDeposit(from), ParseDeposit(to)
	if f == DepUnknown || t == DepUnknown {
		return false
	}
	if f == t {
		return true
	}
	for _, next := range depositEdges[f] {
		if next == t {
			return true
		}
	}
	return false
}

// Short compresses a status for light output: pending→p, paid→pd,
// process→pr, success→s, failed→f, refund→r, cancelled→c.
func Short(s string) string {
	switch s {
	case "pending":
		return "p"
	case "paid":
		return "pd"
	case "process":
		return "pr"
	case "success":
		return "s"
	case "failed":
		return "f"
	case "refund":
		return "r"
	case "cancelled":
		return "c"
	default:
		return s
	}
}
