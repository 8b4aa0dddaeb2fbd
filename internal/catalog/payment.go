package catalog

import (
	"fmt"
	"strings"
)

// PaymentMethod is a top-up payment option.
type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// DefaultPaymentMethod is the only method the backend settles.
const DefaultPaymentMethod = "qris"

var paymentMethods = []PaymentMethod{
	{ID: "qris", Name: "QRIS", Description: "Bayar dengan scan QR Code", Available: true},
	{ID: "gopay", Name: "GoPay", Description: "Bayar dengan GoPay"},
	{ID: "dana", Name: "DANA", Description: "Bayar dengan DANA"},
	{ID: "ovo", Name: "OVO", Description: "Bayar dengan OVO"},
}

// PaymentMethods lists every method, available or not.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

// LookupPaymentMethod returns the available method with the given id.
func LookupPaymentMethod(id string) (PaymentMethod, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, m := range paymentMethods {
		if m.ID != id {
			continue
		}
		if !m.Available {
			return PaymentMethod{}, fmt.Errorf("payment method %q is not available yet", m.Name)
		}
		return m, nil
	}
	return PaymentMethod{}, fmt.Errorf("unknown payment method %q", id)
}
