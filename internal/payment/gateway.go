// Package payment talks to the online payment gateway and verifies its payment signatures.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// GatewayOrder is the gateway-side order a customer pays against.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// Gateway creates gateway orders for an amount in major currency units.
type Gateway interface {
	CreateOrder(ctx context.Context, receipt string, amount decimal.Decimal, currency string) (GatewayOrder, error)
}

// Verifier checks that a payment confirmation was issued by the gateway.
type Verifier interface {
	Verify(gatewayOrderID, paymentID, signature string) error
}

// MinorUnits converts an amount to the smallest currency unit (paise for INR).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
