// Package billing talks to the payment gateway: it creates remote orders
// (payment intents) and verifies the signatures the checkout widget returns.
package billing

import (
	"context"
	"math"
	"time"
)

// CurrencyINR is the only currency the store charges in.
const CurrencyINR = "INR"

// Provider is a payment gateway.
type Provider interface {
	// KeyID is the public key the browser checkout widget needs.
	KeyID() string

	// Configured reports whether both key id and secret are present.
	Configured() bool

	// CreateOrder creates a remote order for the given amount.
	// Returns ErrNotConfigured when credentials are missing and a
	// *GatewayError for upstream failures.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*RemoteOrder, error)

	// VerifyPaymentSignature checks the signature the gateway issued for a
	// completed payment. Returns ErrInvalidSignature on mismatch and
	// ErrNotConfigured when the secret is missing.
	VerifyPaymentSignature(remoteOrderID, paymentID, signature string) error

	// ExpectedSignature returns the signature the gateway would issue for a
	// payment, for driving the checkout flow without the browser widget.
	// Returns ErrNotConfigured when the secret is missing.
	ExpectedSignature(remoteOrderID, paymentID string) (string, error)
}

// CreateOrderParams describes a remote order.
type CreateOrderParams struct {
	// AmountMinor is in the currency's minor unit (paise).
	AmountMinor int64
	Currency    string

	// Receipt is our local order id.
	Receipt string

	Notes map[string]string
}

// RemoteOrder is the gateway's view of a created order.
type RemoteOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
	CreatedAt   time.Time
}

// RupeesToPaise converts whole rupees to paise. Returns ErrInvalidAmount
// when the result would not fit in an int64.
func RupeesToPaise(rupees int64) (int64, error) {
	if rupees > math.MaxInt64/100 || rupees < math.MinInt64/100 {
		return 0, ErrInvalidAmount
	}
	return rupees * 100, nil
}
