package gateway

import (
	"context"
	"math"
)

// ChargeInput holds the parameters for charging a payment. Nonce is the
// single-use payment method token collected by the client.
type ChargeInput struct {
	Nonce       string
	Amount      float64
	Currency    string
	Description string
	Metadata    map[string]any
}

// ChargeResult holds the result of a charge operation from the payment provider.
type ChargeResult struct {
	TransactionID string
	Status        string // "succeeded" or "failed"
	FailureReason string
}

// Charge statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Provider defines the interface for payment provider integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "rest").
	Name() string

	// Charge processes a payment charge through the provider.
	Charge(ctx context.Context, input *ChargeInput) (*ChargeResult, error)
}

// RoundAmount rounds a charge amount to two decimal places, the precision
// payment providers accept.
func RoundAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}
