package mock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/gateway"
)

// Provider is a mock payment provider that always succeeds.
// It is intended for development and testing purposes.
type Provider struct{}

// NewProvider creates a new mock payment provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// Charge simulates a payment charge that always succeeds.
func (p *Provider) Charge(_ context.Context, _ *gateway.ChargeInput) (*gateway.ChargeResult, error) {
	// Simulate a small processing delay.
	time.Sleep(50 * time.Millisecond)

	return &gateway.ChargeResult{
		TransactionID: "mock_txn_" + uuid.New().String(),
		Status:        gateway.StatusSucceeded,
	}, nil
}
