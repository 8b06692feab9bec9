// Package rest implements the payment provider interface against an
// HTTP-based payment processor. The processor exposes a single
// POST /transactions endpoint that settles a nonce for an amount.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/gateway"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/httpclient"
)

// Provider charges payments through a remote REST payment processor.
type Provider struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

// NewProvider creates a REST payment provider.
func NewProvider(baseURL, apiKey string, timeout time.Duration) *Provider {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = timeout
	return &Provider{
		client:  httpclient.New(cfg),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "rest"
}

type chargeRequest struct {
	PaymentMethodNonce string  `json:"payment_method_nonce"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	Description        string  `json:"description,omitempty"`
}

type chargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Charge settles the nonce against the remote processor. The amount is
// rounded to two decimals before it leaves the process.
func (p *Provider) Charge(ctx context.Context, input *gateway.ChargeInput) (*gateway.ChargeResult, error) {
	body, err := json.Marshal(chargeRequest{
		PaymentMethodNonce: input.Nonce,
		Amount:             gateway.RoundAmount(input.Amount),
		Currency:           input.Currency,
		Description:        input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("charge request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("charge request returned status %d: %s", resp.StatusCode, respBody)
	}

	var chargeResp chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&chargeResp); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}

	return &gateway.ChargeResult{
		TransactionID: chargeResp.TransactionID,
		Status:        chargeResp.Status,
		FailureReason: chargeResp.FailureReason,
	}, nil
}
