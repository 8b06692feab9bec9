package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/gateway"
)

func TestProvider_Charge_Success(t *testing.T) {
	var gotReq chargeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(chargeResponse{
			TransactionID: "txn-123",
			Status:        gateway.StatusSucceeded,
		})
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "test-key", 5*time.Second)

	result, err := p.Charge(context.Background(), &gateway.ChargeInput{
		Nonce:    "nonce-abc",
		Amount:   190.006,
		Currency: "USD",
	})
	require.NoError(t, err)

	assert.Equal(t, "txn-123", result.TransactionID)
	assert.Equal(t, gateway.StatusSucceeded, result.Status)
	assert.Equal(t, "nonce-abc", gotReq.PaymentMethodNonce)
	// Amounts are rounded to two decimals before leaving the process.
	assert.InDelta(t, 190.01, gotReq.Amount, 1e-9)
}

func TestProvider_Charge_Declined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chargeResponse{
			TransactionID: "txn-456",
			Status:        gateway.StatusFailed,
			FailureReason: "card declined",
		})
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "test-key", 5*time.Second)

	result, err := p.Charge(context.Background(), &gateway.ChargeInput{Nonce: "n", Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusFailed, result.Status)
	assert.Equal(t, "card declined", result.FailureReason)
}

func TestProvider_Charge_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "test-key", 5*time.Second)

	result, err := p.Charge(context.Background(), &gateway.ChargeInput{Nonce: "n", Amount: 10})
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 501")
}

func TestRoundAmount(t *testing.T) {
	assert.InDelta(t, 190.01, gateway.RoundAmount(190.006), 1e-9)
	assert.InDelta(t, 0.1, gateway.RoundAmount(0.1), 1e-9)
	assert.InDelta(t, 99.99, gateway.RoundAmount(99.994), 1e-9)
}
