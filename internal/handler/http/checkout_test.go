package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/gateway"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/service"
)

type checkoutMocks struct {
	offers   *mockOfferRepository
	products *mockProductRepository
	orders   *mockOrderRepository
	users    *mockUserRepository
	provider *mockGateway
	mail     *mockMailer
}

func testCheckoutHandler() (*CheckoutHandler, *checkoutMocks) {
	m := &checkoutMocks{
		offers:   new(mockOfferRepository),
		products: new(mockProductRepository),
		orders:   new(mockOrderRepository),
		users:    new(mockUserRepository),
		provider: new(mockGateway),
		mail:     new(mockMailer),
	}
	logger := testLogger()
	svc := service.NewCheckoutService(m.offers, m.products, m.orders, m.users, m.provider, m.mail, testEventProducer(), logger, "USD")
	return NewCheckoutHandler(svc, logger), m
}

// stubHappyPath wires catalog, charge, order, and best-effort sends for a
// single-product cart priced at 40.
func stubHappyPath(m *checkoutMocks) {
	m.products.On("GetByIDs", mock.Anything, []string{"prod-1"}).Return([]domain.Product{
		{ID: "prod-1", Price: 40},
	}, nil)
	m.provider.On("Charge", mock.Anything, mock.Anything).Return(&gateway.ChargeResult{
		TransactionID: "txn-1",
		Status:        gateway.StatusSucceeded,
	}, nil)
	m.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	m.users.On("ListAdminIDs", mock.Anything).Return([]string{}, nil)
	m.users.On("GetByID", mock.Anything, "user-1").Return(&domain.User{
		ID:    "user-1",
		Email: "buyer@example.com",
	}, nil)
	m.mail.On("Send", mock.Anything, mock.Anything).Return(nil)
}

func TestCheckout_Success(t *testing.T) {
	handler, m := testCheckoutHandler()
	router := setupRouter(nil, handler, nil)
	stubHappyPath(m)

	body := []byte(`{"nonce": "fake-nonce", "cart": [{"product_id": "prod-1", "price": 40}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["order_id"])
	assert.Equal(t, 40.0, data["total"])
	assert.Equal(t, true, data["email_sent"])
	m.orders.AssertExpectations(t)
	m.provider.AssertExpectations(t)
}

func TestCheckout_MissingUserHeader(t *testing.T) {
	handler, m := testCheckoutHandler()
	router := setupRouter(nil, handler, nil)

	body := []byte(`{"nonce": "fake-nonce", "cart": [{"product_id": "prod-1", "price": 40}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "X-User-ID")
	m.provider.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	handler, m := testCheckoutHandler()
	router := setupRouter(nil, handler, nil)

	body := []byte(`{"nonce": "fake-nonce", "cart": []}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	m.provider.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestCheckout_MissingNonceRejected(t *testing.T) {
	handler, m := testCheckoutHandler()
	router := setupRouter(nil, handler, nil)

	body := []byte(`{"cart": [{"product_id": "prod-1", "price": 40}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	m.provider.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestCheckout_PaymentFailureHidesGatewayDetail(t *testing.T) {
	handler, m := testCheckoutHandler()
	router := setupRouter(nil, handler, nil)

	m.products.On("GetByIDs", mock.Anything, []string{"prod-1"}).Return([]domain.Product{
		{ID: "prod-1", Price: 40},
	}, nil)
	m.provider.On("Charge", mock.Anything, mock.Anything).Return(&gateway.ChargeResult{
		TransactionID: "txn-1",
		Status:        gateway.StatusFailed,
		FailureReason: "card expired 2019-04",
	}, nil)

	body := []byte(`{"nonce": "fake-nonce", "cart": [{"product_id": "prod-1", "price": 40}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PAYMENT_FAILED", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "card expired")
	m.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_StampedDiscountApplied(t *testing.T) {
	handler, m := testCheckoutHandler()
	router := setupRouter(nil, handler, nil)

	now := time.Now().UTC()
	m.products.On("GetByIDs", mock.Anything, []string{"prod-1"}).Return([]domain.Product{
		{
			ID:            "prod-1",
			Price:         80,
			OriginalPrice: 100,
			OnSale:        true,
			Discount: &domain.DiscountSnapshot{
				Type:    domain.DiscountTypePercentage,
				Value:   20,
				OfferID: "offer-1",
			},
		},
	}, nil)
	m.offers.On("GetByIDs", mock.Anything, []string{"offer-1"}).Return([]domain.Offer{
		{
			ID:            "offer-1",
			DiscountType:  domain.DiscountTypePercentage,
			DiscountValue: 20,
			IsActive:      true,
			StartDate:     now.Add(-time.Hour),
			EndDate:       now.Add(time.Hour),
		},
	}, nil)
	m.offers.On("IncrementUsage", mock.Anything, "offer-1").Return(nil)
	m.provider.On("Charge", mock.Anything, mock.MatchedBy(func(in *gateway.ChargeInput) bool {
		return in.Amount == 80.0
	})).Return(&gateway.ChargeResult{TransactionID: "txn-1", Status: gateway.StatusSucceeded}, nil)
	m.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)
	m.users.On("ListAdminIDs", mock.Anything).Return([]string{}, nil)
	m.users.On("GetByID", mock.Anything, "user-1").Return(&domain.User{ID: "user-1", Email: "buyer@example.com"}, nil)
	m.mail.On("Send", mock.Anything, mock.Anything).Return(nil)

	body := []byte(`{"nonce": "fake-nonce", "cart": [{"product_id": "prod-1", "price": 999}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 80.0, data["total"])
	m.offers.AssertExpectations(t)
	m.provider.AssertExpectations(t)
}
