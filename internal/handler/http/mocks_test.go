package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/event"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/gateway"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/mailer"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/repository"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/service"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/httputil"
	pkgkafka "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/kafka"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockOfferRepository struct {
	mock.Mock
}

func (m *mockOfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *mockOfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *mockOfferRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Offer, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Offer), args.Error(1)
}

func (m *mockOfferRepository) List(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Offer), args.Int(1), args.Error(2)
}

func (m *mockOfferRepository) Update(ctx context.Context, offer *domain.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *mockOfferRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOfferRepository) IncrementUsage(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) ListIDsByCategories(ctx context.Context, categoryIDs []string) ([]string, error) {
	args := m.Called(ctx, categoryIDs)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockProductRepository) ListIDsByOffer(ctx context.Context, offerID string) ([]string, error) {
	args := m.Called(ctx, offerID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockProductRepository) StampDiscount(ctx context.Context, productID string, snap domain.DiscountSnapshot, price float64, saleEndDate time.Time) error {
	args := m.Called(ctx, productID, snap, price, saleEndDate)
	return args.Error(0)
}

func (m *mockProductRepository) ClearDiscount(ctx context.Context, productID, offerID string) error {
	args := m.Called(ctx, productID, offerID)
	return args.Error(0)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) ListPaidBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]domain.Order), args.Error(1)
}

type mockCategoryRepository struct {
	mock.Mock
}

func (m *mockCategoryRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Category, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Category), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) ListAdminIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) Charge(ctx context.Context, input *gateway.ChargeInput) (*gateway.ChargeResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.ChargeResult), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Name() string { return "mock" }

func (m *mockMailer) Send(ctx context.Context, msg *mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEventProducer builds a producer pointed at no real broker. Publishing
// fails; the services log and continue.
func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func testOfferHandler(offers *mockOfferRepository, products *mockProductRepository) *OfferHandler {
	logger := testLogger()
	discounts := service.NewDiscountService(products, logger)
	svc := service.NewOfferService(offers, discounts, testEventProducer(), logger)
	return NewOfferHandler(svc, logger)
}

// setupRouter creates a chi router matching production route layout.
func setupRouter(offer *OfferHandler, checkout *CheckoutHandler, analytics *AnalyticsHandler) *chi.Mux {
	r := chi.NewRouter()
	if offer != nil {
		r.Route("/api/v1/offers", func(r chi.Router) {
			r.Post("/", offer.CreateOffer)
			r.Get("/", offer.ListOffers)
			r.Get("/{id}", offer.GetOffer)
			r.Put("/{id}", offer.UpdateOffer)
			r.Delete("/{id}", offer.DeleteOffer)
			r.Post("/{id}/apply", offer.ApplyOffer)
			r.Post("/{id}/remove", offer.RemoveOffer)
		})
	}
	if checkout != nil {
		r.Post("/api/v1/checkout", checkout.Checkout)
	}
	if analytics != nil {
		r.Route("/api/v1/analytics", func(r chi.Router) {
			r.Get("/summary", analytics.Summary)
			r.Get("/timeseries", analytics.TimeSeries)
			r.Get("/top-products", analytics.TopProducts)
			r.Get("/top-categories", analytics.TopCategories)
		})
	}
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func floatPtr(f float64) *float64 { return &f }
