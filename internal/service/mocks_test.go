package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/event"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/gateway"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/mailer"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/repository"
	pkgkafka "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/kafka"
)

// --- Mock Repositories ---

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

// --- Mock Gateway / Mailer ---

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

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestProducer builds an event producer pointed at no real broker.
// Publishing fails; the services log and continue.
func newTestProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }
