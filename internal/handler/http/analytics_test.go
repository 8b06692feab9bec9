package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/service"
)

type analyticsMocks struct {
	orders     *mockOrderRepository
	products   *mockProductRepository
	categories *mockCategoryRepository
}

func testAnalyticsHandler() (*AnalyticsHandler, *analyticsMocks) {
	m := &analyticsMocks{
		orders:     new(mockOrderRepository),
		products:   new(mockProductRepository),
		categories: new(mockCategoryRepository),
	}
	logger := testLogger()
	svc := service.NewAnalyticsService(m.orders, m.products, m.categories, nil, logger)
	return NewAnalyticsHandler(svc, logger), m
}

func paidTestOrder(created time.Time) domain.Order {
	return domain.Order{
		ID:             "order-1",
		UserID:         "user-1",
		ProductIDs:     []string{"prod-1"},
		Items:          []domain.OrderLine{{ProductID: "prod-1", Price: 25}},
		TotalAmount:    25,
		PaymentSuccess: true,
		CreatedAt:      created,
	}
}

func TestAnalyticsSummary_Success(t *testing.T) {
	handler, m := testAnalyticsHandler()
	router := setupRouter(nil, nil, handler)

	created, _ := time.Parse(time.RFC3339, "2024-03-10T12:00:00Z")
	m.orders.On("ListPaidBetween", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Order{paidTestOrder(created)}, nil)
	m.products.On("GetByIDs", mock.Anything, []string{"prod-1"}).Return([]domain.Product{
		{ID: "prod-1", Name: "Mug", Price: 25, CategoryID: "cat-1"},
	}, nil)
	m.categories.On("GetByIDs", mock.Anything, []string{"cat-1"}).Return([]domain.Category{
		{ID: "cat-1", Name: "Kitchen"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary?start=2024-03-01T00:00:00Z&end=2024-03-31T00:00:00Z", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["total_orders"])
	assert.Equal(t, float64(1), data["items_sold"])
	assert.Equal(t, 25.0, data["total_revenue"])
}

func TestAnalyticsSummary_InvalidStart(t *testing.T) {
	handler, m := testAnalyticsHandler()
	router := setupRouter(nil, nil, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary?start=march", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "start must be a valid RFC3339 timestamp")
	m.orders.AssertNotCalled(t, "ListPaidBetween", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyticsSummary_StartAfterEnd(t *testing.T) {
	handler, _ := testAnalyticsHandler()
	router := setupRouter(nil, nil, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary?start=2024-03-31T00:00:00Z&end=2024-03-01T00:00:00Z", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestAnalyticsTimeSeries_GranularityPassedThrough(t *testing.T) {
	handler, m := testAnalyticsHandler()
	router := setupRouter(nil, nil, handler)

	created, _ := time.Parse(time.RFC3339, "2024-01-03T09:00:00Z")
	m.orders.On("ListPaidBetween", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Order{paidTestOrder(created)}, nil)
	m.products.On("GetByIDs", mock.Anything, []string{"prod-1"}).Return([]domain.Product{
		{ID: "prod-1", Name: "Mug", Price: 25},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/timeseries?granularity=weekly&start=2024-01-01T00:00:00Z&end=2024-01-31T00:00:00Z", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "weekly", data["granularity"])

	points, ok := data["points"].([]any)
	require.True(t, ok)
	require.Len(t, points, 1)
	point := points[0].(map[string]any)
	assert.Equal(t, "2024-W01", point["period"])
}

func TestAnalyticsTimeSeries_InvalidGranularity(t *testing.T) {
	handler, _ := testAnalyticsHandler()
	router := setupRouter(nil, nil, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/timeseries?granularity=hourly", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestAnalyticsTopProducts_Success(t *testing.T) {
	handler, m := testAnalyticsHandler()
	router := setupRouter(nil, nil, handler)

	created, _ := time.Parse(time.RFC3339, "2024-03-10T12:00:00Z")
	m.orders.On("ListPaidBetween", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Order{paidTestOrder(created)}, nil)
	m.products.On("GetByIDs", mock.Anything, []string{"prod-1"}).Return([]domain.Product{
		{ID: "prod-1", Name: "Mug", Price: 25},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/top-products?limit=5&start=2024-03-01T00:00:00Z&end=2024-03-31T00:00:00Z", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	stats, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, stats, 1)
	stat := stats[0].(map[string]any)
	assert.Equal(t, "prod-1", stat["product_id"])
	assert.Equal(t, "Mug", stat["name"])
}

func TestAnalyticsTopProducts_NonIntegerLimit(t *testing.T) {
	handler, m := testAnalyticsHandler()
	router := setupRouter(nil, nil, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/top-products?limit=many", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "limit must be an integer")
	m.orders.AssertNotCalled(t, "ListPaidBetween", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyticsTopCategories_UnknownFallback(t *testing.T) {
	handler, m := testAnalyticsHandler()
	router := setupRouter(nil, nil, handler)

	created, _ := time.Parse(time.RFC3339, "2024-03-10T12:00:00Z")
	order := paidTestOrder(created)
	order.ProductIDs = []string{"prod-gone"}
	order.Items = []domain.OrderLine{{ProductID: "prod-gone", Price: 10}}

	m.orders.On("ListPaidBetween", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Order{order}, nil)
	m.products.On("GetByIDs", mock.Anything, []string{"prod-gone"}).Return([]domain.Product{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/top-categories?start=2024-03-01T00:00:00Z&end=2024-03-31T00:00:00Z", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	stats, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, stats, 1)
	stat := stats[0].(map[string]any)
	assert.Equal(t, "Unknown", stat["name"])
}
