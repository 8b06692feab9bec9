package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/service"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/health"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/middleware"
)

// NewRouter creates a chi router with all pricing service routes registered.
func NewRouter(
	offerService *service.OfferService,
	checkoutService *service.CheckoutService,
	analyticsService *service.AnalyticsService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("pricing"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	offerHandler := NewOfferHandler(offerService, logger)
	checkoutHandler := NewCheckoutHandler(checkoutService, logger)
	analyticsHandler := NewAnalyticsHandler(analyticsService, logger)

	r.Route("/api/v1/offers", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", offerHandler.CreateOffer)
		r.Get("/", offerHandler.ListOffers)

		r.Get("/{id}", offerHandler.GetOffer)
		r.Put("/{id}", offerHandler.UpdateOffer)
		r.Delete("/{id}", offerHandler.DeleteOffer)
		r.Post("/{id}/apply", offerHandler.ApplyOffer)
		r.Post("/{id}/remove", offerHandler.RemoveOffer)
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", checkoutHandler.Checkout)
	})

	r.Route("/api/v1/analytics", func(r chi.Router) {
		// Reports are eventually consistent; let intermediaries hold them
		// for a minute.
		r.Use(middleware.CacheControl(60))

		r.Get("/summary", analyticsHandler.Summary)
		r.Get("/timeseries", analyticsHandler.TimeSeries)
		r.Get("/top-products", analyticsHandler.TopProducts)
		r.Get("/top-categories", analyticsHandler.TopCategories)
	})

	return r
}
