package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/service"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/httputil"
)

// AnalyticsHandler handles HTTP requests for sales report endpoints.
type AnalyticsHandler struct {
	service *service.AnalyticsService
	logger  *slog.Logger
}

// NewAnalyticsHandler creates a new analytics HTTP handler.
func NewAnalyticsHandler(svc *service.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: svc,
		logger:  logger,
	}
}

// Summary handles GET /api/v1/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	report, err := h.service.Summary(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// TimeSeries handles GET /api/v1/analytics/timeseries
func (h *AnalyticsHandler) TimeSeries(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	report, err := h.service.TimeSeries(r.Context(), q, r.URL.Query().Get("granularity"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// TopProducts handles GET /api/v1/analytics/top-products
func (h *AnalyticsHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	stats, err := h.service.TopProducts(r.Context(), q, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// TopCategories handles GET /api/v1/analytics/top-categories
func (h *AnalyticsHandler) TopCategories(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	stats, err := h.service.TopCategories(r.Context(), q, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// --- Helpers ---

// parseRange reads the optional start and end query parameters. Absent
// bounds are left nil and defaulted by the service.
func (h *AnalyticsHandler) parseRange(w http.ResponseWriter, r *http.Request) (service.RangeQuery, bool) {
	var q service.RangeQuery

	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.writeParamError(w, "start must be a valid RFC3339 timestamp")
			return q, false
		}
		q.Start = &t
	}

	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			h.writeParamError(w, "end must be a valid RFC3339 timestamp")
			return q, false
		}
		q.End = &t
	}

	return q, true
}

func (h *AnalyticsHandler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, true
	}

	limit, err := strconv.Atoi(s)
	if err != nil {
		h.writeParamError(w, "limit must be an integer")
		return 0, false
	}

	return limit, true
}

func (h *AnalyticsHandler) writeParamError(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: message},
	})
}
