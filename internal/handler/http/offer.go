package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/repository"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/service"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/httputil"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/pagination"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/validator"
)

// OfferHandler handles HTTP requests for offer endpoints.
type OfferHandler struct {
	service *service.OfferService
	logger  *slog.Logger
}

// NewOfferHandler creates a new offer HTTP handler.
func NewOfferHandler(svc *service.OfferService, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateOfferRequest is the JSON request body for creating an offer.
type CreateOfferRequest struct {
	Name                 string   `json:"name" validate:"required,min=2,max=200"`
	Description          string   `json:"description" validate:"required"`
	DiscountType         string   `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue        float64  `json:"discount_value" validate:"required,gt=0"`
	ApplicableProducts   []string `json:"applicable_products"`
	ApplicableCategories []string `json:"applicable_categories"`
	StartDate            string   `json:"start_date" validate:"required"`
	EndDate              string   `json:"end_date" validate:"required"`
	IsActive             *bool    `json:"is_active"`
	UsageLimit           *int     `json:"usage_limit" validate:"omitempty,gt=0"`
	MinPurchaseAmount    float64  `json:"min_purchase_amount" validate:"gte=0"`
	MaxDiscountAmount    *float64 `json:"max_discount_amount" validate:"omitempty,gt=0"`
}

// UpdateOfferRequest is the JSON request body for updating an offer. All
// fields are optional; absent fields keep their stored value.
type UpdateOfferRequest struct {
	Name                 *string  `json:"name" validate:"omitempty,min=2,max=200"`
	Description          *string  `json:"description"`
	DiscountType         *string  `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue        *float64 `json:"discount_value" validate:"omitempty,gt=0"`
	ApplicableProducts   []string `json:"applicable_products"`
	ApplicableCategories []string `json:"applicable_categories"`
	StartDate            *string  `json:"start_date"`
	EndDate              *string  `json:"end_date"`
	IsActive             *bool    `json:"is_active"`
	UsageLimit           *int     `json:"usage_limit" validate:"omitempty,gt=0"`
	MinPurchaseAmount    *float64 `json:"min_purchase_amount" validate:"omitempty,gte=0"`
	MaxDiscountAmount    *float64 `json:"max_discount_amount" validate:"omitempty,gt=0"`
}

// RemoveOfferRequest is the JSON request body for stripping an offer's
// stamps. An empty product list means every product the offer touched.
type RemoveOfferRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// applyResult reports how many products an apply or remove touched.
type applyResult struct {
	OfferID  string `json:"offer_id"`
	Products int    `json:"products"`
}

// --- Handlers ---

// CreateOffer handles POST /api/v1/offers
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	startDate, endDate, ok := h.parseDates(w, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	input := &service.CreateOfferInput{
		Name:                 req.Name,
		Description:          req.Description,
		DiscountType:         req.DiscountType,
		DiscountValue:        req.DiscountValue,
		ApplicableProducts:   req.ApplicableProducts,
		ApplicableCategories: req.ApplicableCategories,
		StartDate:            startDate,
		EndDate:              endDate,
		IsActive:             req.IsActive,
		UsageLimit:           req.UsageLimit,
		MinPurchaseAmount:    req.MinPurchaseAmount,
		MaxDiscountAmount:    req.MaxDiscountAmount,
	}

	offer, err := h.service.CreateOffer(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: offer})
}

// GetOffer handles GET /api/v1/offers/{id}
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "offer id is required"},
		})
		return
	}

	offer, err := h.service.GetOffer(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: offer})
}

// ListOffers handles GET /api/v1/offers
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	filter := repository.OfferFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	if activeStr := r.URL.Query().Get("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "active must be true or false"},
			})
			return
		}
		filter.Active = &active
	}

	offers, total, err := h.service.ListOffers(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(offers, total, params))
}

// UpdateOffer handles PUT /api/v1/offers/{id}
func (h *OfferHandler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "offer id is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req UpdateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateOfferInput{
		Name:                 req.Name,
		Description:          req.Description,
		DiscountType:         req.DiscountType,
		DiscountValue:        req.DiscountValue,
		ApplicableProducts:   req.ApplicableProducts,
		ApplicableCategories: req.ApplicableCategories,
		IsActive:             req.IsActive,
		UsageLimit:           req.UsageLimit,
		MinPurchaseAmount:    req.MinPurchaseAmount,
		MaxDiscountAmount:    req.MaxDiscountAmount,
	}

	if req.StartDate != nil {
		t, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			h.writeDateError(w, "start_date")
			return
		}
		input.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			h.writeDateError(w, "end_date")
			return
		}
		input.EndDate = &t
	}

	offer, err := h.service.UpdateOffer(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: offer})
}

// DeleteOffer handles DELETE /api/v1/offers/{id}
func (h *OfferHandler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "offer id is required"},
		})
		return
	}

	if err := h.service.DeleteOffer(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// ApplyOffer handles POST /api/v1/offers/{id}/apply
func (h *OfferHandler) ApplyOffer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "offer id is required"},
		})
		return
	}

	applied, err := h.service.ApplyOffer(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: applyResult{OfferID: id, Products: applied},
	})
}

// RemoveOffer handles POST /api/v1/offers/{id}/remove
func (h *OfferHandler) RemoveOffer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "offer id is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	// The body is optional; an absent or empty product list means the
	// offer's entire stamped scope.
	var req RemoveOfferRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
			})
			return
		}
	}

	cleared, err := h.service.RemoveOffer(r.Context(), id, req.ProductIDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: applyResult{OfferID: id, Products: cleared},
	})
}

// --- Helpers ---

func (h *OfferHandler) parseDates(w http.ResponseWriter, start, end string) (time.Time, time.Time, bool) {
	startDate, err := time.Parse(time.RFC3339, start)
	if err != nil {
		h.writeDateError(w, "start_date")
		return time.Time{}, time.Time{}, false
	}

	endDate, err := time.Parse(time.RFC3339, end)
	if err != nil {
		h.writeDateError(w, "end_date")
		return time.Time{}, time.Time{}, false
	}

	return startDate, endDate, true
}

func (h *OfferHandler) writeDateError(w http.ResponseWriter, field string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:    "INVALID_INPUT",
			Message: field + " must be a valid RFC3339 timestamp",
		},
	})
}
