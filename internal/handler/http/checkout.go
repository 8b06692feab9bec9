package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/service"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/httputil"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/validator"
)

// CheckoutHandler handles HTTP requests for the checkout endpoint.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CheckoutRequest is the JSON request body for placing an order.
type CheckoutRequest struct {
	Nonce string            `json:"nonce" validate:"required"`
	Cart  []CartItemRequest `json:"cart" validate:"required,min=1,dive"`
}

// CartItemRequest is one cart line. The price is advisory: the server
// resolves the charged price from the catalog and only falls back to the
// client value when the product is missing.
type CartItemRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	Price     float64 `json:"price" validate:"gte=0"`
}

// --- Handlers ---

// Checkout handles POST /api/v1/checkout. Requires X-User-ID header.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-User-ID header is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CheckoutRequest
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

	cart := make([]service.CartItem, len(req.Cart))
	for i, item := range req.Cart {
		cart[i] = service.CartItem{
			ProductID: item.ProductID,
			Price:     item.Price,
		}
	}

	result, err := h.service.Checkout(r.Context(), userID, &service.CheckoutInput{
		Nonce: req.Nonce,
		Cart:  cart,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}
