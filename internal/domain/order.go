package domain

import "time"

// Order status constants.
const (
	OrderStatusNotProcessed = "not_processed"
	OrderStatusProcessing   = "processing"
	OrderStatusShipped      = "shipped"
	OrderStatusDelivered    = "delivered"
	OrderStatusCanceled     = "canceled"
)

// OrderLine records what was actually charged for one cart entry. Price is
// fixed at creation time and never recomputed, regardless of later offer or
// catalog changes. PriceFallback marks lines priced from the client-asserted
// value because the product could not be resolved server-side; such lines
// are auditable as untrusted.
type OrderLine struct {
	ProductID     string  `json:"product_id"`
	Price         float64 `json:"price"`
	PriceFallback bool    `json:"price_fallback"`
}

// Order represents a customer order. ProductIDs preserves the raw cart
// contents including duplicates; Items carries one line per cart entry with
// the charged price.
type Order struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	ProductIDs     []string    `json:"product_ids"`
	Items          []OrderLine `json:"items"`
	PaymentID      string      `json:"payment_id"`
	PaymentSuccess bool        `json:"payment_success"`
	Status         string      `json:"status"`
	TotalAmount    float64     `json:"total_amount"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Revenue returns the sum of charged line prices.
func (o *Order) Revenue() float64 {
	var sum float64
	for _, item := range o.Items {
		sum += item.Price
	}
	return sum
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusNotProcessed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCanceled,
	}
}

// AllowedTransitions defines which status transitions are valid.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusNotProcessed: {OrderStatusProcessing, OrderStatusCanceled},
		OrderStatusProcessing:   {OrderStatusShipped, OrderStatusCanceled},
		OrderStatusShipped:      {OrderStatusDelivered},
		OrderStatusDelivered:    {},
		OrderStatusCanceled:     {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
