package domain

import "time"

// Discount type constants.
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Offer represents a time-bounded, optionally-scoped discount definition.
// An offer with empty ApplicableProducts and ApplicableCategories is
// unscoped and applies to everything.
type Offer struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Slug                 string     `json:"slug"`
	Description          string     `json:"description"`
	DiscountType         string     `json:"discount_type"`
	DiscountValue        float64    `json:"discount_value"`
	ApplicableProducts   []string   `json:"applicable_products"`
	ApplicableCategories []string   `json:"applicable_categories"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              time.Time  `json:"end_date"`
	IsActive             bool       `json:"is_active"`
	UsageLimit           *int       `json:"usage_limit"`
	UsedCount            int        `json:"used_count"`
	MinPurchaseAmount    float64    `json:"min_purchase_amount"`
	MaxDiscountAmount    *float64   `json:"max_discount_amount"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// ValidDiscountTypes returns the set of valid discount types.
func ValidDiscountTypes() []string {
	return []string{DiscountTypePercentage, DiscountTypeFixed}
}

// IsValidDiscountType checks whether the given type string is a valid discount type.
func IsValidDiscountType(t string) bool {
	for _, v := range ValidDiscountTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// IsValidAt reports whether the offer applies at the given instant.
// The predicate must be evaluated fresh on every read; callers must not
// cache the result past the check instant.
func (o *Offer) IsValidAt(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	if now.Before(o.StartDate) || now.After(o.EndDate) {
		return false
	}
	if o.UsageLimit != nil && o.UsedCount >= *o.UsageLimit {
		return false
	}
	return true
}

// DiscountAmount computes the discount for the given original price.
// Percentage offers take value% of the price; fixed offers take the value
// itself. The result is capped by MaxDiscountAmount when set, then bounded
// to [0, originalPrice] so a fixed discount larger than the item price can
// never produce a negative price. The cap-then-bound order is significant.
func (o *Offer) DiscountAmount(originalPrice float64) float64 {
	var amount float64
	switch o.DiscountType {
	case DiscountTypePercentage:
		amount = originalPrice * o.DiscountValue / 100
	case DiscountTypeFixed:
		amount = o.DiscountValue
	default:
		return 0
	}

	if o.MaxDiscountAmount != nil && amount > *o.MaxDiscountAmount {
		amount = *o.MaxDiscountAmount
	}
	if amount > originalPrice {
		amount = originalPrice
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}
