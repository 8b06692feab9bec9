package domain

import "time"

// DiscountSnapshot is the point-in-time copy of an offer's terms stamped
// onto a product. It is a denormalized hint, not ground truth: the owning
// offer may have been deactivated since the stamp was written, so readers
// must re-check the offer's validity before honoring it.
type DiscountSnapshot struct {
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	OfferID   string    `json:"offer_id"`
	AppliedAt time.Time `json:"applied_at"`
}

// Product is the discount-relevant subset of a catalog product. The
// discount service exclusively owns writes to Price, Discount, OnSale,
// and SaleEndDate; all other fields belong to catalog management.
type Product struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	CategoryID    string            `json:"category_id"`
	Price         float64           `json:"price"`
	OriginalPrice float64           `json:"original_price"`
	Discount      *DiscountSnapshot `json:"discount,omitempty"`
	OnSale        bool              `json:"on_sale"`
	SaleEndDate   *time.Time        `json:"sale_end_date,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// BasePrice returns the price before any discount stamping. Products created
// before original_price was tracked fall back to the current price.
func (p *Product) BasePrice() float64 {
	if p.OriginalPrice > 0 {
		return p.OriginalPrice
	}
	return p.Price
}
