package repository

import (
	"context"
	"time"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
)

// OfferFilter defines filter criteria for listing offers.
type OfferFilter struct {
	Active  *bool
	Page    int
	PerPage int
}

// OfferRepository defines the interface for offer persistence operations.
type OfferRepository interface {
	// Create inserts a new offer into the store.
	Create(ctx context.Context, offer *domain.Offer) error

	// GetByID retrieves an offer by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Offer, error)

	// GetByIDs retrieves all offers matching the given ids. Missing ids are
	// silently skipped.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Offer, error)

	// List returns offers matching the given filter along with the total count.
	List(ctx context.Context, filter OfferFilter) ([]domain.Offer, int, error)

	// Update modifies an existing offer in the store.
	Update(ctx context.Context, offer *domain.Offer) error

	// Delete removes an offer by its id.
	Delete(ctx context.Context, id string) error

	// IncrementUsage atomically increments the used_count of an offer.
	IncrementUsage(ctx context.Context, id string) error
}

// ProductRepository covers the discount-relevant product operations. Catalog
// CRUD lives elsewhere.
type ProductRepository interface {
	// GetByIDs retrieves products by id. Missing ids are silently skipped.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)

	// ListIDsByCategories returns the ids of all products in the given categories.
	ListIDsByCategories(ctx context.Context, categoryIDs []string) ([]string, error)

	// ListIDsByOffer returns the ids of all products currently stamped with
	// the given offer's discount snapshot.
	ListIDsByOffer(ctx context.Context, offerID string) ([]string, error)

	// StampDiscount overwrites the product's discount snapshot, sale flags,
	// and customer-visible price in one write. The write is a full overwrite
	// so re-stamping is idempotent.
	StampDiscount(ctx context.Context, productID string, snap domain.DiscountSnapshot, price float64, saleEndDate time.Time) error

	// ClearDiscount removes the discount snapshot and restores the original
	// price, but only when the product's snapshot still references offerID.
	// Products stamped by a different offer are left untouched.
	ClearDiscount(ctx context.Context, productID, offerID string) error
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts an order and its line items atomically.
	Create(ctx context.Context, order *domain.Order) error

	// ListPaidBetween returns orders with a successful payment created within
	// [start, end], ordered ascending by creation time.
	ListPaidBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error)
}

// CategoryRepository resolves category identities for reporting.
type CategoryRepository interface {
	// GetByIDs retrieves categories by id. Missing ids are silently skipped.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Category, error)
}

// UserRepository exposes the minimal account reads this core needs.
type UserRepository interface {
	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// ListAdminIDs returns the ids of all administrator accounts.
	ListAdminIDs(ctx context.Context) ([]string, error)
}
