package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/repository"
)

// DiscountService stamps offer discount snapshots onto product rows and
// strips them again. Stamps are denormalized hints for catalog browsing;
// checkout re-validates the owning offer before honoring one.
type DiscountService struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewDiscountService creates a new discount application service.
func NewDiscountService(products repository.ProductRepository, logger *slog.Logger) *DiscountService {
	return &DiscountService{
		products: products,
		logger:   logger,
	}
}

// ResolveScope returns the product ids the offer's discount should be
// stamped onto: the explicitly listed products plus every product in the
// listed categories. An offer with neither list is unscoped and stamps
// nothing; its discount only takes effect at checkout-time validation.
func (s *DiscountService) ResolveScope(ctx context.Context, offer *domain.Offer) ([]string, error) {
	seen := make(map[string]struct{}, len(offer.ApplicableProducts))
	ids := make([]string, 0, len(offer.ApplicableProducts))

	for _, id := range offer.ApplicableProducts {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(offer.ApplicableCategories) > 0 {
		categoryIDs, err := s.products.ListIDsByCategories(ctx, offer.ApplicableCategories)
		if err != nil {
			return nil, fmt.Errorf("resolve category scope: %w", err)
		}
		for _, id := range categoryIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// ApplyOffer stamps the offer's discount snapshot onto every given product.
// Each product gets an independent full-overwrite write, so the operation is
// idempotent and a partial failure is repaired by simply re-applying. Every
// product is attempted; the first error is returned at the end. The count of
// successfully stamped products is returned either way.
func (s *DiscountService) ApplyOffer(ctx context.Context, offer *domain.Offer, productIDs []string) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return 0, fmt.Errorf("fetch products for stamping: %w", err)
	}

	now := time.Now().UTC()
	snap := domain.DiscountSnapshot{
		Type:      offer.DiscountType,
		Value:     offer.DiscountValue,
		OfferID:   offer.ID,
		AppliedAt: now,
	}

	var (
		applied  int
		firstErr error
	)

	for i := range products {
		p := &products[i]
		base := p.BasePrice()
		price := base - offer.DiscountAmount(base)

		if err := s.products.StampDiscount(ctx, p.ID, snap, price, offer.EndDate); err != nil {
			s.logger.ErrorContext(ctx, "failed to stamp discount",
				slog.String("offer_id", offer.ID),
				slog.String("product_id", p.ID),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("stamp product %s: %w", p.ID, err)
			}
			continue
		}
		applied++
	}

	s.logger.InfoContext(ctx, "offer discount applied",
		slog.String("offer_id", offer.ID),
		slog.Int("requested", len(productIDs)),
		slog.Int("applied", applied),
	)

	return applied, firstErr
}

// RemoveOffer strips the offer's discount snapshot from every given product
// and restores the original price. The update is conditional on the stamp
// still referencing this offer, so products re-stamped by another offer in
// the meantime are left untouched and retries are safe.
func (s *DiscountService) RemoveOffer(ctx context.Context, offerID string, productIDs []string) (int, error) {
	var (
		cleared  int
		firstErr error
	)

	for _, id := range productIDs {
		if err := s.products.ClearDiscount(ctx, id, offerID); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear discount",
				slog.String("offer_id", offerID),
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("clear product %s: %w", id, err)
			}
			continue
		}
		cleared++
	}

	s.logger.InfoContext(ctx, "offer discount removed",
		slog.String("offer_id", offerID),
		slog.Int("requested", len(productIDs)),
		slog.Int("cleared", cleared),
	)

	return cleared, firstErr
}

// StampedProducts returns the ids of products currently carrying this
// offer's snapshot. Used to clear the old scope before a re-stamp.
func (s *DiscountService) StampedProducts(ctx context.Context, offerID string) ([]string, error) {
	ids, err := s.products.ListIDsByOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("list stamped products: %w", err)
	}
	return ids, nil
}
