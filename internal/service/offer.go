package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/event"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/repository"
	apperrors "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/errors"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/slug"
)

// OfferService implements the business logic for offer catalog operations.
// Writes keep the denormalized product stamps in sync: create stamps the
// resolved scope, update clears the previous scope before re-stamping, and
// delete strips every stamp before removing the row.
type OfferService struct {
	repo      repository.OfferRepository
	discounts *DiscountService
	producer  *event.Producer
	logger    *slog.Logger
}

// NewOfferService creates a new offer service.
func NewOfferService(repo repository.OfferRepository, discounts *DiscountService, producer *event.Producer, logger *slog.Logger) *OfferService {
	return &OfferService{
		repo:      repo,
		discounts: discounts,
		producer:  producer,
		logger:    logger,
	}
}

// CreateOfferInput holds the parameters for creating an offer.
type CreateOfferInput struct {
	Name                 string
	Description          string
	DiscountType         string
	DiscountValue        float64
	ApplicableProducts   []string
	ApplicableCategories []string
	StartDate            time.Time
	EndDate              time.Time
	IsActive             *bool
	UsageLimit           *int
	MinPurchaseAmount    float64
	MaxDiscountAmount    *float64
}

// UpdateOfferInput holds the parameters for updating an offer. Nil fields
// are left unchanged; slice fields replace the stored value when non-nil.
type UpdateOfferInput struct {
	Name                 *string
	Description          *string
	DiscountType         *string
	DiscountValue        *float64
	ApplicableProducts   []string
	ApplicableCategories []string
	StartDate            *time.Time
	EndDate              *time.Time
	IsActive             *bool
	UsageLimit           *int
	MinPurchaseAmount    *float64
	MaxDiscountAmount    *float64
}

// CreateOffer validates the input, persists the offer, and stamps its
// discount onto the resolved product scope.
func (s *OfferService) CreateOffer(ctx context.Context, input *CreateOfferInput) (*domain.Offer, error) {
	if problems := validateOfferTerms(input.Name, input.Description, input.DiscountType, input.DiscountValue, input.MinPurchaseAmount, input.MaxDiscountAmount, input.UsageLimit, input.StartDate, input.EndDate); len(problems) > 0 {
		return nil, apperrors.InvalidInput(strings.Join(problems, "; "))
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	now := time.Now().UTC()
	offer := &domain.Offer{
		ID:                   uuid.New().String(),
		Name:                 input.Name,
		Slug:                 slug.Generate(input.Name),
		Description:          input.Description,
		DiscountType:         input.DiscountType,
		DiscountValue:        input.DiscountValue,
		ApplicableProducts:   input.ApplicableProducts,
		ApplicableCategories: input.ApplicableCategories,
		StartDate:            input.StartDate,
		EndDate:              input.EndDate,
		IsActive:             active,
		UsageLimit:           input.UsageLimit,
		UsedCount:            0,
		MinPurchaseAmount:    input.MinPurchaseAmount,
		MaxDiscountAmount:    input.MaxDiscountAmount,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if offer.ApplicableProducts == nil {
		offer.ApplicableProducts = []string{}
	}
	if offer.ApplicableCategories == nil {
		offer.ApplicableCategories = []string{}
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}

	if err := s.stampScope(ctx, offer); err != nil {
		s.logger.ErrorContext(ctx, "failed to stamp discount scope after create",
			slog.String("offer_id", offer.ID),
			slog.String("error", err.Error()),
		)
		// The offer row exists; a re-apply repairs the stamps.
	}

	if err := s.producer.PublishOfferCreated(ctx, offer); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish offer.created event",
			slog.String("offer_id", offer.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "offer created",
		slog.String("offer_id", offer.ID),
		slog.String("slug", offer.Slug),
	)

	return offer, nil
}

// GetOffer retrieves an offer by its ID.
func (s *OfferService) GetOffer(ctx context.Context, id string) (*domain.Offer, error) {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer by id: %w", err)
	}
	return offer, nil
}

// ListOffers returns a filtered, paginated list of offers.
func (s *OfferService) ListOffers(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	offers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}

	return offers, total, nil
}

// UpdateOffer applies partial updates, clears the stamps of the previous
// scope, and re-stamps the new scope so a scope shrink leaves no orphans.
func (s *OfferService) UpdateOffer(ctx context.Context, id string, input *UpdateOfferInput) (*domain.Offer, error) {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer for update: %w", err)
	}

	if input.Name != nil {
		offer.Name = *input.Name
		offer.Slug = slug.Generate(*input.Name)
	}
	if input.Description != nil {
		offer.Description = *input.Description
	}
	if input.DiscountType != nil {
		offer.DiscountType = *input.DiscountType
	}
	if input.DiscountValue != nil {
		offer.DiscountValue = *input.DiscountValue
	}
	if input.ApplicableProducts != nil {
		offer.ApplicableProducts = input.ApplicableProducts
	}
	if input.ApplicableCategories != nil {
		offer.ApplicableCategories = input.ApplicableCategories
	}
	if input.StartDate != nil {
		offer.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		offer.EndDate = *input.EndDate
	}
	if input.IsActive != nil {
		offer.IsActive = *input.IsActive
	}
	if input.UsageLimit != nil {
		offer.UsageLimit = input.UsageLimit
	}
	if input.MinPurchaseAmount != nil {
		offer.MinPurchaseAmount = *input.MinPurchaseAmount
	}
	if input.MaxDiscountAmount != nil {
		offer.MaxDiscountAmount = input.MaxDiscountAmount
	}

	if problems := validateOfferTerms(offer.Name, offer.Description, offer.DiscountType, offer.DiscountValue, offer.MinPurchaseAmount, offer.MaxDiscountAmount, offer.UsageLimit, offer.StartDate, offer.EndDate); len(problems) > 0 {
		return nil, apperrors.InvalidInput(strings.Join(problems, "; "))
	}

	// Clear the old stamps before the scope definition changes underneath
	// them, then persist and re-stamp.
	stamped, err := s.discounts.StampedProducts(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.discounts.RemoveOffer(ctx, id, stamped); err != nil {
		return nil, fmt.Errorf("clear previous scope: %w", err)
	}

	if err := s.repo.Update(ctx, offer); err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}

	if err := s.stampScope(ctx, offer); err != nil {
		s.logger.ErrorContext(ctx, "failed to stamp discount scope after update",
			slog.String("offer_id", offer.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOfferUpdated(ctx, offer); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish offer.updated event",
			slog.String("offer_id", offer.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "offer updated",
		slog.String("offer_id", offer.ID),
		slog.String("slug", offer.Slug),
	)

	return offer, nil
}

// DeleteOffer strips the offer's stamps from all products, then removes
// the offer row.
func (s *OfferService) DeleteOffer(ctx context.Context, id string) error {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get offer for delete: %w", err)
	}

	stamped, err := s.discounts.StampedProducts(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.discounts.RemoveOffer(ctx, id, stamped); err != nil {
		return fmt.Errorf("clear stamps before delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}

	if err := s.producer.PublishOfferDeleted(ctx, offer); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish offer.deleted event",
			slog.String("offer_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "offer deleted", slog.String("offer_id", id))

	return nil
}

// ApplyOffer re-stamps the offer's discount onto its resolved scope.
// Exposed as an explicit operation so partial stamp failures can be
// repaired without touching the offer definition.
func (s *OfferService) ApplyOffer(ctx context.Context, id string) (int, error) {
	offer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("get offer for apply: %w", err)
	}

	scope, err := s.discounts.ResolveScope(ctx, offer)
	if err != nil {
		return 0, err
	}

	return s.discounts.ApplyOffer(ctx, offer, scope)
}

// RemoveOffer strips the offer's stamps from the given products, or from
// every currently stamped product when none are given.
func (s *OfferService) RemoveOffer(ctx context.Context, id string, productIDs []string) (int, error) {
	if len(productIDs) == 0 {
		stamped, err := s.discounts.StampedProducts(ctx, id)
		if err != nil {
			return 0, err
		}
		productIDs = stamped
	}

	return s.discounts.RemoveOffer(ctx, id, productIDs)
}

func (s *OfferService) stampScope(ctx context.Context, offer *domain.Offer) error {
	scope, err := s.discounts.ResolveScope(ctx, offer)
	if err != nil {
		return err
	}
	if _, err := s.discounts.ApplyOffer(ctx, offer, scope); err != nil {
		return err
	}
	return nil
}

// validateOfferTerms collects every validation failure so the caller gets
// a single joined message instead of fixing problems one at a time.
func validateOfferTerms(name, description, discountType string, discountValue, minPurchase float64, maxDiscount *float64, usageLimit *int, start, end time.Time) []string {
	var problems []string

	if strings.TrimSpace(name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(description) == "" {
		problems = append(problems, "description is required")
	}

	switch discountType {
	case domain.DiscountTypePercentage:
		if discountValue <= 0 || discountValue > 100 {
			problems = append(problems, "percentage discount value must be greater than 0 and at most 100")
		}
	case domain.DiscountTypeFixed:
		if discountValue <= 0 {
			problems = append(problems, "fixed discount value must be positive")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid discount type %q, must be one of: %s", discountType, strings.Join(domain.ValidDiscountTypes(), ", ")))
	}

	if minPurchase < 0 {
		problems = append(problems, "min purchase amount must not be negative")
	}
	if maxDiscount != nil && *maxDiscount <= 0 {
		problems = append(problems, "max discount amount must be positive when set")
	}
	if usageLimit != nil && *usageLimit <= 0 {
		problems = append(problems, "usage limit must be positive when set")
	}

	if start.IsZero() {
		problems = append(problems, "start date is required")
	}
	if end.IsZero() {
		problems = append(problems, "end date is required")
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		problems = append(problems, "end date must be after start date")
	}

	return problems
}
