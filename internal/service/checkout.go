package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/event"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/gateway"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/mailer"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/repository"
	apperrors "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/errors"
)

// CheckoutService resolves cart prices server-side, charges the payment
// gateway, and persists the order. Client-asserted prices are never trusted
// for resolvable products; they are only a flagged fallback for ids the
// catalog no longer knows.
type CheckoutService struct {
	offers   repository.OfferRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	provider gateway.Provider
	mail     mailer.Sender
	producer *event.Producer
	logger   *slog.Logger
	currency string
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	offers repository.OfferRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	users repository.UserRepository,
	provider gateway.Provider,
	mail mailer.Sender,
	producer *event.Producer,
	logger *slog.Logger,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		offers:   offers,
		products: products,
		orders:   orders,
		users:    users,
		provider: provider,
		mail:     mail,
		producer: producer,
		logger:   logger,
		currency: currency,
	}
}

// CartItem is one client cart entry. Price is the client-asserted unit
// price, used only as a flagged fallback for unresolvable products.
type CartItem struct {
	ProductID string
	Price     float64
}

// CheckoutInput holds the parameters for a checkout request.
type CheckoutInput struct {
	Nonce string
	Cart  []CartItem
}

// CheckoutResult is the outcome of a successful checkout. EmailError is
// informational: receipt delivery is best effort and never fails the order.
type CheckoutResult struct {
	OrderID    string  `json:"order_id"`
	Total      float64 `json:"total"`
	EmailSent  bool    `json:"email_sent"`
	EmailError string  `json:"email_error,omitempty"`
}

// Checkout prices the cart from the catalog, charges the gateway, and
// persists the order. A payment failure aborts the whole operation with no
// order row; all post-payment sends are best effort.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, input *CheckoutInput) (*CheckoutResult, error) {
	if input.Nonce == "" {
		return nil, apperrors.InvalidInput("payment nonce is required")
	}
	if len(input.Cart) == 0 {
		return nil, apperrors.InvalidInput("cart must not be empty")
	}

	productByID, offerByID, err := s.loadCatalog(ctx, input.Cart)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	productIDs := make([]string, 0, len(input.Cart))
	items := make([]domain.OrderLine, 0, len(input.Cart))
	honoredOffers := make(map[string]struct{})
	var total float64

	for _, entry := range input.Cart {
		productIDs = append(productIDs, entry.ProductID)

		p, ok := productByID[entry.ProductID]
		if !ok {
			// The product vanished between cart build and checkout. Charge
			// the client-asserted price but mark the line as untrusted.
			s.logger.WarnContext(ctx, "cart references unknown product, falling back to client price",
				slog.String("product_id", entry.ProductID),
				slog.Float64("client_price", entry.Price),
			)
			items = append(items, domain.OrderLine{
				ProductID:     entry.ProductID,
				Price:         entry.Price,
				PriceFallback: true,
			})
			total += entry.Price
			continue
		}

		price := p.BasePrice()
		if p.Discount != nil {
			if offer, ok := offerByID[p.Discount.OfferID]; ok && offer.IsValidAt(now) {
				price = p.BasePrice() - offer.DiscountAmount(p.BasePrice())
				honoredOffers[offer.ID] = struct{}{}
			}
		}

		items = append(items, domain.OrderLine{
			ProductID: p.ID,
			Price:     price,
		})
		total += price
	}

	amount := gateway.RoundAmount(total)

	charge, err := s.provider.Charge(ctx, &gateway.ChargeInput{
		Nonce:       input.Nonce,
		Amount:      amount,
		Currency:    s.currency,
		Description: fmt.Sprintf("order for user %s (%d items)", userID, len(items)),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "payment charge failed",
			slog.String("user_id", userID),
			slog.Float64("amount", amount),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.PaymentFailed("payment could not be processed")
	}
	if charge == nil {
		s.logger.ErrorContext(ctx, "payment provider returned no charge result",
			slog.String("user_id", userID),
			slog.Float64("amount", amount),
		)
		return nil, apperrors.PaymentFailed("payment could not be processed")
	}
	if charge.Status != gateway.StatusSucceeded {
		s.logger.WarnContext(ctx, "payment declined",
			slog.String("user_id", userID),
			slog.Float64("amount", amount),
			slog.String("reason", charge.FailureReason),
		)
		return nil, apperrors.PaymentFailed("payment could not be processed")
	}

	order := &domain.Order{
		ID:             uuid.New().String(),
		UserID:         userID,
		ProductIDs:     productIDs,
		Items:          items,
		PaymentID:      charge.TransactionID,
		PaymentSuccess: true,
		Status:         domain.OrderStatusNotProcessed,
		TotalAmount:    amount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// The customer was charged but the order did not persist. Surface
		// the payment id so the failure can be reconciled.
		s.logger.ErrorContext(ctx, "order persistence failed after successful charge",
			slog.String("user_id", userID),
			slog.String("payment_id", charge.TransactionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.recordOfferUsage(ctx, honoredOffers)

	result := &CheckoutResult{
		OrderID: order.ID,
		Total:   amount,
	}
	s.notifyBestEffort(ctx, order, result)

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.Float64("total", amount),
		slog.Int("honored_offers", len(honoredOffers)),
	)

	return result, nil
}

// loadCatalog fetches the cart's products and the offers their stamps
// reference in two batched reads.
func (s *CheckoutService) loadCatalog(ctx context.Context, cart []CartItem) (map[string]domain.Product, map[string]domain.Offer, error) {
	seen := make(map[string]struct{}, len(cart))
	ids := make([]string, 0, len(cart))
	for _, entry := range cart {
		if _, ok := seen[entry.ProductID]; ok {
			continue
		}
		seen[entry.ProductID] = struct{}{}
		ids = append(ids, entry.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch cart products: %w", err)
	}

	productByID := make(map[string]domain.Product, len(products))
	offerIDSet := make(map[string]struct{})
	for _, p := range products {
		productByID[p.ID] = p
		if p.Discount != nil {
			offerIDSet[p.Discount.OfferID] = struct{}{}
		}
	}

	offerIDs := make([]string, 0, len(offerIDSet))
	for id := range offerIDSet {
		offerIDs = append(offerIDs, id)
	}

	offers, err := s.offers.GetByIDs(ctx, offerIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch stamped offers: %w", err)
	}

	offerByID := make(map[string]domain.Offer, len(offers))
	for _, o := range offers {
		offerByID[o.ID] = o
	}

	return productByID, offerByID, nil
}

// recordOfferUsage increments used_count once per distinct honored offer.
// The order and charge already stand; a failed increment is logged only.
func (s *CheckoutService) recordOfferUsage(ctx context.Context, honored map[string]struct{}) {
	for offerID := range honored {
		if err := s.offers.IncrementUsage(ctx, offerID); err != nil {
			s.logger.ErrorContext(ctx, "failed to increment offer usage",
				slog.String("offer_id", offerID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// notifyBestEffort fires the order.placed event and the receipt email.
// Neither failure affects the already-persisted order.
func (s *CheckoutService) notifyBestEffort(ctx context.Context, order *domain.Order, result *CheckoutResult) {
	adminIDs, err := s.users.ListAdminIDs(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list admins for notification fan-out",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		adminIDs = nil
	}

	if err := s.producer.PublishOrderPlaced(ctx, order, adminIDs); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	buyer, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load buyer for receipt email",
			slog.String("order_id", order.ID),
			slog.String("user_id", order.UserID),
			slog.String("error", err.Error()),
		)
		result.EmailError = "receipt email could not be sent"
		return
	}

	msg := &mailer.Message{
		To:      buyer.Email,
		Subject: "Your order confirmation",
		Body: fmt.Sprintf("Hi %s,\n\nthanks for your order %s. We charged %.2f %s for %d items.\n",
			buyer.Name, order.ID, order.TotalAmount, s.currency, len(order.Items)),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to send receipt email",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		result.EmailError = "receipt email could not be sent"
		return
	}

	result.EmailSent = true
}
