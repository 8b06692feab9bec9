package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/domain"
	pkgkafka "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/kafka"
)

// Kafka topic constants for pricing domain events.
const (
	TopicOfferCreated = "storefront.offer.created"
	TopicOfferUpdated = "storefront.offer.updated"
	TopicOfferDeleted = "storefront.offer.deleted"
	TopicOrderPlaced  = "storefront.order.placed"
)

// Aggregate type constants.
const (
	AggregateTypeOffer = "offer"
	AggregateTypeOrder = "order"
)

// Source identifier for events originating from this service.
const SourcePricingService = "pricing-service"

// OfferEventData is the payload for offer lifecycle events.
type OfferEventData struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
	IsActive      bool    `json:"is_active"`
}

// OrderPlacedData is the payload for an order.placed event. NotifyUserIDs
// carries the admin accounts the notification consumer should fan out to.
type OrderPlacedData struct {
	OrderID        string   `json:"order_id"`
	UserID         string   `json:"user_id"`
	ProductIDs     []string `json:"product_ids"`
	TotalAmount    float64  `json:"total_amount"`
	PaymentSuccess bool     `json:"payment_success"`
	NotifyUserIDs  []string `json:"notify_user_ids"`
}

// Producer publishes pricing domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOfferCreated publishes an offer.created event.
func (p *Producer) PublishOfferCreated(ctx context.Context, offer *domain.Offer) error {
	return p.publishOfferEvent(ctx, TopicOfferCreated, offer)
}

// PublishOfferUpdated publishes an offer.updated event.
func (p *Producer) PublishOfferUpdated(ctx context.Context, offer *domain.Offer) error {
	return p.publishOfferEvent(ctx, TopicOfferUpdated, offer)
}

// PublishOfferDeleted publishes an offer.deleted event.
func (p *Producer) PublishOfferDeleted(ctx context.Context, offer *domain.Offer) error {
	return p.publishOfferEvent(ctx, TopicOfferDeleted, offer)
}

func (p *Producer) publishOfferEvent(ctx context.Context, topic string, offer *domain.Offer) error {
	data := OfferEventData{
		ID:            offer.ID,
		Name:          offer.Name,
		Slug:          offer.Slug,
		DiscountType:  offer.DiscountType,
		DiscountValue: offer.DiscountValue,
		IsActive:      offer.IsActive,
	}

	event, err := pkgkafka.NewEvent(topic, offer.ID, AggregateTypeOffer, SourcePricingService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published offer event",
		slog.String("topic", topic),
		slog.String("offer_id", offer.ID),
		slog.String("slug", offer.Slug),
	)

	return nil
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, order *domain.Order, notifyUserIDs []string) error {
	data := OrderPlacedData{
		OrderID:        order.ID,
		UserID:         order.UserID,
		ProductIDs:     order.ProductIDs,
		TotalAmount:    order.TotalAmount,
		PaymentSuccess: order.PaymentSuccess,
		NotifyUserIDs:  notifyUserIDs,
	}

	event, err := pkgkafka.NewEvent(TopicOrderPlaced, order.ID, AggregateTypeOrder, SourcePricingService, data)
	if err != nil {
		return fmt.Errorf("create order.placed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPlaced, event); err != nil {
		return fmt.Errorf("publish order.placed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
	)

	return nil
}
