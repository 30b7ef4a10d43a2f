package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flexfit/storefront/internal/domain"
	pkgkafka "github.com/flexfit/storefront/pkg/kafka"
	"github.com/flexfit/storefront/pkg/logger"
)

// Kafka topic constants for storefront domain events.
const (
	TopicCartUpdated      = "storefront.cart.updated"
	TopicCartCleared      = "storefront.cart.cleared"
	TopicOrderPlaced      = "storefront.order.placed"
	TopicContactSubmitted = "storefront.contact.submitted"
)

// Aggregate type constants.
const (
	AggregateTypeSession = "session"
	AggregateTypeContact = "contact"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID   string          `json:"session_id"`
	Items       []CartItemData  `json:"items"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	SessionID   string          `json:"session_id"`
	OrderNumber string          `json:"order_number"`
	PlacedAt    time.Time       `json:"placed_at"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Shipping    decimal.Decimal `json:"shipping"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	Items       []CartItemData  `json:"items"`
}

// ContactSubmittedData is the payload for a contact.submitted event.
type ContactSubmittedData struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Publisher is the subset of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func itemData(cart domain.Cart) []CartItemData {
	items := make([]CartItemData, len(cart))
	for i, item := range cart {
		items[i] = CartItemData{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
		}
	}
	return items
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID string, cart domain.Cart) error {
	data := CartUpdatedData{
		SessionID:   sessionID,
		Items:       itemData(cart),
		ItemCount:   cart.Count(),
		TotalAmount: cart.Total(),
	}

	if err := p.publish(ctx, TopicCartUpdated, sessionID, AggregateTypeSession, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", sessionID),
		slog.Int("item_count", data.ItemCount),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	if err := p.publish(ctx, TopicCartCleared, sessionID, AggregateTypeSession, CartClearedData{SessionID: sessionID}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("session_id", sessionID),
	)
	return nil
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, sessionID string, c domain.Confirmation) error {
	data := OrderPlacedData{
		SessionID:   sessionID,
		OrderNumber: c.OrderNumber,
		PlacedAt:    c.PlacedAt,
		Subtotal:    c.Summary.Subtotal,
		Shipping:    c.Summary.Shipping,
		Tax:         c.Summary.Tax,
		Total:       c.Total,
		Items:       itemData(c.Items),
	}

	if err := p.publish(ctx, TopicOrderPlaced, sessionID, AggregateTypeSession, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("session_id", sessionID),
		slog.String("order_number", c.OrderNumber),
	)
	return nil
}

// PublishContactSubmitted publishes a contact.submitted event keyed by the
// sender's email.
func (p *Producer) PublishContactSubmitted(ctx context.Context, data ContactSubmittedData) error {
	if err := p.publish(ctx, TopicContactSubmitted, data.Email, AggregateTypeContact, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published contact.submitted event",
		slog.String("subject", data.Subject),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
