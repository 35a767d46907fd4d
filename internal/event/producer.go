package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics for storefront domain events.
var (
	TopicOrderPlaced    = pkgkafka.Topic("order", "placed")
	TopicOrderPaid      = pkgkafka.Topic("order", "paid")
	TopicOrderDelivered = pkgkafka.Topic("order", "delivered")
	TopicOrderRefunded  = pkgkafka.Topic("order", "refunded")
	TopicReviewCreated  = pkgkafka.Topic("review", "created")
)

// Aggregate types.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeProduct = "product"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	ID            string            `json:"id"`
	UserID        *string           `json:"user_id"`
	PaymentMethod string            `json:"payment_method"`
	TotalPrice    decimal.Decimal   `json:"total_price"`
	Items         []OrderPlacedItem `json:"items"`
	CreatedAt     time.Time         `json:"created_at"`
}

// OrderPlacedItem is one line of an order.placed event.
type OrderPlacedItem struct {
	ProductID *string         `json:"product_id"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

// OrderStatusData is the payload for order.paid and order.delivered events.
type OrderStatusData struct {
	ID     string    `json:"id"`
	UserID *string   `json:"user_id"`
	At     time.Time `json:"at"`
}

// OrderRefundedData is the payload for an order.refunded event.
type OrderRefundedData struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	RefundTotal decimal.Decimal `json:"refund_total"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID   string          `json:"review_id"`
	ProductID  string          `json:"product_id"`
	UserID     *string         `json:"user_id"`
	Rating     int             `json:"rating"`
	NumReviews int             `json:"num_reviews"`
	AvgRating  decimal.Decimal `json:"avg_rating"`
}

// Publisher writes an event envelope to a topic. *pkgkafka.Producer
// implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events. A Producer built with a nil
// Publisher drops every event.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p == nil || p.publisher == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, o *domain.Order) error {
	data := OrderPlacedData{
		ID:            o.ID,
		UserID:        o.UserID,
		PaymentMethod: o.PaymentMethod,
		TotalPrice:    o.TotalPrice,
		Items:         make([]OrderPlacedItem, len(o.Items)),
		CreatedAt:     o.CreatedAt,
	}
	for i, it := range o.Items {
		data.Items[i] = OrderPlacedItem{ProductID: it.ProductID, Qty: it.Qty, Price: it.Price}
	}
	return p.publish(ctx, TopicOrderPlaced, o.ID, AggregateTypeOrder, data)
}

// PublishOrderPaid publishes an order.paid event.
func (p *Producer) PublishOrderPaid(ctx context.Context, o *domain.Order) error {
	data := OrderStatusData{ID: o.ID, UserID: o.UserID}
	if o.PaidAt != nil {
		data.At = *o.PaidAt
	}
	return p.publish(ctx, TopicOrderPaid, o.ID, AggregateTypeOrder, data)
}

// PublishOrderDelivered publishes an order.delivered event.
func (p *Producer) PublishOrderDelivered(ctx context.Context, o *domain.Order) error {
	data := OrderStatusData{ID: o.ID, UserID: o.UserID}
	if o.DeliveredAt != nil {
		data.At = *o.DeliveredAt
	}
	return p.publish(ctx, TopicOrderDelivered, o.ID, AggregateTypeOrder, data)
}

// PublishOrderRefunded publishes an order.refunded event.
func (p *Producer) PublishOrderRefunded(ctx context.Context, orderID string, amount, total decimal.Decimal) error {
	data := OrderRefundedData{ID: orderID, Amount: amount, RefundTotal: total}
	return p.publish(ctx, TopicOrderRefunded, orderID, AggregateTypeOrder, data)
}

// PublishReviewCreated publishes a review.created event keyed by product.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review, product *domain.Product) error {
	data := ReviewCreatedData{
		ReviewID:   r.ID,
		ProductID:  product.ID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		NumReviews: product.NumReviews,
		AvgRating:  product.Rating,
	}
	return p.publish(ctx, TopicReviewCreated, product.ID, AggregateTypeProduct, data)
}
