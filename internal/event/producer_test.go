package event

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func strPtr(s string) *string { return &s }

func TestTopics(t *testing.T) {
	assert.Equal(t, "storefront.order.placed", TopicOrderPlaced)
	assert.Equal(t, "storefront.order.refunded", TopicOrderRefunded)
	assert.Equal(t, "storefront.review.created", TopicReviewCreated)
}

func TestPublishOrderPlaced(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	order := &domain.Order{
		ID:         "o-1",
		UserID:     strPtr("u-1"),
		TotalPrice: decimal.RequireFromString("59.98"),
		Items:      []domain.OrderItem{{ProductID: strPtr("p-1"), Qty: 2, Price: decimal.RequireFromString("29.99")}},
		CreatedAt:  time.Now().UTC(),
	}

	var captured *pkgkafka.Event
	pub.On("Publish", ctx, "storefront.order.placed", mock.AnythingOfType("*kafka.Event")).
		Run(func(args mock.Arguments) { captured = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	require.NoError(t, p.PublishOrderPlaced(ctx, order))
	require.NotNil(t, captured)

	assert.Equal(t, "o-1", captured.AggregateID)
	assert.Equal(t, AggregateTypeOrder, captured.AggregateType)
	assert.Equal(t, SourceStorefront, captured.Source)
	assert.Equal(t, "corr-1", captured.CorrelationID)

	var data OrderPlacedData
	require.NoError(t, captured.UnmarshalData(&data))
	require.Len(t, data.Items, 1)
	assert.Equal(t, 2, data.Items[0].Qty)
	assert.True(t, decimal.RequireFromString("59.98").Equal(data.TotalPrice))
	pub.AssertExpectations(t)
}

func TestPublishOrderRefunded(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())

	var captured *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicOrderRefunded, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	require.NoError(t, p.PublishOrderRefunded(context.Background(), "o-1", decimal.NewFromInt(25), decimal.NewFromInt(75)))

	var data OrderRefundedData
	require.NoError(t, captured.UnmarshalData(&data))
	assert.True(t, decimal.NewFromInt(75).Equal(data.RefundTotal))
}

func TestPublishReviewCreated_KeyedByProduct(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())

	pub.On("Publish", mock.Anything, TopicReviewCreated, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		return e.AggregateID == "p-1" && e.AggregateType == AggregateTypeProduct
	})).Return(nil)

	review := &domain.Review{ID: "r-1", ProductID: strPtr("p-1"), Rating: 4}
	product := &domain.Product{ID: "p-1", NumReviews: 1, Rating: decimal.NewFromInt(4)}

	require.NoError(t, p.PublishReviewCreated(context.Background(), review, product))
	pub.AssertExpectations(t)
}

func TestPublish_Error(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())

	pub.On("Publish", mock.Anything, TopicOrderPaid, mock.Anything).Return(errors.New("broker down"))

	err := p.PublishOrderPaid(context.Background(), &domain.Order{ID: "o-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish storefront.order.paid event")
}

func TestProducer_Disabled(t *testing.T) {
	p := NewProducer(nil, newTestLogger())

	assert.NoError(t, p.PublishOrderDelivered(context.Background(), &domain.Order{ID: "o-1"}))

	var nilProducer *Producer
	assert.NoError(t, nilProducer.PublishOrderPaid(context.Background(), &domain.Order{ID: "o-1"}))
}
