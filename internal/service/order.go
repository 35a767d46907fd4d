package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/cache"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// Viewer identifies the caller of an access-controlled operation.
type Viewer struct {
	UserID  string
	IsAdmin bool
}

// ShippingAddressInput is the delivery address submitted at checkout.
type ShippingAddressInput struct {
	Address    string
	City       string
	PostalCode string
	Country    string
}

// OrderLineInput is one cart line submitted at checkout.
type OrderLineInput struct {
	ProductID string
	Qty       int
	Price     decimal.Decimal
}

// PlaceOrderInput holds the parameters for placing an order.
type PlaceOrderInput struct {
	UserID          string
	PaymentMethod   string
	TaxPrice        decimal.Decimal
	ShippingPrice   decimal.Decimal
	TotalPrice      decimal.Decimal
	ShippingAddress ShippingAddressInput
	Items           []OrderLineInput
}

// OrderService implements order placement and the order lifecycle.
type OrderService struct {
	repo     repository.OrderRepository
	cache    cache.ProductCache
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, productCache cache.ProductCache, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		cache:    productCache,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder persists the order, its shipping address and one item per cart
// line, decrementing stock for each line. Nothing is persisted if any line
// references a missing product.
func (s *OrderService) PlaceOrder(ctx context.Context, input *PlaceOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.BadRequest("EMPTY_CART", "no order items")
	}
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	for i, line := range input.Items {
		if line.ProductID == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("order item %d: product is required", i))
		}
		if line.Qty < 1 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("order item %d: qty must be at least 1", i))
		}
		if line.Price.IsNegative() {
			return nil, apperrors.InvalidInput(fmt.Sprintf("order item %d: price must not be negative", i))
		}
	}

	userID := input.UserID
	order := &domain.Order{
		ID:            uuid.New().String(),
		UserID:        &userID,
		PaymentMethod: input.PaymentMethod,
		TaxPrice:      input.TaxPrice,
		ShippingPrice: input.ShippingPrice,
		TotalPrice:    input.TotalPrice,
		RefundTotal:   decimal.Zero,
		CreatedAt:     s.now(),
		Items:         make([]domain.OrderItem, len(input.Items)),
		ShippingAddress: &domain.ShippingAddress{
			ID:            uuid.New().String(),
			Address:       input.ShippingAddress.Address,
			City:          input.ShippingAddress.City,
			PostalCode:    input.ShippingAddress.PostalCode,
			Country:       input.ShippingAddress.Country,
			ShippingPrice: input.ShippingPrice,
		},
	}
	productIDs := make([]string, len(input.Items))
	for i, line := range input.Items {
		productID := line.ProductID
		order.Items[i] = domain.OrderItem{
			ID:        uuid.New().String(),
			ProductID: &productID,
			Qty:       line.Qty,
			Price:     line.Price,
		}
		productIDs[i] = productID
	}

	if err := s.repo.Place(ctx, order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	ordersPlaced.Inc()

	if err := s.cache.Invalidate(ctx, productIDs...); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.Int("items", len(order.Items)),
		slog.String("total_price", order.TotalPrice.String()),
	)

	return order, nil
}

// GetOrder returns an order visible to the viewer: its owner or an
// administrator.
func (s *OrderService) GetOrder(ctx context.Context, id string, viewer Viewer) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !viewer.IsAdmin && !order.IsOwnedBy(viewer.UserID) {
		return nil, apperrors.Forbidden("not authorized to view this order")
	}
	return order, nil
}

// ListMyOrders returns the viewer's own orders, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return orders, nil
}

// ListOrders returns a page of every order.
func (s *OrderService) ListOrders(ctx context.Context, params pagination.Params) (*pagination.Result[domain.Order], error) {
	orders, total, err := s.repo.List(ctx, repository.OrderFilter{Page: params.Page, PerPage: params.PerPage})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	result := pagination.NewResult(orders, total, params)
	return &result, nil
}

// MarkPaid flags the order paid. Owners and administrators may pay; paying
// an already paid order re-stamps paid_at.
func (s *OrderService) MarkPaid(ctx context.Context, id string, viewer Viewer) (*domain.Order, error) {
	if _, err := s.GetOrder(ctx, id, viewer); err != nil {
		return nil, err
	}

	order, err := s.repo.MarkPaid(ctx, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	if err := s.producer.PublishOrderPaid(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.paid event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order paid", slog.String("order_id", id))
	return order, nil
}

// MarkDelivered flags the order delivered.
func (s *OrderService) MarkDelivered(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.MarkDelivered(ctx, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark order delivered: %w", err)
	}

	if err := s.producer.PublishOrderDelivered(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.delivered event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order delivered", slog.String("order_id", id))
	return order, nil
}

// Refund adds a positive amount to the order's running refund total and
// returns the new total. The total is not capped at the order price.
func (s *OrderService) Refund(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.BadRequest("INVALID_REFUND_AMOUNT", "invalid refund amount")
	}

	total, err := s.repo.AddRefund(ctx, id, amount, s.now())
	if err != nil {
		return decimal.Zero, fmt.Errorf("refund order: %w", err)
	}
	refundsRecorded.Inc()

	if err := s.producer.PublishOrderRefunded(ctx, id, amount, total); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.refunded event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order refunded",
		slog.String("order_id", id),
		slog.String("amount", amount.String()),
		slog.String("refund_total", total.String()),
	)
	return total, nil
}
