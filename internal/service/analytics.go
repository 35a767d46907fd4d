package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

// AnalyticsService computes the sales dashboard.
type AnalyticsService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(orders repository.OrderRepository, products repository.ProductRepository, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		orders:   orders,
		products: products,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Summary aggregates the orders created in the last days days, oldest first,
// together with the window-independent low-stock count.
func (s *AnalyticsService) Summary(ctx context.Context, days int) (*domain.Analytics, error) {
	since := domain.AnalyticsSince(s.now(), days)

	orders, err := s.orders.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list orders for analytics: %w", err)
	}

	lowStock, err := s.products.CountLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("count low stock: %w", err)
	}

	report := domain.Summarize(days, orders, lowStock)
	s.logger.DebugContext(ctx, "analytics computed",
		slog.Int("days", days),
		slog.Int("orders", len(report.Items)),
	)
	return report, nil
}
