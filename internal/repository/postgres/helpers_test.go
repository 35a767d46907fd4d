package postgres

import (
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string { return &s }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var productCols = []string{
	"id", "name", "slug", "description", "image", "price",
	"count_in_stock", "rating", "num_reviews", "created_at", "updated_at",
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:           "11111111-1111-1111-1111-111111111111",
		Name:         "Airpods Wireless",
		Slug:         "airpods-wireless",
		Description:  "Bluetooth headphones",
		Image:        "/images/airpods.jpg",
		Price:        decimal.RequireFromString("89.99"),
		CountInStock: 10,
		Rating:       decimal.RequireFromString("4.50"),
		NumReviews:   2,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func productRow(p domain.Product) []any {
	return []any{
		p.ID, p.Name, p.Slug, p.Description, p.Image, p.Price,
		p.CountInStock, p.Rating, p.NumReviews, p.CreatedAt, p.UpdatedAt,
	}
}

var orderCols = []string{
	"id", "user_id", "payment_method", "tax_price", "shipping_price", "total_price",
	"is_paid", "paid_at", "is_delivered", "delivered_at", "refund_total", "refunded_at", "created_at",
}

func orderRow(o domain.Order) []any {
	return []any{
		o.ID, o.UserID, o.PaymentMethod, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
		o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.RefundTotal, o.RefundedAt, o.CreatedAt,
	}
}

func sampleOrder() domain.Order {
	return domain.Order{
		ID:            "22222222-2222-2222-2222-222222222222",
		UserID:        strPtr("33333333-3333-3333-3333-333333333333"),
		PaymentMethod: "PayPal",
		TaxPrice:      decimal.RequireFromString("8.20"),
		ShippingPrice: decimal.RequireFromString("10.00"),
		TotalPrice:    decimal.RequireFromString("108.19"),
		RefundTotal:   decimal.Zero,
		CreatedAt:     now,
	}
}
