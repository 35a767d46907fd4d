package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ErrDuplicateReview is returned when a user reviews the same product twice.
var ErrDuplicateReview = apperrors.BadRequest("DUPLICATE_REVIEW", "product already reviewed")

// ProductFilter holds the criteria for listing products.
type ProductFilter struct {
	Keyword string
	Sort    domain.ProductSort
	Page    int
	PerPage int
}

// OrderFilter holds pagination for the administrator order listing.
type OrderFilter struct {
	Page    int
	PerPage int
}

// ProductRepository defines the persistence operations for catalog products.
type ProductRepository interface {
	// Count returns the number of products whose name contains keyword,
	// case-insensitively. An empty keyword matches every product.
	Count(ctx context.Context, keyword string) (int, error)

	// List returns one page of products matching the filter.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)

	// GetByID retrieves a product. Returns a NotFound AppError when absent.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetDetail retrieves a product with its reviews (newest first) and media
	// (by position).
	GetDetail(ctx context.Context, id string) (*domain.ProductDetail, error)

	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error

	// ReorderMedia assigns positions 0..n-1 to the listed media ids in one
	// transaction. Ids that do not belong to the product are skipped.
	ReorderMedia(ctx context.Context, productID string, mediaIDs []string) ([]domain.ProductMedia, error)

	// CountLowStock returns the number of products with 0 < stock < 5.
	CountLowStock(ctx context.Context) (int, error)
}

// ReviewRepository defines the persistence operations for product reviews.
type ReviewRepository interface {
	// Exists reports whether userID already reviewed productID.
	Exists(ctx context.Context, productID, userID string) (bool, error)

	// Create inserts the review and recomputes the product's review count and
	// mean rating in one transaction holding the product row lock. The
	// duplicate check is repeated under the lock. Returns the updated product.
	Create(ctx context.Context, review *domain.Review) (*domain.Product, error)
}

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// Place persists the order header, its shipping address and one item per
	// line, decrementing each product's stock, all in one transaction. Item
	// name and image are snapshotted from the product. A missing product
	// aborts the whole placement with a NotFound AppError.
	Place(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its items and shipping address.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByUser returns a user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)

	// List returns a page of all orders, newest first, with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	MarkPaid(ctx context.Context, id string, at time.Time) (*domain.Order, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) (*domain.Order, error)

	// AddRefund atomically adds amount to the order's refund total and returns
	// the new total.
	AddRefund(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (decimal.Decimal, error)

	// ListSince returns summaries of orders created at or after since, oldest
	// first.
	ListSince(ctx context.Context, since time.Time) ([]domain.OrderSummary, error)
}
