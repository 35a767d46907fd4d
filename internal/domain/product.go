package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultProductName is the placeholder name given to products created
// without one.
const DefaultProductName = "Sample Name"

// LowStockThreshold is the exclusive upper bound of the low-stock band.
// Products with 0 < stock < LowStockThreshold count as low stock.
const LowStockThreshold = 5

// ProductPageSize is the fixed page size of the public product listing.
const ProductPageSize = 8

// Product represents a catalog entry.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	CountInStock int             `json:"count_in_stock"`
	Rating       decimal.Decimal `json:"rating"`
	NumReviews   int             `json:"num_reviews"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsLowStock reports whether the product is in stock but below the
// low-stock threshold.
func (p *Product) IsLowStock() bool {
	return p.CountInStock > 0 && p.CountInStock < LowStockThreshold
}

// ProductMedia is an image or video attached to a product, shown in
// ascending Position order.
type ProductMedia struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	URL       string    `json:"url"`
	AltText   string    `json:"alt_text"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductDetail is a product together with its reviews and ordered media.
type ProductDetail struct {
	Product
	Reviews []Review       `json:"reviews"`
	Media   []ProductMedia `json:"media"`
}

// Product listing sort keys.
const (
	SortByName   = "name"
	SortByPrice  = "price"
	SortByRating = "rating"
)

// ProductSort is a validated listing order.
type ProductSort struct {
	Field string
	Desc  bool
}

// ParseProductSort maps the sort_by and order query values onto a listing
// order. Unknown fields fall back to name; only "desc" reverses.
func ParseProductSort(sortBy, order string) ProductSort {
	s := ProductSort{Field: SortByName, Desc: order == "desc"}
	switch sortBy {
	case SortByPrice, SortByRating, SortByName:
		s.Field = sortBy
	}
	return s
}
