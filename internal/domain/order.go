package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a placed checkout. UserID is nil once the owning account has been
// removed upstream.
type Order struct {
	ID              string           `json:"id"`
	UserID          *string          `json:"user_id"`
	PaymentMethod   string           `json:"payment_method"`
	TaxPrice        decimal.Decimal  `json:"tax_price"`
	ShippingPrice   decimal.Decimal  `json:"shipping_price"`
	TotalPrice      decimal.Decimal  `json:"total_price"`
	IsPaid          bool             `json:"is_paid"`
	PaidAt          *time.Time       `json:"paid_at"`
	IsDelivered     bool             `json:"is_delivered"`
	DeliveredAt     *time.Time       `json:"delivered_at"`
	RefundTotal     decimal.Decimal  `json:"refund_total"`
	RefundedAt      *time.Time       `json:"refunded_at"`
	CreatedAt       time.Time        `json:"created_at"`
	Items           []OrderItem      `json:"order_items"`
	ShippingAddress *ShippingAddress `json:"shipping_address"`
}

// IsOwnedBy reports whether userID placed the order.
func (o *Order) IsOwnedBy(userID string) bool {
	return o.UserID != nil && userID != "" && *o.UserID == userID
}

// OrderItem is one order line. Name, Price and Image are copied from the
// product when the order is placed and never follow later product edits.
type OrderItem struct {
	ID        string          `json:"id"`
	OrderID   *string         `json:"order_id"`
	ProductID *string         `json:"product_id"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
}

// ShippingAddress is the delivery address captured with an order.
type ShippingAddress struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	PostalCode    string          `json:"postal_code"`
	Country       string          `json:"country"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
}
