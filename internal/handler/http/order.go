package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/pagination"
)

// OrderHandler handles HTTP requests for order and analytics endpoints.
type OrderHandler struct {
	orders    *service.OrderService
	analytics *service.AnalyticsService
	logger    *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders *service.OrderService, analytics *service.AnalyticsService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:    orders,
		analytics: analytics,
		logger:    logger,
	}
}

// --- Request DTOs ---

// ShippingAddressRequest is the delivery address submitted at checkout.
type ShippingAddressRequest struct {
	Address    string `json:"address" validate:"max=255"`
	City       string `json:"city" validate:"max=100"`
	PostalCode string `json:"postalCode" validate:"max=20"`
	Country    string `json:"country" validate:"max=100"`
}

// OrderItemRequest is one cart line.
type OrderItemRequest struct {
	Product string          `json:"product" validate:"required,uuid"`
	Qty     int             `json:"qty" validate:"gte=1"`
	Price   decimal.Decimal `json:"price" validate:"gte=0"`
}

// PlaceOrderRequest is the checkout payload. An empty orderItems list is
// rejected by the service with EMPTY_CART.
type PlaceOrderRequest struct {
	PaymentMethod   string                 `json:"paymentMethod" validate:"max=100"`
	TaxPrice        decimal.Decimal        `json:"taxPrice" validate:"gte=0"`
	ShippingPrice   decimal.Decimal        `json:"shippingPrice" validate:"gte=0"`
	TotalPrice      decimal.Decimal        `json:"totalPrice" validate:"gte=0"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	OrderItems      []OrderItemRequest     `json:"orderItems" validate:"dive"`
}

// RefundRequest carries the amount to add to the order's refund total.
type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// RefundResponse reports the refund total after a refund is recorded.
type RefundResponse struct {
	Detail      string          `json:"detail"`
	RefundTotal decimal.Decimal `json:"refund_total"`
}

// --- Handlers ---

// PlaceOrder handles POST /api/orders/
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	items := make([]service.OrderLineInput, len(req.OrderItems))
	for i, item := range req.OrderItems {
		items[i] = service.OrderLineInput{
			ProductID: item.Product,
			Qty:       item.Qty,
			Price:     item.Price,
		}
	}

	order, err := h.orders.PlaceOrder(r.Context(), &service.PlaceOrderInput{
		UserID:        middleware.UserIDFromContext(r.Context()),
		PaymentMethod: req.PaymentMethod,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
		ShippingAddress: service.ShippingAddressInput{
			Address:    req.ShippingAddress.Address,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		Items: items,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}

// ListMyOrders handles GET /api/orders/myorders/
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListMyOrders(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	httputil.WriteData(w, http.StatusOK, orders)
}

// ListOrders handles GET /api/orders/
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.orders.ListOrders(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetOrder handles GET /api/orders/{id}/
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id.String(), viewerFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// MarkPaid handles PUT /api/orders/{id}/pay/
func (h *OrderHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.MarkPaid(r.Context(), id.String(), viewerFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// MarkDelivered handles PUT /api/orders/{id}/deliver/
func (h *OrderHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.MarkDelivered(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// Refund handles PUT /api/orders/{id}/refund/
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req RefundRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	total, err := h.orders.Refund(r.Context(), id.String(), req.Amount)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, RefundResponse{Detail: "Refund recorded", RefundTotal: total})
}

// Analytics handles GET /api/orders/analytics/
func (h *OrderHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	days := domain.ParseAnalyticsDays(r.URL.Query().Get("days"))

	report, err := h.analytics.Summary(r.Context(), days)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, report)
}
