package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const orderColumns = `id, user_id, payment_method, tax_price, shipping_price, total_price,
		is_paid, paid_at, is_delivered, delivered_at, refund_total, refunded_at, created_at`

const (
	insertOrderSQL = `
		INSERT INTO orders (id, user_id, payment_method, tax_price, shipping_price, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertShippingAddressSQL = `
		INSERT INTO shipping_addresses (id, order_id, address, city, postal_code, country, shipping_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	lockProductSnapshotSQL = `SELECT name, image FROM products WHERE id = $1 FOR UPDATE`

	insertOrderItemSQL = `
		INSERT INTO order_items (id, order_id, product_id, line, name, qty, price, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	decrementStockSQL = `UPDATE products SET count_in_stock = count_in_stock - $2, updated_at = now() WHERE id = $1`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`

	listOrdersSQL = `SELECT ` + orderColumns + `, count(*) OVER() AS total_count
		FROM orders ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`

	countOrdersSQL = `SELECT count(*) FROM orders`

	listOrderItemsSQL = `
		SELECT id, order_id, product_id, name, qty, price, image
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, line`

	listShippingAddressesSQL = `
		SELECT id, order_id, address, city, postal_code, country, shipping_price
		FROM shipping_addresses
		WHERE order_id = ANY($1::uuid[])`

	markPaidSQL = `UPDATE orders SET is_paid = true, paid_at = $2 WHERE id = $1 RETURNING ` + orderColumns

	markDeliveredSQL = `UPDATE orders SET is_delivered = true, delivered_at = $2 WHERE id = $1 RETURNING ` + orderColumns

	addRefundSQL = `
		UPDATE orders
		SET refund_total = COALESCE(refund_total, 0) + $2, refunded_at = $3
		WHERE id = $1
		RETURNING refund_total`

	listOrdersSinceSQL = `
		SELECT id, created_at, COALESCE(total_price, 0), is_paid, is_delivered
		FROM orders
		WHERE created_at >= $1
		ORDER BY created_at ASC, id`
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func orderScanDest(o *domain.Order) []any {
	return []any{
		&o.ID,
		&o.UserID,
		&o.PaymentMethod,
		&o.TaxPrice,
		&o.ShippingPrice,
		&o.TotalPrice,
		&o.IsPaid,
		&o.PaidAt,
		&o.IsDelivered,
		&o.DeliveredAt,
		&o.RefundTotal,
		&o.RefundedAt,
		&o.CreatedAt,
	}
}

// Place persists the order graph and decrements stock in one transaction.
// Stock is not checked against the requested quantity and may go negative.
func (r *OrderRepository) Place(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "PlaceOrder", insertOrderSQL)
	defer func() { end(err) }()

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertOrderSQL,
			o.ID,
			o.UserID,
			o.PaymentMethod,
			o.TaxPrice,
			o.ShippingPrice,
			o.TotalPrice,
			o.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if a := o.ShippingAddress; a != nil {
			a.OrderID = o.ID
			if _, err := tx.Exec(ctx, insertShippingAddressSQL,
				a.ID,
				a.OrderID,
				a.Address,
				a.City,
				a.PostalCode,
				a.Country,
				a.ShippingPrice,
			); err != nil {
				return fmt.Errorf("insert shipping address: %w", err)
			}
		}

		for i := range o.Items {
			item := &o.Items[i]
			if item.ProductID == nil {
				return apperrors.InvalidInput("order item requires a product")
			}
			productID := *item.ProductID

			if err := tx.QueryRow(ctx, lockProductSnapshotSQL, productID).Scan(&item.Name, &item.Image); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NotFound("product", productID)
				}
				return fmt.Errorf("lock product: %w", err)
			}
			item.OrderID = &o.ID

			if _, err := tx.Exec(ctx, insertOrderItemSQL,
				item.ID,
				o.ID,
				productID,
				i,
				item.Name,
				item.Qty,
				item.Price,
				item.Image,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}

			if _, err := tx.Exec(ctx, decrementStockSQL, productID, item.Qty); err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves an order with its items and shipping address.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (o *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrder", getOrderSQL)
	defer func() { end(err) }()

	o = &domain.Order{}
	if err = r.pool.QueryRow(ctx, getOrderSQL, id).Scan(orderScanDest(o)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	orders := []domain.Order{*o}
	if err = r.attachDetails(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListByUser returns every order placed by userID, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) (orders []domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "ListOrdersByUser", listOrdersByUserSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders by user: %w", err)
	}
	defer rows.Close()

	orders = []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err = rows.Scan(orderScanDest(&o)...); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	rows.Close()

	if err = r.attachDetails(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// List returns a page of all orders and the total number of orders.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (orders []domain.Order, totalCount int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListOrders", listOrdersSQL)
	defer func() { end(err) }()

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	rows, err := r.pool.Query(ctx, listOrdersSQL, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders = []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err = rows.Scan(append(orderScanDest(&o), &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}
	rows.Close()

	// The window count rides on the page rows, so an empty page past the end
	// needs its own count.
	if len(orders) == 0 && offset > 0 {
		if err = r.pool.QueryRow(ctx, countOrdersSQL).Scan(&totalCount); err != nil {
			return nil, 0, fmt.Errorf("count orders: %w", err)
		}
	}

	if err = r.attachDetails(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, totalCount, nil
}

// attachDetails loads items and shipping addresses for orders with one query
// each.
func (r *OrderRepository) attachDetails(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]*domain.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		orders[i].Items = []domain.OrderItem{}
		index[orders[i].ID] = &orders[i]
	}

	rows, err := r.pool.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Qty, &it.Price, &it.Image); err != nil {
			rows.Close()
			return fmt.Errorf("scan order item row: %w", err)
		}
		if it.OrderID == nil {
			continue
		}
		if o, ok := index[*it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order item rows: %w", err)
	}

	rows, err = r.pool.Query(ctx, listShippingAddressesSQL, ids)
	if err != nil {
		return fmt.Errorf("list shipping addresses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		a := &domain.ShippingAddress{}
		if err := rows.Scan(&a.ID, &a.OrderID, &a.Address, &a.City, &a.PostalCode, &a.Country, &a.ShippingPrice); err != nil {
			return fmt.Errorf("scan shipping address row: %w", err)
		}
		if o, ok := index[a.OrderID]; ok {
			o.ShippingAddress = a
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate shipping address rows: %w", err)
	}
	return nil
}

// MarkPaid flags the order paid and stamps paid_at, on every call.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (*domain.Order, error) {
	return r.updateFlag(ctx, "MarkOrderPaid", markPaidSQL, id, at)
}

// MarkDelivered flags the order delivered and stamps delivered_at.
func (r *OrderRepository) MarkDelivered(ctx context.Context, id string, at time.Time) (*domain.Order, error) {
	return r.updateFlag(ctx, "MarkOrderDelivered", markDeliveredSQL, id, at)
}

func (r *OrderRepository) updateFlag(ctx context.Context, op, query, id string, at time.Time) (o *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	o = &domain.Order{}
	if err = r.pool.QueryRow(ctx, query, id, at).Scan(orderScanDest(o)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	orders := []domain.Order{*o}
	if err = r.attachDetails(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// AddRefund adds amount to the running refund total in a single statement.
func (r *OrderRepository) AddRefund(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (total decimal.Decimal, err error) {
	ctx, end := database.TraceQuery(ctx, "AddRefund", addRefundSQL)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, addRefundSQL, id, amount, at).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperrors.NotFound("order", id)
		}
		return decimal.Zero, fmt.Errorf("add refund: %w", err)
	}
	return total, nil
}

// ListSince returns summaries of the orders created at or after since.
func (r *OrderRepository) ListSince(ctx context.Context, since time.Time) (summaries []domain.OrderSummary, err error) {
	ctx, end := database.TraceQuery(ctx, "ListOrdersSince", listOrdersSinceSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listOrdersSinceSQL, since)
	if err != nil {
		return nil, fmt.Errorf("list orders since: %w", err)
	}
	defer rows.Close()

	summaries = []domain.OrderSummary{}
	for rows.Next() {
		var s domain.OrderSummary
		if err = rows.Scan(&s.ID, &s.CreatedAt, &s.TotalPrice, &s.IsPaid, &s.IsDelivered); err != nil {
			return nil, fmt.Errorf("scan order summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order summary rows: %w", err)
	}
	return summaries, nil
}
