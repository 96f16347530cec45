package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"

	"marketplace-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const orderColumns = `
id::text, order_number, user_id::text, status, subtotal_cents, tax_cents, shipping_cents, discount_cents, total_cents, currency, billing_address, shipping_address, notes, created_at`

func (r *postgresRepo) Materialize(ctx context.Context, in MaterializeInput) (*domain.Order, error) {
	billJSON, err := json.Marshal(in.BillingAddress)
	if err != nil {
		return nil, err
	}
	shipJSON, err := json.Marshal(in.ShippingAddress)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const orderQ = `
INSERT INTO orders (order_number, user_id, status, subtotal_cents, tax_cents, shipping_cents, discount_cents, total_cents, currency, billing_address, shipping_address, notes)
VALUES ($1, $2, 'pending', $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id::text, created_at
`
	var orderID string
	out := domain.Order{
		OrderNumber:     in.OrderNumber,
		UserID:          in.UserID,
		Status:          domain.OrderPending,
		SubtotalCents:   in.SubtotalCents,
		TaxCents:        in.TaxCents,
		ShippingCents:   in.ShippingCents,
		DiscountCents:   in.DiscountCents,
		TotalCents:      in.TotalCents,
		Currency:        in.Currency,
		BillingAddress:  in.BillingAddress,
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
	}
	err = tx.QueryRow(ctx, orderQ,
		in.OrderNumber, in.UserID,
		in.SubtotalCents, in.TaxCents, in.ShippingCents, in.DiscountCents, in.TotalCents,
		in.Currency, billJSON, shipJSON, in.Notes,
	).Scan(&orderID, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	out.ID = orderID

	const itemQ = `
INSERT INTO order_items (order_id, product_id, supplier_id, product_name, variant_title, sku, quantity, unit_price_cents, total_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id::text
`
	for _, item := range in.Items {
		stored := item
		stored.OrderID = orderID
		if err := tx.QueryRow(ctx, itemQ,
			orderID, item.ProductID, item.SupplierID, item.ProductName, item.VariantTitle, item.SKU,
			item.Quantity, item.UnitPriceCents, item.TotalCents,
		).Scan(&stored.ID); err != nil {
			return nil, err
		}
		out.Items = append(out.Items, stored)
	}

	const paymentQ = `
INSERT INTO payments (order_id, method, status, amount_cents, currency)
VALUES ($1, $2, 'pending', $3, $4)
`
	if _, err := tx.Exec(ctx, paymentQ, orderID, in.PaymentMethod, in.TotalCents, in.Currency); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, in.CartID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
UPDATE carts
SET subtotal_cents = 0, tax_cents = 0, shipping_cents = 0, discount_cents = 0, updated_at = now()
WHERE id = $1
`, in.CartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: materialized order=%s number=%s items=%d", orderID, in.OrderNumber, len(in.Items))
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := r.fetchOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	items, err := r.fetchItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) ListBySupplier(ctx context.Context, supplierID string) ([]domain.Order, error) {
	return r.listOrders(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE id IN (SELECT order_id FROM order_items WHERE supplier_id = $1)
ORDER BY created_at DESC
`, supplierID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *postgresRepo) SetStatus(ctx context.Context, id, from, to string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) GetPayment(ctx context.Context, orderID string) (*domain.Payment, error) {
	const q = `
SELECT id::text, order_id::text, method, status, amount_cents, currency, created_at
FROM payments
WHERE order_id = $1
ORDER BY created_at DESC
LIMIT 1
`
	var p domain.Payment
	err := r.pool.QueryRow(ctx, q, orderID).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Status, &p.AmountCents, &p.Currency, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) listOrders(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) fetchOrder(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) fetchItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const q = `
SELECT id::text, order_id::text, product_id::text, supplier_id::text, product_name, variant_title, sku, quantity, unit_price_cents, total_cents
FROM order_items
WHERE order_id = $1
ORDER BY product_name ASC
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.SupplierID, &item.ProductName,
			&item.VariantTitle, &item.SKU, &item.Quantity, &item.UnitPriceCents, &item.TotalCents,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var billJSON, shipJSON []byte
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.SubtotalCents,
		&o.TaxCents,
		&o.ShippingCents,
		&o.DiscountCents,
		&o.TotalCents,
		&o.Currency,
		&billJSON,
		&shipJSON,
		&o.Notes,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(billJSON) > 0 {
		if err := json.Unmarshal(billJSON, &o.BillingAddress); err != nil {
			return nil, err
		}
	}
	if len(shipJSON) > 0 {
		if err := json.Unmarshal(shipJSON, &o.ShippingAddress); err != nil {
			return nil, err
		}
	}
	return &o, nil
}
