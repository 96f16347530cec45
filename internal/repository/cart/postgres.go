package cart

import (
	"context"
	"errors"
	"time"

	"marketplace-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const cartColumns = `
id::text, user_id::text, session_id, currency, subtotal_cents, tax_cents, shipping_cents, discount_cents, expires_at, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (user_id, session_id, currency, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + cartColumns
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, q, in.UserID, in.SessionID, in.Currency, in.ExpiresAt).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.SessionID,
		&cart.Currency,
		&cart.SubtotalCents,
		&cart.TaxCents,
		&cart.ShippingCents,
		&cart.DiscountCents,
		&cart.ExpiresAt,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return nil, ErrMissingOwner
			case "23505":
				return nil, domain.ErrAlreadyExists
			}
		}
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
}

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID)
}

func (r *postgresRepo) GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE session_id = $1`, sessionID)
}

func (r *postgresRepo) AddItem(ctx context.Context, cartID string, product domain.Product, variantID *string, quantity int) error {
	err := r.addItem(ctx, cartID, product, variantID, quantity)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Lost a concurrent first-add race on the line's unique index; the
		// row exists now, so a second pass merges into it.
		err = r.addItem(ctx, cartID, product, variantID, quantity)
	}
	return err
}

func (r *postgresRepo) addItem(ctx context.Context, cartID string, product domain.Product, variantID *string, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var itemID string
	var existingQty int
	var unitPrice int64
	err = tx.QueryRow(ctx, `
SELECT id::text, quantity, unit_price_cents
FROM cart_items
WHERE cart_id = $1 AND product_id = $2
  AND COALESCE(variant_id, '00000000-0000-0000-0000-000000000000'::uuid) =
      COALESCE($3::uuid, '00000000-0000-0000-0000-000000000000'::uuid)
`, cartID, product.ID, variantID).Scan(&itemID, &existingQty, &unitPrice)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err == nil {
		newQty := existingQty + quantity
		newTotal := unitPrice * int64(newQty)
		if _, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $1, total_cents = $2
WHERE id = $3
`, newQty, newTotal, itemID); err != nil {
			return err
		}
	} else {
		unitPrice = product.UnitPriceCents(variantID)
		total := unitPrice * int64(quantity)
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, variant_id, quantity, unit_price_cents, total_cents)
VALUES ($1, $2, $3, $4, $5, $6)
`, cartID, product.ID, variantID, quantity, unitPrice, total); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.ErrAlreadyExists
			}
			return err
		}
	}

	if err := updateCartTotals(ctx, tx, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if quantity <= 0 {
		cmd, err := tx.Exec(ctx, `
DELETE FROM cart_items
WHERE id = $1 AND cart_id = $2
`, itemID, cartID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	} else {
		var unitPrice int64
		err := tx.QueryRow(ctx, `
SELECT unit_price_cents
FROM cart_items
WHERE id = $1 AND cart_id = $2
`, itemID, cartID).Scan(&unitPrice)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		total := unitPrice * int64(quantity)
		if _, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $1, total_cents = $2
WHERE id = $3 AND cart_id = $4
`, quantity, total, itemID, cartID); err != nil {
			return err
		}
	}

	if err := updateCartTotals(ctx, tx, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, cartQuery string, arg interface{}) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, cartQuery, arg).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.SessionID,
		&cart.Currency,
		&cart.SubtotalCents,
		&cart.TaxCents,
		&cart.ShippingCents,
		&cart.DiscountCents,
		&cart.ExpiresAt,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const itemsQuery = `
SELECT id::text, cart_id::text, product_id::text, variant_id::text, quantity, unit_price_cents, total_cents, created_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.VariantID,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.TotalCents,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func updateCartTotals(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `
UPDATE carts
SET subtotal_cents = COALESCE((
	SELECT SUM(total_cents)
	FROM cart_items
	WHERE cart_id = $1
), 0),
    updated_at = now()
WHERE id = $1
`, cartID)
	return err
}
