package product

import (
	"context"
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

const productColumns = `
id::text, supplier_id::text, sku, name, COALESCE(description, ''), status, price_cents, currency, attributes, created_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.fetchProduct(ctx, q, id)
}

func (r *postgresRepo) ListBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE supplier_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, supplierID)
	if err != nil {
		r.logger.Printf("product repo: list supplier_id=%s error=%v", supplierID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (supplier_id, sku, name, description, status, price_cents, currency, attributes)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, COALESCE($8, '{}'::jsonb))
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    status = EXCLUDED.status,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    attributes = EXCLUDED.attributes
WHERE products.supplier_id = EXCLUDED.supplier_id
RETURNING id::text, created_at
`
	out := p
	err := r.pool.QueryRow(ctx, q,
		p.SupplierID, p.SKU, p.Name, p.Description, p.Status, p.PriceCents, p.Currency, p.Attributes,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The conditional update skipped: the sku belongs to another supplier.
			return nil, domain.ErrAlreadyExists
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("product repo: upsert sku=%s error=%v", p.SKU, err)
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error) {
	const q = `
SELECT quantity
FROM inventory
WHERE product_id = $1
  AND COALESCE(variant_id, '00000000-0000-0000-0000-000000000000'::uuid) =
      COALESCE($2::uuid, '00000000-0000-0000-0000-000000000000'::uuid)
`
	var qty int
	err := r.pool.QueryRow(ctx, q, productID, variantID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return qty, nil
}

func (r *postgresRepo) fetchProduct(ctx context.Context, q string, arg interface{}) (*domain.Product, error) {
	var p domain.Product
	if err := scanProduct(r.pool.QueryRow(ctx, q, arg), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const variantsQ = `
SELECT id::text, product_id::text, title, sku, price_cents
FROM product_variants
WHERE product_id = $1
ORDER BY title ASC
`
	rows, err := r.pool.Query(ctx, variantsQ, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Title, &v.SKU, &v.PriceCents); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProduct(row pgx.Row, p *domain.Product) error {
	return row.Scan(
		&p.ID,
		&p.SupplierID,
		&p.SKU,
		&p.Name,
		&p.Description,
		&p.Status,
		&p.PriceCents,
		&p.Currency,
		&p.Attributes,
		&p.CreatedAt,
	)
}
