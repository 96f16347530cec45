package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	demoSupplierID = "11111111-1111-1111-1111-111111111111"
	demoBuyerID    = "22222222-2222-2222-2222-222222222222"
)

type productSeed struct {
	SKU         string
	Name        string
	Description string
	Status      string
	PriceCents  int64
	Currency    string
	Quantity    int
	Variants    []variantSeed
}

type variantSeed struct {
	Title      string
	SKU        string
	PriceCents int64
	Quantity   int
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureUser(ctx, pool, demoSupplierID, "supplier@example.com", "supplier"); err != nil {
		return fmt.Errorf("ensure supplier: %w", err)
	}
	if err := ensureUser(ctx, pool, demoBuyerID, "buyer@example.com", "buyer"); err != nil {
		return fmt.Errorf("ensure buyer: %w", err)
	}

	products := []productSeed{
		{
			SKU:         "SKU-DEMO-TSHIRT",
			Name:        "Demo T-Shirt",
			Description: "Soft cotton tee for demo purposes",
			Status:      "active",
			PriceCents:  1999,
			Currency:    "USD",
			Quantity:    100,
			Variants: []variantSeed{
				{Title: "Small", SKU: "SKU-DEMO-TSHIRT-S", PriceCents: 1999, Quantity: 40},
				{Title: "Large", SKU: "SKU-DEMO-TSHIRT-L", PriceCents: 2199, Quantity: 60},
			},
		},
		{
			SKU:         "SKU-DEMO-MUG",
			Name:        "Demo Mug",
			Description: "Ceramic mug with demo logo",
			Status:      "active",
			PriceCents:  1299,
			Currency:    "USD",
			Quantity:    50,
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, demoSupplierID, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, id, email, role string) error {
	const q = `
INSERT INTO users (id, email, role, email_verified)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (id) DO NOTHING
`
	_, err := pool.Exec(ctx, q, id, email, role)
	return err
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, supplierID string, p productSeed) error {
	const q = `
INSERT INTO products (supplier_id, sku, name, description, status, price_cents, currency, attributes)
VALUES ($1, $2, $3, $4, $5, $6, $7, '{}'::jsonb)
ON CONFLICT (sku) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    status = EXCLUDED.status,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency
RETURNING id::text
`
	var productID string
	if err := pool.QueryRow(ctx, q, supplierID, p.SKU, p.Name, p.Description, p.Status, p.PriceCents, p.Currency).Scan(&productID); err != nil {
		return err
	}

	if err := setStock(ctx, pool, productID, nil, p.Quantity); err != nil {
		return fmt.Errorf("set stock: %w", err)
	}

	for _, v := range p.Variants {
		variantID, err := upsertVariant(ctx, pool, productID, v)
		if err != nil {
			return fmt.Errorf("upsert variant %s: %w", v.SKU, err)
		}
		if err := setStock(ctx, pool, productID, &variantID, v.Quantity); err != nil {
			return fmt.Errorf("set variant stock: %w", err)
		}
	}

	return nil
}

func upsertVariant(ctx context.Context, pool *pgxpool.Pool, productID string, v variantSeed) (string, error) {
	const q = `
INSERT INTO product_variants (product_id, title, sku, price_cents)
VALUES ($1, $2, $3, $4)
ON CONFLICT (sku) DO UPDATE
SET title = EXCLUDED.title,
    price_cents = EXCLUDED.price_cents
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, productID, v.Title, v.SKU, v.PriceCents).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func setStock(ctx context.Context, pool *pgxpool.Pool, productID string, variantID *string, quantity int) error {
	const q = `
INSERT INTO inventory (product_id, variant_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (product_id, COALESCE(variant_id, '00000000-0000-0000-0000-000000000000'::uuid)) DO UPDATE
SET quantity = EXCLUDED.quantity
`
	_, err := pool.Exec(ctx, q, productID, variantID, quantity)
	return err
}
