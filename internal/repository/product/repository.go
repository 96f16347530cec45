package product

import (
	"context"

	"marketplace-backend/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	// AvailableQuantity reports stock for a product or variant. Callers treat
	// lookup failures as advisory.
	AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error)
}
