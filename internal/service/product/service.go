package product

import (
	"context"
	"fmt"
	"strings"

	"marketplace-backend/internal/domain"
	productrepo "marketplace-backend/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error) {
	return s.repo.ListBySupplier(ctx, supplierID)
}

// Upsert creates or updates a supplier's product, keyed by sku. New products
// start in pending status until approved.
func (s *Service) Upsert(ctx context.Context, supplierID string, p domain.Product) (*domain.Product, error) {
	p.SupplierID = supplierID
	p.SKU = strings.TrimSpace(p.SKU)
	if p.SKU == "" {
		return nil, fmt.Errorf("%w: sku required", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name required", domain.ErrValidation)
	}
	if p.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if p.Status == "" {
		p.Status = "pending"
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	return s.repo.Upsert(ctx, p)
}
