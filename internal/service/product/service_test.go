package product

import (
	"context"
	"errors"
	"testing"

	"marketplace-backend/internal/domain"
)

type stubRepo struct {
	got *domain.Product
}

func (s *stubRepo) GetByID(_ context.Context, _ string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}

func (s *stubRepo) ListBySupplier(_ context.Context, _ string) ([]domain.Product, error) {
	return nil, nil
}

func (s *stubRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.got = &p
	return &p, nil
}

func (s *stubRepo) AvailableQuantity(_ context.Context, _ string, _ *string) (int, error) {
	return 0, nil
}

func TestUpsert_Defaults(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo)

	out, err := svc.Upsert(context.Background(), "supplier-1", domain.Product{
		SKU:        " SKU-1 ",
		Name:       "Pot",
		PriceCents: 1500,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if out.SKU != "SKU-1" {
		t.Fatalf("expected trimmed sku, got %q", out.SKU)
	}
	if out.SupplierID != "supplier-1" {
		t.Fatalf("expected supplier id set, got %q", out.SupplierID)
	}
	if out.Status != "pending" || out.Currency != "USD" {
		t.Fatalf("expected defaults, got status=%q currency=%q", out.Status, out.Currency)
	}
}

func TestUpsert_Validation(t *testing.T) {
	svc := New(&stubRepo{})
	ctx := context.Background()

	cases := []struct {
		name string
		p    domain.Product
	}{
		{"missing sku", domain.Product{Name: "Pot", PriceCents: 100}},
		{"missing name", domain.Product{SKU: "SKU-1", PriceCents: 100}},
		{"negative price", domain.Product{SKU: "SKU-1", Name: "Pot", PriceCents: -1}},
	}
	for _, tc := range cases {
		if _, err := svc.Upsert(ctx, "supplier-1", tc.p); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}
