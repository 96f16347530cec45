package order

import (
	"context"

	"marketplace-backend/internal/domain"
)

// MaterializeInput is the one-way snapshot of a cart into an order.
type MaterializeInput struct {
	OrderNumber     string
	UserID          string
	CartID          string
	SubtotalCents   int64
	TaxCents        int64
	ShippingCents   int64
	DiscountCents   int64
	TotalCents      int64
	Currency        string
	BillingAddress  domain.AddressSnapshot
	ShippingAddress domain.AddressSnapshot
	Notes           string
	Items           []domain.OrderItem
	PaymentMethod   string
}

type Repository interface {
	// Materialize writes the order, its items and a pending payment, then
	// empties the source cart and zeroes its totals, all in one transaction.
	Materialize(ctx context.Context, in MaterializeInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// SetStatus is a compare-and-set on the status column; a stale `from`
	// loses and reports domain.ErrNotFound.
	SetStatus(ctx context.Context, id, from, to string) error
	GetPayment(ctx context.Context, orderID string) (*domain.Payment, error)
}
