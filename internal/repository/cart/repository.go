package cart

import (
	"context"
	"errors"
	"time"

	"marketplace-backend/internal/domain"
)

// ErrMissingOwner is returned by Create when the cart's user row does not
// exist yet (foreign key violation). Callers re-run identity resolution and
// retry.
var ErrMissingOwner = errors.New("cart owner row missing")

type CreateCartInput struct {
	UserID    *string
	SessionID *string
	Currency  string
	ExpiresAt time.Time
}

type Repository interface {
	Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error)
	// AddItem merges a (product, variant) line into the cart inside one
	// transaction and re-aggregates the cart subtotal.
	AddItem(ctx context.Context, cartID string, product domain.Product, variantID *string, quantity int) error
	// SetItemQuantity updates a line; quantity <= 0 removes it.
	SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	// DeleteExpired removes carts whose expiry has passed and returns the count.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
