package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"marketplace-backend/internal/domain"
	cartrepo "marketplace-backend/internal/repository/cart"
)

type cartRepo interface {
	Create(ctx context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID string, product domain.Product, variantID *string, quantity int) error
	SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	AvailableQuantity(ctx context.Context, productID string, variantID *string) (int, error)
}

type identityResolver interface {
	EnsureUser(ctx context.Context, ident domain.User) error
}

// Owner identifies who a cart belongs to: an authenticated user (preferred)
// or an anonymous session.
type Owner struct {
	User      *domain.User
	SessionID string
}

// Service implements the cart consistency path: find-or-create keyed by
// owner, line merge, and totals re-aggregation.
type Service struct {
	repo     cartRepo
	products productRepo
	identity identityResolver
	logger   *log.Logger
	cartTTL  time.Duration
}

func New(repo cartRepo, products productRepo, identity identityResolver, logger *log.Logger, cartTTL time.Duration) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cartTTL <= 0 {
		cartTTL = 30 * 24 * time.Hour
	}
	return &Service{repo: repo, products: products, identity: identity, logger: logger, cartTTL: cartTTL}
}

// GetOrCreate returns the owner's cart, creating it on first access. The user
// row may lag behind the external identity, so creation for a user first runs
// identity resolution; a foreign-key failure re-resolves once and retries. A
// unique-violation means a concurrent request created the cart first, and the
// winner's row is returned.
func (s *Service) GetOrCreate(ctx context.Context, owner Owner) (*domain.Cart, error) {
	lookup, in, err := s.ownerKeys(owner)
	if err != nil {
		return nil, err
	}

	cart, err := lookup(ctx)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if owner.User != nil {
		if err := s.identity.EnsureUser(ctx, *owner.User); err != nil {
			return nil, fmt.Errorf("ensure user %s: %w", owner.User.ID, err)
		}
	}

	cart, err = s.repo.Create(ctx, in)
	if errors.Is(err, cartrepo.ErrMissingOwner) && owner.User != nil {
		// The row vanished between resolution and insert or the upsert has
		// not become visible yet. Resolve once more and retry.
		if err := s.identity.EnsureUser(ctx, *owner.User); err != nil {
			return nil, fmt.Errorf("ensure user %s: %w", owner.User.ID, err)
		}
		cart, err = s.repo.Create(ctx, in)
	}
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Lost the first-cart race; the other request's cart is ours too.
		return lookup(ctx)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem merges a (product, variant) line into the owner's cart. The unit
// price is captured at add time. Inventory is advisory: a failed lookup is
// logged and ignored, an explicit shortfall rejects the add.
func (s *Service) AddItem(ctx context.Context, owner Owner, productID string, variantID *string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}

	cart, err := s.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, productID)
		}
		return nil, err
	}
	if !product.Sellable() {
		return nil, fmt.Errorf("%w: product %s is not available for sale", domain.ErrValidation, productID)
	}
	if variantID != nil && product.Variant(*variantID) == nil {
		return nil, fmt.Errorf("%w: variant %s does not belong to product %s", domain.ErrValidation, *variantID, productID)
	}

	if avail, err := s.products.AvailableQuantity(ctx, productID, variantID); err != nil {
		s.logger.Printf("cart service: inventory lookup product=%s err=%v (ignored)", productID, err)
	} else if avail < quantity {
		return nil, fmt.Errorf("%w: insufficient stock for product %s", domain.ErrValidation, productID)
	}

	if err := s.repo.AddItem(ctx, cart.ID, *product, variantID, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

// SetItemQuantity updates a line in the owner's cart; quantity 0 removes it.
func (s *Service) SetItemQuantity(ctx context.Context, owner Owner, itemID string, quantity int) (*domain.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", domain.ErrValidation)
	}
	cart, err := s.ownedCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

// RemoveItem deletes a line from the owner's cart.
func (s *Service) RemoveItem(ctx context.Context, owner Owner, itemID string) (*domain.Cart, error) {
	return s.SetItemQuantity(ctx, owner, itemID, 0)
}

// Sweep deletes carts whose expiry has passed.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Printf("cart service: swept %d expired carts", n)
	}
	return n, nil
}

func (s *Service) ownedCart(ctx context.Context, owner Owner) (*domain.Cart, error) {
	lookup, _, err := s.ownerKeys(owner)
	if err != nil {
		return nil, err
	}
	return lookup(ctx)
}

func (s *Service) ownerKeys(owner Owner) (func(context.Context) (*domain.Cart, error), cartrepo.CreateCartInput, error) {
	switch {
	case owner.User != nil:
		userID := owner.User.ID
		return func(ctx context.Context) (*domain.Cart, error) {
				return s.repo.GetByUser(ctx, userID)
			}, cartrepo.CreateCartInput{
				UserID:    &userID,
				Currency:  "USD",
				ExpiresAt: time.Now().Add(s.cartTTL),
			}, nil
	case owner.SessionID != "":
		sessionID := owner.SessionID
		return func(ctx context.Context) (*domain.Cart, error) {
				return s.repo.GetBySession(ctx, sessionID)
			}, cartrepo.CreateCartInput{
				SessionID: &sessionID,
				Currency:  "USD",
				ExpiresAt: time.Now().Add(s.cartTTL),
			}, nil
	default:
		return nil, cartrepo.CreateCartInput{}, fmt.Errorf("%w: cart owner required", domain.ErrValidation)
	}
}
