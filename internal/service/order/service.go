package order

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"marketplace-backend/internal/domain"
	orderrepo "marketplace-backend/internal/repository/order"
)

type orderRepo interface {
	Materialize(ctx context.Context, in orderrepo.MaterializeInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	SetStatus(ctx context.Context, id, from, to string) error
	GetPayment(ctx context.Context, orderID string) (*domain.Payment, error)
}

type cartReader interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
}

type addressReader interface {
	GetByID(ctx context.Context, id string) (*domain.Address, error)
}

type productReader interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service materializes carts into immutable orders and drives the narrow set
// of status transitions suppliers and admins are allowed.
type Service struct {
	orders    orderRepo
	carts     cartReader
	addresses addressReader
	products  productReader
	logger    *log.Logger
}

func New(orders orderRepo, carts cartReader, addresses addressReader, products productReader, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{orders: orders, carts: carts, addresses: addresses, products: products, logger: logger}
}

type CreateInput struct {
	BillingAddressID  string `json:"billingAddressId"`
	ShippingAddressID string `json:"shippingAddressId"`
	PaymentMethod     string `json:"paymentMethod"`
	Notes             string `json:"notes,omitempty"`
}

// CreateFromCart snapshots the user's cart into an order with one item per
// cart line, a pending payment, and embedded copies of both addresses, then
// empties the cart. Everything is one transaction in the repository.
func (s *Service) CreateFromCart(ctx context.Context, user domain.User, in CreateInput) (*domain.Order, error) {
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, fmt.Errorf("%w: payment method required", domain.ErrValidation)
	}

	cart, err := s.carts.GetByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}

	billing, err := s.ownedAddress(ctx, user.ID, in.BillingAddressID, "billing")
	if err != nil {
		return nil, err
	}
	shipping, err := s.ownedAddress(ctx, user.ID, in.ShippingAddressID, "shipping")
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
		}
		item := domain.OrderItem{
			ProductID:      line.ProductID,
			SupplierID:     product.SupplierID,
			ProductName:    product.Name,
			SKU:            product.SKU,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.TotalCents,
		}
		if line.VariantID != nil {
			if v := product.Variant(*line.VariantID); v != nil {
				item.VariantTitle = v.Title
				item.SKU = v.SKU
			}
		}
		items = append(items, item)
	}

	input := orderrepo.MaterializeInput{
		UserID:          user.ID,
		CartID:          cart.ID,
		SubtotalCents:   cart.SubtotalCents,
		TaxCents:        cart.TaxCents,
		ShippingCents:   cart.ShippingCents,
		DiscountCents:   cart.DiscountCents,
		TotalCents:      cart.TotalCents(),
		Currency:        cart.Currency,
		BillingAddress:  snapshotAddress(*billing),
		ShippingAddress: snapshotAddress(*shipping),
		Notes:           in.Notes,
		Items:           items,
		PaymentMethod:   in.PaymentMethod,
	}

	// The order number carries 6 random digits; retry on the rare collision.
	for attempt := 0; attempt < 5; attempt++ {
		input.OrderNumber = newOrderNumber(time.Now().UTC())
		order, err := s.orders.Materialize(ctx, input)
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return order, nil
	}
	return nil, errors.New("order number collision")
}

// Get returns an order visible to the caller: the buyer who placed it, a
// supplier with items in it, or an admin.
func (s *Service) Get(ctx context.Context, actor domain.User, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visibleTo(actor, order) {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// ListForActor lists orders scoped to the caller's role.
func (s *Service) ListForActor(ctx context.Context, actor domain.User) ([]domain.Order, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		return s.orders.ListAll(ctx)
	case domain.RoleSupplier:
		return s.orders.ListBySupplier(ctx, actor.ID)
	default:
		return s.orders.ListByUser(ctx, actor.ID)
	}
}

// Payment returns the payment row for an order the caller may see.
func (s *Service) Payment(ctx context.Context, actor domain.User, orderID string) (*domain.Payment, error) {
	if _, err := s.Get(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.orders.GetPayment(ctx, orderID)
}

// Transition moves an order's status along the allowed edges. Admins may
// transition any order; suppliers only orders carrying their items.
func (s *Service) Transition(ctx context.Context, actor domain.User, orderID, to string) (*domain.Order, error) {
	to = strings.ToLower(strings.TrimSpace(to))
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleSupplier:
		if !hasSupplierItems(order, actor.ID) {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.ErrForbidden
	}
	if !domain.CanTransition(order.Status, to) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", domain.ErrValidation, order.Status, to)
	}
	if err := s.orders.SetStatus(ctx, orderID, order.Status, to); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Someone else transitioned first.
			return nil, fmt.Errorf("%w: order status changed concurrently", domain.ErrValidation)
		}
		return nil, err
	}
	s.logger.Printf("order service: order=%s status %s -> %s by=%s", orderID, order.Status, to, actor.ID)
	return s.orders.GetByID(ctx, orderID)
}

func (s *Service) ownedAddress(ctx context.Context, userID, addressID, label string) (*domain.Address, error) {
	if strings.TrimSpace(addressID) == "" {
		return nil, fmt.Errorf("%w: %s address required", domain.ErrValidation, label)
	}
	addr, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s address %s", domain.ErrNotFound, label, addressID)
		}
		return nil, err
	}
	if addr.UserID != userID {
		return nil, fmt.Errorf("%w: %s address belongs to another user", domain.ErrForbidden, label)
	}
	return addr, nil
}

func (s *Service) visibleTo(actor domain.User, order *domain.Order) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleSupplier:
		return order.UserID == actor.ID || hasSupplierItems(order, actor.ID)
	default:
		return order.UserID == actor.ID
	}
}

func hasSupplierItems(order *domain.Order, supplierID string) bool {
	for _, item := range order.Items {
		if item.SupplierID == supplierID {
			return true
		}
	}
	return false
}

func snapshotAddress(a domain.Address) domain.AddressSnapshot {
	return domain.AddressSnapshot{
		Recipient:  a.Recipient,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func newOrderNumber(now time.Time) string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("ORD-%s-%06d", now.Format("20060102"), now.UnixNano()%1000000)
	}
	n := binary.BigEndian.Uint32(buf[:]) % 1000000
	return fmt.Sprintf("ORD-%s-%06d", now.Format("20060102"), n)
}
