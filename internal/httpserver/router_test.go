package httpserver

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/identity"
	"marketplace-backend/internal/session"
	cartsvc "marketplace-backend/internal/service/cart"
	ordersvc "marketplace-backend/internal/service/order"
	"github.com/gin-gonic/gin"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubVerifier struct {
	user *domain.User
}

func (s *stubVerifier) Verify(_ string) (*domain.User, error) {
	if s.user == nil {
		return nil, identity.ErrInvalidToken
	}
	return s.user, nil
}

type stubSessions struct {
	valid map[string]bool
}

func (s *stubSessions) Issue(_ context.Context) (string, error) {
	return "sess-new", nil
}

func (s *stubSessions) Lookup(_ context.Context, id string) error {
	if s.valid[id] {
		return nil
	}
	return session.ErrInvalidSession
}

type stubCartService struct {
	cart     *domain.Cart
	err      error
	gotOwner cartsvc.Owner
}

func (s *stubCartService) GetOrCreate(_ context.Context, owner cartsvc.Owner) (*domain.Cart, error) {
	s.gotOwner = owner
	return s.cart, s.err
}

func (s *stubCartService) AddItem(_ context.Context, owner cartsvc.Owner, _ string, _ *string, _ int) (*domain.Cart, error) {
	s.gotOwner = owner
	return s.cart, s.err
}

func (s *stubCartService) SetItemQuantity(_ context.Context, owner cartsvc.Owner, _ string, _ int) (*domain.Cart, error) {
	s.gotOwner = owner
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, owner cartsvc.Owner, _ string) (*domain.Cart, error) {
	s.gotOwner = owner
	return s.cart, s.err
}

type stubOrderService struct {
	order   *domain.Order
	orders  []domain.Order
	payment *domain.Payment
	err     error
}

func (s *stubOrderService) CreateFromCart(_ context.Context, _ domain.User, _ ordersvc.CreateInput) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) Get(_ context.Context, _ domain.User, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) ListForActor(_ context.Context, _ domain.User) ([]domain.Order, error) {
	return s.orders, s.err
}

func (s *stubOrderService) Payment(_ context.Context, _ domain.User, _ string) (*domain.Payment, error) {
	return s.payment, s.err
}

func (s *stubOrderService) Transition(_ context.Context, _ domain.User, _ string, _ string) (*domain.Order, error) {
	return s.order, s.err
}

type stubProductService struct {
	product  *domain.Product
	products []domain.Product
	err      error
}

func (s *stubProductService) Get(_ context.Context, _ string) (*domain.Product, error) {
	return s.product, s.err
}

func (s *stubProductService) ListBySupplier(_ context.Context, _ string) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubProductService) Upsert(_ context.Context, _ string, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &p, nil
}

type stubAddressRepo struct {
	addrs []domain.Address
	err   error
}

func (s *stubAddressRepo) Create(_ context.Context, a domain.Address) (*domain.Address, error) {
	if s.err != nil {
		return nil, s.err
	}
	a.ID = "addr-1"
	return &a, nil
}

func (s *stubAddressRepo) ListByUser(_ context.Context, _ string) ([]domain.Address, error) {
	return s.addrs, s.err
}

func testDeps() Deps {
	return Deps{
		CartSvc:     &stubCartService{cart: &domain.Cart{ID: "cart-1", Currency: "USD"}},
		OrderSvc:    &stubOrderService{},
		ProductSvc:  &stubProductService{},
		AddressRepo: &stubAddressRepo{},
		Verifier:    &stubVerifier{},
		Sessions:    &stubSessions{},
	}
}

func testRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func TestBuildRouter_MissingDep(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := testDeps()
	deps.OrderSvc = nil
	if _, err := buildRouter(logDiscard(), nil, deps); err == nil {
		t.Fatal("expected error for missing dep")
	}
}

func TestIssueSession(t *testing.T) {
	router := testRouter(t, testDeps())

	req := httptest.NewRequest(http.MethodPost, "/auth/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"sessionId":"sess-new"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestGetCart_AnonymousSession(t *testing.T) {
	deps := testDeps()
	cartStub := &stubCartService{cart: &domain.Cart{ID: "cart-1", Currency: "USD", SubtotalCents: 3000}}
	deps.CartSvc = cartStub
	deps.Sessions = &stubSessions{valid: map[string]bool{"sess-1": true}}
	router := testRouter(t, deps)

	req := httptest.NewRequest(http.MethodGet, "/buyer/orders/cart", nil)
	req.Header.Set(sessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if cartStub.gotOwner.SessionID != "sess-1" || cartStub.gotOwner.User != nil {
		t.Fatalf("expected session owner, got %+v", cartStub.gotOwner)
	}
	if !strings.Contains(rec.Body.String(), `"totalCents":3000`) {
		t.Fatalf("expected derived total in body: %s", rec.Body.String())
	}
}

func TestGetCart_BearerWinsOverSession(t *testing.T) {
	deps := testDeps()
	cartStub := &stubCartService{cart: &domain.Cart{ID: "cart-1"}}
	deps.CartSvc = cartStub
	deps.Verifier = &stubVerifier{user: &domain.User{ID: "user-1", Role: domain.RoleBuyer}}
	deps.Sessions = &stubSessions{valid: map[string]bool{"sess-1": true}}
	router := testRouter(t, deps)

	req := httptest.NewRequest(http.MethodGet, "/buyer/orders/cart", nil)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set(sessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if cartStub.gotOwner.User == nil || cartStub.gotOwner.User.ID != "user-1" {
		t.Fatalf("expected user owner to win, got %+v", cartStub.gotOwner)
	}
	if cartStub.gotOwner.SessionID != "" {
		t.Fatalf("session must not leak into owner when a user is present: %+v", cartStub.gotOwner)
	}
}

func TestGetCart_NoCredentials(t *testing.T) {
	router := testRouter(t, testDeps())

	req := httptest.NewRequest(http.MethodGet, "/buyer/orders/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetCart_ExpiredSession(t *testing.T) {
	deps := testDeps()
	deps.Sessions = &stubSessions{valid: map[string]bool{}}
	router := testRouter(t, deps)

	req := httptest.NewRequest(http.MethodGet, "/buyer/orders/cart", nil)
	req.Header.Set(sessionHeader, "sess-gone")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAddCartItem_InvalidBody(t *testing.T) {
	deps := testDeps()
	deps.Sessions = &stubSessions{valid: map[string]bool{"sess-1": true}}
	router := testRouter(t, deps)

	for name, body := range map[string]string{
		"zero quantity": `{"productId":"prod-1","quantity":0}`,
		"no product":    `{"quantity":1}`,
		"not json":      `quantity=1`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/buyer/orders/cart/items", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(sessionHeader, "sess-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body=%s", name, rec.Code, rec.Body.String())
		}
	}
}

func TestAddCartItem_OK(t *testing.T) {
	deps := testDeps()
	deps.Sessions = &stubSessions{valid: map[string]bool{"sess-1": true}}
	router := testRouter(t, deps)

	body := `{"productId":"prod-1","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/buyer/orders/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateOrder_RequiresAuthenticatedUser(t *testing.T) {
	deps := testDeps()
	deps.Sessions = &stubSessions{valid: map[string]bool{"sess-1": true}}
	router := testRouter(t, deps)

	body := `{"billingAddressId":"a","shippingAddressId":"a","paymentMethod":"card"}`
	req := httptest.NewRequest(http.MethodPost, "/buyer/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous session must not place orders, got %d", rec.Code)
	}
}

func TestCreateOrder_Created(t *testing.T) {
	deps := testDeps()
	deps.Verifier = &stubVerifier{user: &domain.User{ID: "user-1", Role: domain.RoleBuyer}}
	deps.OrderSvc = &stubOrderService{order: &domain.Order{ID: "order-1", OrderNumber: "ORD-20260901-000001"}}
	router := testRouter(t, deps)

	body := `{"billingAddressId":"a","shippingAddressId":"a","paymentMethod":"card"}`
	req := httptest.NewRequest(http.MethodPost, "/buyer/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"orderNumber":"ORD-20260901-000001"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	deps := testDeps()
	deps.Verifier = &stubVerifier{user: &domain.User{ID: "user-1", Role: domain.RoleBuyer}}
	deps.OrderSvc = &stubOrderService{err: domain.ErrValidation}
	router := testRouter(t, deps)

	body := `{"billingAddressId":"a","shippingAddressId":"a","paymentMethod":"card"}`
	req := httptest.NewRequest(http.MethodPost, "/buyer/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSupplierRoutes_RoleEnforced(t *testing.T) {
	deps := testDeps()
	deps.Verifier = &stubVerifier{user: &domain.User{ID: "user-1", Role: domain.RoleBuyer}}
	router := testRouter(t, deps)

	req := httptest.NewRequest(http.MethodGet, "/supplier/orders", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("buyer on supplier routes: expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/supplier/orders", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token on supplier routes: expected 401, got %d", rec.Code)
	}
}

func TestSupplierUpsertProduct(t *testing.T) {
	deps := testDeps()
	deps.Verifier = &stubVerifier{user: &domain.User{ID: "supplier-1", Role: domain.RoleSupplier}}
	router := testRouter(t, deps)

	body := `{"sku":"SKU-1","name":"Pot","priceCents":1500}`
	req := httptest.NewRequest(http.MethodPost, "/supplier/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAdminTransitionOrder(t *testing.T) {
	deps := testDeps()
	deps.Verifier = &stubVerifier{user: &domain.User{ID: "admin-1", Role: domain.RoleAdmin}}
	deps.OrderSvc = &stubOrderService{order: &domain.Order{ID: "order-1", Status: domain.OrderConfirmed}}
	router := testRouter(t, deps)

	body := `{"status":"confirmed"}`
	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/order-1/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"confirmed"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCreateAddress(t *testing.T) {
	deps := testDeps()
	deps.Verifier = &stubVerifier{user: &domain.User{ID: "user-1", Role: domain.RoleBuyer}}
	router := testRouter(t, deps)

	body := `{"recipient":"B Uyer","line1":"1 Main St","city":"Testville","postalCode":"00000","country":"US"}`
	req := httptest.NewRequest(http.MethodPost, "/buyer/addresses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/buyer/addresses", strings.NewReader(`{"line1":"1 Main St"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete address, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := testRouter(t, testDeps())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
