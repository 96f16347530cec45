package httpserver

import (
	"context"
	"errors"
	"log"

	"marketplace-backend/internal/domain"
	cartsvc "marketplace-backend/internal/service/cart"
	ordersvc "marketplace-backend/internal/service/order"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type cartService interface {
	GetOrCreate(ctx context.Context, owner cartsvc.Owner) (*domain.Cart, error)
	AddItem(ctx context.Context, owner cartsvc.Owner, productID string, variantID *string, quantity int) (*domain.Cart, error)
	SetItemQuantity(ctx context.Context, owner cartsvc.Owner, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner cartsvc.Owner, itemID string) (*domain.Cart, error)
}

type orderService interface {
	CreateFromCart(ctx context.Context, user domain.User, in ordersvc.CreateInput) (*domain.Order, error)
	Get(ctx context.Context, actor domain.User, id string) (*domain.Order, error)
	ListForActor(ctx context.Context, actor domain.User) ([]domain.Order, error)
	Payment(ctx context.Context, actor domain.User, orderID string) (*domain.Payment, error)
	Transition(ctx context.Context, actor domain.User, orderID, to string) (*domain.Order, error)
}

type productService interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error)
	Upsert(ctx context.Context, supplierID string, p domain.Product) (*domain.Product, error)
}

type addressRepo interface {
	Create(ctx context.Context, a domain.Address) (*domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
}

type tokenVerifier interface {
	Verify(token string) (*domain.User, error)
}

type sessionStore interface {
	Issue(ctx context.Context) (string, error)
	Lookup(ctx context.Context, id string) error
}

// Deps bundles everything the router needs.
type Deps struct {
	CartSvc     cartService
	OrderSvc    orderService
	ProductSvc  productService
	AddressRepo addressRepo
	Verifier    tokenVerifier
	Sessions    sessionStore
}

func (d Deps) validate() error {
	switch {
	case d.CartSvc == nil:
		return errors.New("cart service required")
	case d.OrderSvc == nil:
		return errors.New("order service required")
	case d.ProductSvc == nil:
		return errors.New("product service required")
	case d.AddressRepo == nil:
		return errors.New("address repository required")
	case d.Verifier == nil:
		return errors.New("token verifier required")
	case d.Sessions == nil:
		return errors.New("session store required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Session-ID"},
		AllowCredentials: false,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/auth/sessions", issueSessionHandler(logger, deps.Sessions))

	buyer := router.Group("/buyer", ownerMiddleware(logger, deps.Verifier, deps.Sessions))
	{
		buyer.GET("/orders/cart", getCartHandler(logger, deps.CartSvc))
		buyer.POST("/orders/cart/items", addCartItemHandler(logger, deps.CartSvc))
		buyer.PATCH("/orders/cart/items/:itemID", updateCartItemHandler(logger, deps.CartSvc))
		buyer.DELETE("/orders/cart/items/:itemID", removeCartItemHandler(logger, deps.CartSvc))

		authed := buyer.Group("", requireUser())
		{
			authed.POST("/orders", createOrderHandler(logger, deps.OrderSvc))
			authed.GET("/orders", listOrdersHandler(logger, deps.OrderSvc))
			authed.GET("/orders/:orderID", getOrderHandler(logger, deps.OrderSvc))
			authed.GET("/orders/:orderID/payment", getPaymentHandler(logger, deps.OrderSvc))
			authed.POST("/addresses", createAddressHandler(logger, deps.AddressRepo))
			authed.GET("/addresses", listAddressesHandler(logger, deps.AddressRepo))
		}
	}

	supplier := router.Group("/supplier", userMiddleware(logger, deps.Verifier), requireRole(domain.RoleSupplier))
	{
		supplier.GET("/orders", listOrdersHandler(logger, deps.OrderSvc))
		supplier.PATCH("/orders/:orderID/status", transitionOrderHandler(logger, deps.OrderSvc))
		supplier.POST("/products", upsertProductHandler(logger, deps.ProductSvc))
		supplier.GET("/products", listProductsHandler(logger, deps.ProductSvc))
	}

	admin := router.Group("/admin", userMiddleware(logger, deps.Verifier), requireRole(domain.RoleAdmin))
	{
		admin.GET("/orders", listOrdersHandler(logger, deps.OrderSvc))
		admin.PATCH("/orders/:orderID/status", transitionOrderHandler(logger, deps.OrderSvc))
	}

	return router, nil
}
