package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/httpserver"
	"marketplace-backend/internal/identity"
	addressrepo "marketplace-backend/internal/repository/address"
	cartrepo "marketplace-backend/internal/repository/cart"
	orderrepo "marketplace-backend/internal/repository/order"
	productrepo "marketplace-backend/internal/repository/product"
	userrepo "marketplace-backend/internal/repository/user"
	cartsvc "marketplace-backend/internal/service/cart"
	ordersvc "marketplace-backend/internal/service/order"
	productsvc "marketplace-backend/internal/service/product"
	"marketplace-backend/internal/session"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	users := userrepo.NewPostgres(dbpool, logger)
	addresses := addressrepo.NewPostgres(dbpool)
	products := productrepo.NewPostgres(dbpool, logger)
	carts := cartrepo.NewPostgres(dbpool)
	orders := orderrepo.NewPostgres(dbpool, logger)

	provider := identity.NewProvider(cfg.AuthProviderURL, cfg.AuthServiceKey, logger)
	resolver := identity.NewResolver(users, provider, logger)
	verifier := identity.NewVerifier(cfg.AuthJWTSecret)
	sessions := session.NewStore(rdb, cfg.SessionTTL)

	cartService := cartsvc.New(carts, products, resolver, logger, cfg.CartTTL)
	orderService := ordersvc.New(orders, carts, addresses, products, logger)
	productService := productsvc.New(products)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CartSvc:     cartService,
		OrderSvc:    orderService,
		ProductSvc:  productService,
		AddressRepo: addresses,
		Verifier:    verifier,
		Sessions:    sessions,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
