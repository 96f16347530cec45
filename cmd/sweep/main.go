package main

import (
	"context"
	"log"
	"os"
	"time"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/repository/cart"
)

// Deletes carts whose expiry has passed. Meant to run on a schedule (cron).
func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[sweep] ", log.LstdFlags|log.LUTC)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	start := time.Now()
	n, err := cart.NewPostgres(pool).DeleteExpired(ctx, time.Now())
	if err != nil {
		logger.Fatalf("delete expired carts: %v", err)
	}

	logger.Printf("removed %d expired carts in %s", n, time.Since(start).Truncate(time.Millisecond))
}
