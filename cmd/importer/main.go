package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/importer"
	"marketplace-backend/internal/repository/product"
	"marketplace-backend/internal/repository/user"
)

func main() {
	var (
		filePath   string
		supplierID string
	)
	flag.StringVar(&filePath, "file", "", "Path to supplier catalog CSV export")
	flag.StringVar(&supplierID, "supplier", "", "Supplier user id to import for")
	flag.Parse()

	if filePath == "" || supplierID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	logger := log.New(os.Stdout, "importer ", log.LstdFlags)

	supplier, err := user.NewPostgres(pool, logger).GetByID(ctx, supplierID)
	if err != nil {
		log.Fatalf("load supplier %q: %v", supplierID, err)
	}
	if supplier.Role != domain.RoleSupplier {
		log.Fatalf("user %q has role %q, expected %q", supplierID, supplier.Role, domain.RoleSupplier)
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, logger), supplier.ID)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d products for supplier %s in %s\n", count, supplier.ID, time.Since(start).Truncate(time.Millisecond))
}
