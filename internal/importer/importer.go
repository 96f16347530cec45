package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"marketplace-backend/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads supplier catalog CSV exports and inserts/updates products.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	supplierID  string
}

func NewCSVImporter(r io.Reader, repo ProductWriter, supplierID string) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		supplierID:  supplierID,
	}
}

type csvRow struct {
	SKU       string
	Name      string
	Desc      string
	Status    string
	Cents     int64
	Currency  string
	ImageURLs []string
}

// Run parses CSV rows and upserts products grouped by SKU.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *csvRow
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}

		if row.SKU != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.SKU == "" || row.Name == "" || row.Cents == 0 || row.Currency == "" {
		return fmt.Errorf("invalid product row (missing required fields) for sku %q", row.SKU)
	}

	attrs := map[string]interface{}{}
	if len(row.ImageURLs) > 0 {
		attrs["images"] = row.ImageURLs
	}

	status := row.Status
	if status == "" {
		status = "pending"
	}

	p := domain.Product{
		SupplierID:  i.supplierID,
		SKU:         row.SKU,
		Name:        row.Name,
		Description: row.Desc,
		Status:      status,
		PriceCents:  row.Cents,
		Currency:    row.Currency,
		Attributes:  attrs,
	}

	_, err := i.productRepo.Upsert(ctx, p)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", row.SKU, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	sku := pick(record, index, "sku")
	name := pick(record, index, "name")
	desc := pick(record, index, "description")
	status := pick(record, index, "status")
	currency := pick(record, index, "currency")
	centStr := pick(record, index, "price_cents")

	imageURL := pick(record, index, "image_url")

	if sku == "" && imageURL == "" {
		return nil
	}

	var cents int64
	if centStr != "" {
		cents, _ = strconv.ParseInt(centStr, 10, 64)
	}

	row := &csvRow{
		SKU:      sku,
		Name:     name,
		Desc:     desc,
		Status:   status,
		Cents:    cents,
		Currency: currency,
	}
	if imageURL != "" {
		row.ImageURLs = []string{strings.TrimSpace(imageURL)}
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
