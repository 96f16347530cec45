package domain

import (
	"strings"
	"time"
)

type Product struct {
	ID          string                 `json:"id"`
	SupplierID  string                 `json:"supplierId"`
	SKU         string                 `json:"sku"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Status      string                 `json:"status"`
	PriceCents  int64                  `json:"priceCents"`
	Currency    string                 `json:"currency"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	Variants    []ProductVariant       `json:"variants,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

type ProductVariant struct {
	ID         string `json:"id"`
	ProductID  string `json:"productId"`
	Title      string `json:"title"`
	SKU        string `json:"sku"`
	PriceCents int64  `json:"priceCents"`
}

// Sellable reports whether a stored status counts as purchasable. Statuses
// arrive with inconsistent casing from older writers, so comparison is
// case-insensitive.
func (p Product) Sellable() bool {
	switch strings.ToLower(strings.TrimSpace(p.Status)) {
	case "active", "approved", "published":
		return true
	}
	return false
}

// UnitPriceCents returns the capture price for a cart line: the variant price
// when a variant is chosen, the product price otherwise.
func (p Product) UnitPriceCents(variantID *string) int64 {
	if variantID != nil {
		for _, v := range p.Variants {
			if v.ID == *variantID {
				return v.PriceCents
			}
		}
	}
	return p.PriceCents
}

// Variant looks up a variant by id.
func (p Product) Variant(id string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}
