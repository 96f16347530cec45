package domain

import "time"

// Cart is the mutable pre-order collection of lines for one user or one
// anonymous session. At most one cart exists per owner, enforced by unique
// indexes on user_id and session_id.
type Cart struct {
	ID            string     `json:"id"`
	UserID        *string    `json:"userId,omitempty"`
	SessionID     *string    `json:"-"`
	Currency      string     `json:"currency"`
	SubtotalCents int64      `json:"subtotalCents"`
	TaxCents      int64      `json:"taxCents"`
	ShippingCents int64      `json:"shippingCents"`
	DiscountCents int64      `json:"discountCents"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Items         []CartItem `json:"items,omitempty"`
}

// TotalCents derives the payable total from the stored running totals.
func (c Cart) TotalCents() int64 {
	return c.SubtotalCents + c.TaxCents + c.ShippingCents - c.DiscountCents
}

// CartItem is one (product, variant) line. Uniqueness of the triple is a DB
// constraint: repeated adds merge into the existing row.
type CartItem struct {
	ID             string    `json:"id"`
	CartID         string    `json:"cartId"`
	ProductID      string    `json:"productId"`
	VariantID      *string   `json:"variantId,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	TotalCents     int64     `json:"totalCents"`
	CreatedAt      time.Time `json:"createdAt"`
}
