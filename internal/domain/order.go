package domain

import "time"

// Order statuses. Orders are append-only except for these transitions.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderCancelled = "cancelled"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
)

var orderTransitions = map[string][]string{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered},
}

// CanTransition reports whether an order status change is allowed.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AddressSnapshot is the point-in-time copy of an address embedded in an
// order. Deliberately not a foreign key: the live address may change later.
type AddressSnapshot struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	Status          string          `json:"status"`
	SubtotalCents   int64           `json:"subtotalCents"`
	TaxCents        int64           `json:"taxCents"`
	ShippingCents   int64           `json:"shippingCents"`
	DiscountCents   int64           `json:"discountCents"`
	TotalCents      int64           `json:"totalCents"`
	Currency        string          `json:"currency"`
	BillingAddress  AddressSnapshot `json:"billingAddress"`
	ShippingAddress AddressSnapshot `json:"shippingAddress"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem carries a point-in-time product name, variant title and sku so
// order history stays immutable when the catalog changes.
type OrderItem struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"orderId"`
	ProductID      string  `json:"productId"`
	SupplierID     string  `json:"supplierId"`
	ProductName    string  `json:"productName"`
	VariantTitle   string  `json:"variantTitle,omitempty"`
	SKU            string  `json:"sku"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	TotalCents     int64   `json:"totalCents"`
}

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

type Payment struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"orderId"`
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt"`
}
