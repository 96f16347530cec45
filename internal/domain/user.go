package domain

import "time"

// Roles a user row can carry. Stored lowercase.
const (
	RoleBuyer    = "buyer"
	RoleSupplier = "supplier"
	RoleAdmin    = "admin"
)

// User is the local relational row for an externally managed identity. Its ID
// is the external provider's user id, so the row can be created lazily after
// the identity already exists upstream.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	ReferralCode  string    `json:"referralCode,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Address belongs to a user and is referenced by id at checkout; orders embed
// a snapshot rather than the live row.
type Address struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	Recipient  string    `json:"recipient"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	Region     string    `json:"region,omitempty"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"createdAt"`
}
