package identity

import (
	"errors"
	"strings"

	"marketplace-backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the access token could not be validated.
var ErrInvalidToken = errors.New("invalid token")

type accessClaims struct {
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Role          string `json:"role,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks access tokens issued by the external auth provider (HS256,
// shared secret) and turns their claims into the identity used everywhere
// downstream.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(tokenString string) (*domain.User, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if role == "" {
		role = domain.RoleBuyer
	}
	return &domain.User{
		ID:            claims.Subject,
		Email:         claims.Email,
		Phone:         claims.Phone,
		Role:          role,
		EmailVerified: claims.EmailVerified,
	}, nil
}
