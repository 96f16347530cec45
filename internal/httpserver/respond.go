package httpserver

import (
	"errors"
	"log"
	"net/http"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/identity"
	"marketplace-backend/internal/session"
	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP statuses. Internal failures are
// logged with detail and answered with a generic message.
func respondError(c *gin.Context, logger *log.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, session.ErrInvalidSession):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		logger.Printf("http: %s %s error=%v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}

type cartResponse struct {
	domain.Cart
	TotalCents int64 `json:"totalCents"`
}

func toCartResponse(cart *domain.Cart) cartResponse {
	out := cartResponse{Cart: *cart, TotalCents: cart.TotalCents()}
	if out.Items == nil {
		out.Items = []domain.CartItem{}
	}
	return out
}

type orderListResponse struct {
	Results []domain.Order `json:"results"`
	Total   int            `json:"total"`
}

func toOrderList(orders []domain.Order) orderListResponse {
	if orders == nil {
		orders = []domain.Order{}
	}
	return orderListResponse{Results: orders, Total: len(orders)}
}
