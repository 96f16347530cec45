package httpserver

import (
	"log"
	"net/http"

	"marketplace-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

type productRequest struct {
	SKU         string                 `json:"sku" binding:"required"`
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description"`
	Status      string                 `json:"status"`
	PriceCents  int64                  `json:"priceCents" binding:"min=0"`
	Currency    string                 `json:"currency"`
	Attributes  map[string]interface{} `json:"attributes"`
}

func upsertProductHandler(logger *log.Logger, svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := userFromContext(c)
		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		product, err := svc.Upsert(c.Request.Context(), user.ID, domain.Product{
			SKU:         req.SKU,
			Name:        req.Name,
			Description: req.Description,
			Status:      req.Status,
			PriceCents:  req.PriceCents,
			Currency:    req.Currency,
			Attributes:  req.Attributes,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func listProductsHandler(logger *log.Logger, svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := userFromContext(c)
		products, err := svc.ListBySupplier(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		c.JSON(http.StatusOK, gin.H{"results": products, "total": len(products)})
	}
}
