package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	VariantID *string `json:"variantId"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

func getCartHandler(logger *log.Logger, svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication or session required"})
			return
		}
		cart, err := svc.GetOrCreate(c.Request.Context(), owner)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

func addCartItemHandler(logger *log.Logger, svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication or session required"})
			return
		}
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		cart, err := svc.AddItem(c.Request.Context(), owner, req.ProductID, req.VariantID, req.Quantity)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

func updateCartItemHandler(logger *log.Logger, svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication or session required"})
			return
		}
		var req updateItemRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		cart, err := svc.SetItemQuantity(c.Request.Context(), owner, c.Param("itemID"), *req.Quantity)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

func removeCartItemHandler(logger *log.Logger, svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication or session required"})
			return
		}
		cart, err := svc.RemoveItem(c.Request.Context(), owner, c.Param("itemID"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}
