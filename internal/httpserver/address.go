package httpserver

import (
	"log"
	"net/http"

	"marketplace-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

type addressRequest struct {
	Recipient  string `json:"recipient" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

func createAddressHandler(logger *log.Logger, repo addressRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := userFromContext(c)
		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		addr, err := repo.Create(c.Request.Context(), domain.Address{
			UserID:     user.ID,
			Recipient:  req.Recipient,
			Line1:      req.Line1,
			Line2:      req.Line2,
			City:       req.City,
			Region:     req.Region,
			PostalCode: req.PostalCode,
			Country:    req.Country,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, addr)
	}
}

func listAddressesHandler(logger *log.Logger, repo addressRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := userFromContext(c)
		addrs, err := repo.ListByUser(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		if addrs == nil {
			addrs = []domain.Address{}
		}
		c.JSON(http.StatusOK, gin.H{"results": addrs, "total": len(addrs)})
	}
}
