package httpserver

import (
	"log"
	"net/http"

	ordersvc "marketplace-backend/internal/service/order"
	"github.com/gin-gonic/gin"
)

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func createOrderHandler(logger *log.Logger, svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := userFromContext(c)
		var req ordersvc.CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		order, err := svc.CreateFromCart(c.Request.Context(), *user, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func listOrdersHandler(logger *log.Logger, svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := userFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		orders, err := svc.ListForActor(c.Request.Context(), *user)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderList(orders))
	}
}

func getOrderHandler(logger *log.Logger, svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := userFromContext(c)
		order, err := svc.Get(c.Request.Context(), *user, c.Param("orderID"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func getPaymentHandler(logger *log.Logger, svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := userFromContext(c)
		payment, err := svc.Payment(c.Request.Context(), *user, c.Param("orderID"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

func transitionOrderHandler(logger *log.Logger, svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := userFromContext(c)
		var req transitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		order, err := svc.Transition(c.Request.Context(), *user, c.Param("orderID"), req.Status)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
