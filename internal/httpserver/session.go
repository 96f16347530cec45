package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func issueSessionHandler(logger *log.Logger, sessions sessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := sessions.Issue(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"sessionId": id})
	}
}
