package handlers

import (
	"log"
	"net/http"

	"team-tasks/backend/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// handleError maps a typed service failure onto the response. The
// typed error (with its internal cause) is logged; infrastructure
// details never reach the client.
func handleError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	if apperrors.Retryable(err) {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
