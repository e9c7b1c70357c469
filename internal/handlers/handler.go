package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errCSVHeader = errors.New("cannot read CSV header")

// userID pulls the owner context from the X-User-ID header. Auth proper
// lives in front of this service; an empty header is rejected.
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return "", false
	}
	return id, true
}
