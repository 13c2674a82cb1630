package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shadower-ai/shadow-analytics/common/graceful"
)

// TrackRequest counts in-flight requests for graceful draining and rejects
// new work once shutdown has begun.
func TrackRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if graceful.IsDraining() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"message": "server is shutting down",
			})
			c.Abort()
			return
		}
		done := graceful.BeginRequest()
		defer done()
		c.Next()
	}
}
