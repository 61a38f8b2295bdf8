package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadsEnabled returns middleware that rejects requests with 503 when no
// storage target is configured.
func UploadsEnabled(enabled func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error":   gin.H{"code": "UPLOADS_DISABLED", "message": "uploads are disabled: storage is not configured"},
			})
			return
		}
		c.Next()
	}
}
