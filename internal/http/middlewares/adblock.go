package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const adblockHeader = "X-Adblock-Detected"

// BlockAdblock rejects every request whose client reports an active ad
// blocker. Only the exact value "true" counts.
func BlockAdblock() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(adblockHeader) == "true" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":      "adblock_detected",
					"message":   "Request blocked by ad blocker. Please disable your ad blocker to continue.",
					"requestId": RequestIDFromContext(c),
				},
			})
			return
		}
		c.Next()
	}
}
