package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests whose body is not declared as JSON. The
// form routes only document 400 and 500, so a wrong media type is reported as
// an invalid request rather than 415.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if err != nil || mt != "application/json" {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": gin.H{
						"code":      "invalid_request",
						"message":   "Content-Type must be application/json",
						"requestId": RequestIDFromContext(c),
					},
				})
				return
			}
		}
		c.Next()
	}
}
