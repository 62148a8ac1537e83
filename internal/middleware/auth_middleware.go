package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"podium/internal/transport/httpdto"
	podium_errors "podium/pkg/errors"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware guards the internal API with the deployment's shared
// bearer token.
func AuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := extractBearer(c)
		if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse(podium_errors.ErrUnauthorized.Error(), httpdto.CodeUnauthorized))
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
