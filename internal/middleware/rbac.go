package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tasktrack-api/internal/service"
	"github.com/noah-isme/tasktrack-api/pkg/response"
)

// RequirePermission enforces that the principal holds key. It must run after Authenticate.
func RequirePermission(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.AuthorizeAction(PrincipalFrom(c), key); err != nil {
			response.Abort(c, err)
			return
		}
		c.Next()
	}
}
