package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tasktrack-api/internal/models"
	"github.com/noah-isme/tasktrack-api/internal/service"
	appErrors "github.com/noah-isme/tasktrack-api/pkg/errors"
	"github.com/noah-isme/tasktrack-api/pkg/logger"
	"github.com/noah-isme/tasktrack-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the authenticated principal.
const ContextPrincipalKey = "principal"

// Authenticate protects routes by requiring a valid access token.
func Authenticate(authn *service.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			if appErrors.HasKind(err, appErrors.ErrUnauthorized) {
				c.Header("WWW-Authenticate", `Bearer realm="api"`)
			}
			response.Abort(c, err)
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Set(logger.ActorKey, principal.UserID)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Authenticate, or nil.
func PrincipalFrom(c *gin.Context) *models.Principal {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil
	}
	principal, _ := value.(*models.Principal)
	return principal
}
