package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes behind
// RequireSession.
func RequireRoles(roles ...models.AdminRole) gin.HandlerFunc {
	allowed := make(map[models.AdminRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[session.Admin.Role]; ok {
			c.Next()
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "Access Denied: Super Admin only"))
		c.Abort()
	}
}

// RequireSuperAdmin admits super admins only.
func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleSuperAdmin)
}
