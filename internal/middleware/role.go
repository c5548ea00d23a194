package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/aura-webinar/workshops/pkg/response"
)

// RequireRole returns a middleware that allows only the given admin roles.
// It must run after JWT.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextAdminRole)
		if !ok {
			response.Unauthorized(c, "missing admin context")
			c.Abort()
			return
		}
		role, _ := roleVal.(string)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
