package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aura-webinar/workshops/internal/auth"
	"github.com/aura-webinar/workshops/pkg/response"
)

const (
	// ContextAdminUser is the key for the authenticated admin username in gin context.
	ContextAdminUser = "admin_user"
	// ContextAdminRole is the key for the admin role in gin context.
	ContextAdminRole = "admin_role"
)

// JWT returns a middleware that validates the bearer token and sets admin claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextAdminUser, claims.Subject)
		c.Set(ContextAdminRole, claims.Role)
		c.Next()
	}
}
