package middleware

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/core/security"
)

// AccessScope builds the actor's security scope once per request so the
// domain layer reads it via security.GetScope(ctx).
//
// Must run AFTER Auth.
func AccessScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		scope := security.NewAccessScope(ctx)
		if scope.Authenticated() {
			c.Request = c.Request.WithContext(security.WithScope(ctx, scope))
		}
		c.Next()
	}
}
