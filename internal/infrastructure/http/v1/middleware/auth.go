package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
)

// DefaultSessionCookie is the cookie set by the identity service.
const DefaultSessionCookie = "mint_session"

// Authenticator validates a token and resolves the actor.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*appctx.UserContext, error)
}

// TokenFromRequest returns the bearer token, falling back to the session cookie.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	if v, err := c.Cookie(cookieName); err == nil {
		return v
	}
	return ""
}

// Auth middleware authenticates the request and populates user context.
func Auth(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cookieName)
		if token == "" {
			_ = c.Error(apperror.NewUnauthorized("access token required"))
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Set("username", user.Username)
		c.Set("role", user.Role)

		c.Next()
	}
}
