package handlers

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	"stockflow/internal/domain/auth"
	"stockflow/internal/infrastructure/http/v1/dto"
	"stockflow/internal/infrastructure/http/v1/middleware"
)

// AuthHandler handles session endpoints.
type AuthHandler struct {
	*BaseHandler
	service    *auth.Service
	cookieName string
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service, cookieName string) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service, cookieName: cookieName}
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	me, err := h.service.CurrentUser(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMe(me))
}

// Verify handles POST /auth/verify for reverse proxy auth checks.
func (h *AuthHandler) Verify(c *gin.Context) {
	token := middleware.TokenFromRequest(c, h.cookieName)
	if token == "" {
		h.Error(c, apperror.NewUnauthorized("access token required"))
		return
	}
	me, err := h.service.Verify(c.Request.Context(), token)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.VerifyResponse{Username: me.Username, Role: string(me.Role)})
}
