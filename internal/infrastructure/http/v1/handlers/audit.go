package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/infrastructure/storage/postgres"
)

// auditEntityTypes are the entity types written to the audit trail.
var auditEntityTypes = map[string]bool{
	"location":         true,
	"stock":            true,
	"request":          true,
	"inventory":        true,
	"purchase_order":   true,
	"purchase_request": true,
}

// AuditReader reads the audit trail of one entity.
type AuditReader interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	*BaseHandler
	reader AuditReader
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, reader AuditReader) *AuditHandler {
	return &AuditHandler{BaseHandler: base, reader: reader}
}

// History handles GET /audit/:entityType/:id
func (h *AuditHandler) History(c *gin.Context) {
	scope := security.GetScope(c.Request.Context())
	if err := scope.RequireRole(security.RoleAdmin, security.RoleOperationsManager); err != nil {
		h.Error(c, err)
		return
	}

	entityType := c.Param("entityType")
	if !auditEntityTypes[entityType] {
		h.Error(c, apperror.NewValidation("unknown entity type").
			WithDetail("field", "entityType").
			WithDetail("value", entityType))
		return
	}
	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	entries, err := h.reader.History(c.Request.Context(), entityType, entityID, h.ParseIntQuery(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}
