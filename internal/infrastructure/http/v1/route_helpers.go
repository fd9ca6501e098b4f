package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler is implemented by catalogs with an active flag.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Toggle(c *gin.Context)
}

// RegisterCatalogRoutes registers list, create, update and toggle routes.
//
// Usage:
//
//	handler := handlers.NewSupplierHandler(base, services.Suppliers)
//	RegisterCatalogRoutes(api.Group("/suppliers"), handler)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.PUT("/:id", handler.Update)
	group.PATCH("/:id/toggle", handler.Toggle)
}
