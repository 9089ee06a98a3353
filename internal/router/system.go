package router

import (
	"github.com/deppfellow/demo-backend/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers the endpoints that are not item CRUD.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/", h.System.Root)

	// Always 200; the body says whether the database answered.
	r.GET("/health", h.Health.Health)

	// Per-dependency report, 503 when the database is down.
	r.GET("/status", h.Health.CheckHealth)

	r.StaticFS("/static", handler.StaticFS())
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
