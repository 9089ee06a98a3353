package router

import (
	"net/http"

	"github.com/deppfellow/demo-backend/internal/handler"
	"github.com/deppfellow/demo-backend/internal/model"
	"github.com/labstack/echo/v4"
)

// registerItemRoutes mounts the data_items CRUD under g (/api/data).
func registerItemRoutes(g *echo.Group, h *handler.Handlers) {
	g.GET("", handler.Handle[model.ListItemsRequest](h.Item.ListItems, http.StatusOK))
	g.POST("", handler.Handle[model.CreateItemPayload](h.Item.CreateItem, http.StatusCreated))
	g.GET("/:id", handler.Handle[model.GetItemRequest](h.Item.GetItem, http.StatusOK))
}
