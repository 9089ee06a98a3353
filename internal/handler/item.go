package handler

import (
	"github.com/deppfellow/demo-backend/internal/model"
	"github.com/deppfellow/demo-backend/internal/server"
	"github.com/deppfellow/demo-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ItemList is the GET /api/data body. Len feeds the response.items
// tracing attribute.
type ItemList []model.Item

func (l ItemList) Len() int { return len(l) }

type ItemHandler struct {
	Handler
	items *service.ItemService
}

func NewItemHandler(s *server.Server, items *service.ItemService) *ItemHandler {
	return &ItemHandler{
		Handler: NewHandler(s),
		items:   items,
	}
}

func (h *ItemHandler) ListItems(c echo.Context, _ *model.ListItemsRequest) (ItemList, error) {
	items, err := h.items.ListItems(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return ItemList(items), nil
}

func (h *ItemHandler) CreateItem(c echo.Context, payload *model.CreateItemPayload) (*model.Item, error) {
	return h.items.CreateItem(c.Request().Context(), payload)
}

func (h *ItemHandler) GetItem(c echo.Context, req *model.GetItemRequest) (*model.Item, error) {
	return h.items.GetItem(c.Request().Context(), req.ID)
}
