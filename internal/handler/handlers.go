package handler

import (
	"github.com/deppfellow/demo-backend/internal/server"
	"github.com/deppfellow/demo-backend/internal/service"
)

// Handlers groups every HTTP handler so the router receives one value.
type Handlers struct {
	System  *SystemHandler
	Health  *HealthHandler
	Item    *ItemHandler
	OpenAPI *OpenAPIHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		System:  NewSystemHandler(s),
		Health:  NewHealthHandler(s),
		Item:    NewItemHandler(s, services.Items),
		OpenAPI: NewOpenAPIHandler(s),
	}
}
