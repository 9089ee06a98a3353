package handler

import (
	"net/http"

	"github.com/deppfellow/demo-backend/internal/server"
	"github.com/labstack/echo/v4"
)

const bannerMessage = "Backend API is running"

// SystemHandler serves the static banner at GET /.
type SystemHandler struct {
	Handler
}

func NewSystemHandler(s *server.Server) *SystemHandler {
	return &SystemHandler{Handler: NewHandler(s)}
}

func (h *SystemHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": bannerMessage,
		"status":  "healthy",
	})
}
