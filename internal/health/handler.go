package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "forge-agent",
	})
}

var Module = fx.Options(
	fx.Provide(NewHandler),
)
