package websocket

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/signalforge/forge-agent/internal/auth"
	"github.com/signalforge/forge-agent/internal/common"
)

type Handler struct {
	hub         *Hub
	accessToken string
}

func NewHandler(hub *Hub, accessToken string) *Handler {
	return &Handler{
		hub:         hub,
		accessToken: accessToken,
	}
}

// HandleWebSocket accepts the token either as a bearer header or a
// query parameter, since browser WebSocket clients cannot set headers.
func (h *Handler) HandleWebSocket(c echo.Context) error {
	token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = c.QueryParam("token")
	}

	if !auth.ValidateToken(h.accessToken, token) {
		return common.SendUnauthorized(c, "Invalid token")
	}

	return h.hub.ServeWebSocket(c)
}
