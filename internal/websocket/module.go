package websocket

import (
	"github.com/signalforge/forge-agent/config"
	"github.com/signalforge/forge-agent/internal/logging"
	"go.uber.org/fx"
)

func NewHandlerFromConfig(hub *Hub, cfg *config.Config) *Handler {
	return NewHandler(hub, cfg.AccessToken)
}

var Module = fx.Options(
	fx.Provide(func(logger *logging.Logger) *Hub {
		return NewHub(logger)
	}),
	fx.Provide(NewBridge),
	fx.Provide(NewHandlerFromConfig),
)
