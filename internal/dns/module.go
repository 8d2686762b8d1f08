package dns

import (
	"github.com/signalforge/forge-agent/config"
	"github.com/signalforge/forge-agent/internal/logging"
	"go.uber.org/fx"
)

func NewServiceFromConfig(cfg *config.Config, logger *logging.Logger) *Service {
	return NewService(cfg.DataDir, cfg.TLD, logger)
}

var Module = fx.Options(
	fx.Provide(NewServiceFromConfig),
	fx.Provide(NewHandler),
)
