package project

import (
	"github.com/signalforge/forge-agent/config"
	"github.com/signalforge/forge-agent/internal/logging"
	"go.uber.org/fx"
)

func NewServiceFromConfig(cfg *config.Config, logger *logging.Logger) *Service {
	return NewService(cfg.DataDir, cfg.ProjectsDir, cfg.NetworkSubnet, logger)
}

var Module = fx.Options(
	fx.Provide(NewServiceFromConfig),
	fx.Provide(NewServiceCountCache),
	fx.Provide(NewHandler),
)
