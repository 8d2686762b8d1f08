package engine

import (
	"github.com/signalforge/forge-agent/config"
	"github.com/signalforge/forge-agent/internal/logging"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(NewClientFromConfig),
)

// NewClientFromConfig selects the engine implementation. Demo mode is a
// swappable Client, never a conditional inside callers.
func NewClientFromConfig(cfg *config.Config, logger *logging.Logger) (Client, error) {
	if cfg.EngineMode == "demo" {
		logger.Info("Using demo engine client")
		return NewDemoClient(), nil
	}

	// The SDK client dials lazily, so constructing it succeeds even when
	// the daemon is down; the connection monitor owns reachability.
	client, err := NewDockerClient(cfg.StopTimeout)
	if err != nil {
		logger.Error("Docker client initialisation failed", zap.Error(err))
		return nil, err
	}
	return client, nil
}
