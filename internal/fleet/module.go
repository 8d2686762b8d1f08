package fleet

import (
	"github.com/signalforge/forge-agent/config"
	"github.com/signalforge/forge-agent/internal/engine"
	"github.com/signalforge/forge-agent/internal/logging"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewStore),
	fx.Provide(NewMonitor),
	fx.Provide(NewFetcher),
	fx.Provide(NewDispatcher),
	fx.Provide(NewSchedulerFromConfig),
	fx.Provide(NewEventMonitor),
	fx.Provide(NewHandlerFromConfig),
)

func NewSchedulerFromConfig(fetcher *Fetcher, monitor *Monitor, cfg *config.Config, logger *logging.Logger) *Scheduler {
	return NewScheduler(fetcher, monitor, cfg.RefreshInterval, logger)
}

func NewHandlerFromConfig(store *Store, fetcher *Fetcher, dispatcher *Dispatcher, client engine.Client, cfg *config.Config) *Handler {
	return NewHandler(store, fetcher, dispatcher, client, cfg.LogTailDefault)
}
