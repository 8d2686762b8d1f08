package fleet

import (
	"context"
	"time"

	"github.com/signalforge/forge-agent/internal/engine"
	"github.com/signalforge/forge-agent/internal/logging"

	"go.uber.org/zap"
)

const streamRetryDelay = 5 * time.Second

// EventMonitor watches the engine's container event stream and nudges the
// fetcher so the snapshot converges faster than the scheduler interval
// after a lifecycle change.
type EventMonitor struct {
	engine  engine.Client
	fetcher *Fetcher
	monitor *Monitor
	logger  *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewEventMonitor(client engine.Client, fetcher *Fetcher, monitor *Monitor, logger *logging.Logger) *EventMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventMonitor{
		engine:  client,
		fetcher: fetcher,
		monitor: monitor,
		logger:  logger.With(zap.String("component", "events")),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (em *EventMonitor) Start() {
	em.logger.Info("engine event monitor started")
	go em.run()
}

func (em *EventMonitor) Stop() {
	em.cancel()
	em.logger.Info("engine event monitor stopped")
}

func (em *EventMonitor) run() {
	for {
		if em.ctx.Err() != nil {
			return
		}

		em.consume()

		select {
		case <-em.ctx.Done():
			return
		case <-time.After(streamRetryDelay):
		}
	}
}

func (em *EventMonitor) consume() {
	events, errs := em.engine.WatchEvents(em.ctx)

	for {
		select {
		case <-em.ctx.Done():
			return
		case err := <-errs:
			if err != nil {
				em.logger.Warn("event stream error", zap.Error(err))
			}
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !isLifecycleAction(event.Action) {
				continue
			}
			em.logger.Debug("container event",
				zap.String("container_id", event.ContainerID),
				zap.String("name", event.Name),
				zap.String("action", event.Action))
			if em.monitor.Connected() {
				em.fetcher.TryRefresh(em.ctx)
			}
		}
	}
}

func isLifecycleAction(action string) bool {
	switch action {
	case "create", "start", "stop", "die", "kill", "pause", "unpause", "restart", "destroy":
		return true
	}
	return false
}
