package fleet

import (
	"context"
	"sync/atomic"

	"github.com/signalforge/forge-agent/internal/engine"
	"github.com/signalforge/forge-agent/internal/logging"

	"go.uber.org/zap"
)

// Monitor tracks whether the engine is reachable. Every other component
// checks the shared flag instead of probing the engine itself.
type Monitor struct {
	engine    engine.Client
	store     *Store
	logger    *logging.Logger
	connected atomic.Bool
}

func NewMonitor(client engine.Client, store *Store, logger *logging.Logger) *Monitor {
	return &Monitor{
		engine: client,
		store:  store,
		logger: logger.With(zap.String("component", "monitor")),
	}
}

// CheckConnection probes reachability without updating any shared state.
func (m *Monitor) CheckConnection(ctx context.Context) bool {
	return m.engine.Ping(ctx) == nil
}

// Connect probes the engine and records the result in the shared
// connectivity flag and the store. Safe to call repeatedly.
func (m *Monitor) Connect(ctx context.Context) bool {
	if err := m.engine.Ping(ctx); err != nil {
		if m.connected.Swap(false) {
			m.logger.Warn("engine connection lost", zap.Error(err))
		}
		m.store.SetConnected(false, err.Error())
		return false
	}

	if !m.connected.Swap(true) {
		m.logger.Info("engine connected")
	}
	m.store.SetConnected(true, "")
	return true
}

// Connected reports the last probed state of the shared flag.
func (m *Monitor) Connected() bool {
	return m.connected.Load()
}
