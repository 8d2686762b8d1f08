package websocket

import (
	"github.com/signalforge/forge-agent/internal/fleet"
	"github.com/signalforge/forge-agent/internal/logging"
)

// Bridge forwards every store notification to the hub, so panels get a
// push instead of polling the snapshot endpoint.
type Bridge struct {
	hub    *Hub
	store  *fleet.Store
	logger *logging.Logger
	cancel func()
	done   chan struct{}
}

func NewBridge(hub *Hub, store *fleet.Store, logger *logging.Logger) *Bridge {
	return &Bridge{
		hub:    hub,
		store:  store,
		logger: logger,
	}
}

func (b *Bridge) Start() {
	sub, cancel := b.store.Subscribe()
	b.cancel = cancel
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)
		for snapshot := range sub {
			b.hub.BroadcastSnapshot(snapshot)
			b.hub.BroadcastSummary(snapshot.Summarize())
		}
	}()

	b.logger.Info("fleet broadcast bridge started")
}

func (b *Bridge) Stop() {
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
}
