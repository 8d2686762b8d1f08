package fleet

import (
	"context"
	"fmt"
	"sync"

	"github.com/signalforge/forge-agent/internal/engine"
	"github.com/signalforge/forge-agent/internal/logging"

	"go.uber.org/zap"
)

// Dispatcher issues container lifecycle commands. At most one command may
// be in flight per container; commands for distinct containers run
// concurrently. The dispatcher never mutates the snapshot itself — it
// triggers a refresh so the UI reflects the true post-command state.
type Dispatcher struct {
	engine  engine.Client
	monitor *Monitor
	fetcher *Fetcher
	logger  *logging.Logger

	mu       sync.Mutex
	inFlight map[string]string
}

func NewDispatcher(client engine.Client, monitor *Monitor, fetcher *Fetcher, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		engine:   client,
		monitor:  monitor,
		fetcher:  fetcher,
		logger:   logger.With(zap.String("component", "dispatcher")),
		inFlight: make(map[string]string),
	}
}

func (d *Dispatcher) Start(ctx context.Context, id string) error {
	return d.dispatch(ctx, id, "start", d.engine.StartContainer)
}

func (d *Dispatcher) Stop(ctx context.Context, id string) error {
	return d.dispatch(ctx, id, "stop", d.engine.StopContainer)
}

func (d *Dispatcher) Restart(ctx context.Context, id string) error {
	return d.dispatch(ctx, id, "restart", d.engine.RestartContainer)
}

// Busy reports the operation currently in flight for a container, if any.
func (d *Dispatcher) Busy(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	op, ok := d.inFlight[id]
	return op, ok
}

func (d *Dispatcher) dispatch(ctx context.Context, id, op string, run func(context.Context, string) error) error {
	if !d.monitor.Connected() {
		return ErrDisconnected
	}

	if !d.acquire(id, op) {
		d.logger.Warn("command rejected, container busy",
			zap.String("container_id", id),
			zap.String("op", op))
		return fmt.Errorf("%w: %s", ErrCommandBusy, id)
	}

	d.logger.Info("dispatching command",
		zap.String("container_id", id),
		zap.String("op", op))

	// The slot guards the engine call only; it is released on every exit
	// path before the post-command refresh.
	cmdErr := func() error {
		defer d.release(id)
		return run(ctx, id)
	}()

	// Exactly one refresh per settled command, success or failure, so
	// the snapshot reflects what actually happened.
	if err := d.fetcher.Refresh(ctx); err != nil {
		d.logger.Warn("post-command refresh failed",
			zap.String("container_id", id),
			zap.Error(err))
	}

	if cmdErr != nil {
		d.logger.Error("command failed",
			zap.String("container_id", id),
			zap.String("op", op),
			zap.Error(cmdErr))
		return &CommandError{ContainerID: id, Op: op, Err: cmdErr}
	}
	return nil
}

func (d *Dispatcher) acquire(id, op string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.inFlight[id]; exists {
		return false
	}
	d.inFlight[id] = op
	return true
}

func (d *Dispatcher) release(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, id)
}
