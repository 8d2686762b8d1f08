package fleet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/signalforge/forge-agent/internal/engine"
	"github.com/signalforge/forge-agent/internal/logging"
)

// fakeEngine is a controllable engine.Client for exercising the fleet
// components without a daemon.
type fakeEngine struct {
	mu         sync.Mutex
	containers []engine.Container
	stats      map[string]engine.Stats
	statsErr   map[string]error
	info       engine.Info

	pingErr error
	listErr error
	infoErr error
	cmdErr  error

	listDelay time.Duration
	cmdEnter  chan string
	cmdGate   chan struct{}

	listCalls    atomic.Int32
	statsCalls   atomic.Int32
	startCalls   atomic.Int32
	stopCalls    atomic.Int32
	restartCalls atomic.Int32

	// forbidden makes every call except Ping fail loudly; used to prove
	// a component short-circuits before reaching the engine.
	forbidden bool
}

var errForbiddenCall = errors.New("engine must not be invoked")

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		stats:    make(map[string]engine.Stats),
		statsErr: make(map[string]error),
	}
}

func (f *fakeEngine) setContainers(containers ...engine.Container) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers = containers
}

func (f *fakeEngine) setStats(id string, s engine.Stats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[id] = s
}

func (f *fakeEngine) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeEngine) ListContainers(ctx context.Context) ([]engine.Container, error) {
	if f.forbidden {
		return nil, errForbiddenCall
	}
	f.listCalls.Add(1)
	if f.listDelay > 0 {
		time.Sleep(f.listDelay)
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]engine.Container, len(f.containers))
	copy(out, f.containers)
	return out, nil
}

func (f *fakeEngine) ContainerStats(ctx context.Context, id string) (engine.Stats, error) {
	if f.forbidden {
		return engine.Stats{}, errForbiddenCall
	}
	f.statsCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.statsErr[id]; ok {
		return engine.Stats{}, err
	}
	if s, ok := f.stats[id]; ok {
		return s, nil
	}
	return engine.Stats{}, errors.New("no stats available")
}

func (f *fakeEngine) Info(ctx context.Context) (engine.Info, error) {
	if f.forbidden {
		return engine.Info{}, errForbiddenCall
	}
	if f.infoErr != nil {
		return engine.Info{}, f.infoErr
	}
	return f.info, nil
}

func (f *fakeEngine) runCommand(ctx context.Context, id string, counter *atomic.Int32) error {
	if f.forbidden {
		panic("engine invoked while disconnected")
	}
	counter.Add(1)
	if f.cmdEnter != nil {
		f.cmdEnter <- id
	}
	if f.cmdGate != nil {
		select {
		case <-f.cmdGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.cmdErr
}

func (f *fakeEngine) StartContainer(ctx context.Context, id string) error {
	return f.runCommand(ctx, id, &f.startCalls)
}

func (f *fakeEngine) StopContainer(ctx context.Context, id string) error {
	return f.runCommand(ctx, id, &f.stopCalls)
}

func (f *fakeEngine) RestartContainer(ctx context.Context, id string) error {
	return f.runCommand(ctx, id, &f.restartCalls)
}

func (f *fakeEngine) ContainerLogs(ctx context.Context, id string, tail int) ([]string, error) {
	return []string{"log line"}, nil
}

func (f *fakeEngine) WatchEvents(ctx context.Context) (<-chan engine.Event, <-chan error) {
	out := make(chan engine.Event)
	errs := make(chan error, 1)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, errs
}

func testLogger() *logging.Logger {
	logger, err := logging.NewLogger("error")
	if err != nil {
		panic(err)
	}
	return logger
}

func running(id, name string) engine.Container {
	return engine.Container{ID: id, Name: name, Image: name + ":latest", State: engine.StatusRunning, Status: "Up 1 minute"}
}

func stopped(id, name string) engine.Container {
	return engine.Container{ID: id, Name: name, Image: name + ":latest", State: engine.StatusStopped, Status: "Exited (0)"}
}

// newTestFleet wires a store, monitor, fetcher and dispatcher around the
// fake, with the monitor connected unless the fake's ping fails.
func newTestFleet(fake *fakeEngine) (*Store, *Monitor, *Fetcher, *Dispatcher) {
	logger := testLogger()
	store := NewStore(logger)
	monitor := NewMonitor(fake, store, logger)
	fetcher := NewFetcher(fake, monitor, store, logger)
	dispatcher := NewDispatcher(fake, monitor, fetcher, logger)
	monitor.Connect(context.Background())
	return store, monitor, fetcher, dispatcher
}
