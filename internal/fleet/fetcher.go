package fleet

import (
	"context"
	"sync"

	"github.com/signalforge/forge-agent/internal/engine"
	"github.com/signalforge/forge-agent/internal/logging"

	"go.uber.org/zap"
)

// Fetcher builds snapshots. Refreshes are single-flight: concurrent callers
// share the in-flight fetch and its result instead of issuing duplicates.
type Fetcher struct {
	engine  engine.Client
	monitor *Monitor
	store   *Store
	logger  *logging.Logger

	mu   sync.Mutex
	call *refreshCall
}

type refreshCall struct {
	done chan struct{}
	err  error
}

func NewFetcher(client engine.Client, monitor *Monitor, store *Store, logger *logging.Logger) *Fetcher {
	return &Fetcher{
		engine:  client,
		monitor: monitor,
		store:   store,
		logger:  logger.With(zap.String("component", "fetcher")),
	}
}

// Refresh fetches a new snapshot, joining an already in-flight refresh if
// one exists and returning its result.
func (f *Fetcher) Refresh(ctx context.Context) error {
	call, started := f.acquire()
	if !started {
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.run(ctx, call)
}

// TryRefresh starts a refresh unless one is already in flight. It reports
// whether a fetch was actually performed; a skipped tick is not an error.
func (f *Fetcher) TryRefresh(ctx context.Context) bool {
	call, started := f.acquire()
	if !started {
		return false
	}
	_ = f.run(ctx, call)
	return true
}

func (f *Fetcher) acquire() (*refreshCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.call != nil {
		return f.call, false
	}
	f.call = &refreshCall{done: make(chan struct{})}
	return f.call, true
}

func (f *Fetcher) run(ctx context.Context, call *refreshCall) error {
	call.err = f.doRefresh(ctx)

	f.mu.Lock()
	f.call = nil
	f.mu.Unlock()
	close(call.done)

	return call.err
}

func (f *Fetcher) doRefresh(ctx context.Context) error {
	if !f.monitor.Connected() {
		return ErrDisconnected
	}

	containers, err := f.engine.ListContainers(ctx)
	if err != nil {
		fetchErr := &FetchError{Step: "containers", Err: err}
		f.store.SetError(fetchErr)
		f.logger.Error("container listing failed", zap.Error(err))
		return fetchErr
	}

	info, err := f.engine.Info(ctx)
	if err != nil {
		fetchErr := &FetchError{Step: "info", Err: err}
		f.store.SetError(fetchErr)
		f.logger.Error("engine info fetch failed", zap.Error(err))
		return fetchErr
	}

	stats := f.collectStats(ctx, containers)

	f.store.Publish(containers, stats, info)
	return nil
}

// collectStats samples every running container concurrently. A
// per-container failure is expected (the container may have stopped between
// listing and sampling) and simply omits that entry.
func (f *Fetcher) collectStats(ctx context.Context, containers []engine.Container) map[string]engine.Stats {
	running := make([]string, 0, len(containers))
	for _, c := range containers {
		if c.State == engine.StatusRunning {
			running = append(running, c.ID)
		}
	}

	stats := make(map[string]engine.Stats, len(running))
	if len(running) == 0 {
		return stats
	}

	type statsResult struct {
		id    string
		stats engine.Stats
	}

	results := make(chan statsResult, len(running))
	var wg sync.WaitGroup

	for _, id := range running {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sample, err := f.engine.ContainerStats(ctx, id)
			if err != nil {
				f.logger.Debug("stats unavailable",
					zap.String("container_id", id),
					zap.Error(err))
				return
			}
			results <- statsResult{id: id, stats: sample}
		}(id)
	}

	wg.Wait()
	close(results)

	for r := range results {
		stats[r.id] = r.stats
	}
	return stats
}
