package fleet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/signalforge/forge-agent/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshPublishesSnapshot(t *testing.T) {
	fake := newFakeEngine()
	fake.setContainers(running("a", "web"), stopped("b", "db"))
	fake.setStats("a", engine.Stats{CPUPercent: 12.5, MemoryUsage: 1024})
	fake.info = engine.Info{Version: "28.0", ContainersRunning: 1}

	store, _, fetcher, _ := newTestFleet(fake)

	require.NoError(t, fetcher.Refresh(context.Background()))

	snapshot := store.Current()
	assert.True(t, snapshot.Connected)
	assert.Empty(t, snapshot.LastError)
	assert.Equal(t, uint64(1), snapshot.Generation)
	assert.Len(t, snapshot.Containers, 2)
	assert.Equal(t, "28.0", snapshot.Info.Version)
	assert.Equal(t, 12.5, snapshot.Stats["a"].CPUPercent)
	// Stopped containers are never sampled.
	assert.NotContains(t, snapshot.Stats, "b")
}

func TestRefreshStatsKeysSubsetOfContainers(t *testing.T) {
	fake := newFakeEngine()
	fake.setContainers(running("a", "web"), running("b", "php"), running("c", "redis"))
	fake.setStats("a", engine.Stats{CPUPercent: 1})
	fake.setStats("b", engine.Stats{CPUPercent: 2})
	fake.statsErr["c"] = errors.New("container stopped mid-sample")

	store, _, fetcher, _ := newTestFleet(fake)

	// A per-container stats failure never fails the refresh.
	require.NoError(t, fetcher.Refresh(context.Background()))

	snapshot := store.Current()
	assert.Empty(t, snapshot.LastError)
	assert.Len(t, snapshot.Stats, 2)

	ids := make(map[string]bool)
	for _, c := range snapshot.Containers {
		ids[c.ID] = true
	}
	for id := range snapshot.Stats {
		assert.True(t, ids[id], "stats entry %s has no matching container", id)
	}
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	fake := newFakeEngine()
	fake.setContainers(running("a", "web"))
	fake.setStats("a", engine.Stats{CPUPercent: 5})

	store, _, fetcher, _ := newTestFleet(fake)
	require.NoError(t, fetcher.Refresh(context.Background()))
	before := store.Current()

	fake.listErr = errors.New("daemon hiccup")
	err := fetcher.Refresh(context.Background())

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "containers", fetchErr.Step)

	after := store.Current()
	assert.Equal(t, before.Generation, after.Generation)
	assert.Equal(t, before.Containers, after.Containers)
	assert.Equal(t, before.Stats, after.Stats)
	assert.Contains(t, after.LastError, "daemon hiccup")
}

func TestRefreshWhileDisconnected(t *testing.T) {
	fake := newFakeEngine()
	fake.pingErr = errors.New("cannot connect to the Docker daemon")
	fake.forbidden = true

	_, _, fetcher, _ := newTestFleet(fake)

	err := fetcher.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrDisconnected)
	assert.Equal(t, int32(0), fake.listCalls.Load())
}

func TestRefreshSingleFlight(t *testing.T) {
	fake := newFakeEngine()
	fake.setContainers(running("a", "web"))
	fake.listDelay = 100 * time.Millisecond

	_, _, fetcher, _ := newTestFleet(fake)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fetcher.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	// All concurrent callers collapse onto at most two underlying
	// fetches (a second caller may arrive after the first completed).
	assert.LessOrEqual(t, fake.listCalls.Load(), int32(2))
}

func TestTryRefreshSkipsWhileInFlight(t *testing.T) {
	fake := newFakeEngine()
	fake.setContainers(running("a", "web"))
	fake.listDelay = 150 * time.Millisecond

	_, _, fetcher, _ := newTestFleet(fake)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = fetcher.Refresh(context.Background())
	}()

	// Wait until the in-flight refresh is inside the engine call.
	require.Eventually(t, func() bool {
		return fake.listCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	assert.False(t, fetcher.TryRefresh(context.Background()))
	<-done

	assert.Equal(t, int32(1), fake.listCalls.Load())
}
