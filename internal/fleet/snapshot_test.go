package fleet

import (
	"errors"
	"testing"
	"time"

	"github.com/signalforge/forge-agent/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreStartsEmpty(t *testing.T) {
	store := NewStore(testLogger())

	snapshot := store.Current()
	assert.False(t, snapshot.Connected)
	assert.Empty(t, snapshot.Containers)
	assert.Empty(t, snapshot.Stats)
	assert.Equal(t, uint64(0), snapshot.Generation)
}

func TestPublishReplacesWholesale(t *testing.T) {
	store := NewStore(testLogger())

	store.Publish(
		[]engine.Container{running("a", "web")},
		map[string]engine.Stats{"a": {CPUPercent: 1}},
		engine.Info{Version: "1"},
	)
	store.Publish(
		[]engine.Container{running("b", "db")},
		map[string]engine.Stats{"b": {CPUPercent: 2}},
		engine.Info{Version: "2"},
	)

	snapshot := store.Current()
	assert.Equal(t, uint64(2), snapshot.Generation)
	assert.Len(t, snapshot.Containers, 1)
	assert.Equal(t, "b", snapshot.Containers[0].ID)
	// Stats from a prior generation are never merged forward.
	assert.NotContains(t, snapshot.Stats, "a")
	assert.Equal(t, "2", snapshot.Info.Version)
}

func TestSetErrorPreservesSnapshot(t *testing.T) {
	store := NewStore(testLogger())
	store.Publish([]engine.Container{running("a", "web")}, map[string]engine.Stats{}, engine.Info{})

	store.SetError(errors.New("transient failure"))

	snapshot := store.Current()
	assert.Equal(t, "transient failure", snapshot.LastError)
	assert.Len(t, snapshot.Containers, 1)
	assert.Equal(t, uint64(1), snapshot.Generation)
}

func TestSubscribeReceivesPublishes(t *testing.T) {
	store := NewStore(testLogger())
	ch, cancel := store.Subscribe()
	defer cancel()

	store.Publish([]engine.Container{running("a", "web")}, map[string]engine.Stats{}, engine.Info{})

	select {
	case snapshot := <-ch:
		assert.Equal(t, uint64(1), snapshot.Generation)
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}
}

func TestSubscribeConflatesSlowConsumer(t *testing.T) {
	store := NewStore(testLogger())
	ch, cancel := store.Subscribe()
	defer cancel()

	for range 5 {
		store.Publish([]engine.Container{}, map[string]engine.Stats{}, engine.Info{})
	}

	// Only the latest snapshot is pending.
	snapshot := <-ch
	assert.Equal(t, uint64(5), snapshot.Generation)
	select {
	case stale := <-ch:
		t.Fatalf("unexpected queued snapshot, generation %d", stale.Generation)
	default:
	}
}

func TestCancelStopsNotifications(t *testing.T) {
	store := NewStore(testLogger())
	ch, cancel := store.Subscribe()
	cancel()

	_, open := <-ch
	require.False(t, open)

	// Publishing after cancel must not panic on the closed channel.
	store.Publish([]engine.Container{}, map[string]engine.Stats{}, engine.Info{})
}

func TestSetConnectedBannerSemantics(t *testing.T) {
	store := NewStore(testLogger())
	store.Publish([]engine.Container{running("a", "web")}, map[string]engine.Stats{}, engine.Info{})

	store.SetConnected(false, "daemon unreachable")
	snapshot := store.Current()
	assert.False(t, snapshot.Connected)
	assert.Equal(t, "daemon unreachable", snapshot.LastError)
	// The last known good fleet stays visible behind the banner.
	assert.Len(t, snapshot.Containers, 1)

	// Reconnecting clears the banner flag but the error stays until the
	// next successful refresh.
	store.SetConnected(true, "")
	snapshot = store.Current()
	assert.True(t, snapshot.Connected)
	assert.Equal(t, "daemon unreachable", snapshot.LastError)

	store.Publish([]engine.Container{running("a", "web")}, map[string]engine.Stats{}, engine.Info{})
	assert.Empty(t, store.Current().LastError)
}
