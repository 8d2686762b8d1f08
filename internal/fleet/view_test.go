package fleet

import (
	"testing"

	"github.com/signalforge/forge-agent/internal/engine"

	"github.com/stretchr/testify/assert"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Containers: []engine.Container{
			running("a", "web"),
			running("b", "php"),
			running("c", "redis"),
			stopped("d", "db"),
		},
		Stats: map[string]engine.Stats{
			"a": {CPUPercent: 10.0, MemoryUsage: 100},
			"b": {CPUPercent: 2.5, MemoryUsage: 50},
			// "c" is running but has no sample yet.
		},
		Info:      engine.Info{Version: "28.0"},
		Connected: true,
	}
}

func TestFilterByStatus(t *testing.T) {
	snapshot := testSnapshot()

	assert.Len(t, snapshot.Filter(FilterAll), 4)
	assert.Len(t, snapshot.Filter(""), 4)

	runningOnly := snapshot.Filter(FilterRunning)
	assert.Len(t, runningOnly, 3)
	for _, c := range runningOnly {
		assert.Equal(t, engine.StatusRunning, c.State)
	}

	stoppedOnly := snapshot.Filter(FilterStopped)
	assert.Len(t, stoppedOnly, 1)
	assert.Equal(t, "d", stoppedOnly[0].ID)
}

func TestTotalsCoverOnlySampledContainers(t *testing.T) {
	totals := testSnapshot().Totals()

	assert.Equal(t, 12.5, totals.CPUPercent)
	assert.Equal(t, uint64(150), totals.MemoryUsage)
	assert.Equal(t, 2, totals.Sampled)
}

func TestCounts(t *testing.T) {
	snapshot := testSnapshot()
	snapshot.Containers = append(snapshot.Containers, engine.Container{ID: "e", State: engine.StatusPaused})

	counts := snapshot.Counts()
	assert.Equal(t, 3, counts.Running)
	assert.Equal(t, 1, counts.Stopped)
	assert.Equal(t, 1, counts.Paused)
	assert.Equal(t, 5, counts.Total)
}

func TestSummarize(t *testing.T) {
	snapshot := testSnapshot()
	snapshot.LastError = "stale warning"

	summary := snapshot.Summarize()
	assert.Equal(t, snapshot.Counts(), summary.Counts)
	assert.Equal(t, snapshot.Totals(), summary.Totals)
	assert.Equal(t, "28.0", summary.Info.Version)
	assert.True(t, summary.Connected)
	assert.Equal(t, "stale warning", summary.LastError)
}
