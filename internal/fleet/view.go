package fleet

import "github.com/signalforge/forge-agent/internal/engine"

// StatusFilter selects a subset of containers by lifecycle state.
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterRunning StatusFilter = "running"
	FilterStopped StatusFilter = "stopped"
)

// Totals aggregates resource usage over exactly the containers present in
// the stats map; a running container without a sample contributes nothing.
type Totals struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryUsage uint64  `json:"memory_usage"`
	Sampled     int     `json:"sampled"`
}

type Counts struct {
	Running int `json:"running"`
	Stopped int `json:"stopped"`
	Paused  int `json:"paused"`
	Total   int `json:"total"`
}

// Summary is the derived overview the panel header renders.
type Summary struct {
	Counts    Counts      `json:"counts"`
	Totals    Totals      `json:"totals"`
	Info      engine.Info `json:"info"`
	Connected bool        `json:"connected"`
	LastError string      `json:"last_error,omitempty"`
}

// Filter returns the containers matching the given status filter, in
// snapshot order. Projections are computed fresh from the snapshot on
// every call; nothing derived is cached.
func (s Snapshot) Filter(filter StatusFilter) []engine.Container {
	if filter == FilterAll || filter == "" {
		return s.Containers
	}

	out := make([]engine.Container, 0, len(s.Containers))
	for _, c := range s.Containers {
		switch filter {
		case FilterRunning:
			if c.State == engine.StatusRunning {
				out = append(out, c)
			}
		case FilterStopped:
			if c.State != engine.StatusRunning {
				out = append(out, c)
			}
		}
	}
	return out
}

// Totals sums CPU and memory over the stats map.
func (s Snapshot) Totals() Totals {
	var t Totals
	for _, sample := range s.Stats {
		t.CPUPercent += sample.CPUPercent
		t.MemoryUsage += sample.MemoryUsage
		t.Sampled++
	}
	return t
}

// Counts tallies containers per lifecycle state.
func (s Snapshot) Counts() Counts {
	c := Counts{Total: len(s.Containers)}
	for _, ct := range s.Containers {
		switch ct.State {
		case engine.StatusRunning:
			c.Running++
		case engine.StatusPaused:
			c.Paused++
		default:
			c.Stopped++
		}
	}
	return c
}

// Summarize builds the panel overview from the snapshot.
func (s Snapshot) Summarize() Summary {
	return Summary{
		Counts:    s.Counts(),
		Totals:    s.Totals(),
		Info:      s.Info,
		Connected: s.Connected,
		LastError: s.LastError,
	}
}
