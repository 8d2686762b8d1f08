package fleet

import (
	"sync"
	"time"

	"github.com/signalforge/forge-agent/internal/engine"
	"github.com/signalforge/forge-agent/internal/logging"

	"go.uber.org/zap"
)

// Snapshot is one complete, atomically published view of the fleet. The
// stats map only ever holds entries for containers listed in the same
// generation; a missing entry means "not running or not yet sampled".
type Snapshot struct {
	Containers []engine.Container      `json:"containers"`
	Stats      map[string]engine.Stats `json:"stats"`
	Info       engine.Info             `json:"info"`
	Connected  bool                    `json:"connected"`
	LastError  string                  `json:"last_error,omitempty"`
	Generation uint64                  `json:"generation"`
	FetchedAt  time.Time               `json:"fetched_at,omitzero"`
}

// Store holds the current snapshot. The fetcher is the only writer of
// container/stats/info state; the monitor only flips the connectivity flag.
// Published slices and maps are never mutated after publish, so readers may
// share them.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
	subs    map[chan Snapshot]struct{}
	logger  *logging.Logger
}

func NewStore(logger *logging.Logger) *Store {
	return &Store{
		current: Snapshot{Stats: make(map[string]engine.Stats)},
		subs:    make(map[chan Snapshot]struct{}),
		logger:  logger.With(zap.String("component", "fleet")),
	}
}

// Current returns the latest published snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Publish replaces the container list, stats map and engine info as one
// unit. A reader never observes a list from one generation paired with
// stats from another.
func (s *Store) Publish(containers []engine.Container, stats map[string]engine.Stats, info engine.Info) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Snapshot{
		Containers: containers,
		Stats:      stats,
		Info:       info,
		Connected:  true,
		Generation: s.current.Generation + 1,
		FetchedAt:  time.Now(),
	}

	s.logger.Debug("snapshot published",
		zap.Uint64("generation", s.current.Generation),
		zap.Int("containers", len(containers)),
		zap.Int("stats", len(stats)))

	s.notifyLocked()
	return s.current
}

// SetError records a fetch failure without touching the previously
// published snapshot, so the UI keeps rendering the last known good state.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.LastError = err.Error()
	s.notifyLocked()
}

// SetConnected updates the connectivity flag. On disconnect the cause
// lands in the last-error slot so the consumer can render a banner; on
// reconnect the slot is left alone until the next successful refresh
// clears it.
func (s *Store) SetConnected(connected bool, cause string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connected {
		if s.current.Connected {
			return
		}
		s.current.Connected = true
		s.notifyLocked()
		return
	}

	if !s.current.Connected && s.current.LastError == cause {
		return
	}
	s.current.Connected = false
	s.current.LastError = cause
	s.notifyLocked()
}

// Subscribe registers for snapshot-change notifications. Slow consumers are
// conflated to the latest snapshot rather than blocking the publisher. The
// returned cancel func must be called when the consumer goes away.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Store) notifyLocked() {
	for ch := range s.subs {
		select {
		case ch <- s.current:
		default:
			// Drop the stale pending snapshot and replace it.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.current:
			default:
			}
		}
	}
}
