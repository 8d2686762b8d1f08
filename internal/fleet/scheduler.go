package fleet

import (
	"context"
	"time"

	"github.com/signalforge/forge-agent/internal/logging"

	"go.uber.org/zap"
)

// Scheduler drives periodic refreshes. Ticks that fire while a refresh is
// still in flight are skipped, not queued; freshness matters more than
// tick-count fidelity.
type Scheduler struct {
	fetcher  *Fetcher
	monitor  *Monitor
	interval time.Duration
	logger   *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(fetcher *Fetcher, monitor *Monitor, interval time.Duration, logger *logging.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		fetcher:  fetcher,
		monitor:  monitor,
		interval: interval,
		logger:   logger.With(zap.String("component", "scheduler")),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("refresh scheduler started",
		zap.Duration("interval", s.interval))
	go s.loop()
}

// Stop cancels the loop and releases the timer. It blocks until the loop
// goroutine has exited; an in-flight refresh is left to complete and its
// result discarded.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.done
	s.logger.Info("refresh scheduler stopped")
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
		// A tick may have been pending alongside cancellation; never
		// start a fetch after Stop.
		if s.ctx.Err() != nil {
			return
		}

		// Re-probe each tick so a lost daemon flips the shared flag
		// and a returning one resumes refreshes.
		if !s.monitor.Connect(s.ctx) {
			continue
		}
		// The refresh itself is not cancelled on teardown; it is
		// allowed to complete and its result discarded.
		if !s.fetcher.TryRefresh(context.WithoutCancel(s.ctx)) {
			s.logger.Debug("refresh in flight, tick skipped")
		}
	}
}
