// Package scheduler drives the grid's periodic work-unit allocation
// loop and owns the pluggable allocation strategies: a ticker
// goroutine guarded by a stop channel, timing each cycle, delegating
// the "which queued unit goes next" decision to the active Strategy.
package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
	"github.com/sritchie73/bad-boyz-cluster/pkg/log"
	"github.com/sritchie73/bad-boyz-cluster/pkg/metrics"
)

// DefaultInterval is how often the base loop wakes up to offer free
// nodes the next queued work unit.
const DefaultInterval = 2 * time.Second

// maxLogEntries bounds the in-memory rolling event log served via
// GET /log.
const maxLogEntries = 100

// LogEntry is one scheduling event exposed via GET /log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Scheduler runs the base allocation loop against a Grid, delegating
// the actual "which queued unit goes next" decision to the currently
// active Strategy. It implements grid.SchedulerController so Grid can
// restart it by name without importing this package back.
type Scheduler struct {
	g        *grid.Grid
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	strategy grid.Strategy

	memLogMu sync.Mutex
	memLog   []LogEntry

	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a Scheduler running strategyName over g, ticking
// every interval (pass DefaultInterval in production; tests use a
// shorter one). Returns InvalidScheduler if strategyName is unknown.
func New(g *grid.Grid, strategyName string, interval time.Duration) (*Scheduler, error) {
	strategy, err := NewStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		g:        g,
		interval: interval,
		logger:   log.WithComponent("scheduler"),
		strategy: strategy,
	}, nil
}

// Start begins the loop in its own goroutine. Calling Start twice on
// the same Scheduler is not supported; callers needing to switch
// strategy call Restart, not Stop+Start on a fresh instance.
func (s *Scheduler) Start() {
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.appendLog("scheduler started with strategy " + s.currentStrategy().Name())
	go s.run()
}

// Stop signals the loop to exit and blocks until it has.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// Restart swaps the active strategy for a freshly constructed instance
// of strategyName, satisfying grid.SchedulerController. The base loop
// itself keeps running; only the policy it consults is replaced,
// discarding the old strategy's bookkeeping.
func (s *Scheduler) Restart(strategyName string) error {
	next, err := NewStrategy(strategyName)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.strategy = next
	s.mu.Unlock()
	s.appendLog("scheduler strategy changed to " + strategyName)
	return nil
}

func (s *Scheduler) currentStrategy() grid.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

// run is the base loop: sleep an interval, acquire the queue lock
// (inside RunSchedulingCycle), offer free nodes the strategy's next
// work unit, release, repeat; until stopCh closes, which it must
// notice within one interval.
func (s *Scheduler) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) tick() {
	metrics.Beat("scheduler")
	timer := metrics.NewTimer()
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	assigned, err := s.g.RunSchedulingCycle(ctx, s.currentStrategy())
	timer.ObserveDuration(metrics.SchedulerCycleDuration)

	if err != nil {
		s.logger.Error().Err(err).Msg("scheduling cycle failed")
		s.appendLog("scheduling cycle failed: " + err.Error())
		return
	}
	if assigned > 0 {
		s.logger.Info().Int("assigned", assigned).Msg("scheduling cycle assigned work units")
		s.appendLog(strconv.Itoa(assigned) + " work unit(s) assigned")
	}
}

func (s *Scheduler) appendLog(msg string) {
	s.memLogMu.Lock()
	defer s.memLogMu.Unlock()
	s.memLog = append(s.memLog, LogEntry{Timestamp: time.Now(), Message: msg})
	if len(s.memLog) > maxLogEntries {
		s.memLog = s.memLog[len(s.memLog)-maxLogEntries:]
	}
}

// Log returns a snapshot of the last <=100 scheduling events, for the
// GET /log route.
func (s *Scheduler) Log() []LogEntry {
	s.memLogMu.Lock()
	defer s.memLogMu.Unlock()
	out := make([]LogEntry, len(s.memLog))
	copy(out, s.memLog)
	return out
}
