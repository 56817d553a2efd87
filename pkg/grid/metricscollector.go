package grid

import (
	"time"

	"github.com/sritchie73/bad-boyz-cluster/pkg/metrics"
)

// MetricsCollector periodically snapshots Grid state into the job,
// work-unit, node and queue-depth gauges, overwriting whatever the
// inline per-event updates left there: a 15s ticker goroutine taking
// one consistent Snapshot per tick, tolerant of a momentarily-locked
// Grid.
type MetricsCollector struct {
	grid   *Grid
	stopCh chan struct{}
}

// NewMetricsCollector builds a collector over g. Call Start once the
// Grid is wired into the rest of the coordinator.
func NewMetricsCollector(g *Grid) *MetricsCollector {
	return &MetricsCollector{grid: g, stopCh: make(chan struct{})}
}

// Start begins the periodic collection loop in its own goroutine.
func (c *MetricsCollector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the collection loop. Safe to call once.
func (c *MetricsCollector) Stop() {
	close(c.stopCh)
}

func (c *MetricsCollector) collect() {
	snap := c.grid.Snapshot()

	for status, count := range snap.JobsByStatus {
		metrics.JobsTotal.WithLabelValues(string(status)).Set(float64(count))
	}
	for status, count := range snap.WorkUnitsByStatus {
		metrics.WorkUnitsTotal.WithLabelValues(string(status)).Set(float64(count))
	}
	for key, count := range snap.NodesByTypeStatus {
		metrics.NodesTotal.WithLabelValues(string(key.Type), string(key.Status)).Set(float64(count))
	}
	metrics.QueueDepth.Set(float64(snap.QueueDepth))
}
