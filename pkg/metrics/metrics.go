package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobsTotal tracks jobs by aggregate status (NEW/READY/PENDING/
	// RUNNING/FINISHED/KILLED).
	JobsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "grid_jobs_total",
			Help: "Total number of jobs by status",
		},
		[]string{"status"},
	)

	// WorkUnitsTotal tracks work units by lifecycle status.
	WorkUnitsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "grid_work_units_total",
			Help: "Total number of work units by status",
		},
		[]string{"status"},
	)

	// NodesTotal tracks registered nodes by typed queue and liveness.
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "grid_nodes_total",
			Help: "Total number of nodes by type and status",
		},
		[]string{"type", "status"},
	)

	// QueueDepth tracks how many work units are currently queued
	// awaiting scheduling.
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "grid_queue_depth",
			Help: "Number of work units currently in the scheduling queue",
		},
	)

	// SchedulerCycleDuration times one pass of the scheduler loop.
	SchedulerCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grid_scheduler_cycle_duration_seconds",
			Help:    "Time taken for one scheduler cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DispatchTotal counts dispatch attempts by outcome (assigned,
	// node_unavailable, killed).
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_dispatch_total",
			Help: "Total number of work unit dispatch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// DispatchDuration times the POST /task round trip to a node.
	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grid_dispatch_duration_seconds",
			Help:    "Time taken to dispatch a work unit to a node in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SweepRequeuedTotal counts work units requeued after their node
	// was declared dead by the liveness sweep.
	SweepRequeuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grid_sweep_requeued_total",
			Help: "Total number of work units requeued after a node timeout",
		},
	)

	// APIRequestsTotal counts handled HTTP requests by route and status.
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_api_requests_total",
			Help: "Total number of API requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	// APIRequestDuration times handled HTTP requests by route.
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grid_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(WorkUnitsTotal)
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(SchedulerCycleDuration)
	prometheus.MustRegister(DispatchTotal)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(SweepRequeuedTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// IncDispatch increments the dispatch counter for one outcome.
func IncDispatch(outcome string) {
	DispatchTotal.WithLabelValues(outcome).Inc()
}
