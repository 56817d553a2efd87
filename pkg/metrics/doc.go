/*
Package metrics defines and registers the grid coordinator's Prometheus
metrics and exposes the HTTP handler that serves them.

All metrics are registered at package init via prometheus.MustRegister,
with a single metrics package owning every collector rather than
scattering registration across the components that update them. The
gauges and counters here are updated two ways:

  - Inline, at the moment a state transition happens; pkg/grid updates
    WorkUnitsTotal/JobsTotal/NodesTotal/QueueDepth/DispatchTotal the
    instant a dispatch, finish, kill, or sweep occurs.
  - Periodically, via pkg/grid.MetricsCollector, which snapshots
    aggregate Grid state every 15s independent of the inline updates;
    this catches any drift and gives QueueDepth and the *Total gauges a
    known-consistent baseline even if an inline update site is missed.

# Metrics

	grid_jobs_total{status}                        gauge
	grid_work_units_total{status}                  gauge
	grid_nodes_total{type,status}                  gauge
	grid_queue_depth                               gauge
	grid_scheduler_cycle_duration_seconds           histogram
	grid_dispatch_total{outcome}                   counter
	grid_dispatch_duration_seconds                  histogram
	grid_sweep_requeued_total                       counter
	grid_api_requests_total{method,route,status}   counter
	grid_api_request_duration_seconds{method,route} histogram

# HTTP exposition

Handler() returns promhttp.Handler(), mounted by the CLI on a listener
separate from the public API port, so a Prometheus scrape never
competes with job/node API calls for the same accept queue.

# Timer

Timer is a small helper for histogram observations bracketing a single
operation:

	timer := metrics.NewTimer()
	// ... do the thing ...
	timer.ObserveDuration(metrics.DispatchDuration)
*/
package metrics
