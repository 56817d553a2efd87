package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_DurationGrowsMonotonically(t *testing.T) {
	timer := NewTimer()
	require.NotNil(t, timer)

	first := timer.Duration()
	time.Sleep(10 * time.Millisecond)
	second := timer.Duration()

	assert.GreaterOrEqual(t, first, time.Duration(0))
	assert.Greater(t, second, first)
}

// The scheduler tick and the dispatcher both bracket one operation with
// a Timer and observe into an unlabelled histogram; this pins that a
// single observation lands with roughly the elapsed time.
func TestTimer_ObserveDurationRecordsElapsedCycle(t *testing.T) {
	cycle := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_cycle_duration_seconds",
		Help:    "Scheduler-cycle-shaped test histogram",
		Buckets: prometheus.DefBuckets,
	})

	timer := NewTimer()
	time.Sleep(20 * time.Millisecond)
	timer.ObserveDuration(cycle)

	m := &prometheusMetric{}
	require.NoError(t, collectOne(cycle, m))
	assert.Equal(t, uint64(1), m.sampleCount)
	assert.GreaterOrEqual(t, m.sampleSum, 0.02)
}

// The API middleware observes into a labelled vec per method/route;
// this pins that labels route the observation to the right child.
func TestTimer_ObserveDurationVecRecordsUnderLabels(t *testing.T) {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_request_duration_seconds",
		Help:    "API-request-shaped test histogram",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	timer := NewTimer()
	timer.ObserveDurationVec(vec, "POST", "/job")

	m := &prometheusMetric{}
	require.NoError(t, collectOne(vec.WithLabelValues("POST", "/job"), m))
	assert.Equal(t, uint64(1), m.sampleCount)

	other := &prometheusMetric{}
	require.NoError(t, collectOne(vec.WithLabelValues("GET", "/job"), other))
	assert.Equal(t, uint64(0), other.sampleCount, "other label pairs stay untouched")
}

// prometheusMetric is the subset of a histogram's protobuf state the
// tests assert on.
type prometheusMetric struct {
	sampleCount uint64
	sampleSum   float64
}

func collectOne(o prometheus.Observer, out *prometheusMetric) error {
	m, ok := o.(prometheus.Metric)
	if !ok {
		return nil
	}
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		return err
	}
	out.sampleCount = pb.GetHistogram().GetSampleCount()
	out.sampleSum = pb.GetHistogram().GetSampleSum()
	return nil
}
