package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fan-out executor metrics
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fnerd_jobs_total",
			Help: "Total number of collection jobs by terminal result and kind",
		},
		[]string{"result", "kind"},
	)

	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fnerd_jobs_in_flight",
			Help: "Number of collection jobs currently occupying a fan-out worker slot",
		},
	)

	// PhaseDuration is registered and exported; no package in this
	// module observes it.
	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fnerd_phase_duration_seconds",
			Help:    "Time spent in each collection state-machine phase",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 3600, 7200, 21600},
		},
		[]string{"tool", "phase"},
	)

	// RTR façade metrics
	RTRRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fnerd_rtr_requests_total",
			Help: "Total number of RTR façade calls by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	RTRRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fnerd_rtr_retries_total",
			Help: "Total number of retried RTR façade calls by method",
		},
		[]string{"method"},
	)

	HostRegistryHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fnerd_host_registry_cache_hits_total",
			Help: "Total number of host registry lookups served from cache",
		},
	)

	HostRegistryMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fnerd_host_registry_cache_misses_total",
			Help: "Total number of host registry lookups that hit discovery",
		},
	)

	// Upload metrics
	UploadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fnerd_upload_bytes_total",
			Help: "Total bytes uploaded to the object store",
		},
	)

	UploadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fnerd_upload_duration_seconds",
			Help:    "Time taken to upload one artifact to the object store",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800},
		},
	)

	VerifyMismatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fnerd_verify_size_mismatch_total",
			Help: "Total number of VERIFY phases that found a size mismatch against the object store",
		},
	)
)

func init() {
	prometheus.MustRegister(
		JobsTotal,
		JobsInFlight,
		PhaseDuration,
		RTRRequestsTotal,
		RTRRetries,
		HostRegistryHits,
		HostRegistryMisses,
		UploadBytesTotal,
		UploadDuration,
		VerifyMismatchTotal,
	)
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
