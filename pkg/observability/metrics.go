package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Poll cycle metrics
	pollBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nudgekit_poll_batches_total",
			Help: "Total number of completed poll batches",
		},
	)

	pollBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nudgekit_poll_batch_duration_seconds",
			Help:    "Poll batch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	pollMissedFiresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nudgekit_poll_missed_fires_total",
			Help: "Total number of poll fires skipped because a batch was still running",
		},
	)

	// Session analysis metrics
	sessionVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nudgekit_session_verdicts_total",
			Help: "Total number of per-session verdicts by outcome",
		},
		[]string{"outcome"},
	)

	sessionsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nudgekit_sessions_in_flight",
			Help: "Number of sessions currently being analyzed",
		},
	)

	// Oracle metrics
	oracleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nudgekit_oracle_requests_total",
			Help: "Total number of oracle requests",
		},
		[]string{"phase", "status"},
	)

	oracleRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nudgekit_oracle_request_duration_seconds",
			Help:    "Oracle request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	// Delivery metrics
	nudgesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nudgekit_nudges_sent_total",
			Help: "Total number of nudges handed to the delivery sink",
		},
	)

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			pollBatchesTotal,
			pollBatchDuration,
			pollMissedFiresTotal,
			sessionVerdictsTotal,
			sessionsInFlight,
			oracleRequestsTotal,
			oracleRequestDuration,
			nudgesSentTotal,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordPollBatch records a completed poll batch
func RecordPollBatch(duration time.Duration) {
	pollBatchesTotal.Inc()
	pollBatchDuration.Observe(duration.Seconds())
}

// RecordMissedFire records a poll fire skipped due to an in-flight batch
func RecordMissedFire() {
	pollMissedFiresTotal.Inc()
}

// RecordVerdict records a per-session outcome. Error reasons collapse to a
// single label value so the cardinality stays bounded.
func RecordVerdict(outcome string) {
	if strings.HasPrefix(outcome, "error") {
		outcome = "error"
	}
	sessionVerdictsTotal.WithLabelValues(outcome).Inc()
}

// SetSessionsInFlight sets the in-flight analysis gauge
func SetSessionsInFlight(count int) {
	sessionsInFlight.Set(float64(count))
}

// RecordOracleRequest records oracle request metrics
func RecordOracleRequest(phase, status string, duration time.Duration) {
	oracleRequestsTotal.WithLabelValues(phase, status).Inc()
	oracleRequestDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordNudgeSent records a nudge handed to the delivery sink
func RecordNudgeSent() {
	nudgesSentTotal.Inc()
}
