package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsRecorded counts events appended to a log, by kind.
	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scribe",
			Subsystem: "replay",
			Name:      "events_recorded_total",
			Help:      "Total number of events appended to the event log",
		},
		[]string{"kind"},
	)

	// EventsDispatched counts controller events delivered during replay, by kind.
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scribe",
			Subsystem: "replay",
			Name:      "events_dispatched_total",
			Help:      "Total number of events dispatched to controllers during replay",
		},
		[]string{"kind"},
	)

	// CacheMisses counts environment queries the snapshot cache could not answer.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scribe",
			Subsystem: "replay",
			Name:      "cache_misses_total",
			Help:      "Total number of environment queries missing from the recording",
		},
		[]string{"query"},
	)

	// FlushDuration tracks how long each append takes to reach the file.
	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scribe",
			Subsystem: "replay",
			Name:      "flush_duration_seconds",
			Help:      "Latency of writing and flushing one event",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	// ActiveSessions is the number of open record or play sessions, by mode.
	ActiveSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "scribe",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of open record/replay sessions",
		},
		[]string{"mode"},
	)
)

// ObserveFlush records one append latency.
func ObserveFlush(start time.Time) {
	FlushDuration.Observe(time.Since(start).Seconds())
}

// MetricsHandler exposes the default registry for scraping.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// NewMetricsServer returns an HTTP server serving /metrics on addr.
func NewMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
