package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OpSave = "save"
	OpLoad = "load"
	OpPeek = "peek"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krgsave",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "krgsave",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	saveOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krgsave",
			Subsystem: "session",
			Name:      "operations_total",
			Help:      "Save, load and peek operations by outcome.",
		},
		[]string{"op", "success"},
	)
	saveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "krgsave",
			Subsystem: "session",
			Name:      "operation_duration_seconds",
			Help:      "Save, load and peek duration in seconds.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"op"},
	)
	saveBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "krgsave",
			Subsystem: "session",
			Name:      "file_bytes",
			Help:      "Save file size written or read.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		},
		[]string{"op"},
	)
	diagnostics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krgsave",
			Subsystem: "persist",
			Name:      "diagnostics_total",
			Help:      "Recovered content anomalies by kind.",
		},
		[]string{"kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, saveOps, saveDuration, saveBytes, diagnostics)
	})
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	httpDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}

// RecordOperation counts one session operation; size is ignored when zero.
func RecordOperation(op string, success bool, size int, duration time.Duration) {
	RegisterMetrics()
	saveOps.WithLabelValues(op, strconv.FormatBool(success)).Inc()
	saveDuration.WithLabelValues(op).Observe(duration.Seconds())
	if size > 0 {
		saveBytes.WithLabelValues(op).Observe(float64(size))
	}
}

func RecordDiagnostic(kind string) {
	RegisterMetrics()
	diagnostics.WithLabelValues(kind).Inc()
}
