package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "manholectl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "manholectl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	sessionsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "manholectl",
			Subsystem: "console",
			Name:      "sessions_total",
			Help:      "Console sessions accepted.",
		},
		[]string{"node"},
	)
	sessionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "manholectl",
			Subsystem: "console",
			Name:      "sessions_active",
			Help:      "Console sessions currently connected.",
		},
		[]string{"node"},
	)
	sessionFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "manholectl",
			Subsystem: "console",
			Name:      "session_faults_total",
			Help:      "Sessions ended by an internal fault.",
		},
		[]string{"node"},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "manholectl",
			Subsystem: "console",
			Name:      "commands_total",
			Help:      "Completed console commands by outcome.",
		},
		[]string{"node", "outcome"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "manholectl",
			Subsystem: "console",
			Name:      "command_duration_seconds",
			Help:      "Console command execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			sessionsOpened, sessionsActive, sessionFaults,
			commandsTotal, commandDuration,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordSessionStart(node string) {
	RegisterMetrics()
	sessionsOpened.WithLabelValues(node).Inc()
	sessionsActive.WithLabelValues(node).Inc()
}

func RecordSessionEnd(node string) {
	RegisterMetrics()
	sessionsActive.WithLabelValues(node).Dec()
}

func RecordSessionFault(node string) {
	RegisterMetrics()
	sessionFaults.WithLabelValues(node).Inc()
}

func RecordCommand(node, outcome string, duration time.Duration) {
	RegisterMetrics()
	commandsTotal.WithLabelValues(node, outcome).Inc()
	commandDuration.WithLabelValues(node, outcome).Observe(duration.Seconds())
}
