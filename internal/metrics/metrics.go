// Package metrics holds the Prometheus collectors for gateway calls and panel loads.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mission_control"

var (
	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Count of requests sent to the NASA API, by endpoint and response status.",
		},
		[]string{"endpoint", "status"},
	)
	gatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the NASA API.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"endpoint"},
	)
	panelLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "loads_total",
			Help:      "Count of panel loads applied to visible state, by outcome.",
		},
		[]string{"panel", "outcome"},
	)
	staleResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "stale_results_total",
			Help:      "Count of load results discarded because a newer commit superseded them.",
		},
		[]string{"panel"},
	)
)

var registerMetrics sync.Once

// Register all metrics with the given registerer.
func Register(r prometheus.Registerer) {
	registerMetrics.Do(func() {
		r.MustRegister(gatewayRequests)
		r.MustRegister(gatewayLatency)
		r.MustRegister(panelLoads)
		r.MustRegister(staleResults)
	})
}

// RecordGatewayRequest records one finished gateway call. A status of 0 means
// the transport failed before a response arrived.
func RecordGatewayRequest(endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	gatewayRequests.WithLabelValues(endpoint, label).Inc()
	gatewayLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordPanelLoad records a load whose result reached the panel.
func RecordPanelLoad(panel, outcome string) {
	panelLoads.WithLabelValues(panel, outcome).Inc()
}

// RecordStaleResult records a discarded result.
func RecordStaleResult(panel string) {
	staleResults.WithLabelValues(panel).Inc()
}
