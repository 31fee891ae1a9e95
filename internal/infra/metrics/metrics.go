// Package metrics exposes Prometheus collectors for the relay.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for outbound render calls.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "upstream_status"
	OutcomeTimeout   = "timeout"
	OutcomeTooLarge  = "too_large"
	OutcomeTransport = "transport"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total number of inbound HTTP requests, labeled by method, route and code.",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "Histogram of inbound HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	renderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_render_calls_total",
			Help: "Total number of calls to the rendering service, labeled by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	renderCallDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_render_call_duration_seconds",
			Help:    "Histogram of rendering service latencies, labeled by kind.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"kind"},
	)

	renderBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_render_bytes_total",
			Help: "Total number of rendered bytes received, labeled by kind.",
		},
		[]string{"kind"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest records one inbound request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRenderCall records one outbound call to the rendering service.
func ObserveRenderCall(kind, outcome string, duration time.Duration, bytesReceived int) {
	renderCallsTotal.WithLabelValues(kind, outcome).Inc()
	renderCallDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
	if bytesReceived > 0 {
		renderBytesTotal.WithLabelValues(kind).Add(float64(bytesReceived))
	}
}
