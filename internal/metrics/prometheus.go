package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the service. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimited         *prometheus.CounterVec

	// Collaborator metrics
	UpstreamDuration *prometheus.HistogramVec

	// Temp audio objects currently staged
	TempObjectsActive prometheus.Gauge
}

// NewMetrics creates a registry of its own, so several instances (tests) can coexist.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicedit_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicedit_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}, []string{"route"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicedit_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		}, []string{"route"}),

		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicedit_upstream_duration_seconds",
			Help:    "Duration of speech-to-text and text transformation calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1.7 minutes
		}, []string{"capability", "outcome"}),

		TempObjectsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voicedit_temp_objects_active",
			Help: "Current number of staged temporary audio objects",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveRateLimited(route string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(route).Inc()
}

// ObserveUpstream records one collaborator call; capability is "stt" or "llm".
func (m *Metrics) ObserveUpstream(capability string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamDuration.WithLabelValues(capability, outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) TempObjectStaged() {
	if m == nil {
		return
	}
	m.TempObjectsActive.Inc()
}

func (m *Metrics) TempObjectReleased() {
	if m == nil {
		return
	}
	m.TempObjectsActive.Dec()
}
