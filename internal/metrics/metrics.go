package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry es el registro propio del servicio; /metrics lo expone.
var Registry = prometheus.NewRegistry()

var (
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wbuy",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream GET latency in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"endpoint", "status_class"},
	)

	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wbuy",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream GET requests",
		},
		[]string{"endpoint", "status_class"},
	)

	BreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wbuy",
			Subsystem: "upstream",
			Name:      "breaker_open",
			Help:      "1 when the upstream circuit breaker is open",
		},
	)

	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wbuy",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Resolutions by mode, outcome and winning tier",
		},
		[]string{"mode", "outcome", "tier"},
	)

	ScanUnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wbuy",
			Subsystem: "resolver",
			Name:      "scan_units_total",
			Help:      "Pages or offsets consumed by exhaustive scans",
		},
		[]string{"mode"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wbuy",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"route", "method", "status_code"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		UpstreamRequestDuration,
		UpstreamRequestsTotal,
		BreakerState,
		ResolutionsTotal,
		ScanUnitsTotal,
		HTTPRequestDuration,
	)
}

// StatusClass agrupa códigos HTTP en 2xx/4xx/5xx; 0 es error de transporte.
func StatusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
