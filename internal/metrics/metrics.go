package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gsj_gateway"

// Login and portal call outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeExpired = "expired"
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	PortalCalls    *prometheus.CounterVec
	PortalDuration *prometheus.HistogramVec

	Logins        *prometheus.CounterVec
	Invalidations prometheus.Counter
	SessionActive prometheus.Gauge

	WSConnections prometheus.Gauge
}

// New registers every collector on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := factory{reg}

	m := &Metrics{
		registry: reg,

		RequestsTotal: f.counterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, "method", "path", "status"),
		RequestDuration: f.histogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, "method", "path"),

		PortalCalls: f.counterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portal_calls_total",
			Help:      "Calls made to the portal API by operation and outcome",
		}, "op", "outcome"),
		PortalDuration: f.histogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "portal_call_duration_seconds",
			Help:      "Portal API call duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}, "op"),

		Logins: f.counterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portal_logins_total",
			Help:      "Portal login attempts by outcome",
		}, "outcome"),
		Invalidations: f.counter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portal_session_invalidations_total",
			Help:      "Cached sessions dropped after the portal rejected them",
		}),
		SessionActive: f.gauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portal_session_active",
			Help:      "1 while a portal session is cached",
		}),

		WSConnections: f.gauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open telemetry websocket connections",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// PortalCall records one portal API round trip.
func (m *Metrics) PortalCall(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.PortalCalls.WithLabelValues(op, outcome).Inc()
	m.PortalDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.SessionActive.Set(1)
	}
}

func (m *Metrics) Invalidated() {
	if m == nil {
		return
	}
	m.Invalidations.Inc()
	m.SessionActive.Set(0)
}

func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

type factory struct {
	reg prometheus.Registerer
}

func (f factory) counterVec(opts prometheus.CounterOpts, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	f.reg.MustRegister(c)
	return c
}

func (f factory) histogramVec(opts prometheus.HistogramOpts, labels ...string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	f.reg.MustRegister(h)
	return h
}

func (f factory) counter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	f.reg.MustRegister(c)
	return c
}

func (f factory) gauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	f.reg.MustRegister(g)
	return g
}
