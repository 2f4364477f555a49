package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "support_chat"

// Metrics holds the Prometheus collectors of the service. All methods are safe
// on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	requests          *prometheus.CounterVec
	requestLatency    *prometheus.HistogramVec
	errors            *prometheus.CounterVec
	completionLatency *prometheus.HistogramVec
	gateDecisions     *prometheus.CounterVec
	tickets           *prometheus.CounterVec
	normalizeFailures prometheus.Counter
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "HTTP errors by route, method and error code",
		}, []string{"path", "method", "code"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "completion",
			Name:      "latency_seconds",
			Help:      "Latency of completion calls by outcome",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"outcome"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "topic_gate_total",
			Help:      "Topic gate outcomes",
		}, []string{"verdict"}),
		tickets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "tickets_created_total",
			Help:      "Tickets created by origin",
		}, []string{"origin"}),
		normalizeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "normalize_failures_total",
			Help:      "Replies replaced by the apology because normalization failed",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestLatency, m.errors,
		m.completionLatency, m.gateDecisions, m.tickets, m.normalizeFailures,
	)
	return m
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// ObserveCompletion records one completion call. outcome is "ok" or a failure kind.
func (m *Metrics) ObserveCompletion(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.completionLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecordGate counts a topic gate decision.
func (m *Metrics) RecordGate(verdict string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(verdict).Inc()
}

// RecordTicket counts a created ticket.
func (m *Metrics) RecordTicket(origin string) {
	if m == nil {
		return
	}
	m.tickets.WithLabelValues(origin).Inc()
}

// RecordNormalizeFailure counts a reply lost to a normalizer failure.
func (m *Metrics) RecordNormalizeFailure() {
	if m == nil {
		return
	}
	m.normalizeFailures.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
