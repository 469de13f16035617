package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"objectsrecognition/internal/apperr"
)

// Outcome labels for inference requests and probes.
const (
	OutcomeSuccess   = "success"
	OutcomeTransport = "transport"
	OutcomeService   = "service"
	OutcomeOther     = "other"
)

// OutcomeOf classifies err into an outcome label.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, apperr.ErrTransport):
		return OutcomeTransport
	case errors.Is(err, apperr.ErrService):
		return OutcomeService
	default:
		return OutcomeOther
	}
}

// Metrics holds Prometheus counters and gauges for the recognition client.
// Every method is safe on a nil receiver so components can run without metrics.
type Metrics struct {
	registry            *prometheus.Registry
	requestsTotal       prometheus.Counter
	errorsTotal         prometheus.Counter
	inferenceRequests   *prometheus.CounterVec
	detectionsPersisted prometheus.Counter
	detectionsSkipped   *prometheus.CounterVec
	probes              *prometheus.CounterVec
	connectivityState   prometheus.Gauge
	timelineItems       prometheus.Gauge
	staleResults        prometheus.Counter
}

// New creates and registers Prometheus metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recognition_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recognition_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		inferenceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognition_inference_requests_total",
			Help: "Inference requests by outcome",
		}, []string{"outcome"}),
		detectionsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recognition_detections_persisted_total",
			Help: "Detections mapped and saved",
		}),
		detectionsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognition_detections_skipped_total",
			Help: "Detections skipped by reason",
		}, []string{"reason"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognition_health_probes_total",
			Help: "Health probes by outcome",
		}, []string{"outcome"}),
		connectivityState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recognition_connectivity_state",
			Help: "0 = disconnected, 1 = connected, 2 = lost",
		}),
		timelineItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recognition_timeline_items",
			Help: "Items in the loaded timeline",
		}),
		staleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recognition_stale_results_total",
			Help: "Inference results discarded because a newer batch was loaded",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.inferenceRequests,
		m.detectionsPersisted,
		m.detectionsSkipped,
		m.probes,
		m.connectivityState,
		m.timelineItems,
		m.staleResults,
	)
	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// IncInference counts one inference request with the given outcome.
func (m *Metrics) IncInference(outcome string) {
	if m == nil {
		return
	}
	m.inferenceRequests.WithLabelValues(outcome).Inc()
}

// IncPersisted counts one saved detection.
func (m *Metrics) IncPersisted() {
	if m == nil {
		return
	}
	m.detectionsPersisted.Inc()
}

// IncSkipped counts one skipped detection.
func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.detectionsSkipped.WithLabelValues(reason).Inc()
}

// IncProbe counts one health probe.
func (m *Metrics) IncProbe(outcome string) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(outcome).Inc()
}

// SetConnectivity records the watchdog state.
func (m *Metrics) SetConnectivity(state int) {
	if m == nil {
		return
	}
	m.connectivityState.Set(float64(state))
}

// SetTimelineItems records the timeline length.
func (m *Metrics) SetTimelineItems(n int) {
	if m == nil {
		return
	}
	m.timelineItems.Set(float64(n))
}

// IncStale counts one discarded stale result.
func (m *Metrics) IncStale() {
	if m == nil {
		return
	}
	m.staleResults.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
