package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome classifies an interpreted business response.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeBusinessFailure Outcome = "business_failure"
	OutcomeInvalidToken    Outcome = "invalid_token"
	OutcomeTransportError  Outcome = "transport_error"
)

// Recorder publishes Prometheus metrics for probe activity.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	responses *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	events    *prometheus.CounterVec
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a dedicated
// registry is created.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	responses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bizclient",
		Subsystem: "probe",
		Name:      "responses_total",
		Help:      "Business responses interpreted by the prober.",
	}, []string{"endpoint", "outcome", "status_code"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bizclient",
		Subsystem: "probe",
		Name:      "duration_seconds",
		Help:      "Latency distribution for probed business calls.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint", "outcome"})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bizclient",
		Subsystem: "notify",
		Name:      "events_total",
		Help:      "Business events handled by the notifier.",
	}, []string{"kind", "result"})

	reg.MustRegister(responses, latency, events)

	return &Recorder{
		gatherer:  reg,
		handler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		responses: responses,
		latency:   latency,
		events:    events,
	}
}

// Handler exposes the Prometheus HTTP handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// Gatherer returns the underlying Prometheus gatherer.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// ObserveResponse records the outcome and latency of a probed call.
func (r *Recorder) ObserveResponse(endpoint string, outcome Outcome, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	endpointLabel := normalizeLabel(endpoint)
	outcomeLabel := normalizeLabel(string(outcome))
	statusLabel := strconv.Itoa(statusCode)
	if statusCode <= 0 {
		statusLabel = "unknown"
	}
	r.responses.WithLabelValues(endpointLabel, outcomeLabel, statusLabel).Inc()
	r.latency.WithLabelValues(endpointLabel, outcomeLabel).Observe(duration.Seconds())
}

// ObserveEvent records what the notifier did with an event, e.g. published
// or suppressed.
func (r *Recorder) ObserveEvent(kind, result string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
