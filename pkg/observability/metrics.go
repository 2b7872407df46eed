package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "silvershell"

// Command outcomes.
const (
	OutcomeAllowed = "allowed"
	OutcomeBlocked = "blocked"
	OutcomeFailed  = "failed"
)

// Analysis results.
const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
)

// Assistant call paths.
const (
	PathChat     = "chat"
	PathAnalysis = "analysis"
)

// Metrics groups the collectors recorded by SilverShell components.
type Metrics struct {
	registry *prometheus.Registry

	commands          *prometheus.CounterVec
	suggestions       prometheus.Counter
	analyses          *prometheus.CounterVec
	inFlight          prometheus.Gauge
	commandDuration   prometheus.Histogram
	assistantDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of operator commands by outcome",
			},
			[]string{"outcome"},
		),
		suggestions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_total",
			Help:      "Total number of recon suggestions shown",
		}),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_total",
				Help:      "Total number of background analyses by result",
			},
			[]string{"result"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analysis_in_flight",
			Help:      "Background analyses submitted but not yet delivered",
		}),
		commandDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of operator command executions",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		assistantDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "assistant_duration_seconds",
				Help:      "Duration of assistant calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path"},
		),
	}

	m.registry.MustRegister(
		m.commands,
		m.suggestions,
		m.analyses,
		m.inFlight,
		m.commandDuration,
		m.assistantDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CommandBlocked records a command denied by the safety gate.
func (m *Metrics) CommandBlocked() {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(OutcomeBlocked).Inc()
}

// CommandFinished records an executed command.
func (m *Metrics) CommandFinished(failed bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeAllowed
	if failed {
		outcome = OutcomeFailed
	}
	m.commands.WithLabelValues(outcome).Inc()
	m.commandDuration.Observe(d.Seconds())
}

// SuggestionsShown records n displayed suggestions.
func (m *Metrics) SuggestionsShown(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.suggestions.Add(float64(n))
}

// AnalysisStarted increments the in-flight gauge.
func (m *Metrics) AnalysisStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// AnalysisFinished decrements the in-flight gauge and records the result.
func (m *Metrics) AnalysisFinished(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.analyses.WithLabelValues(result).Inc()
	m.assistantDuration.WithLabelValues(PathAnalysis).Observe(d.Seconds())
}

// AnalysisRejected records a submission refused because too many were pending.
func (m *Metrics) AnalysisRejected() {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(ResultRejected).Inc()
}

// ChatFinished records a synchronous chat call.
func (m *Metrics) ChatFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.assistantDuration.WithLabelValues(PathChat).Observe(d.Seconds())
}
