package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	turnsTotal        *prometheus.CounterVec
	turnDuration      *prometheus.HistogramVec
	summaryFallbacks  prometheus.Counter
	contextTrimsTotal *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new Prometheus-based metrics recorder.
// Metrics register on the default registry; construct at most once per process.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		turnsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debate_turns_total",
				Help: "Total number of debate turns by model, role, round, and status",
			},
			[]string{"model", "role", "round", "status"},
		),
		turnDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "debate_turn_duration_seconds",
				Help:    "Duration of debate turns in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "role"},
		),
		summaryFallbacks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "debate_summary_fallbacks_total",
				Help: "Total number of summarizer failures degraded to truncation",
			},
		),
		contextTrimsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debate_context_trims_total",
				Help: "Total number of over-budget message sets reduced, by strategy",
			},
			[]string{"strategy"},
		),
	}
}

// ObserveTurn records metrics for a completed model turn.
func (p *PrometheusRecorder) ObserveTurn(model, role string, round int, failed bool, duration time.Duration) {
	status := "success"
	if failed {
		status = "error"
	}
	p.turnsTotal.WithLabelValues(model, role, strconv.Itoa(round), status).Inc()
	p.turnDuration.WithLabelValues(model, role).Observe(duration.Seconds())
}

// IncSummaryFallback increments the summarizer fallback counter.
func (p *PrometheusRecorder) IncSummaryFallback() {
	p.summaryFallbacks.Inc()
}

// IncContextTrim increments the context trim counter for a strategy.
func (p *PrometheusRecorder) IncContextTrim(strategy string) {
	p.contextTrimsTotal.WithLabelValues(strategy).Inc()
}
