package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MonitorCollector exposes evaluation-engine metrics. It satisfies
// monitor.Metrics.
type MonitorCollector struct {
	gatherer prometheus.Gatherer

	Evaluations        *prometheus.CounterVec
	EvaluationErrors   *prometheus.CounterVec
	Interrupts         *prometheus.CounterVec
	Separation         *prometheus.GaugeVec
	EffectiveLimit     *prometheus.GaugeVec
	EvaluationDuration prometheus.Histogram
}

// NewMonitorCollector registers monitor metrics against the provided registerer.
func NewMonitorCollector(reg prometheus.Registerer) (*MonitorCollector, error) {
	reg, gatherer := registryPair(reg)

	evaluations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moonangle_evaluations_total",
		Help: "Completed separation evaluations, labeled by body and whether the predicate was satisfied.",
	}, []string{"body", "satisfied"}), "moonangle_evaluations_total")
	if err != nil {
		return nil, err
	}

	evalErrors, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moonangle_evaluation_errors_total",
		Help: "Evaluations that could not compute a separation, labeled by reason.",
	}, []string{"reason"}), "moonangle_evaluation_errors_total")
	if err != nil {
		return nil, err
	}

	interrupts, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moonangle_interrupts_total",
		Help: "Task interruptions requested by the watchdog.",
	}, []string{"body"}), "moonangle_interrupts_total")
	if err != nil {
		return nil, err
	}

	separation, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "moonangle_separation_degrees",
		Help: "Most recent angular separation between the target and the reference body.",
	}, []string{"body"}), "moonangle_separation_degrees")
	if err != nil {
		return nil, err
	}

	limit, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "moonangle_effective_limit_degrees",
		Help: "Most recent effective separation limit after Lorentzian relaxation.",
	}, []string{"body"}), "moonangle_effective_limit_degrees")
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "moonangle_evaluation_duration_seconds",
		Help:    "Time spent computing one evaluation.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
	}), "moonangle_evaluation_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &MonitorCollector{
		gatherer:           gatherer,
		Evaluations:        evaluations,
		EvaluationErrors:   evalErrors,
		Interrupts:         interrupts,
		Separation:         separation,
		EffectiveLimit:     limit,
		EvaluationDuration: duration,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *MonitorCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *MonitorCollector) Handler() http.Handler {
	return handlerFor(c.Gatherer())
}

// ObserveEvaluation records one completed evaluation.
func (c *MonitorCollector) ObserveEvaluation(body string, separation, limit float64, satisfied bool, d time.Duration) {
	if c == nil {
		return
	}
	c.Evaluations.WithLabelValues(body, strconv.FormatBool(satisfied)).Inc()
	c.Separation.WithLabelValues(body).Set(separation)
	c.EffectiveLimit.WithLabelValues(body).Set(limit)
	c.EvaluationDuration.Observe(d.Seconds())
}

// IncInterrupts counts one task interruption.
func (c *MonitorCollector) IncInterrupts(body string) {
	if c == nil {
		return
	}
	c.Interrupts.WithLabelValues(body).Inc()
}

// IncEvaluationErrors counts an evaluation that failed open.
func (c *MonitorCollector) IncEvaluationErrors(reason string) {
	if c == nil {
		return
	}
	c.EvaluationErrors.WithLabelValues(reason).Inc()
}
