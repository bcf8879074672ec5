// Package metrics exports planner and job metrics in Prometheus format.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/quantumlife/dayplan/internal/core"
	"github.com/quantumlife/dayplan/internal/planner"
)

const namespace = "dayplan"

// Exporter implements planner.Recorder on its own registry.
type Exporter struct {
	registry *prometheus.Registry

	// Engine runs
	runs       *prometheus.CounterVec
	runLatency *prometheus.HistogramVec
	runErrors  *prometheus.CounterVec

	// Schedule quality
	scheduled   *prometheus.CounterVec
	unscheduled *prometheus.CounterVec
	efficiency  *prometheus.HistogramVec
	scores      *prometheus.GaugeVec

	// Background jobs
	jobRuns *prometheus.CounterVec
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}
}

// NewExporter creates an exporter and registers its collectors.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "runs_total",
			Help:      "Planner operations by operation and status",
		},
		[]string{"op", "status"},
	)

	e.runLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "run_duration_seconds",
			Help:      "Planner operation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"op"},
	)

	e.runErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "errors_total",
			Help:      "Planner errors by operation and kind",
		},
		[]string{"op", "kind"},
	)

	e.scheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "scheduled_tasks_total",
			Help:      "Tasks placed into slots by operation and task kind",
		},
		[]string{"op", "type"},
	)

	e.unscheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "unscheduled_tasks_total",
			Help:      "Candidate tasks that did not fit",
		},
		[]string{"op"},
	)

	e.efficiency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "efficiency_percentage",
			Help:      "Share of available minutes that were scheduled",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		},
		[]string{"op"},
	)

	e.scores = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "last_score",
			Help:      "Scores of the most recent schedule",
		},
		[]string{"op", "score"},
	)

	e.jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs by job and status",
		},
		[]string{"job", "status"},
	)

	registry.MustRegister(
		e.runs,
		e.runLatency,
		e.runErrors,
		e.scheduled,
		e.unscheduled,
		e.efficiency,
		e.scores,
		e.jobRuns,
	)

	return e
}

var _ planner.Recorder = (*Exporter)(nil)

// ObserveRun records one planner operation.
func (e *Exporter) ObserveRun(op string, elapsed time.Duration, err error) {
	e.runs.WithLabelValues(op, status(err)).Inc()
	e.runLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		e.runErrors.WithLabelValues(op, errorKind(err)).Inc()
	}
}

// ObserveSchedule records the outcome of a finished schedule.
func (e *Exporter) ObserveSchedule(op string, summary planner.Summary, scores planner.Scores) {
	e.scheduled.WithLabelValues(op, "goal").Add(float64(summary.GoalTasks))
	e.scheduled.WithLabelValues(op, "mind").Add(float64(summary.MindTasks))
	e.scheduled.WithLabelValues(op, "body").Add(float64(summary.BodyTasks))
	e.unscheduled.WithLabelValues(op).Add(float64(summary.UnscheduledTasks))
	e.efficiency.WithLabelValues(op).Observe(summary.EfficiencyPercentage)

	e.scores.WithLabelValues(op, "efficiency").Set(scores.EfficiencyScore)
	e.scores.WithLabelValues(op, "balance").Set(scores.BalanceScore)
	e.scores.WithLabelValues(op, "productivity").Set(scores.ProductivityScore)
}

// ObserveJob records one background job execution.
func (e *Exporter) ObserveJob(job string, err error) {
	e.jobRuns.WithLabelValues(job, status(err)).Inc()
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Totals sums every counter family by name.
func (e *Exporter) Totals() (map[string]float64, error) {
	families, err := e.registry.Gather()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64)
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			totals[mf.GetName()] += counterValue(m)
		}
	}
	return totals, nil
}

func counterValue(m *dto.Metric) float64 {
	if c := m.GetCounter(); c != nil {
		return c.GetValue()
	}
	return 0
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrProfileNotFound):
		return "profile_not_found"
	case errors.Is(err, core.ErrInvalidProfile):
		return "invalid_profile"
	case errors.Is(err, core.ErrInvalidDate):
		return "invalid_date"
	}
	return "internal"
}
