// Package middleware provides cross-cutting concerns for report assembly:
// Prometheus metrics and OpenTelemetry tracing around assembly units.
package middleware

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/ahrav/go-rubric/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It exposes report throughput, step latency, and the distributions of the
// metrics reported to users.
type PrometheusMetrics struct {
	executionLatency  *prometheus.HistogramVec
	reportsTotal      *prometheus.CounterVec
	unitFailures      *prometheus.CounterVec
	qualityIndex      *prometheus.HistogramVec
	superintelligence *prometheus.HistogramVec
	alignment         *prometheus.CounterVec
	validationIssues  *prometheus.CounterVec
	operationCounter  *prometheus.CounterVec
	systemGauges      *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its metrics with reg. A nil reg uses the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		executionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubric_operation_duration_seconds",
				Help:    "Execution time of report generation and assembly steps.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "unit"},
		),
		reportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_reports_total",
				Help: "Reports generated, by outcome.",
			},
			[]string{"status", "category"},
		),
		unitFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_unit_failures_total",
				Help: "Assembly steps that returned an error.",
			},
			[]string{"unit", "metric"},
		),

		// Distributions of the user-facing metrics.
		qualityIndex: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubric_quality_index",
				Help:    "Session Quality Index values.",
				Buckets: prometheus.LinearBuckets(10, 10, 10),
			},
			[]string{"category"},
		),
		superintelligence: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubric_superintelligence_index",
				Help:    "Session Superintelligence Index values.",
				Buckets: prometheus.LinearBuckets(10, 10, 10),
			},
			[]string{"category"},
		),
		alignment: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_alignment_category_total",
				Help: "Alignment Rate classifications.",
			},
			[]string{"alignment", "category"},
		),
		validationIssues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_validation_issues_total",
				Help: "Evaluation validation issues, by kind.",
			},
			[]string{"kind"},
		),

		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_operations_total",
				Help: "Other counted operations.",
			},
			[]string{"operation", "unit"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rubric_system_state",
				Help: "Current system state values.",
			},
			[]string{"metric", "unit"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation, unitLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case ports.MetricReportsTotal:
		pm.reportsTotal.WithLabelValues(labels["status"], labels["category"]).Add(value)
	case ports.MetricUnitFailures:
		pm.unitFailures.WithLabelValues(unitLabel(labels), labels["metric"]).Add(value)
	case ports.MetricAlignmentCategory:
		pm.alignment.WithLabelValues(labels["alignment"], labels["category"]).Add(value)
	case ports.MetricValidationIssues:
		pm.validationIssues.WithLabelValues(labels["kind"]).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, unitLabel(labels)).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric, unitLabel(labels)).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram. Unknown metric names are treated as
// latencies in seconds.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case ports.MetricQualityIndex:
		pm.qualityIndex.WithLabelValues(labels["category"]).Observe(value)
	case ports.MetricSuperintelligenceIndex:
		pm.superintelligence.WithLabelValues(labels["category"]).Observe(value)
	default:
		pm.executionLatency.WithLabelValues(metric, unitLabel(labels)).Observe(value)
	}
}

func unitLabel(labels map[string]string) string {
	if unit := labels["unit"]; unit != "" {
		return unit
	}
	return "unknown"
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// WriteText gathers every metric from g and writes it in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return ports.NewMetricsError("*", "gather", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return ports.NewMetricsError(mf.GetName(), "write", err)
		}
	}
	return nil
}
