package ports

import (
	"io"
	"time"

	"github.com/ahrav/go-rubric/internal/domain"
)

// EvaluationValidator checks untrusted analyst output against the rubric
// contract. Implementations must be pure: the same input always yields the
// same result, and no I/O is performed.
type EvaluationValidator interface {
	// Validate parses raw analyst text, optionally wrapped in a code fence,
	// and collects every contract violation. An empty category skips the
	// specialization checks.
	Validate(raw string, category domain.Category) domain.ValidationResult
}

// ReportRenderer serialises a finished report for an external consumer.
type ReportRenderer interface {
	// Format names the output format, e.g. "json" or "text".
	Format() string

	// Render writes the report to w.
	Render(w io.Writer, report *domain.Report) error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like validation issues or
	// alignment categories.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like QI and SI values.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// Metric names recorded through MetricsCollector.
const (
	// MetricReportGeneration is the latency operation for one report.
	MetricReportGeneration = "report_generation"
	// MetricUnitExecution is the latency operation for one assembly step.
	MetricUnitExecution = "unit_execution"
	// MetricReportsTotal counts generated reports by status.
	MetricReportsTotal = "reports_total"
	// MetricUnitFailures counts failed assembly steps.
	MetricUnitFailures = "unit_failures_total"
	// MetricQualityIndex observes session Quality Index values.
	MetricQualityIndex = "quality_index"
	// MetricSuperintelligenceIndex observes session SI values.
	MetricSuperintelligenceIndex = "superintelligence_index"
	// MetricAlignmentCategory counts Alignment Rate classifications.
	MetricAlignmentCategory = "alignment_category_total"
	// MetricValidationIssues counts evaluation validation issues by code.
	MetricValidationIssues = "validation_issues_total"
	// MetricBatchInFlight is the number of reports currently being generated.
	MetricBatchInFlight = "batch_in_flight"
)
