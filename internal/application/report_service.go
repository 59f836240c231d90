package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-rubric/infrastructure/middleware"
	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

// ReportService assembles session reports by running the configured unit
// pipeline over a fresh state per session. It is safe for concurrent use.
type ReportService struct {
	config      EngineConfig
	fingerprint string
	pipeline    *Pipeline

	registry ports.UnitRegistry
	logger   *slog.Logger
	metrics  ports.MetricsCollector
	provider trace.TracerProvider
	tracer   trace.Tracer
	newID    func() string

	inFlight atomic.Int64
}

// ReportServiceOption configures a ReportService.
type ReportServiceOption func(*ReportService)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) ReportServiceOption {
	return func(s *ReportService) { s.logger = logger }
}

// WithMetrics sets the metrics collector. The default records nothing.
func WithMetrics(metrics ports.MetricsCollector) ReportServiceOption {
	return func(s *ReportService) { s.metrics = metrics }
}

// WithTracerProvider sets the tracer provider for report and unit spans.
// The default is the global provider.
func WithTracerProvider(provider trace.TracerProvider) ReportServiceOption {
	return func(s *ReportService) { s.provider = provider }
}

// WithUnitRegistry replaces the registry used to build the pipeline, so
// callers can register custom unit types.
func WithUnitRegistry(registry ports.UnitRegistry) ReportServiceOption {
	return func(s *ReportService) { s.registry = registry }
}

// withIDGenerator overrides report ID generation in tests.
func withIDGenerator(fn func() string) ReportServiceOption {
	return func(s *ReportService) { s.newID = fn }
}

// NewReportService builds the pipeline described by cfg.
func NewReportService(cfg EngineConfig, opts ...ReportServiceOption) (*ReportService, error) {
	s := &ReportService{
		config: cfg,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewDefaultUnitRegistry()
	}
	if s.provider == nil {
		s.provider = otel.GetTracerProvider()
	}
	s.tracer = s.provider.Tracer(middleware.TracerName)

	fingerprint, err := Fingerprint(cfg)
	if err != nil {
		return nil, err
	}
	s.fingerprint = fingerprint

	observer := middleware.NewOTelUnitObserver(s.provider, s.metrics)
	pipeline, err := BuildPipeline("report", s.registry, cfg.Steps(), observer)
	if err != nil {
		return nil, fmt.Errorf("failed to build report pipeline: %w", err)
	}
	s.pipeline = pipeline

	s.logger.Debug("report service configured",
		"config_fingerprint", fingerprint,
		"steps", len(pipeline.Executables()),
		"combiner", cfg.Assembler.EpochCombiner,
	)
	return s, nil
}

// Generate assembles the report for one session.
//
// The returned error wraps *domain.IncompleteSessionError when an epoch or
// analyst slot is missing, and *domain.MetricError when a metric cannot be
// computed. A report with an unavailable Superintelligence Index is not an
// error; the report carries a warning instead.
func (s *ReportService) Generate(ctx context.Context, session domain.Session) (*domain.Report, error) {
	ctx, span := s.tracer.Start(ctx, "report.generate", trace.WithAttributes(
		attribute.String("session.id", session.ID),
		attribute.String("session.category", string(session.Category)),
	))
	defer span.End()

	start := time.Now()
	reportID := s.newID()
	logger := s.logger.With("session_id", session.ID, "report_id", reportID)

	state := domain.NewState().WithExecutionContext(domain.ExecutionContext{
		ReportID:  reportID,
		SessionID: session.ID,
		Category:  session.Category,
		Combiner:  s.config.Assembler.EpochCombiner,
	})
	state = domain.With(state, domain.KeySession, session)

	out, err := s.pipeline.Execute(ctx, state)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.recordOutcome("failed", session.Category, elapsed)
		logger.Warn("report generation failed", "error", err, "elapsed", elapsed)
		return nil, fmt.Errorf("session %s: %w", session.ID, err)
	}

	report, ok := domain.Get(out, domain.KeyReport)
	if !ok || report == nil {
		err := fmt.Errorf("session %s: pipeline produced no report: %w", session.ID, domain.ErrInvalidState)
		span.SetStatus(codes.Error, err.Error())
		s.recordOutcome("failed", session.Category, elapsed)
		return nil, err
	}

	for _, warning := range report.Warnings {
		logger.Warn("report warning", "warning", warning)
	}
	s.recordReport(report, elapsed)

	span.SetAttributes(
		attribute.String("report.id", report.ID),
		attribute.Float64("report.quality_index", report.Metrics.QualityIndex),
		attribute.String("report.alignment", string(report.Metrics.AlignmentCategory)),
		attribute.Bool("report.si_available", report.Metrics.SIAvailable()),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("report generated",
		"quality_index", report.Metrics.QualityIndex,
		"alignment_rate", report.Metrics.AlignmentRate,
		"alignment", report.Metrics.AlignmentCategory,
		"si_available", report.Metrics.SIAvailable(),
		"warnings", len(report.Warnings),
		"config_fingerprint", s.fingerprint,
		"elapsed", elapsed,
	)
	return report, nil
}

// BatchResult is the outcome for one session of GenerateBatch.
type BatchResult struct {
	Report *domain.Report
	Err    error
}

// GenerateBatch generates reports for independent sessions concurrently,
// at most Batch.Concurrency at a time. Results are index-aligned with
// sessions, and a failed session does not stop the others. The returned
// error is non-nil only when ctx ends before every session was started.
func (s *ReportService) GenerateBatch(ctx context.Context, sessions []domain.Session) ([]BatchResult, error) {
	results := make([]BatchResult, len(sessions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Batch.Concurrency)

	for i := range sessions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}

			s.recordInFlight(s.inFlight.Add(1))
			defer func() { s.recordInFlight(s.inFlight.Add(-1)) }()

			report, err := s.Generate(gctx, sessions[i])
			results[i] = BatchResult{Report: report, Err: err}
			return nil
		})
	}

	err := g.Wait()
	s.logger.Info("batch generated", "sessions", len(sessions), "error", err)
	return results, err
}

// Config returns the configuration the service was built from.
func (s *ReportService) Config() EngineConfig { return s.config }

func (s *ReportService) recordOutcome(status string, category domain.Category, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	labels := map[string]string{"status": status, "category": string(category)}
	s.metrics.RecordLatency(ports.MetricReportGeneration, elapsed, map[string]string{"unit": "report_service"})
	s.metrics.RecordCounter(ports.MetricReportsTotal, 1, labels)
}

func (s *ReportService) recordReport(report *domain.Report, elapsed time.Duration) {
	s.recordOutcome("success", report.Category, elapsed)
	if s.metrics == nil {
		return
	}

	labels := map[string]string{"category": string(report.Category)}
	s.metrics.RecordHistogram(ports.MetricQualityIndex, report.Metrics.QualityIndex, labels)
	if report.Metrics.SIAvailable() {
		s.metrics.RecordHistogram(ports.MetricSuperintelligenceIndex, *report.Metrics.SuperintelligenceIndex, labels)
	}
	s.metrics.RecordCounter(ports.MetricAlignmentCategory, 1, map[string]string{
		"alignment": string(report.Metrics.AlignmentCategory),
		"category":  string(report.Category),
	})
}

func (s *ReportService) recordInFlight(n int64) {
	if s.metrics != nil {
		s.metrics.RecordGauge(ports.MetricBatchInFlight, float64(n), map[string]string{"unit": "report_service"})
	}
}
