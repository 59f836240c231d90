package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ahrav/go-rubric/infrastructure/units"
	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
	"github.com/ahrav/go-rubric/internal/testutils"
)

type serviceHarness struct {
	service  *ReportService
	metrics  *testutils.MockMetricsCollector
	recorder *tracetest.SpanRecorder
	logs     *bytes.Buffer
}

func newHarness(t *testing.T, cfg EngineConfig) serviceHarness {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	logs := &bytes.Buffer{}
	metrics := testutils.NewMockMetricsCollector()
	service, err := NewReportService(cfg,
		WithLogger(slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		WithMetrics(metrics),
		WithTracerProvider(provider),
		withIDGenerator(func() string { return "report-fixed" }),
	)
	require.NoError(t, err)
	return serviceHarness{service: service, metrics: metrics, recorder: recorder, logs: logs}
}

func TestReportService_Generate(t *testing.T) {
	h := newHarness(t, DefaultEngineConfig())

	report, err := h.service.Generate(context.Background(), testutils.CompleteSession("s-1"))
	require.NoError(t, err)

	assert.Equal(t, "report-fixed", report.ID)
	assert.Equal(t, "s-1", report.SessionID)
	assert.InDelta(t, testutils.ReferenceEpoch1QI, report.Metrics.QualityIndex, 1e-9)
	assert.InDelta(t, 0.076, report.Metrics.AlignmentRate, 1e-9)
	assert.Equal(t, domain.AlignmentValid, report.Metrics.AlignmentCategory)
	assert.True(t, report.Metrics.SIAvailable())
	assert.Equal(t, 1, report.Scores.Epoch)

	t.Run("metrics", func(t *testing.T) {
		reports := h.metrics.Samples(ports.MetricReportsTotal)
		require.Len(t, reports, 1)
		assert.Equal(t, "success", reports[0].Labels["status"])
		assert.Equal(t, "formal", reports[0].Labels["category"])

		qi := h.metrics.Samples(ports.MetricQualityIndex)
		require.Len(t, qi, 1)
		assert.InDelta(t, 76, qi[0].Value, 1e-9)

		assert.Len(t, h.metrics.Samples(ports.MetricSuperintelligenceIndex), 1)
		alignment := h.metrics.Samples(ports.MetricAlignmentCategory)
		require.Len(t, alignment, 1)
		assert.Equal(t, "VALID", alignment[0].Labels["alignment"])

		assert.Len(t, h.metrics.Samples(ports.MetricUnitExecution), 7)
		assert.Len(t, h.metrics.Samples(ports.MetricReportGeneration), 1)
	})

	t.Run("spans", func(t *testing.T) {
		spans := h.recorder.Ended()
		require.Len(t, spans, 8)

		root := spans[len(spans)-1]
		assert.Equal(t, "report.generate", root.Name())
		for _, span := range spans[:7] {
			assert.Equal(t, root.SpanContext().SpanID(), span.Parent().SpanID(), span.Name())
		}
		assert.Equal(t, "unit.precondition", spans[0].Name())
		assert.Equal(t, "unit.report", spans[6].Name())
	})

	t.Run("logs", func(t *testing.T) {
		out := h.logs.String()
		assert.Contains(t, out, `"msg":"report generated"`)
		assert.Contains(t, out, `"session_id":"s-1"`)
		assert.Contains(t, out, `"msg":"report warning"`)
		assert.Contains(t, out, "config_fingerprint")
	})
}

func TestReportService_GenerateIncomplete(t *testing.T) {
	h := newHarness(t, DefaultEngineConfig())

	session := testutils.CompleteSession("s-2")
	session.Epochs[1].Complete = false
	session.Epochs[0].Analysts[1] = domain.AnalystSlot{Status: domain.SlotFailed}

	_, err := h.service.Generate(context.Background(), session)
	require.ErrorIs(t, err, domain.ErrIncompleteSession)

	var incomplete *domain.IncompleteSessionError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"epoch_2", "epoch_1.analyst_2"}, incomplete.Missing)

	reports := h.metrics.Samples(ports.MetricReportsTotal)
	require.Len(t, reports, 1)
	assert.Equal(t, "failed", reports[0].Labels["status"])
	assert.Empty(t, h.metrics.Samples(ports.MetricQualityIndex))
	assert.Contains(t, h.logs.String(), "report generation failed")
}

func TestReportService_AssemblerOptions(t *testing.T) {
	t.Run("mean combiner", func(t *testing.T) {
		cfg := DefaultEngineConfig()
		cfg.Assembler.EpochCombiner = domain.CombinerMean
		h := newHarness(t, cfg)

		report, err := h.service.Generate(context.Background(), testutils.CompleteSession("s-1"))
		require.NoError(t, err)
		assert.InDelta(t, 67, report.Metrics.QualityIndex, 1e-9)
		assert.InDelta(t, 9, report.Metrics.DurationMinutes, 1e-9)
		assert.Equal(t, domain.CombinerMean, report.Combiner)
	})

	t.Run("single analyst allowed", func(t *testing.T) {
		cfg := DefaultEngineConfig()
		cfg.Assembler.RequireBothAnalysts = false
		h := newHarness(t, cfg)

		session := testutils.CompleteSession("s-1")
		session.Epochs[0].Analysts[1] = domain.AnalystSlot{Status: domain.SlotPending}

		report, err := h.service.Generate(context.Background(), session)
		require.NoError(t, err)
		assert.InDelta(t, 70, report.Metrics.QualityIndex, 1e-9)
		assert.Contains(t, report.Warnings, "epoch_1 was graded by 1 of 2 analysts")
	})

	t.Run("single analyst rejected by default", func(t *testing.T) {
		h := newHarness(t, DefaultEngineConfig())
		session := testutils.CompleteSession("s-1")
		session.Epochs[0].Analysts[1] = domain.AnalystSlot{Status: domain.SlotPending}

		_, err := h.service.Generate(context.Background(), session)
		assert.ErrorIs(t, err, domain.ErrIncompleteSession)
	})

	zeroDuration := func() domain.Session {
		session := testutils.CompleteSession("s-1")
		session.Epochs[0].DurationMinutes = 0
		session.Epochs[1].DurationMinutes = 0
		return session
	}

	t.Run("zero duration fails", func(t *testing.T) {
		h := newHarness(t, DefaultEngineConfig())
		_, err := h.service.Generate(context.Background(), zeroDuration())
		require.ErrorIs(t, err, domain.ErrInvalidDuration)

		var metricErr *domain.MetricError
		require.ErrorAs(t, err, &metricErr)
		assert.Equal(t, "alignment_rate", metricErr.Metric)
		assert.Len(t, h.metrics.Samples(ports.MetricUnitFailures), 1)
	})

	t.Run("duration fallback", func(t *testing.T) {
		cfg := DefaultEngineConfig()
		cfg.Assembler.DurationFallbackMinutes = 20
		h := newHarness(t, cfg)

		report, err := h.service.Generate(context.Background(), zeroDuration())
		require.NoError(t, err)
		assert.InDelta(t, 0.038, report.Metrics.AlignmentRate, 1e-9)
		assert.Equal(t, 20.0, report.Metrics.DurationMinutes)
		assert.Len(t, report.Warnings, 2)
	})
}

func TestReportService_CustomPipeline(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Pipeline = []UnitConfig{
		{ID: "pre", Type: units.TypeSessionPrecondition},
		{ID: "agg", Type: units.TypeEpochAggregate},
		{ID: "qi", Type: units.TypeQualityIndex},
		{ID: "si", Type: units.TypeSuperintelligenceIndex},
		{ID: "mix", Type: units.TypeEpochCombine, Parameters: map[string]any{"combiner": "mean"}},
		{ID: "ar", Type: units.TypeAlignmentRate},
		{ID: "out", Type: units.TypeReport, Parameters: map[string]any{"include_narrative": false}},
	}
	h := newHarness(t, cfg)

	report, err := h.service.Generate(context.Background(), testutils.CompleteSession("s-1"))
	require.NoError(t, err)
	assert.InDelta(t, 67, report.Metrics.QualityIndex, 1e-9)
	assert.Empty(t, report.Scores.Strengths)
}

func TestNewReportService_Errors(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Pipeline = []UnitConfig{{ID: "x", Type: "llm_judge"}}
	_, err := NewReportService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build report pipeline")

	registry := NewDefaultUnitRegistry()
	require.NoError(t, registry.RegisterUnitFactory("stamp", func(id string, _ map[string]any) (ports.Unit, error) {
		return &testMockUnit{name: id}, nil
	}))
	cfg.Pipeline = []UnitConfig{{ID: "stamp", Type: "stamp"}}
	service, err := NewReportService(cfg, WithUnitRegistry(registry))
	require.NoError(t, err)

	// A pipeline without a report step yields no report.
	_, err = service.Generate(context.Background(), testutils.CompleteSession("s-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestReportService_GenerateBatch(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Batch.Concurrency = 2
	h := newHarness(t, cfg)

	sessions := make([]domain.Session, 5)
	for i := range sessions {
		sessions[i] = testutils.CompleteSession(fmt.Sprintf("s-%d", i))
	}
	sessions[3].Epochs[0].Complete = false

	results, err := h.service.GenerateBatch(context.Background(), sessions)
	require.NoError(t, err)
	require.Len(t, results, len(sessions))

	for i, res := range results {
		if i == 3 {
			assert.Nil(t, res.Report)
			assert.ErrorIs(t, res.Err, domain.ErrIncompleteSession)
			continue
		}
		require.NoError(t, res.Err, "session %d", i)
		assert.Equal(t, fmt.Sprintf("s-%d", i), res.Report.SessionID)
	}

	gauges := h.metrics.Samples(ports.MetricBatchInFlight)
	assert.Len(t, gauges, 2*len(sessions))
	for _, g := range gauges {
		assert.LessOrEqual(t, g.Value, 2.0)
	}
}

func TestReportService_GenerateBatchCancelled(t *testing.T) {
	h := newHarness(t, DefaultEngineConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sessions := []domain.Session{testutils.CompleteSession("a"), testutils.CompleteSession("b")}
	results, err := h.service.GenerateBatch(ctx, sessions)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Nil(t, res.Report)
		assert.True(t, errors.Is(res.Err, context.Canceled))
	}
}

func TestReportService_Config(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Batch.Concurrency = 9
	h := newHarness(t, cfg)
	assert.Equal(t, 9, h.service.Config().Batch.Concurrency)
}
