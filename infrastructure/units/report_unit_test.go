package units

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/testutils"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestReportUnit(t *testing.T, config ReportConfig) *ReportUnit {
	t.Helper()
	unit, err := NewReportUnit("report", config)
	require.NoError(t, err)
	unit.now = func() time.Time { return fixedNow }
	return unit
}

func TestReportUnit_FullAssembly(t *testing.T) {
	steps := append(standardUnits(t), newTestReportUnit(t, DefaultReportConfig()))
	out := run(t, sessionState(testutils.CompleteSession("s-1")), steps...)

	report, ok := domain.Get(out, domain.KeyReport)
	require.True(t, ok)
	require.NotNil(t, report)

	assert.Equal(t, "report-1", report.ID)
	assert.Equal(t, "s-1", report.SessionID)
	assert.Equal(t, domain.CategoryFormal, report.Category)
	assert.Equal(t, domain.CombinerOrderStatistic, report.Combiner)
	assert.Equal(t, fixedNow, report.GeneratedAt)

	t.Run("metrics", func(t *testing.T) {
		m := report.Metrics
		assert.InDelta(t, testutils.ReferenceEpoch1QI, m.QualityIndex, 1e-9)
		assert.InDelta(t, testutils.ReferenceEpoch2Duration, m.DurationMinutes, 1e-9)
		assert.InDelta(t, 0.076, m.AlignmentRate, 1e-9)
		assert.Equal(t, domain.AlignmentValid, m.AlignmentCategory)

		want, err := domain.SuperintelligenceIndex(behavior(testutils.ReferenceEpoch1Behavior), nil)
		require.NoError(t, err)
		require.True(t, m.SIAvailable())
		assert.InDelta(t, want.SI, *m.SuperintelligenceIndex, 1e-12)
		assert.InDelta(t, want.Aperture, *m.Aperture, 1e-12)
		assert.InDelta(t, want.Deviation, *m.SIDeviation, 1e-12)
	})

	t.Run("epochs", func(t *testing.T) {
		require.Len(t, report.Epochs, 2)
		assert.Equal(t, 1, report.Epochs[0].Epoch)
		assert.Equal(t, 2, report.Epochs[0].Contributors)
		assert.NotNil(t, report.Epochs[0].SI)
		assert.Equal(t, 2, report.Epochs[1].Epoch)
		assert.Nil(t, report.Epochs[1].SI)
		assert.InDelta(t, testutils.ReferenceEpoch2QI, report.Epochs[1].Metrics.QualityIndex, 1e-9)
		assert.Equal(t, testutils.ReferenceEpoch1Duration, report.Epochs[0].DurationMinutes)
	})

	t.Run("representative scores", func(t *testing.T) {
		s := report.Scores
		assert.Equal(t, 1, s.Epoch)
		assert.Equal(t, 8.0, s.Structure[domain.FieldAccountability])
		assert.Equal(t, domain.Score(6), s.Behavior[domain.FieldGroundedness])
		assert.Equal(t, 7.0, s.Specialization["math"])
		assert.Equal(t, "structure held at 7", s.Strengths)
		assert.NotEmpty(t, s.Insights)
	})

	t.Run("pathologies", func(t *testing.T) {
		p := report.Pathologies
		assert.Equal(t, []domain.Pathology{domain.PathologySemanticDrift, domain.PathologySycophanticAgreement}, p.Detected)
		assert.Equal(t, 4, p.Evaluations)
		assert.Equal(t, 2, p.Counts[domain.PathologySycophanticAgreement])
		assert.InDelta(t, 0.5, p.TagRate(domain.PathologySemanticDrift), 1e-12)
		assert.InDelta(t, 1.0, p.Frequency, 1e-12, "four tags over four evaluations")
	})

	t.Run("warnings", func(t *testing.T) {
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "epoch_2")
	})
}

func TestReportUnit_WithoutSI(t *testing.T) {
	session := testutils.CompleteSession("s-2")
	for i := range session.Epochs {
		for j := range session.Epochs[i].Analysts {
			eval := testutils.NotApplicable(*session.Epochs[i].Analysts[j].Evaluation, domain.FieldPreference)
			session.Epochs[i].Analysts[j].Evaluation = &eval
		}
	}

	steps := append(standardUnits(t), newTestReportUnit(t, DefaultReportConfig()))
	out := run(t, sessionState(session), steps...)

	report, _ := domain.Get(out, domain.KeyReport)
	require.NotNil(t, report)
	assert.False(t, report.Metrics.SIAvailable())
	assert.Nil(t, report.Metrics.SIDeviation)
	assert.Nil(t, report.Metrics.Aperture)
	assert.Len(t, report.Warnings, 3)
}

func TestReportUnit_GeneratesID(t *testing.T) {
	steps := standardUnits(t)
	state := run(t, sessionState(testutils.CompleteSession("s-1")), steps...)
	state = domain.With(state, domain.KeyReportID, "")

	unit := newTestReportUnit(t, ReportConfig{IncludeNarrative: false})
	out, err := unit.Execute(context.Background(), state)
	require.NoError(t, err)

	report, _ := domain.Get(out, domain.KeyReport)
	_, err = uuid.Parse(report.ID)
	assert.NoError(t, err)
	assert.Empty(t, report.Scores.Strengths)
}

func TestReportUnit_Errors(t *testing.T) {
	unit := newTestReportUnit(t, DefaultReportConfig())

	t.Run("missing alignment", func(t *testing.T) {
		steps := standardUnits(t)
		state := run(t, sessionState(testutils.CompleteSession("s-1")), steps[:5]...)
		_, err := unit.Execute(context.Background(), state)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("representative out of range", func(t *testing.T) {
		state := run(t, sessionState(testutils.CompleteSession("s-1")), standardUnits(t)...)
		state = domain.With(state, domain.KeyRepresentativeEpoch, 5)
		_, err := unit.Execute(context.Background(), state)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	_, err := NewReportUnit("", DefaultReportConfig())
	assert.ErrorIs(t, err, ErrEmptyUnitName)

	fromConfig, err := NewReportFromConfig("report", map[string]any{"include_narrative": false})
	require.NoError(t, err)
	assert.False(t, fromConfig.(*ReportUnit).config.IncludeNarrative)
	assert.NoError(t, fromConfig.Validate())
}

func behavior(values [6]float64) domain.BehaviorScores {
	bs := make(domain.BehaviorScores, len(values))
	for i, f := range domain.BehaviorFields {
		bs[f] = domain.Score(values[i])
	}
	return bs
}
