package units

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Unit = (*ReportUnit)(nil)

// ReportUnit assembles the final domain.Report from the results of the
// earlier steps. It is the last unit of every assembly pipeline.
type ReportUnit struct {
	name   string
	config ReportConfig
	now    func() time.Time
}

// ReportConfig controls optional report content.
type ReportConfig struct {
	// IncludeNarrative copies the strengths, weaknesses and insights of the
	// representative epoch's first analyst into the score snapshot.
	//
	// Default: true
	IncludeNarrative bool `yaml:"include_narrative" json:"include_narrative"`
}

// DefaultReportConfig returns a config that includes narrative fields.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{IncludeNarrative: true}
}

// NewReportUnit creates a ReportUnit.
func NewReportUnit(name string, config ReportConfig) (*ReportUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &ReportUnit{name: name, config: config, now: time.Now}, nil
}

// NewReportFromConfig creates a ReportUnit from a configuration map.
func NewReportFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := decodeConfig(config, DefaultReportConfig())
	if err != nil {
		return nil, err
	}
	return NewReportUnit(id, cfg)
}

// Name returns the unique identifier for this unit instance.
func (u *ReportUnit) Name() string { return u.name }

// Execute builds the report.
//
// State Requirements:
//   - domain.KeySession, domain.KeyEpochAggregates, domain.KeyEpochMetrics,
//     domain.KeyEpochSI
//   - domain.KeyQualityIndex, domain.KeyRepresentativeEpoch,
//     domain.KeySuperintelligence, domain.KeyDurationMinutes
//   - domain.KeyAlignment
//
// Optional:
//   - domain.KeyReportID: a random UUID is used when absent or empty
//   - domain.KeyCombiner, domain.KeyWarnings
//
// State Updates:
//   - domain.KeyReport: *domain.Report
func (u *ReportUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	session, err := requireKey(state, domain.KeySession)
	if err != nil {
		return state, err
	}
	aggregates, err := requireKey(state, domain.KeyEpochAggregates)
	if err != nil {
		return state, err
	}
	metrics, err := requireKey(state, domain.KeyEpochMetrics)
	if err != nil {
		return state, err
	}
	epochSI, err := requireKey(state, domain.KeyEpochSI)
	if err != nil {
		return state, err
	}
	qi, err := requireKey(state, domain.KeyQualityIndex)
	if err != nil {
		return state, err
	}
	representative, err := requireKey(state, domain.KeyRepresentativeEpoch)
	if err != nil {
		return state, err
	}
	si, err := requireKey(state, domain.KeySuperintelligence)
	if err != nil {
		return state, err
	}
	duration, err := requireKey(state, domain.KeyDurationMinutes)
	if err != nil {
		return state, err
	}
	alignment, err := requireKey(state, domain.KeyAlignment)
	if err != nil {
		return state, err
	}

	n := len(session.Epochs)
	if len(aggregates) != n || len(metrics) != n || len(epochSI) != n {
		return state, fmt.Errorf("%w: epochs=%d, aggregates=%d, metrics=%d, si=%d",
			ErrEpochMismatch, n, len(aggregates), len(metrics), len(epochSI))
	}
	if representative < 0 || representative >= n {
		return state, fmt.Errorf("%w: representative epoch %d out of range", domain.ErrInvalidState, representative)
	}

	reportID, _ := domain.Get(state, domain.KeyReportID)
	if reportID == "" {
		reportID = uuid.NewString()
	}
	combiner, _ := domain.Get(state, domain.KeyCombiner)

	sessionMetrics := domain.SessionMetrics{
		QualityIndex:      qi,
		AlignmentRate:     alignment.Rate,
		AlignmentCategory: alignment.Category,
		DurationMinutes:   duration,
	}
	if si != nil {
		sessionMetrics.SuperintelligenceIndex = domain.Float(si.SI)
		sessionMetrics.SIDeviation = domain.Float(si.Deviation)
		sessionMetrics.Aperture = domain.Float(si.Aperture)
	}

	epochs := make([]domain.EpochSummary, n)
	for i := range n {
		epochs[i] = domain.EpochSummary{
			Epoch:           i + 1,
			Metrics:         metrics[i],
			SI:              epochSI[i],
			Contributors:    aggregates[i].Contributors,
			DurationMinutes: session.Epochs[i].DurationMinutes,
		}
	}

	report := &domain.Report{
		ID:          reportID,
		SessionID:   session.ID,
		Category:    session.Category,
		Metrics:     sessionMetrics,
		Epochs:      epochs,
		Scores:      u.snapshot(session, aggregates[representative], representative),
		Pathologies: domain.SummarizePathologies(session.AllEvaluations()),
		Warnings:    slices.Clone(state.Warnings()),
		Combiner:    combiner,
		GeneratedAt: u.now().UTC(),
	}

	return domain.With(state, domain.KeyReport, report), nil
}

func (u *ReportUnit) snapshot(session domain.Session, agg domain.AggregatedEvaluation, epoch int) domain.ScoreSnapshot {
	snap := domain.ScoreSnapshot{
		Epoch:          epoch + 1,
		Structure:      agg.StructureScores,
		Behavior:       agg.BehaviorScores,
		Specialization: agg.SpecializationScores,
	}
	if !u.config.IncludeNarrative {
		return snap
	}
	if evals := session.Epochs[epoch].Evaluations(); len(evals) > 0 {
		snap.Strengths = evals[0].Strengths
		snap.Weaknesses = evals[0].Weaknesses
		snap.Insights = evals[0].Insights
	}
	return snap
}

// Validate checks if the unit is properly configured and ready for execution.
func (u *ReportUnit) Validate() error {
	return validateConfig(u.config)
}
