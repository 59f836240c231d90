package units

import (
	"context"
	"fmt"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Unit = (*EpochCombineUnit)(nil)

// EpochCombineUnit folds the per-epoch results into session-level values.
// The Quality Index and the duration are combined over every epoch. The
// SI, aperture and deviation are each combined independently over the
// epochs where SI was available; when none was, the session SI is nil.
//
// With the default order-statistic combiner two epochs yield the larger
// value, not their mean. The epoch whose Quality Index was picked becomes
// the representative epoch of the report; when the combined value matches
// no single epoch, as with the mean of unequal values, epoch 1 is used.
//
// Example:
//
//	config := EpochCombineConfig{Combiner: domain.CombinerMean}
//	unit, err := NewEpochCombineUnit("combine", config)
type EpochCombineUnit struct {
	name     string
	config   EpochCombineConfig
	combiner domain.Combiner
}

// EpochCombineConfig selects the combining statistic.
type EpochCombineConfig struct {
	// Combiner names the statistic.
	//
	// Supported values:
	//   - "order_statistic": sorted[floor(n/2)]
	//   - "mean": arithmetic mean
	//
	// Default: "order_statistic"
	Combiner string `yaml:"combiner" json:"combiner" validate:"required,oneof=order_statistic mean"`
}

// DefaultEpochCombineConfig returns the order-statistic configuration.
func DefaultEpochCombineConfig() EpochCombineConfig {
	return EpochCombineConfig{Combiner: domain.CombinerOrderStatistic}
}

// NewEpochCombineUnit creates an EpochCombineUnit.
func NewEpochCombineUnit(name string, config EpochCombineConfig) (*EpochCombineUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	combiner, err := domain.NewCombiner(config.Combiner)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &EpochCombineUnit{name: name, config: config, combiner: combiner}, nil
}

// NewEpochCombineFromConfig creates an EpochCombineUnit from a configuration
// map.
func NewEpochCombineFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := decodeConfig(config, DefaultEpochCombineConfig())
	if err != nil {
		return nil, err
	}
	return NewEpochCombineUnit(id, cfg)
}

// Name returns the unique identifier for this unit instance.
func (u *EpochCombineUnit) Name() string { return u.name }

// Execute combines the epoch results.
//
// State Requirements:
//   - domain.KeySession: domain.Session - for epoch durations
//   - domain.KeyEpochMetrics: []domain.EpochMetrics
//   - domain.KeyEpochSI: []*domain.SIResult
//
// State Updates:
//   - domain.KeyQualityIndex: float64
//   - domain.KeyRepresentativeEpoch: int (0-based)
//   - domain.KeyDurationMinutes: float64
//   - domain.KeySuperintelligence: *domain.SIResult, nil when unavailable
//   - domain.KeyCombiner: string
//   - domain.KeyWarnings: when SI is unavailable for every epoch
func (u *EpochCombineUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	session, err := requireKey(state, domain.KeySession)
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
	if len(metrics) != len(epochSI) || len(metrics) != len(session.Epochs) {
		return state, fmt.Errorf("%w: epochs=%d, metrics=%d, si=%d",
			ErrEpochMismatch, len(session.Epochs), len(metrics), len(epochSI))
	}

	qis := make([]float64, len(metrics))
	for i, m := range metrics {
		qis[i] = m.QualityIndex
	}
	qi, err := u.combiner.Combine(qis)
	if err != nil {
		return state, domain.NewMetricError("quality_index", 0, err)
	}
	representative := domain.SelectedIndex(qis, qi)
	if representative < 0 {
		representative = 0
	}

	durations := make([]float64, len(session.Epochs))
	for i, epoch := range session.Epochs {
		durations[i] = epoch.DurationMinutes
	}
	duration, err := u.combiner.Combine(durations)
	if err != nil {
		return state, domain.NewMetricError("duration", 0, fmt.Errorf("%w: %v", domain.ErrInvalidDuration, err))
	}

	si, err := u.combineSI(epochSI)
	if err != nil {
		return state, err
	}
	if si == nil {
		state = state.AddWarning("superintelligence index unavailable for every epoch")
	}

	return state.WithMultiple(map[string]any{
		domain.KeyQualityIndex.Name():        qi,
		domain.KeyRepresentativeEpoch.Name(): representative,
		domain.KeyDurationMinutes.Name():     duration,
		domain.KeySuperintelligence.Name():   si,
		domain.KeyCombiner.Name():            u.combiner.Name(),
	}), nil
}

// combineSI combines each SI component over the available epochs. It
// returns nil when no epoch has an SI result.
func (u *EpochCombineUnit) combineSI(results []*domain.SIResult) (*domain.SIResult, error) {
	var sis, apertures, deviations []float64
	for _, r := range results {
		if r == nil {
			continue
		}
		sis = append(sis, r.SI)
		apertures = append(apertures, r.Aperture)
		deviations = append(deviations, r.Deviation)
	}
	if len(sis) == 0 {
		return nil, nil
	}

	var combined domain.SIResult
	var err error
	if combined.SI, err = u.combiner.Combine(sis); err != nil {
		return nil, domain.NewMetricError("superintelligence_index", 0, err)
	}
	if combined.Aperture, err = u.combiner.Combine(apertures); err != nil {
		return nil, domain.NewMetricError("aperture", 0, err)
	}
	if combined.Deviation, err = u.combiner.Combine(deviations); err != nil {
		return nil, domain.NewMetricError("si_deviation", 0, err)
	}
	return &combined, nil
}

// Validate checks if the unit is properly configured and ready for execution.
func (u *EpochCombineUnit) Validate() error {
	return validateConfig(u.config)
}
