package units

import (
	"context"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Unit = (*QualityIndexUnit)(nil)

// QualityIndexUnit computes the group averages and Quality Index of every
// epoch aggregate. It has no configuration: the weights are fixed.
type QualityIndexUnit struct {
	name string
}

// NewQualityIndexUnit creates a QualityIndexUnit.
func NewQualityIndexUnit(name string) (*QualityIndexUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	return &QualityIndexUnit{name: name}, nil
}

// NewQualityIndexFromConfig creates a QualityIndexUnit. The configuration
// map is accepted for registry uniformity and ignored.
func NewQualityIndexFromConfig(id string, _ map[string]any) (ports.Unit, error) {
	return NewQualityIndexUnit(id)
}

// Name returns the unique identifier for this unit instance.
func (u *QualityIndexUnit) Name() string { return u.name }

// Execute computes domain.EpochMetrics for each aggregate.
//
// State Requirements:
//   - domain.KeyEpochAggregates: []domain.AggregatedEvaluation
//
// State Updates:
//   - domain.KeyEpochMetrics: []domain.EpochMetrics in epoch order
//
// Error Conditions:
//   - *domain.MetricError wrapping domain.ErrInsufficientData when a group
//     has no numeric contributors
func (u *QualityIndexUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	aggregates, err := requireKey(state, domain.KeyEpochAggregates)
	if err != nil {
		return state, err
	}

	metrics := make([]domain.EpochMetrics, 0, len(aggregates))
	for i, agg := range aggregates {
		m, err := domain.ComputeEpochMetrics(agg)
		if err != nil {
			return state, domain.NewMetricError("quality_index", i+1, err)
		}
		metrics = append(metrics, m)
	}

	return domain.With(state, domain.KeyEpochMetrics, metrics), nil
}

// Validate always succeeds.
func (u *QualityIndexUnit) Validate() error { return nil }
