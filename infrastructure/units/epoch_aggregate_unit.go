package units

import (
	"context"
	"fmt"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Unit = (*EpochAggregateUnit)(nil)

// EpochAggregateUnit merges the analyst evaluations of each epoch into one
// domain.AggregatedEvaluation: the elementwise mean of two evaluations, or
// the single evaluation unchanged.
//
// Concurrency: The unit is stateless and thread-safe for concurrent execution.
type EpochAggregateUnit struct {
	name   string
	config EpochAggregateConfig
}

// EpochAggregateConfig defines the aggregation parameters.
type EpochAggregateConfig struct {
	// MinContributors is the smallest number of usable analyst evaluations
	// an epoch must have. Aggregation never accepts more than two.
	//
	// Range: 1 to 2
	// Default: 1
	MinContributors int `yaml:"min_contributors" json:"min_contributors" validate:"min=1,max=2"`
}

// DefaultEpochAggregateConfig returns a config accepting one or two
// contributors per epoch.
func DefaultEpochAggregateConfig() EpochAggregateConfig {
	return EpochAggregateConfig{MinContributors: 1}
}

// NewEpochAggregateUnit creates an EpochAggregateUnit.
func NewEpochAggregateUnit(name string, config EpochAggregateConfig) (*EpochAggregateUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &EpochAggregateUnit{name: name, config: config}, nil
}

// NewEpochAggregateFromConfig creates an EpochAggregateUnit from a
// configuration map.
func NewEpochAggregateFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := decodeConfig(config, DefaultEpochAggregateConfig())
	if err != nil {
		return nil, err
	}
	return NewEpochAggregateUnit(id, cfg)
}

// Name returns the unique identifier for this unit instance.
func (u *EpochAggregateUnit) Name() string { return u.name }

// Execute aggregates every epoch of the session.
//
// State Requirements:
//   - domain.KeySession: domain.Session
//
// State Updates:
//   - domain.KeyEpochAggregates: []domain.AggregatedEvaluation in epoch order
//
// Error Conditions:
//   - *domain.MetricError wrapping domain.ErrInsufficientData when an epoch
//     has fewer than MinContributors usable evaluations
func (u *EpochAggregateUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	session, err := requireKey(state, domain.KeySession)
	if err != nil {
		return state, err
	}

	aggregates := make([]domain.AggregatedEvaluation, 0, len(session.Epochs))
	for i, epoch := range session.Epochs {
		evals := epoch.Evaluations()
		if len(evals) < u.config.MinContributors {
			return state, domain.NewMetricError("aggregate", i+1, fmt.Errorf(
				"%w: %d usable evaluations, need %d", domain.ErrInsufficientData, len(evals), u.config.MinContributors))
		}
		agg, err := domain.Aggregate(evals...)
		if err != nil {
			return state, domain.NewMetricError("aggregate", i+1, err)
		}
		aggregates = append(aggregates, agg)
	}

	return domain.With(state, domain.KeyEpochAggregates, aggregates), nil
}

// Validate checks if the unit is properly configured and ready for execution.
func (u *EpochAggregateUnit) Validate() error {
	return validateConfig(u.config)
}
