package units

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Unit = (*SuperintelligenceUnit)(nil)

// SuperintelligenceUnit computes the Superintelligence Index of each epoch
// aggregate. An epoch whose aggregated behavior scores include a
// not-applicable field is skipped: its entry is nil and a warning is
// recorded. Skipping is never an error.
//
// Concurrency: The unit is stateless and thread-safe for concurrent execution.
type SuperintelligenceUnit struct {
	name   string
	config SuperintelligenceConfig
	model  domain.ApertureModel
}

// SuperintelligenceConfig selects the aperture model.
type SuperintelligenceConfig struct {
	// ApertureModel names the topology used to measure behavior imbalance.
	//
	// Supported values:
	//   - "k4_hodge": Hodge decomposition of flows on the complete graph K4
	//
	// Default: "k4_hodge"
	ApertureModel string `yaml:"aperture_model" json:"aperture_model" validate:"required"`
}

// DefaultSuperintelligenceConfig returns the K4 model configuration.
func DefaultSuperintelligenceConfig() SuperintelligenceConfig {
	return SuperintelligenceConfig{ApertureModel: domain.K4ModelName}
}

// NewSuperintelligenceUnit creates a SuperintelligenceUnit, resolving the
// configured aperture model.
func NewSuperintelligenceUnit(name string, config SuperintelligenceConfig) (*SuperintelligenceUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	model, err := domain.NewApertureModel(config.ApertureModel)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &SuperintelligenceUnit{name: name, config: config, model: model}, nil
}

// NewSuperintelligenceFromConfig creates a SuperintelligenceUnit from a
// configuration map.
func NewSuperintelligenceFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := decodeConfig(config, DefaultSuperintelligenceConfig())
	if err != nil {
		return nil, err
	}
	return NewSuperintelligenceUnit(id, cfg)
}

// Name returns the unique identifier for this unit instance.
func (u *SuperintelligenceUnit) Name() string { return u.name }

// Execute computes one SI result per epoch.
//
// State Requirements:
//   - domain.KeyEpochAggregates: []domain.AggregatedEvaluation
//
// State Updates:
//   - domain.KeyEpochSI: []*domain.SIResult, nil where unavailable
//   - domain.KeyWarnings: one entry per skipped epoch
func (u *SuperintelligenceUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	aggregates, err := requireKey(state, domain.KeyEpochAggregates)
	if err != nil {
		return state, err
	}

	results := make([]*domain.SIResult, len(aggregates))
	for i, agg := range aggregates {
		si, err := domain.SuperintelligenceIndex(agg.BehaviorScores, u.model)
		switch {
		case errors.Is(err, domain.ErrSIUnavailable):
			state = state.AddWarning(fmt.Sprintf("%s: %v", domain.EpochName(i), err))
		case err != nil:
			return state, domain.NewMetricError("superintelligence_index", i+1, err)
		default:
			results[i] = &si
		}
	}

	return domain.With(state, domain.KeyEpochSI, results), nil
}

// Validate checks if the unit is properly configured and ready for execution.
func (u *SuperintelligenceUnit) Validate() error {
	if err := validateConfig(u.config); err != nil {
		return err
	}
	if u.model == nil {
		return errors.New("aperture model not resolved")
	}
	return nil
}
