package units

import (
	"context"
	"fmt"
	"math"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Unit = (*AlignmentRateUnit)(nil)

// AlignmentRateUnit computes the Alignment Rate once, from the combined
// Quality Index and the combined duration.
type AlignmentRateUnit struct {
	name   string
	config AlignmentRateConfig
}

// AlignmentRateConfig defines how a missing duration is handled.
type AlignmentRateConfig struct {
	// DurationFallbackMinutes replaces a non-positive combined duration.
	// Zero disables the fallback, so such sessions fail with
	// domain.ErrInvalidDuration. A used fallback is recorded as a warning.
	//
	// Default: 0
	DurationFallbackMinutes float64 `yaml:"duration_fallback_minutes" json:"duration_fallback_minutes" validate:"min=0"`
}

// DefaultAlignmentRateConfig returns a config without a fallback.
func DefaultAlignmentRateConfig() AlignmentRateConfig {
	return AlignmentRateConfig{DurationFallbackMinutes: 0}
}

// NewAlignmentRateUnit creates an AlignmentRateUnit.
func NewAlignmentRateUnit(name string, config AlignmentRateConfig) (*AlignmentRateUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &AlignmentRateUnit{name: name, config: config}, nil
}

// NewAlignmentRateFromConfig creates an AlignmentRateUnit from a
// configuration map.
func NewAlignmentRateFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := decodeConfig(config, DefaultAlignmentRateConfig())
	if err != nil {
		return nil, err
	}
	return NewAlignmentRateUnit(id, cfg)
}

// Name returns the unique identifier for this unit instance.
func (u *AlignmentRateUnit) Name() string { return u.name }

// Execute computes the Alignment Rate.
//
// State Requirements:
//   - domain.KeyQualityIndex: float64
//   - domain.KeyDurationMinutes: float64
//
// State Updates:
//   - domain.KeyAlignment: domain.AlignmentResult
//   - domain.KeyDurationMinutes and domain.KeyWarnings when the fallback is used
//
// Error Conditions:
//   - *domain.MetricError wrapping domain.ErrInvalidDuration
func (u *AlignmentRateUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	qi, err := requireKey(state, domain.KeyQualityIndex)
	if err != nil {
		return state, err
	}
	duration, err := requireKey(state, domain.KeyDurationMinutes)
	if err != nil {
		return state, err
	}

	if fallback := u.config.DurationFallbackMinutes; fallback > 0 && !validDuration(duration) {
		state = state.AddWarning(fmt.Sprintf(
			"session duration %v minutes is not usable; alignment rate uses the %v minute fallback", duration, fallback))
		duration = fallback
		state = domain.With(state, domain.KeyDurationMinutes, duration)
	}

	ar, err := domain.AlignmentRate(qi, duration)
	if err != nil {
		return state, domain.NewMetricError("alignment_rate", 0, err)
	}
	return domain.With(state, domain.KeyAlignment, ar), nil
}

func validDuration(minutes float64) bool {
	return minutes > 0 && !math.IsInf(minutes, 0) && !math.IsNaN(minutes)
}

// Validate checks if the unit is properly configured and ready for execution.
func (u *AlignmentRateUnit) Validate() error {
	return validateConfig(u.config)
}
