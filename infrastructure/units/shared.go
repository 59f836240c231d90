// Package units provides the report assembly steps that implement the
// ports.Unit interface. Each unit reads the results of earlier steps from
// the immutable domain.State and adds its own.
package units

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-rubric/internal/domain"
)

// Unit type names used by the registry and pipeline configuration.
const (
	TypeSessionPrecondition    = "session_precondition"
	TypeEpochAggregate         = "epoch_aggregate"
	TypeQualityIndex           = "quality_index"
	TypeSuperintelligenceIndex = "superintelligence_index"
	TypeEpochCombine           = "epoch_combine"
	TypeAlignmentRate          = "alignment_rate"
	TypeReport                 = "report"
)

// Common errors returned by units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrEpochMismatch is returned when per-epoch results disagree in length.
	ErrEpochMismatch = errors.New("per-epoch results length mismatch")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// requireKey reads key from state or reports which earlier step is missing.
func requireKey[T any](state domain.State, key domain.Key[T]) (T, error) {
	v, ok := domain.Get(state, key)
	if !ok {
		var zero T
		return zero, domain.NewStateError(key.Name(), "get",
			fmt.Errorf("%w: %s", domain.ErrKeyNotFound, key.Name()))
	}
	return v, nil
}

// decodeConfig overlays a decoded parameter map onto defaults using a YAML
// round trip, so map keys follow the config struct's yaml tags.
func decodeConfig[C any](config map[string]any, defaults C) (C, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return defaults, fmt.Errorf("marshal config: %w", err)
	}
	cfg := defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaults, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func validateConfig(config any) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
