package application

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ahrav/go-rubric/infrastructure/units"
	"github.com/ahrav/go-rubric/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.UnitRegistry = (*DefaultUnitRegistry)(nil)

// DefaultUnitRegistry implements the UnitRegistry interface providing
// a factory for creating report assembly units based on type and
// configuration. It supports dynamic registration of unit factories.
type DefaultUnitRegistry struct {
	// factories maps unit type strings to their factory functions.
	factories map[string]ports.UnitFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewDefaultUnitRegistry creates a new unit registry with the built-in
// assembly units pre-registered.
func NewDefaultUnitRegistry() *DefaultUnitRegistry {
	registry := &DefaultUnitRegistry{
		factories: make(map[string]ports.UnitFactory),
	}

	registry.registerBuiltinFactories()

	return registry
}

// registerBuiltinFactories registers the standard report assembly units.
func (r *DefaultUnitRegistry) registerBuiltinFactories() {
	r.factories[units.TypeSessionPrecondition] = units.NewSessionPreconditionFromConfig
	r.factories[units.TypeEpochAggregate] = units.NewEpochAggregateFromConfig
	r.factories[units.TypeQualityIndex] = units.NewQualityIndexFromConfig
	r.factories[units.TypeSuperintelligenceIndex] = units.NewSuperintelligenceFromConfig
	r.factories[units.TypeEpochCombine] = units.NewEpochCombineFromConfig
	r.factories[units.TypeAlignmentRate] = units.NewAlignmentRateFromConfig
	r.factories[units.TypeReport] = units.NewReportFromConfig
}

// CreateUnit creates a new unit instance based on the provided type,
// identifier, and configuration.
func (r *DefaultUnitRegistry) CreateUnit(
	unitType string,
	id string,
	config map[string]any,
) (ports.Unit, error) {
	r.mu.RLock()
	factory, exists := r.factories[unitType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported unit type: %s", unitType)
	}

	if id == "" {
		return nil, errors.New("unit ID cannot be empty")
	}

	if config == nil {
		config = make(map[string]any)
	}

	unit, err := factory(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit %s of type %s: %w", id, unitType, err)
	}

	return unit, nil
}

// RegisterUnitFactory registers a new factory function for a specific unit type.
// This allows extending the registry with custom unit types at runtime.
func (r *DefaultUnitRegistry) RegisterUnitFactory(
	unitType string,
	factory ports.UnitFactory,
) error {
	if unitType == "" {
		return errors.New("unit type cannot be empty")
	}

	if factory == nil {
		return errors.New("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[unitType] = factory
	return nil
}

// GetSupportedTypes returns a sorted list of all registered unit types.
func (r *DefaultUnitRegistry) GetSupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for unitType := range r.factories {
		types = append(types, unitType)
	}
	slices.Sort(types)

	return types
}
