package application

import (
	"errors"
	"fmt"

	"github.com/ahrav/go-rubric/infrastructure/middleware"
	"github.com/ahrav/go-rubric/internal/ports"
)

// BuildPipeline creates one unit per step through registry and chains them
// in order. Each unit is validated and, when observer is non-nil, wrapped
// in a middleware.ObservedUnit.
func BuildPipeline(
	id string,
	registry ports.UnitRegistry,
	steps []UnitConfig,
	observer middleware.UnitObserver,
) (*Pipeline, error) {
	if registry == nil {
		return nil, errors.New("unit registry is required")
	}
	if len(steps) == 0 {
		return nil, errors.New("pipeline has no steps")
	}

	execs := make([]ports.Executable, 0, len(steps))
	for _, step := range steps {
		unit, err := registry.CreateUnit(step.Type, step.ID, step.Parameters)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", id, err)
		}
		if err := unit.Validate(); err != nil {
			return nil, fmt.Errorf("pipeline %s: unit %s is invalid: %w", id, step.ID, err)
		}
		if observer != nil {
			unit = middleware.NewObservedUnit(unit, observer)
		}
		execs = append(execs, NewUnitAdapter(unit, step.ID))
	}
	return NewPipeline(id, execs...)
}
