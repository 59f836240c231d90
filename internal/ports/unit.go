// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-rubric/internal/domain"
)

// Unit represents one step of report assembly. Each Unit reads what earlier
// steps stored in the State and adds its own results under its own keys.
// Units should be stateless and thread-safe for concurrent execution.
type Unit interface {
	// Name returns a unique identifier for this unit.
	// The name is used for logging, tracing, and configuration.
	Name() string

	// Execute performs the unit's transformation on the provided State.
	// It returns a new State containing the results of the transformation.
	// The original State must not be modified.
	// Any errors during execution should be returned rather than panicking.
	//
	// Example:
	//
	//	newState, err := unit.Execute(ctx, state)
	//	if err != nil {
	//	    return domain.State{}, fmt.Errorf("unit %s failed: %w", unit.Name(), err)
	//	}
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks if the unit is properly configured and ready for execution.
	// It is typically called during pipeline construction.
	// Return nil if validation passes, or an error describing what is invalid.
	Validate() error
}

// UnitFactory creates a configured Unit from an identifier and a decoded
// parameter map, typically read from YAML.
type UnitFactory func(id string, config map[string]any) (Unit, error)

// UnitRegistry creates units by type name. Implementations must be safe for
// concurrent use.
type UnitRegistry interface {
	// CreateUnit builds a unit of the given type. It returns an error for
	// an unknown type, an empty id or an invalid configuration.
	CreateUnit(unitType string, id string, config map[string]any) (Unit, error)

	// RegisterUnitFactory adds or replaces the factory for unitType.
	RegisterUnitFactory(unitType string, factory UnitFactory) error

	// GetSupportedTypes lists every registered unit type.
	GetSupportedTypes() []string
}
