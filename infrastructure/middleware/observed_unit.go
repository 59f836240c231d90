package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Unit = (*ObservedUnit)(nil)

// UnitObserver provides observability hooks around unit execution.
// Implementations can add tracing, metrics, and logging without
// coupling observability concerns to the assembly logic.
type UnitObserver interface {
	// PreExecute is called before the unit runs. The returned context is
	// passed to the unit and to PostExecute.
	PreExecute(ctx context.Context, unit string, state domain.State) context.Context

	// PostExecute is called after the unit returns with its output state,
	// timing information, and error.
	PostExecute(ctx context.Context, unit string, state domain.State, elapsed time.Duration, err error)
}

// ObservedUnit wraps an assembly unit with an observer. It holds no mutable
// state and is safe for concurrent use when the observer is.
type ObservedUnit struct {
	// next holds the wrapped unit.
	next ports.Unit

	// observer receives the execution hooks; nil disables observation.
	observer UnitObserver
}

// NewObservedUnit wraps next with observer.
func NewObservedUnit(next ports.Unit, observer UnitObserver) *ObservedUnit {
	if next == nil {
		panic("observed unit: next unit is required")
	}
	return &ObservedUnit{next: next, observer: observer}
}

// Name returns the wrapped unit's name, so logs and errors refer to the
// assembly step rather than the wrapper.
func (ou *ObservedUnit) Name() string { return ou.next.Name() }

// Execute runs the wrapped unit between the observer hooks.
func (ou *ObservedUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if ou.observer == nil {
		return ou.next.Execute(ctx, state)
	}

	name := ou.next.Name()
	ctx = ou.observer.PreExecute(ctx, name, state)

	start := time.Now()
	newState, err := ou.next.Execute(ctx, state)
	ou.observer.PostExecute(ctx, name, newState, time.Since(start), err)

	return newState, err
}

// Validate checks the wrapper and the wrapped unit.
func (ou *ObservedUnit) Validate() error {
	if ou.next == nil {
		return fmt.Errorf("observed unit: next unit is required")
	}
	return ou.next.Validate()
}

// Unwrap returns the wrapped unit.
func (ou *ObservedUnit) Unwrap() ports.Unit { return ou.next }
