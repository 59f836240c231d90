package ports

import (
	"context"

	"github.com/ahrav/go-rubric/internal/domain"
)

// Executable defines the core contract for components that can be run as a
// step of report assembly.
type Executable interface {
	// Execute processes the given state and returns the updated state along
	// with any execution error. Execute must be safe for concurrent use when
	// called on different states.
	//
	// IMPORTANT: The input state is immutable and MUST NOT be modified.
	// domain.State uses copy-on-write semantics; use domain.With or
	// state.WithMultiple to create a new state with modifications.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// ID returns the unique string identifier for this executable component.
	// The ID must remain constant throughout the executable's lifetime.
	ID() string
}

// Pipeline defines a sequential execution container that runs multiple
// executables in strict order, where each executable's output becomes
// the input for the next executable in the sequence.
type Pipeline interface {
	Executable

	// Executables returns the ordered list of executables in this pipeline.
	Executables() []Executable
}
