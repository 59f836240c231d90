package application

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

var _ ports.Pipeline = (*Pipeline)(nil)

// Pipeline runs its steps in order, feeding each step the state returned by
// the previous one. The step list is fixed at construction, so a Pipeline
// may be executed from several goroutines at once.
type Pipeline struct {
	id    string
	steps []ports.Executable
}

// NewPipeline returns a pipeline running steps in the given order. It fails
// on a nil step or a repeated step ID.
func NewPipeline(id string, steps ...ports.Executable) (*Pipeline, error) {
	for i, step := range steps {
		if step == nil {
			return nil, fmt.Errorf("pipeline %s: nil executable at position %d", id, i)
		}
		if slices.ContainsFunc(steps[:i], func(prev ports.Executable) bool { return prev.ID() == step.ID() }) {
			return nil, fmt.Errorf("pipeline %s: executable with ID %s already exists", id, step.ID())
		}
	}
	if len(steps) == 0 {
		return nil, errors.New("pipeline has no steps")
	}
	return &Pipeline{id: id, steps: slices.Clone(steps)}, nil
}

// Execute runs every step in order and stops at the first failure or when
// ctx is done between steps.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		next, err := step.Execute(ctx, state)
		if err != nil {
			return state, fmt.Errorf("pipeline %s: execution failed at %s: %w", p.id, step.ID(), err)
		}
		state = next
	}
	return state, nil
}

// ID returns the pipeline identifier.
func (p *Pipeline) ID() string { return p.id }

// Executables returns a copy of the steps in execution order.
func (p *Pipeline) Executables() []ports.Executable { return slices.Clone(p.steps) }
