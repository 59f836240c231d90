package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

// mockExecutable is a test implementation of Executable.
type mockExecutable struct {
	id          string
	executeFunc func(ctx context.Context, state domain.State) (domain.State, error)
	executed    bool
	mu          sync.Mutex
}

func (m *mockExecutable) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	m.mu.Lock()
	m.executed = true
	m.mu.Unlock()

	if m.executeFunc != nil {
		return m.executeFunc(ctx, state)
	}
	return state, nil
}

func (m *mockExecutable) ID() string { return m.id }

func (m *mockExecutable) wasExecuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executed
}

func TestPipeline_Execute(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		mocks   func(cancel context.CancelFunc) []*mockExecutable
		wantErr bool
		errMsg  string
		verify  func(t *testing.T, state domain.State, mocks []*mockExecutable)
	}{
		{
			name: "executes units in sequence",
			id:   "test-pipeline",
			mocks: func(context.CancelFunc) []*mockExecutable {
				mocks := make([]*mockExecutable, 3)
				for i := range 3 {
					mocks[i] = &mockExecutable{
						id: fmt.Sprintf("unit%d", i),
						executeFunc: func(ctx context.Context, state domain.State) (domain.State, error) {
							return state.AddWarning(fmt.Sprintf("step%d", i)), nil
						},
					}
				}
				return mocks
			},
			verify: func(t *testing.T, state domain.State, mocks []*mockExecutable) {
				for _, m := range mocks {
					assert.True(t, m.wasExecuted())
				}
				assert.Equal(t, []string{"step0", "step1", "step2"}, state.Warnings())
			},
		},
		{
			name: "stops on first error",
			id:   "error-pipeline",
			mocks: func(context.CancelFunc) []*mockExecutable {
				return []*mockExecutable{
					{id: "unit0"},
					{
						id: "unit1",
						executeFunc: func(ctx context.Context, state domain.State) (domain.State, error) {
							return state, errors.New("unit1 failed")
						},
					},
					{id: "unit2"},
				}
			},
			wantErr: true,
			errMsg:  "pipeline error-pipeline: execution failed at unit1: unit1 failed",
			verify: func(t *testing.T, state domain.State, mocks []*mockExecutable) {
				assert.True(t, mocks[0].wasExecuted())
				assert.True(t, mocks[1].wasExecuted())
				assert.False(t, mocks[2].wasExecuted())
			},
		},
		{
			name: "handles context cancellation",
			id:   "cancel-pipeline",
			mocks: func(cancel context.CancelFunc) []*mockExecutable {
				return []*mockExecutable{
					{
						id: "unit0",
						executeFunc: func(ctx context.Context, state domain.State) (domain.State, error) {
							cancel()
							return state, nil
						},
					},
					{id: "unit1"},
				}
			},
			wantErr: true,
			errMsg:  "context canceled",
			verify: func(t *testing.T, state domain.State, mocks []*mockExecutable) {
				assert.True(t, mocks[0].wasExecuted())
				assert.False(t, mocks[1].wasExecuted())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			mocks := tt.mocks(cancel)
			pipeline, err := NewPipeline(tt.id, executables(mocks)...)
			require.NoError(t, err)

			state := domain.NewState().WithExecutionContext(domain.ExecutionContext{})
			resultState, err := pipeline.Execute(ctx, state)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
			tt.verify(t, resultState, mocks)
		})
	}
}

func TestNewPipeline(t *testing.T) {
	tests := []struct {
		name    string
		steps   []ports.Executable
		wantLen int
		errMsg  string
	}{
		{
			name:    "keeps step order",
			steps:   []ports.Executable{&mockExecutable{id: "a"}, &mockExecutable{id: "b"}},
			wantLen: 2,
		},
		{
			name:   "rejects nil executable",
			steps:  []ports.Executable{&mockExecutable{id: "a"}, nil},
			errMsg: "nil executable at position 1",
		},
		{
			name:   "rejects duplicate ID",
			steps:  []ports.Executable{&mockExecutable{id: "unit1"}, &mockExecutable{id: "unit1"}},
			errMsg: "already exists",
		},
		{
			name:   "rejects empty step list",
			errMsg: "no steps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline, err := NewPipeline("test", tt.steps...)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, pipeline)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "test", pipeline.ID())
			got := pipeline.Executables()
			require.Len(t, got, tt.wantLen)
			for i, step := range tt.steps {
				assert.Equal(t, step.ID(), got[i].ID())
			}

			// The returned slice is a copy.
			got[0] = nil
			assert.NotNil(t, pipeline.Executables()[0])
		})
	}
}

func TestPipeline_ConcurrentExecute(t *testing.T) {
	step := &mockExecutable{
		id: "warn",
		executeFunc: func(ctx context.Context, state domain.State) (domain.State, error) {
			return state.AddWarning("ran"), nil
		},
	}
	pipeline, err := NewPipeline("shared", step)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := pipeline.Execute(context.Background(), domain.NewState())
			assert.NoError(t, err)
			assert.Equal(t, []string{"ran"}, out.Warnings())
		}()
	}
	wg.Wait()
}

func executables(mocks []*mockExecutable) []ports.Executable {
	out := make([]ports.Executable, len(mocks))
	for i, m := range mocks {
		out[i] = m
	}
	return out
}

func TestUnitAdapter(t *testing.T) {
	unit := &testMockUnit{name: "inner"}
	adapter := NewUnitAdapter(unit, "outer")

	assert.Equal(t, "outer", adapter.ID())
	assert.Same(t, unit, adapter.Unit())

	state := domain.NewState()
	out, err := adapter.Execute(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, state.Keys(), out.Keys())
}
