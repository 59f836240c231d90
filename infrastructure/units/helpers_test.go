package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/ports"
)

// sessionState seeds a state the way the report service does.
func sessionState(s domain.Session) domain.State {
	state := domain.NewState().WithExecutionContext(domain.ExecutionContext{
		ReportID:  "report-1",
		SessionID: s.ID,
		Category:  s.Category,
		Combiner:  domain.CombinerOrderStatistic,
	})
	return domain.With(state, domain.KeySession, s)
}

// standardUnits builds the default assembly steps in order.
func standardUnits(t *testing.T) []ports.Unit {
	t.Helper()

	precondition, err := NewSessionPreconditionUnit("precondition", DefaultSessionPreconditionConfig())
	require.NoError(t, err)
	aggregate, err := NewEpochAggregateUnit("aggregate", DefaultEpochAggregateConfig())
	require.NoError(t, err)
	quality, err := NewQualityIndexUnit("quality")
	require.NoError(t, err)
	si, err := NewSuperintelligenceUnit("si", DefaultSuperintelligenceConfig())
	require.NoError(t, err)
	combine, err := NewEpochCombineUnit("combine", DefaultEpochCombineConfig())
	require.NoError(t, err)
	alignment, err := NewAlignmentRateUnit("alignment", DefaultAlignmentRateConfig())
	require.NoError(t, err)

	return []ports.Unit{precondition, aggregate, quality, si, combine, alignment}
}

// run executes units in order and fails the test on the first error.
func run(t *testing.T, state domain.State, units ...ports.Unit) domain.State {
	t.Helper()
	for _, u := range units {
		var err error
		state, err = u.Execute(context.Background(), state)
		require.NoError(t, err, "unit %s", u.Name())
	}
	return state
}
