package export_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/internal/application"
	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/testutils"
)

// referenceReport generates the report for the reference session with the
// default engine configuration.
func referenceReport(t *testing.T) *domain.Report {
	t.Helper()
	service, err := application.NewReportService(application.DefaultEngineConfig())
	require.NoError(t, err)
	report, err := service.Generate(context.Background(), testutils.CompleteSession("s-1"))
	require.NoError(t, err)
	return report
}
