package ports

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRecordError verifies message formatting with and without a field.
func TestRecordError(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		field   string
		err     error
		wantMsg string
	}{
		{
			name:    "whole record",
			path:    "session.yaml",
			err:     ErrUnsupportedFormat,
			wantMsg: "record error: path=session.yaml, err=unsupported format",
		},
		{
			name:    "analyst slot",
			path:    "session.json",
			field:   "epoch_1.analyst_2",
			err:     errors.New("malformed input"),
			wantMsg: "record error: path=session.json, field=epoch_1.analyst_2, err=malformed input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRecordError(tt.path, tt.field, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, tt.path, err.Path)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

// TestMetricsError verifies that the message includes the metric context.
func TestMetricsError(t *testing.T) {
	err := NewMetricsError("rubric_quality_index", "RecordHistogram", errors.New("unknown metric"))

	assert.Equal(t, "metrics error: operation=RecordHistogram, metric=rubric_quality_index, err=unknown metric", err.Error())
	assert.Equal(t, "rubric_quality_index", err.Metric)
	assert.Equal(t, "RecordHistogram", err.Operation)
}

// TestConfigError verifies that the message includes the configuration key.
func TestConfigError(t *testing.T) {
	err := NewConfigError("assembler.epoch_combiner", ErrConfigNotFound)

	assert.Equal(t, "config error: key=assembler.epoch_combiner, err=configuration not found", err.Error())
	assert.Equal(t, "assembler.epoch_combiner", err.ConfigKey)
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

// TestCommonInfrastructureErrors checks the sentinel messages.
func TestCommonInfrastructureErrors(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{ErrConfigNotFound, "configuration not found"},
		{ErrUnsupportedFormat, "unsupported format"},
		{ErrSchemaViolation, "schema violation"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

// TestErrorUnwrapping ensures every error type supports unwrapping.
func TestErrorUnwrapping(t *testing.T) {
	baseErr := errors.New("underlying error")

	errorList := []interface {
		error
		Unwrap() error
	}{
		NewRecordError("path", "field", baseErr),
		NewMetricsError("metric", "op", baseErr),
		NewConfigError("key", baseErr),
	}

	for _, err := range errorList {
		assert.Equal(t, baseErr, err.Unwrap(), "%T should unwrap to base error", err)
		assert.True(t, errors.Is(err, baseErr), "%T should match base error with Is", err)
	}
}
