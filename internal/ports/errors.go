package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur outside the pure engine.
var (
	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrUnsupportedFormat indicates that a file or output format is not
	// supported.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrSchemaViolation indicates that serialised output does not match its
	// published schema.
	ErrSchemaViolation = errors.New("schema violation")
)

// RecordError represents a failure to read or decode an external record,
// such as a session file.
type RecordError struct {
	// Path is the file the record was read from.
	Path string

	// Field optionally locates the offending part of the record, e.g.
	// "epoch_1.analyst_2".
	Field string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for RecordError.
func (e *RecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("record error: path=%s, err=%v", e.Path, e.Err)
	}
	return fmt.Sprintf("record error: path=%s, field=%s, err=%v", e.Path, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *RecordError) Unwrap() error { return e.Err }

// NewRecordError creates a new RecordError with the given details.
func NewRecordError(path, field string, err error) *RecordError {
	return &RecordError{
		Path:  path,
		Field: field,
		Err:   err,
	}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric that was being collected when the
	// error occurred.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	// Err is the underlying error that caused the metrics operation to fail.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
