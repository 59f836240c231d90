package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors that can occur while validating evaluations and
// computing diagnostic metrics.
var (
	// ErrMalformedInput indicates that analyst output could not be parsed as
	// a JSON object.
	ErrMalformedInput = errors.New("malformed input")

	// ErrMissingField indicates that a required rubric field is absent.
	ErrMissingField = errors.New("missing field")

	// ErrUnexpectedField indicates a specialization field outside the pair
	// required by the challenge category.
	ErrUnexpectedField = errors.New("unexpected field")

	// ErrScoreOutOfRange indicates that a score is not a number in [1,10].
	ErrScoreOutOfRange = errors.New("score out of range")

	// ErrInvalidPathology indicates a pathology tag outside the vocabulary
	// or a non-string pathology entry.
	ErrInvalidPathology = errors.New("invalid pathology")

	// ErrInsufficientData indicates that an average cannot be computed
	// because it has no numeric contributors.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrSIUnavailable indicates that the superintelligence index cannot be
	// computed because the behavior scores are not fully numeric.
	ErrSIUnavailable = errors.New("superintelligence index unavailable")

	// ErrInvalidDuration indicates a zero, negative or non-finite duration.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrIncompleteSession indicates that a session lacks completed epochs
	// or analyst evaluations required for report assembly.
	ErrIncompleteSession = errors.New("incomplete session")

	// ErrInvalidState indicates that a State operation received invalid input.
	ErrInvalidState = errors.New("invalid state")

	// ErrKeyNotFound indicates that a requested state key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// IssueKind classifies a schema violation found in analyst output.
type IssueKind string

// Schema issue kinds. Each maps onto one of the sentinel errors above.
const (
	IssueMalformedInput   IssueKind = "MalformedInput"
	IssueMissingField     IssueKind = "MissingField"
	IssueUnexpectedField  IssueKind = "UnexpectedField"
	IssueScoreOutOfRange  IssueKind = "ScoreOutOfRange"
	IssueInvalidPathology IssueKind = "InvalidPathology"
)

// Sentinel returns the sentinel error matching the issue kind.
func (k IssueKind) Sentinel() error {
	switch k {
	case IssueMissingField:
		return ErrMissingField
	case IssueUnexpectedField:
		return ErrUnexpectedField
	case IssueScoreOutOfRange:
		return ErrScoreOutOfRange
	case IssueInvalidPathology:
		return ErrInvalidPathology
	default:
		return ErrMalformedInput
	}
}

// SchemaIssue describes a single violation of the analyst evaluation
// contract. Issues are collected rather than short-circuited so that every
// problem in a blob is reported together.
type SchemaIssue struct {
	// Kind classifies the violation.
	Kind IssueKind `json:"kind"`

	// Field is the dotted path of the offending field, e.g.
	// "behavior_scores.truthfulness". Empty for whole-document issues.
	Field string `json:"field,omitempty"`

	// Value is the offending value rendered as text, when one exists.
	Value string `json:"value,omitempty"`

	// Message explains the violation to a user.
	Message string `json:"message"`
}

// Error implements the error interface for SchemaIssue.
func (i SchemaIssue) Error() string {
	if i.Field == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Kind, i.Field, i.Message)
}

// Unwrap returns the sentinel error for the issue kind.
func (i SchemaIssue) Unwrap() error { return i.Kind.Sentinel() }

// StateError represents an error that occurred during State operations.
// It provides context about which key and operation caused the error.
type StateError struct {
	// Key is the state key name that was involved in the failed operation.
	Key string

	// Operation describes what operation was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *StateError) Unwrap() error { return e.Err }

// NewStateError creates a new StateError with the given details.
func NewStateError(key string, operation string, err error) *StateError {
	return &StateError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string

	// Issues contains the typed schema issues behind Errors, when the
	// failure came from the analyst evaluation validator.
	Issues []SchemaIssue
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap exposes the issues so errors.Is matches their sentinel kinds.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Issues))
	for _, issue := range e.Issues {
		errs = append(errs, issue)
	}
	return errs
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// AddIssue records a typed schema issue along with its message.
func (e *ValidationError) AddIssue(issue SchemaIssue) {
	e.Issues = append(e.Issues, issue)
	e.Errors = append(e.Errors, issue.Error())
}

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}

// IncompleteSessionError reports every piece a session still lacks before a
// report can be assembled.
type IncompleteSessionError struct {
	// SessionID identifies the session that was checked.
	SessionID string

	// Missing names each incomplete epoch ("epoch_2") and each unfilled
	// analyst slot ("epoch_1.analyst_2").
	Missing []string
}

// Error implements the error interface for IncompleteSessionError.
func (e *IncompleteSessionError) Error() string {
	return fmt.Sprintf("incomplete session %s: missing %s", e.SessionID, strings.Join(e.Missing, ", "))
}

// Unwrap returns ErrIncompleteSession.
func (e *IncompleteSessionError) Unwrap() error { return ErrIncompleteSession }

// MetricError records which metric failed and, when relevant, for which
// epoch.
type MetricError struct {
	// Metric names the calculation that failed, e.g. "quality_index".
	Metric string

	// Epoch is the 1-based epoch number, or 0 for session-level metrics.
	Epoch int

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface for MetricError.
func (e *MetricError) Error() string {
	if e.Epoch == 0 {
		return fmt.Sprintf("metric %s: %v", e.Metric, e.Err)
	}
	return fmt.Sprintf("metric %s (epoch %d): %v", e.Metric, e.Epoch, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricError) Unwrap() error { return e.Err }

// NewMetricError creates a new MetricError with the given details.
func NewMetricError(metric string, epoch int, err error) *MetricError {
	return &MetricError{
		Metric: metric,
		Epoch:  epoch,
		Err:    err,
	}
}
