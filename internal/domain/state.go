// Package domain contains pure, dependency-free domain models and
// calculators for the diagnostic rubric: analyst evaluations, aggregation,
// the Quality, Superintelligence and Alignment metrics, and the report.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"time"
)

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating the need for runtime type assertions.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
// This function is provided for creating keys outside of the domain package.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key's string name.
func (k Key[T]) Name() string { return k.name }

// Predefined state keys used throughout report assembly.
// Each key is strongly typed to ensure type safety at compile time.
var (
	// KeySession stores the session snapshot being assembled.
	KeySession = Key[Session]{"session"}

	// KeyEpochAggregates stores the aggregated evaluation of each epoch in
	// epoch order.
	KeyEpochAggregates = Key[[]AggregatedEvaluation]{"epoch.aggregates"}

	// KeyEpochMetrics stores the group averages and Quality Index of each
	// epoch in epoch order.
	KeyEpochMetrics = Key[[]EpochMetrics]{"epoch.metrics"}

	// KeyEpochSI stores each epoch's superintelligence result; an entry is
	// nil when the index was unavailable for that epoch.
	KeyEpochSI = Key[[]*SIResult]{"epoch.si"}

	// KeyQualityIndex stores the combined session Quality Index.
	KeyQualityIndex = Key[float64]{"session.quality_index"}

	// KeyRepresentativeEpoch stores the 0-based index of the epoch whose
	// Quality Index was selected by the combiner.
	KeyRepresentativeEpoch = Key[int]{"session.representative_epoch"}

	// KeySuperintelligence stores the combined SI; nil when unavailable.
	KeySuperintelligence = Key[*SIResult]{"session.superintelligence"}

	// KeyDurationMinutes stores the session duration used for the
	// Alignment Rate.
	KeyDurationMinutes = Key[float64]{"session.duration_minutes"}

	// KeyAlignment stores the Alignment Rate result.
	KeyAlignment = Key[AlignmentResult]{"session.alignment"}

	// KeyWarnings stores non-fatal conditions met during assembly.
	KeyWarnings = Key[[]string]{"session.warnings"}

	// KeyReport stores the final assembled report.
	KeyReport = Key[*Report]{"report"}

	// Execution context keys for tracking metadata across the pipeline.

	// KeyReportID stores the identifier of the report being assembled.
	KeyReportID = Key[string]{"execution.report_id"}

	// KeySessionID stores the identifier of the session being assembled.
	KeySessionID = Key[string]{"execution.session_id"}

	// KeyCategory stores the challenge category of the session.
	KeyCategory = Key[Category]{"execution.category"}

	// KeyCombiner stores the name of the epoch combiner in use.
	KeyCombiner = Key[string]{"execution.combiner"}
)

// deepCopyValue creates a deep copy of a value to ensure true immutability.
// It handles slices, maps, and other reference types that would otherwise
// allow external modification of State data.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}

	// time.Time is immutable and can be returned directly.
	if val, ok := value.(time.Time); ok {
		return val
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		newSlice := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			newSlice.Index(i).Set(reflect.ValueOf(deepCopyValue(v.Index(i).Interface())))
		}
		return newSlice.Interface()

	case reflect.Array:
		newArray := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			newArray.Index(i).Set(reflect.ValueOf(deepCopyValue(v.Index(i).Interface())))
		}
		return newArray.Interface()

	case reflect.Map:
		newMap := reflect.MakeMap(v.Type())
		for _, key := range v.MapKeys() {
			copiedKey := deepCopyValue(key.Interface())
			copiedValue := deepCopyValue(v.MapIndex(key).Interface())
			newMap.SetMapIndex(reflect.ValueOf(copiedKey), reflect.ValueOf(copiedValue))
		}
		return newMap.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return v.Interface()
		}
		newPtr := reflect.New(v.Elem().Type())
		newPtr.Elem().Set(reflect.ValueOf(deepCopyValue(v.Elem().Interface())))
		return newPtr.Interface()

	case reflect.Struct:
		// This performs a shallow copy for unexported fields but deep copies
		// exported fields.
		newStruct := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if newStruct.Field(i).CanSet() {
				newStruct.Field(i).Set(reflect.ValueOf(deepCopyValue(v.Field(i).Interface())))
			}
		}
		return newStruct.Interface()

	default:
		// Primitive types are returned as-is since they are copied by value.
		return value
	}
}

// State represents an immutable collection of evaluation data that flows
// through the pipeline. It uses copy-on-write semantics to ensure
// thread-safety and prevent unintended mutations. State is the primary
// data structure for passing information between Units.
type State struct {
	// data holds the key-value pairs that make up the state.
	// It is unexported to maintain immutability guarantees.
	data map[string]any
}

// NewState creates a new empty State.
// The returned State is ready to use and can be safely shared across
// goroutines.
func NewState() State {
	return State{
		data: make(map[string]any),
	}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and a boolean indicating whether the key exists
// and contains a value of the correct type. The returned value is a deep
// copy to maintain immutability.
//
// Example:
//
//	session, ok := Get(state, KeySession)
//	if !ok {
//	    // handle missing value
//	}
//	// session is typed as Session, no type assertion needed
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	copied := deepCopyValue(value)
	val, ok := copied.(T)
	return val, ok
}

// With creates a new State with the specified key-value pair added or
// updated. It implements copy-on-write semantics, returning a new State
// instance while leaving the original unchanged. This function is the
// primary way to add or update data in a State.
//
// Example:
//
//	newState := With(state, KeyQualityIndex, 71.0)
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	newData[key.name] = deepCopyValue(value)
	return State{data: newData}
}

// WithMultiple creates a new State with multiple key-value pairs added
// or updated. It is more efficient than chaining multiple With calls as
// it performs a single clone operation. The updates map uses string keys
// for flexibility when updating multiple values at once.
//
// Example:
//
//	updates := map[string]any{
//	    KeyQualityIndex.name:        71.0,
//	    KeyRepresentativeEpoch.name: 1,
//	}
//	newState := state.WithMultiple(updates)
func (s State) WithMultiple(updates map[string]any) State {
	newData := maps.Clone(s.data)
	for k, v := range updates {
		newData[k] = deepCopyValue(v)
	}
	return State{data: newData}
}

// Keys returns all keys present in the State.
// The returned slice can be used to iterate over all stored values and
// is safe to modify without affecting the original State.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// String returns a string representation of the State for debugging purposes.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.data)
}

// ExecutionContext contains metadata about the current report assembly that
// flows through the State. It provides consistent access to execution
// metadata for middleware and observability.
type ExecutionContext struct {
	// ReportID is the identifier of the report being assembled.
	ReportID string

	// SessionID is the identifier of the session being assembled.
	SessionID string

	// Category is the challenge category of the session.
	Category Category

	// Combiner names the epoch combiner in use.
	Combiner string
}

// WithExecutionContext creates a new State with execution context metadata
// included. It should be called before the first unit runs.
func (s State) WithExecutionContext(ctx ExecutionContext) State {
	updates := map[string]any{
		KeyReportID.name:  ctx.ReportID,
		KeySessionID.name: ctx.SessionID,
		KeyCategory.name:  ctx.Category,
		KeyCombiner.name:  ctx.Combiner,
		KeyWarnings.name:  []string{},
	}
	return s.WithMultiple(updates)
}

// GetExecutionContext extracts execution context metadata from the State.
// It returns the execution context and a boolean indicating whether all
// required context fields are present and valid.
func (s State) GetExecutionContext() (ExecutionContext, bool) {
	reportID, ok1 := Get(s, KeyReportID)
	sessionID, ok2 := Get(s, KeySessionID)
	category, ok3 := Get(s, KeyCategory)
	combiner, ok4 := Get(s, KeyCombiner)

	if !ok1 || !ok2 || !ok3 || !ok4 {
		return ExecutionContext{}, false
	}

	return ExecutionContext{
		ReportID:  reportID,
		SessionID: sessionID,
		Category:  category,
		Combiner:  combiner,
	}, true
}

// AddWarning creates a new State with msg appended to the assembly warnings.
func (s State) AddWarning(msg string) State {
	warnings, _ := Get(s, KeyWarnings)
	return With(s, KeyWarnings, append(warnings, msg))
}

// Warnings returns the warnings recorded so far.
func (s State) Warnings() []string {
	warnings, _ := Get(s, KeyWarnings)
	return warnings
}
