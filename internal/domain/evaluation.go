package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// BehaviorScore holds one behavior rubric score. Comparison and preference
// may be not applicable to a transcript, in which case Applicable is false
// and Value carries no meaning.
type BehaviorScore struct {
	// Value is the numeric score in [1,10] when Applicable is true.
	Value float64

	// Applicable is false when the analyst marked the field not applicable.
	Applicable bool
}

// Score returns a numeric BehaviorScore.
func Score(v float64) BehaviorScore { return BehaviorScore{Value: v, Applicable: true} }

// NA returns a not-applicable BehaviorScore.
func NA() BehaviorScore { return BehaviorScore{} }

// String renders the score as a number or the not-applicable marker.
func (b BehaviorScore) String() string {
	if !b.Applicable {
		return NotApplicable
	}
	return fmt.Sprintf("%g", b.Value)
}

// MarshalJSON encodes numeric scores as JSON numbers and not-applicable
// scores as the "N/A" string.
func (b BehaviorScore) MarshalJSON() ([]byte, error) {
	if !b.Applicable {
		return json.Marshal(NotApplicable)
	}
	return json.Marshal(b.Value)
}

// UnmarshalJSON accepts a JSON number as a numeric score. Any other JSON
// value decodes as not applicable.
func (b *BehaviorScore) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if f, ok := v.(float64); ok {
		*b = Score(f)
		return nil
	}
	*b = NA()
	return nil
}

// BehaviorScores maps behavior field names to their scores.
type BehaviorScores map[string]BehaviorScore

// Canonical returns the six behavior scores in canonical order. ok is false
// when any field is missing or not applicable.
func (bs BehaviorScores) Canonical() (scores [6]float64, ok bool) {
	for i, field := range BehaviorFields {
		s, present := bs[field]
		if !present || !s.Applicable {
			return scores, false
		}
		scores[i] = s.Value
	}
	return scores, true
}

// NumericValues returns the applicable behavior scores in canonical order,
// skipping not-applicable entries.
func (bs BehaviorScores) NumericValues() []float64 {
	values := make([]float64, 0, len(BehaviorFields))
	for _, field := range BehaviorFields {
		if s, ok := bs[field]; ok && s.Applicable {
			values = append(values, s.Value)
		}
	}
	return values
}

// HasNotApplicable reports whether any behavior field is missing or not
// applicable.
func (bs BehaviorScores) HasNotApplicable() bool {
	_, ok := bs.Canonical()
	return !ok
}

// AnalystEvaluation is one analyst's graded output for a single epoch
// transcript. It is created by the schema validator from untrusted text and
// is treated as immutable afterwards.
type AnalystEvaluation struct {
	// StructureScores holds the four structure scores, each in [1,10].
	StructureScores map[string]float64 `json:"structure_scores"`

	// BehaviorScores holds the six behavior scores. Comparison and
	// preference may be not applicable.
	BehaviorScores BehaviorScores `json:"behavior_scores"`

	// SpecializationScores holds the two category-specific scores.
	SpecializationScores map[string]float64 `json:"specialization_scores"`

	// Pathologies lists the failure modes the analyst flagged.
	Pathologies []Pathology `json:"pathologies"`

	// Strengths is free-text rationale passed through unchanged.
	Strengths string `json:"strengths"`

	// Weaknesses is free-text rationale passed through unchanged.
	Weaknesses string `json:"weaknesses"`

	// Insights is free-text rationale passed through unchanged.
	Insights string `json:"insights"`
}

// AggregatedEvaluation is the elementwise mean of one or two analyst
// evaluations of the same transcript.
type AggregatedEvaluation struct {
	// StructureScores holds the mean structure score per field.
	StructureScores map[string]float64 `json:"structure_scores"`

	// BehaviorScores holds the mean behavior score per field. A field that
	// is not applicable in any contributor stays not applicable.
	BehaviorScores BehaviorScores `json:"behavior_scores"`

	// SpecializationScores holds the mean specialization score per field.
	SpecializationScores map[string]float64 `json:"specialization_scores"`

	// Pathologies is the sorted, deduplicated union of contributor tags.
	Pathologies []Pathology `json:"pathologies"`

	// Contributors is the number of analyst evaluations that were merged.
	Contributors int `json:"contributors"`
}

// sortedKeys returns the keys of a score map in lexical order so that
// floating point sums are reproducible.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// mean returns the arithmetic mean of values and false when values is empty.
func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// mapMean averages the values of a score map in key order.
func mapMean(m map[string]float64) (float64, bool) {
	values := make([]float64, 0, len(m))
	for _, k := range sortedKeys(m) {
		values = append(values, m[k])
	}
	return mean(values)
}
