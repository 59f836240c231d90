package domain

import (
	"fmt"
	"slices"
)

// MaxAnalystsPerEpoch is the number of analyst slots graded per epoch.
const MaxAnalystsPerEpoch = 2

// Aggregate merges the evaluations two independent analysts produced for the
// same transcript into one averaged evaluation. A single evaluation passes
// through unchanged.
//
// Structure and specialization fields take the arithmetic mean of the
// contributors. A behavior field is averaged only when every contributor
// scored it numerically; otherwise it stays not applicable. Two
// contributors' pathologies become their sorted, deduplicated union; a
// single contributor's list is kept as reported. No clamping is
// performed since validated inputs already lie in [1,10].
//
// Aggregate is commutative: the order of evals does not affect the result.
// It returns ErrInsufficientData for zero or more than two evaluations.
func Aggregate(evals ...AnalystEvaluation) (AggregatedEvaluation, error) {
	if len(evals) == 0 || len(evals) > MaxAnalystsPerEpoch {
		return AggregatedEvaluation{}, fmt.Errorf("%w: aggregation needs 1 to %d evaluations, got %d",
			ErrInsufficientData, MaxAnalystsPerEpoch, len(evals))
	}

	pathologies := UnionPathologies(pathologySets(evals)...)
	if len(evals) == 1 {
		pathologies = append([]Pathology{}, evals[0].Pathologies...)
	}

	return AggregatedEvaluation{
		StructureScores:      meanScoreMaps(evals, func(e AnalystEvaluation) map[string]float64 { return e.StructureScores }),
		BehaviorScores:       meanBehaviorScores(evals),
		SpecializationScores: meanScoreMaps(evals, func(e AnalystEvaluation) map[string]float64 { return e.SpecializationScores }),
		Pathologies:          pathologies,
		Contributors:         len(evals),
	}, nil
}

// meanScoreMaps averages a numeric score group field by field. A field that
// only some contributors report is averaged over those that do.
func meanScoreMaps(evals []AnalystEvaluation, group func(AnalystEvaluation) map[string]float64) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, e := range evals {
		for field, v := range group(e) {
			sums[field] += v
			counts[field]++
		}
	}

	out := make(map[string]float64, len(sums))
	for field, sum := range sums {
		out[field] = sum / float64(counts[field])
	}
	return out
}

// meanBehaviorScores averages behavior fields that are numeric in every
// contributor and keeps the rest not applicable.
func meanBehaviorScores(evals []AnalystEvaluation) BehaviorScores {
	fields := make(map[string]struct{})
	for _, e := range evals {
		for field := range e.BehaviorScores {
			fields[field] = struct{}{}
		}
	}

	out := make(BehaviorScores, len(fields))
	for field := range fields {
		var sum float64
		applicable := true
		for _, e := range evals {
			s, ok := e.BehaviorScores[field]
			if !ok || !s.Applicable {
				applicable = false
				break
			}
			sum += s.Value
		}
		if !applicable {
			out[field] = NA()
			continue
		}
		out[field] = Score(sum / float64(len(evals)))
	}
	return out
}

func pathologySets(evals []AnalystEvaluation) [][]Pathology {
	sets := make([][]Pathology, 0, len(evals))
	for _, e := range evals {
		sets = append(sets, e.Pathologies)
	}
	return sets
}

// UnionPathologies returns the sorted, deduplicated union of the given tag
// sets.
func UnionPathologies(sets ...[]Pathology) []Pathology {
	seen := make(map[Pathology]struct{})
	union := make([]Pathology, 0)
	for _, set := range sets {
		for _, p := range set {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			union = append(union, p)
		}
	}
	slices.Sort(union)
	return union
}
