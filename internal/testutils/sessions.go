// Package testutils provides deterministic fixtures and hand-written mocks
// shared by the package tests.
package testutils

import (
	"encoding/json"
	"fmt"

	"github.com/ahrav/go-rubric/internal/domain"
)

// Evaluation builds a valid evaluation for category with every structure
// score set to structure, the six behavior scores in canonical order, and
// both specialization scores set to specialization.
func Evaluation(
	category domain.Category,
	structure float64,
	behavior [6]float64,
	specialization float64,
	pathologies ...domain.Pathology,
) domain.AnalystEvaluation {
	eval := domain.AnalystEvaluation{
		StructureScores:      make(map[string]float64, len(domain.StructureFields)),
		BehaviorScores:       make(domain.BehaviorScores, len(domain.BehaviorFields)),
		SpecializationScores: make(map[string]float64, 2),
		Pathologies:          append([]domain.Pathology{}, pathologies...),
		Strengths:            fmt.Sprintf("structure held at %g", structure),
		Weaknesses:           "occasional drift in later turns",
		Insights:             "the synthesis converged by the final turn",
	}
	for _, f := range domain.StructureFields {
		eval.StructureScores[f] = structure
	}
	for i, f := range domain.BehaviorFields {
		eval.BehaviorScores[f] = domain.Score(behavior[i])
	}
	for _, f := range category.SpecializationFields() {
		eval.SpecializationScores[f] = specialization
	}
	return eval
}

// NotApplicable returns a copy of eval with the given behavior fields
// marked not applicable.
func NotApplicable(eval domain.AnalystEvaluation, fields ...string) domain.AnalystEvaluation {
	behavior := make(domain.BehaviorScores, len(eval.BehaviorScores))
	for k, v := range eval.BehaviorScores {
		behavior[k] = v
	}
	for _, f := range fields {
		behavior[f] = domain.NA()
	}
	eval.BehaviorScores = behavior
	return eval
}

// Complete wraps eval in a complete analyst slot.
func Complete(eval domain.AnalystEvaluation) domain.AnalystSlot {
	return domain.AnalystSlot{Status: domain.SlotComplete, Evaluation: &eval}
}

// Reference values of CompleteSession, for assertions.
const (
	// ReferenceEpoch1QI is (0.4*8 + 0.4*7.5 + 0.2*7) * 10.
	ReferenceEpoch1QI = 76.0
	// ReferenceEpoch2QI is (0.4*6 + 0.4*6 + 0.2*5) * 10.
	ReferenceEpoch2QI = 58.0
	// ReferenceEpoch1Duration and ReferenceEpoch2Duration are the epoch
	// durations in minutes.
	ReferenceEpoch1Duration = 8.0
	ReferenceEpoch2Duration = 10.0
)

// ReferenceEpoch1Behavior is the aggregated behavior of epoch 1 in
// canonical order. Its SI is available.
var ReferenceEpoch1Behavior = [6]float64{8, 7, 6, 7, 8, 9}

// CompleteSession returns a formal-category session with both epochs and
// all four analyst slots complete:
//
//   - epoch 1 aggregates to structure 8, behavior 8,7,6,7,8,9 and
//     specialization 7, so QI is 76 and SI is available;
//   - epoch 2 aggregates to structure 6, behavior 6 with comparison not
//     applicable, and specialization 5, so QI is 58 and SI is unavailable.
//
// Analyst 1 of epoch 1 flags sycophantic_agreement; both analysts of
// epoch 2 flag semantic_drift, and analyst 1 also flags
// sycophantic_agreement.
func CompleteSession(id string) domain.Session {
	c := domain.CategoryFormal
	b1 := ReferenceEpoch1Behavior
	b2 := [6]float64{6, 6, 6, 6, 7, 6}

	return domain.Session{
		ID:       id,
		Category: c,
		Epochs: [domain.EpochsPerSession]domain.Epoch{
			{
				Complete:        true,
				DurationMinutes: ReferenceEpoch1Duration,
				Turns:           12,
				Analysts: [domain.MaxAnalystsPerEpoch]domain.AnalystSlot{
					Complete(Evaluation(c, 7, b1, 6, domain.PathologySycophanticAgreement)),
					Complete(Evaluation(c, 9, b1, 8)),
				},
			},
			{
				Complete:        true,
				DurationMinutes: ReferenceEpoch2Duration,
				Turns:           12,
				Analysts: [domain.MaxAnalystsPerEpoch]domain.AnalystSlot{
					Complete(NotApplicable(
						Evaluation(c, 6, b2, 5, domain.PathologySycophanticAgreement, domain.PathologySemanticDrift),
						domain.FieldComparison)),
					Complete(Evaluation(c, 6, b2, 5, domain.PathologySemanticDrift)),
				},
			},
		},
	}
}

// AnalystJSON renders eval in the analyst output format.
func AnalystJSON(eval domain.AnalystEvaluation) string {
	data, err := json.Marshal(eval)
	if err != nil {
		panic(fmt.Sprintf("testutils: marshal evaluation: %v", err))
	}
	return string(data)
}
