package domain

import "fmt"

// Quality Index weights. Structure and behavior count equally and twice as
// much as specialization; the weights sum to one.
const (
	StructureWeight      = 0.4
	BehaviorWeight       = 0.4
	SpecializationWeight = 0.2

	// qualityScale rescales the weighted [1,10] average to the 0-100 index.
	qualityScale = 10.0
)

// EpochMetrics summarises one epoch's aggregated evaluation.
type EpochMetrics struct {
	// StructureAvg is the mean of the structure scores.
	StructureAvg float64 `json:"structure_avg"`

	// BehaviorAvg is the mean of the numeric behavior scores only;
	// not-applicable entries are excluded.
	BehaviorAvg float64 `json:"behavior_avg"`

	// SpecializationAvg is the mean of the specialization scores.
	SpecializationAvg float64 `json:"specialization_avg"`

	// QualityIndex is the weighted 0-100 quality score of the epoch.
	QualityIndex float64 `json:"quality_index"`
}

// QualityIndex folds the three group averages into a single score:
//
//	QI = (0.4*structure + 0.4*behavior + 0.2*specialization) * 10
//
// Averages in [1,10] yield an index in [10,100].
func QualityIndex(structureAvg, behaviorAvg, specializationAvg float64) float64 {
	weighted := StructureWeight*structureAvg +
		BehaviorWeight*behaviorAvg +
		SpecializationWeight*specializationAvg
	return weighted * qualityScale
}

// ComputeEpochMetrics derives the group averages and the Quality Index of an
// aggregated evaluation. It returns ErrInsufficientData when any group has
// no numeric contributors, e.g. when every behavior field is not applicable.
func ComputeEpochMetrics(agg AggregatedEvaluation) (EpochMetrics, error) {
	structureAvg, ok := mapMean(agg.StructureScores)
	if !ok {
		return EpochMetrics{}, fmt.Errorf("%w: no structure scores", ErrInsufficientData)
	}

	behaviorAvg, ok := mean(agg.BehaviorScores.NumericValues())
	if !ok {
		return EpochMetrics{}, fmt.Errorf("%w: no numeric behavior scores", ErrInsufficientData)
	}

	specializationAvg, ok := mapMean(agg.SpecializationScores)
	if !ok {
		return EpochMetrics{}, fmt.Errorf("%w: no specialization scores", ErrInsufficientData)
	}

	return EpochMetrics{
		StructureAvg:      structureAvg,
		BehaviorAvg:       behaviorAvg,
		SpecializationAvg: specializationAvg,
		QualityIndex:      QualityIndex(structureAvg, behaviorAvg, specializationAvg),
	}, nil
}
