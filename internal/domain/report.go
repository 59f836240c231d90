package domain

import (
	"time"
)

// ScoreSnapshot captures the aggregated per-field scores of the epoch chosen
// to represent the session.
type ScoreSnapshot struct {
	// Epoch is the 1-based index of the representative epoch.
	Epoch int `json:"epoch"`

	// Structure holds the aggregated structure scores.
	Structure map[string]float64 `json:"structure"`

	// Behavior holds the aggregated behavior scores, "N/A" where not
	// applicable.
	Behavior BehaviorScores `json:"behavior"`

	// Specialization holds the aggregated specialization scores.
	Specialization map[string]float64 `json:"specialization"`

	// Strengths, Weaknesses and Insights carry the first contributor's
	// narrative fields, when present.
	Strengths  string `json:"strengths,omitempty"`
	Weaknesses string `json:"weaknesses,omitempty"`
	Insights   string `json:"insights,omitempty"`
}

// PathologySummary reports the pathologies detected across every analyst
// evaluation of the session.
type PathologySummary struct {
	// Detected is the sorted union of tags reported by any analyst.
	Detected []Pathology `json:"detected"`

	// Counts is the number of evaluations that reported each tag.
	Counts map[Pathology]int `json:"counts"`

	// Evaluations is the number of evaluations inspected.
	Evaluations int `json:"evaluations"`

	// Frequency is the total number of tag occurrences, repeats included,
	// divided by Evaluations. It is 0 when no evaluation contributed.
	Frequency float64 `json:"frequency"`
}

// TagRate returns the share of evaluations that reported p.
func (s PathologySummary) TagRate(p Pathology) float64 {
	if s.Evaluations == 0 {
		return 0
	}
	return float64(s.Counts[p]) / float64(s.Evaluations)
}

// SummarizePathologies counts pathology tags across evaluations. Counts
// records each tag once per evaluation, while Frequency counts every
// occurrence.
func SummarizePathologies(evals []AnalystEvaluation) PathologySummary {
	summary := PathologySummary{
		Detected:    []Pathology{},
		Counts:      make(map[Pathology]int),
		Evaluations: len(evals),
	}
	sets := make([][]Pathology, 0, len(evals))
	var occurrences int
	for _, e := range evals {
		occurrences += len(e.Pathologies)
		seen := make(map[Pathology]struct{}, len(e.Pathologies))
		for _, p := range e.Pathologies {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			summary.Counts[p]++
		}
		sets = append(sets, e.Pathologies)
	}
	summary.Detected = UnionPathologies(sets...)
	if summary.Evaluations > 0 {
		summary.Frequency = float64(occurrences) / float64(summary.Evaluations)
	}
	return summary
}

// EpochSummary records the per-epoch values that fed the combined metrics.
type EpochSummary struct {
	// Epoch is the 1-based epoch index.
	Epoch int `json:"epoch"`

	// Metrics holds the group averages and Quality Index of the epoch.
	Metrics EpochMetrics `json:"metrics"`

	// SI is nil when the index was unavailable for this epoch.
	SI *SIResult `json:"si"`

	// Contributors is the number of analyst evaluations aggregated.
	Contributors int `json:"contributors"`

	// DurationMinutes is the epoch's captured elapsed time.
	DurationMinutes float64 `json:"duration_minutes"`
}

// SessionMetrics holds the combined session-level metrics.
type SessionMetrics struct {
	// QualityIndex is the combined 0-100 Quality Index.
	QualityIndex float64 `json:"quality_index"`

	// SuperintelligenceIndex is nil when SI was unavailable for every epoch.
	SuperintelligenceIndex *float64 `json:"superintelligence_index"`

	// SIDeviation is the aperture deviation matching the combined SI; nil
	// alongside SuperintelligenceIndex.
	SIDeviation *float64 `json:"si_deviation"`

	// Aperture is the raw aperture matching the combined SI.
	Aperture *float64 `json:"aperture"`

	// AlignmentRate is the quality fraction per minute.
	AlignmentRate float64 `json:"alignment_rate"`

	// AlignmentCategory classifies AlignmentRate.
	AlignmentCategory AlignmentCategory `json:"alignment_category"`

	// DurationMinutes is the duration AlignmentRate was computed over.
	DurationMinutes float64 `json:"duration_minutes"`
}

// SIAvailable reports whether the session has a superintelligence index.
func (m SessionMetrics) SIAvailable() bool { return m.SuperintelligenceIndex != nil }

// Report is the final output of report assembly. It is a plain acyclic value
// suitable for direct serialisation.
type Report struct {
	// ID uniquely identifies this report (typically a UUID).
	ID string `json:"id"`

	// SessionID identifies the session the report was assembled from.
	SessionID string `json:"session_id"`

	// Category is the challenge category of the session.
	Category Category `json:"category"`

	// Metrics holds the combined session metrics.
	Metrics SessionMetrics `json:"metrics"`

	// Epochs holds the per-epoch values in epoch order.
	Epochs []EpochSummary `json:"epochs"`

	// Scores holds the representative epoch's aggregated scores.
	Scores ScoreSnapshot `json:"scores"`

	// Pathologies summarises detected pathologies across the session.
	Pathologies PathologySummary `json:"pathologies"`

	// Warnings lists non-fatal conditions met while assembling, such as an
	// unavailable SI.
	Warnings []string `json:"warnings,omitempty"`

	// Combiner names the statistic used to combine epoch values.
	Combiner string `json:"combiner"`

	// GeneratedAt records when this report was assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// Float returns a pointer to v, for the optional metric fields.
func Float(v float64) *float64 { return &v }
