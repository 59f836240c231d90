package domain

import (
	"fmt"
	"math"
)

// Alignment Rate classification thresholds, in quality per minute.
const (
	AlignmentSlowThreshold        = 0.03
	AlignmentSuperficialThreshold = 0.15
)

// AlignmentCategory classifies how quickly quality was produced.
type AlignmentCategory string

// Alignment categories.
const (
	// AlignmentSlow means quality accrued below 0.03 per minute.
	AlignmentSlow AlignmentCategory = "SLOW"

	// AlignmentValid means quality accrued between 0.03 and 0.15 per minute
	// inclusive.
	AlignmentValid AlignmentCategory = "VALID"

	// AlignmentSuperficial means quality accrued faster than 0.15 per
	// minute, suggesting a rushed or shallow session.
	AlignmentSuperficial AlignmentCategory = "SUPERFICIAL"
)

// AlignmentResult is the outcome of the Alignment Rate calculation.
type AlignmentResult struct {
	// Rate is the quality fraction per elapsed minute.
	Rate float64 `json:"rate"`

	// Category classifies Rate against the fixed thresholds.
	Category AlignmentCategory `json:"category"`
}

// AlignmentRate divides the quality fraction (qi/100) by the elapsed
// duration and classifies the result. It returns ErrInvalidDuration when the
// duration is zero, negative or non-finite; it never estimates a duration.
func AlignmentRate(qi, durationMinutes float64) (AlignmentResult, error) {
	if durationMinutes <= 0 || math.IsNaN(durationMinutes) || math.IsInf(durationMinutes, 0) {
		return AlignmentResult{}, fmt.Errorf("%w: %v minutes", ErrInvalidDuration, durationMinutes)
	}

	rate := (qi / 100) / durationMinutes
	return AlignmentResult{Rate: rate, Category: ClassifyAlignment(rate)}, nil
}

// ClassifyAlignment maps a rate onto its AlignmentCategory.
func ClassifyAlignment(rate float64) AlignmentCategory {
	switch {
	case rate < AlignmentSlowThreshold:
		return AlignmentSlow
	case rate > AlignmentSuperficialThreshold:
		return AlignmentSuperficial
	default:
		return AlignmentValid
	}
}
