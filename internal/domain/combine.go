package domain

import (
	"fmt"
	"math"
	"slices"
)

// Combiner reduces the per-epoch values of one metric into the single
// session-level value. Implementations decide the statistic used; the
// default is the order-statistic pick.
type Combiner interface {
	// Name identifies the combiner in configuration.
	Name() string

	// Combine folds the per-epoch values into one. It returns
	// ErrInsufficientData for an empty slice and an error for NaN or
	// infinite inputs. The input slice is never modified.
	//
	// Example:
	//
	//	qi, err := OrderStatistic{}.Combine([]float64{62.5, 71.0}) // 71.0
	Combine(values []float64) (float64, error)
}

// Combiner names accepted by configuration.
const (
	CombinerOrderStatistic = "order_statistic"
	CombinerMean           = "mean"
)

// OrderStatistic picks sorted[floor(n/2)]. For two epochs this is the larger
// value, not the arithmetic mean or the textbook median; reports have always
// been produced this way and downstream consumers depend on it.
type OrderStatistic struct{}

var _ Combiner = OrderStatistic{}

// Name implements Combiner.
func (OrderStatistic) Name() string { return CombinerOrderStatistic }

// Combine implements Combiner.
func (OrderStatistic) Combine(values []float64) (float64, error) {
	if err := checkCombinable(values); err != nil {
		return 0, err
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted[len(sorted)/2], nil
}

// MeanCombiner takes the arithmetic mean of the epoch values.
type MeanCombiner struct{}

var _ Combiner = MeanCombiner{}

// Name implements Combiner.
func (MeanCombiner) Name() string { return CombinerMean }

// Combine implements Combiner.
func (MeanCombiner) Combine(values []float64) (float64, error) {
	if err := checkCombinable(values); err != nil {
		return 0, err
	}
	m, _ := mean(values)
	return m, nil
}

// NewCombiner returns the combiner registered under name.
func NewCombiner(name string) (Combiner, error) {
	switch name {
	case "", CombinerOrderStatistic:
		return OrderStatistic{}, nil
	case CombinerMean:
		return MeanCombiner{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown epoch combiner %q", ErrInvalidConfiguration, name)
	}
}

func checkCombinable(values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: no values to combine", ErrInsufficientData)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid value at index %d: %f", i, v)
		}
	}
	return nil
}

// SelectedIndex returns the index in values of the element the combiner's
// result equals, preferring the earliest match. It returns -1 when no
// element matches, as happens for the mean of unequal values.
func SelectedIndex(values []float64, combined float64) int {
	return slices.Index(values, combined)
}
