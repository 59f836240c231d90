package domain

import (
	"errors"
	"fmt"
	"math"
)

// TargetAperture is the reference aperture A* of the K4 topology: the
// balance point at which the superintelligence index equals 100.
const TargetAperture = 0.020701

// SIResult is the outcome of the superintelligence index calculation.
type SIResult struct {
	// SI is the 0-100 balance score; 100 means the aperture is exactly A*.
	SI float64 `json:"si"`

	// Aperture is the non-negative imbalance measure over K4.
	Aperture float64 `json:"aperture"`

	// Deviation is Aperture / A*; 1 means exactly on target.
	Deviation float64 `json:"deviation"`
}

// ApertureModel maps the six canonical behavior scores onto a reference
// topology and measures how far the configuration is from balance.
// Implementations must be deterministic and return a non-negative value.
type ApertureModel interface {
	// Name identifies the model in configuration and reports.
	Name() string

	// Aperture returns the imbalance measure for scores given in canonical
	// behavior order.
	Aperture(scores [6]float64) (float64, error)
}

// k4Edges lists the complete graph on four vertices in canonical behavior
// order: truthfulness, completeness, groundedness, literacy, comparison,
// preference.
var k4Edges = [6][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}

// K4ModelName is the configuration name of K4HodgeModel.
const K4ModelName = "k4_hodge"

// K4HodgeModel treats the six behavior scores, normalised to [0.1,1], as
// edge flows on K4 and splits them into a gradient component (differences of
// vertex potentials) and a cycle component. The aperture is the share of the
// flow's energy carried by the cycle component:
//
//	aperture = ||y_cycle||²_W / ||y||²_W
//
// The gradient component is the weighted least-squares fit of vertex
// potentials with vertex 0 fixed at zero.
type K4HodgeModel struct {
	// Weights are optional per-edge weights in canonical order. The zero
	// value means uniform weights.
	Weights [6]float64
}

var _ ApertureModel = K4HodgeModel{}

// Name implements ApertureModel.
func (m K4HodgeModel) Name() string { return K4ModelName }

// NewApertureModel returns the aperture model registered under name. The
// empty name selects the uniform K4 model.
func NewApertureModel(name string) (ApertureModel, error) {
	switch name {
	case "", K4ModelName:
		return K4HodgeModel{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown aperture model %q", ErrInvalidConfiguration, name)
	}
}

// Aperture implements ApertureModel.
func (m K4HodgeModel) Aperture(scores [6]float64) (float64, error) {
	w := m.weights()

	var y [6]float64
	var energy float64
	for i, s := range scores {
		y[i] = s / MaxScore
		energy += w[i] * y[i] * y[i]
	}
	if energy == 0 {
		return 0, errors.New("k4 aperture: zero flow energy")
	}

	// Normal equations (BᵀWB) x = BᵀW y over the free potentials x1..x3.
	var lap [3][3]float64
	var rhs [3]float64
	for e, edge := range k4Edges {
		u, v := edge[0], edge[1]
		// Gradient on edge (u,v) is x_v - x_u.
		for _, a := range [2]int{u, v} {
			sa := incidence(a, u)
			if a == 0 {
				continue
			}
			rhs[a-1] += sa * w[e] * y[e]
			for _, b := range [2]int{u, v} {
				if b == 0 {
					continue
				}
				lap[a-1][b-1] += sa * incidence(b, u) * w[e]
			}
		}
	}

	x, err := solve3(lap, rhs)
	if err != nil {
		return 0, fmt.Errorf("k4 aperture: %w", err)
	}
	potential := [4]float64{0, x[0], x[1], x[2]}

	var cycle float64
	for e, edge := range k4Edges {
		r := y[e] - (potential[edge[1]] - potential[edge[0]])
		cycle += w[e] * r * r
	}
	return cycle / energy, nil
}

// incidence returns the signed incidence of vertex a on an edge whose tail
// is u: -1 for the tail, +1 for the head.
func incidence(a, u int) float64 {
	if a == u {
		return -1
	}
	return 1
}

func (m K4HodgeModel) weights() [6]float64 {
	if m.Weights == ([6]float64{}) {
		return [6]float64{1, 1, 1, 1, 1, 1}
	}
	return m.Weights
}

// solve3 solves a 3x3 linear system by Cramer's rule.
func solve3(a [3][3]float64, b [3]float64) ([3]float64, error) {
	det := det3(a)
	if math.Abs(det) < 1e-12 {
		return [3]float64{}, errors.New("singular system")
	}

	var x [3]float64
	for col := range 3 {
		m := a
		for row := range 3 {
			m[row][col] = b[row]
		}
		x[col] = det3(m) / det
	}
	return x, nil
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// SIFromAperture converts an aperture into the index and deviation:
//
//	deviation = aperture / A*
//	si        = 100 / max(deviation, 1/deviation)
//
// so si is 100 on target and falls as the aperture moves away from A* in
// either direction. A zero aperture yields si 0.
func SIFromAperture(aperture float64) SIResult {
	if aperture <= 0 {
		return SIResult{SI: 0, Aperture: 0, Deviation: 0}
	}
	deviation := aperture / TargetAperture
	return SIResult{
		SI:        100 / math.Max(deviation, 1/deviation),
		Aperture:  aperture,
		Deviation: deviation,
	}
}

// SuperintelligenceIndex computes the index from the six behavior scores.
// It returns ErrSIUnavailable unless every behavior field is numeric and in
// [1,10]. A nil model selects K4HodgeModel with uniform weights.
func SuperintelligenceIndex(behavior BehaviorScores, model ApertureModel) (SIResult, error) {
	for _, field := range BehaviorFields {
		s, ok := behavior[field]
		if !ok {
			return SIResult{}, fmt.Errorf("%w: %s is missing", ErrSIUnavailable, field)
		}
		if !s.Applicable {
			return SIResult{}, fmt.Errorf("%w: %s is not applicable", ErrSIUnavailable, field)
		}
		if !InScoreRange(s.Value) {
			return SIResult{}, fmt.Errorf("%w: %s=%g outside [%g,%g]",
				ErrSIUnavailable, field, s.Value, MinScore, MaxScore)
		}
	}
	scores, _ := behavior.Canonical()

	if model == nil {
		model = K4HodgeModel{}
	}
	aperture, err := model.Aperture(scores)
	if err != nil {
		return SIResult{}, fmt.Errorf("%w: %v", ErrSIUnavailable, err)
	}
	if aperture < 0 || math.IsNaN(aperture) || math.IsInf(aperture, 0) {
		return SIResult{}, fmt.Errorf("%w: model %s returned aperture %v",
			ErrSIUnavailable, model.Name(), aperture)
	}
	return SIFromAperture(aperture), nil
}
