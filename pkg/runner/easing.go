package runner

import "math"

// Easing selects the interpolation curve used by transition functions.
// The zero value is EaseCubicInOut, so an unset RunConfig eases the
// same way DefaultRunConfig does.
type Easing int

const (
	EaseCubicInOut Easing = iota
	EaseLinear
	EaseElasticOut
)

// At evaluates the easing curve at t in [0,1].
func (e Easing) At(t float64) float64 {
	switch e {
	case EaseCubicInOut:
		if t < 0.5 {
			return 4 * t * t * t
		}
		u := -2*t + 2
		return 1 - u*u*u/2
	case EaseElasticOut:
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}
		const c4 = 2 * math.Pi / 3
		return math.Pow(2, -10*t)*math.Sin((10*t-0.75)*c4) + 1
	default:
		return t
	}
}
