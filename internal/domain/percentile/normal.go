// Package percentile converts observed values into percentile estimates
// under a Gaussian model of the reference population.
package percentile

import "math"

// Abramowitz & Stegun 7.1.26 coefficients for erf.
const (
	erfP  = 0.3275911
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
)

// NormalCDF approximates the standard normal cumulative distribution at z.
// The absolute error is below 1.5e-7 over the whole real line.
func NormalCDF(z float64) float64 {
	sign := 1.0
	if z < 0 {
		sign = -1.0
	}
	x := math.Abs(z) / math.Sqrt2

	t := 1.0 / (1.0 + erfP*x)
	poly := ((((erfA5*t+erfA4)*t+erfA3)*t+erfA2)*t + erfA1) * t
	y := 1.0 - poly*math.Exp(-x*x)

	return 0.5 * (1.0 + sign*y)
}
