package percentile

import "fmt"

const (
	// IQRToStdDev is the width of the interquartile range of a normal
	// distribution, in standard deviations.
	IQRToStdDev = 1.349

	// DegenerateStdDev replaces the standard deviation when q75 == q25.
	// Any value away from the median then saturates toward 0 or 1.
	DegenerateStdDev = 1e-6
)

// Quartiles holds the empirical 25th, 50th and 75th percentiles of a
// reference population.
type Quartiles struct {
	Q25 float64 `json:"q25" koanf:"q25"`
	Q50 float64 `json:"q50" koanf:"q50"`
	Q75 float64 `json:"q75" koanf:"q75"`
}

// Validate reports ErrNonIncreasingQuartiles unless Q25 < Q50 < Q75.
func (q Quartiles) Validate() error {
	if !(q.Q25 < q.Q50 && q.Q50 < q.Q75) {
		return fmt.Errorf("%w: q25=%g q50=%g q75=%g", ErrNonIncreasingQuartiles, q.Q25, q.Q50, q.Q75)
	}
	return nil
}

// StdDev infers the population standard deviation from the interquartile range.
func (q Quartiles) StdDev() float64 {
	iqr := q.Q75 - q.Q25
	if iqr == 0 {
		return DegenerateStdDev
	}
	return iqr / IQRToStdDev
}

// Percentile estimates where value falls in the population, in [0,1].
// Values far outside the quartiles saturate near 0 or 1; nothing is rejected.
func (q Quartiles) Percentile(value float64) float64 {
	z := (value - q.Q50) / q.StdDev()
	return NormalCDF(z)
}

// FromQuartiles is Quartiles{q25, q50, q75}.Percentile(value).
func FromQuartiles(q25, q50, q75, value float64) float64 {
	return Quartiles{Q25: q25, Q50: q50, Q75: q75}.Percentile(value)
}
