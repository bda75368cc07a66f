// Package reference holds the versioned population statistics the
// estimators are calibrated against.
package reference

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/admitly/internal/domain/percentile"
)

// DefaultVersion identifies the built-in calibration.
const DefaultVersion = "2024.1"

// Regression predicts an average GPA from an SAT total:
// min(Cap, Slope*(sat/SATDivisor) + Intercept).
type Regression struct {
	Slope      float64 `json:"slope" koanf:"slope"`
	Intercept  float64 `json:"intercept" koanf:"intercept"`
	SATDivisor float64 `json:"sat_divisor" koanf:"sat_divisor"`
	Cap        float64 `json:"cap" koanf:"cap"`
}

// Predict maps an SAT total onto the GPA scale.
func (r Regression) Predict(sat float64) float64 {
	return math.Min(r.Cap, r.Slope*(sat/r.SATDivisor)+r.Intercept)
}

// Statistics is one calibration of the reference populations.
type Statistics struct {
	Version string               `json:"version" koanf:"version"`
	SAT     percentile.Quartiles `json:"sat" koanf:"sat"`
	ACT     percentile.Quartiles `json:"act" koanf:"act"`
	GPA     Regression           `json:"gpa_regression" koanf:"gpa_regression"`
}

// Default returns the built-in calibration: SAT totals and ACT composites
// across the underlying university dataset, and the SAT→GPA regression.
func Default() Statistics {
	return Statistics{
		Version: DefaultVersion,
		SAT:     percentile.Quartiles{Q25: 1083, Q50: 1185, Q75: 1285},
		ACT:     percentile.Quartiles{Q25: 22.2, Q50: 24.95, Q75: 27.7},
		GPA: Regression{
			Slope:      0.002,
			Intercept:  2.5,
			SATDivisor: 10,
			Cap:        4.0,
		},
	}
}

// GPAQuartiles infers GPA quartiles by passing the SAT quartile boundaries
// through the regression. GPA scales differ between schools, so GPA is
// ranked by its correlation with SAT rather than by its own distribution.
func (s Statistics) GPAQuartiles() percentile.Quartiles {
	return percentile.Quartiles{
		Q25: s.GPA.Predict(s.SAT.Q25),
		Q50: s.GPA.Predict(s.SAT.Q50),
		Q75: s.GPA.Predict(s.SAT.Q75),
	}
}

// Validate checks that the calibration can be used by the estimators.
// Flat derived GPA quartiles are allowed; they take the degenerate path.
func (s Statistics) Validate() error {
	if strings.TrimSpace(s.Version) == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidReference)
	}
	if err := s.SAT.Validate(); err != nil {
		return fmt.Errorf("%w: sat: %w", ErrInvalidReference, err)
	}
	if err := s.ACT.Validate(); err != nil {
		return fmt.Errorf("%w: act: %w", ErrInvalidReference, err)
	}
	for name, v := range map[string]float64{
		"sat.q25": s.SAT.Q25, "sat.q50": s.SAT.Q50, "sat.q75": s.SAT.Q75,
		"act.q25": s.ACT.Q25, "act.q50": s.ACT.Q50, "act.q75": s.ACT.Q75,
		"gpa_regression.slope":       s.GPA.Slope,
		"gpa_regression.intercept":   s.GPA.Intercept,
		"gpa_regression.sat_divisor": s.GPA.SATDivisor,
		"gpa_regression.cap":         s.GPA.Cap,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidReference, name)
		}
	}
	if s.GPA.SATDivisor <= 0 {
		return fmt.Errorf("%w: gpa_regression.sat_divisor must be positive", ErrInvalidReference)
	}
	if gpa := s.GPAQuartiles(); gpa.Q75 < gpa.Q25 {
		return fmt.Errorf("%w: gpa_regression yields decreasing gpa quartiles (q25=%g q75=%g)",
			ErrInvalidReference, gpa.Q25, gpa.Q75)
	}
	return nil
}
