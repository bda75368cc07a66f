package scoring

import (
	"math"

	"github.com/okian/admitly/internal/domain/reference"
)

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithReference replaces the built-in reference statistics.
func WithReference(ref reference.Statistics) Option {
	return func(e *Estimator) {
		e.ref = ref
	}
}

// WithWeights sets the default test and GPA weights used when an input
// carries none. Negative values or a zero or non-finite sum are ignored.
func WithWeights(test, gpa float64) Option {
	return func(e *Estimator) {
		if sum := test + gpa; test >= 0 && gpa >= 0 && sum > 0 && !math.IsInf(sum, 1) {
			e.weightTest = test
			e.weightGPA = gpa
		}
	}
}
