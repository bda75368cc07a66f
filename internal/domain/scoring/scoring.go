// Package scoring turns a GPA and one standardized test score into
// percentile estimates and blends them into a composite.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/admitly/internal/domain/percentile"
	"github.com/okian/admitly/internal/domain/reference"
)

const defaultWeight = 0.5

// TestLabel names the standardized test that fed a composite.
type TestLabel string

const (
	LabelSAT TestLabel = "SAT"
	LabelACT TestLabel = "ACT"
)

// Input abstracts the fields needed for a composite. Exactly one of SAT and
// ACT must be set. Nil weights fall back to the estimator defaults.
type Input struct {
	GPA        float64
	SAT        *float64
	ACT        *float64
	WeightTest *float64
	WeightGPA  *float64
}

// Result is the outcome of one composite computation.
type Result struct {
	Composite        float64   `json:"composite"`
	GPAPercentile    float64   `json:"gpa_percentile"`
	TestPercentile   float64   `json:"test_percentile"`
	TestLabel        TestLabel `json:"test_label"`
	ReferenceVersion string    `json:"reference_version"`
}

// Scorer computes a composite from an input, honoring ctx for cancellation.
type Scorer interface {
	Score(ctx context.Context, in Input) (Result, error)
}

// Estimator computes percentiles against one set of reference statistics.
// It is immutable after construction and safe for concurrent use.
type Estimator struct {
	ref        reference.Statistics
	gpa        percentile.Quartiles
	weightTest float64
	weightGPA  float64
}

// NewEstimator creates an estimator over the default reference unless
// WithReference says otherwise.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		ref:        reference.Default(),
		weightTest: defaultWeight,
		weightGPA:  defaultWeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.gpa = e.ref.GPAQuartiles()
	return e
}

// Reference returns the statistics the estimator was built with.
func (e *Estimator) Reference() reference.Statistics { return e.ref }

// Weights returns the default test and GPA weights.
func (e *Estimator) Weights() (test, gpa float64) { return e.weightTest, e.weightGPA }

// SATPercentile estimates the percentile of an SAT total.
func (e *Estimator) SATPercentile(total float64) float64 {
	return e.ref.SAT.Percentile(total)
}

// ACTPercentile estimates the percentile of an ACT composite.
func (e *Estimator) ACTPercentile(total float64) float64 {
	return e.ref.ACT.Percentile(total)
}

// GPAPercentile estimates the percentile of a GPA against quartiles derived
// from the SAT reference through the GPA regression.
func (e *Estimator) GPAPercentile(gpa float64) float64 {
	return e.gpa.Percentile(gpa)
}

// Composite blends the test percentile and the GPA percentile with
// normalized weights.
func (e *Estimator) Composite(in Input) (Result, error) {
	var (
		testPct float64
		label   TestLabel
	)
	switch {
	case in.SAT != nil && in.ACT != nil:
		return Result{}, invalid(ReasonBothTests, "Provide only one of satScore or actScore, not both.")
	case in.SAT != nil:
		testPct, label = e.SATPercentile(*in.SAT), LabelSAT
	case in.ACT != nil:
		testPct, label = e.ACTPercentile(*in.ACT), LabelACT
	default:
		return Result{}, invalid(ReasonNoTest, "You must provide either satScore or actScore.")
	}

	wt, wg := e.weightTest, e.weightGPA
	if in.WeightTest != nil {
		wt = *in.WeightTest
	}
	if in.WeightGPA != nil {
		wg = *in.WeightGPA
	}
	if wt < 0 || wg < 0 {
		return Result{}, invalid(ReasonWeights, "Weights must not be negative.")
	}
	sum := wt + wg
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return Result{}, invalid(ReasonWeights, "Weights must be finite.")
	}
	if sum <= 0 {
		return Result{}, invalid(ReasonWeights, "Weights must sum to a positive value.")
	}

	gpaPct := e.GPAPercentile(in.GPA)
	return Result{
		Composite:        (wt/sum)*testPct + (wg/sum)*gpaPct,
		GPAPercentile:    gpaPct,
		TestPercentile:   testPct,
		TestLabel:        label,
		ReferenceVersion: e.ref.Version,
	}, nil
}

// Score is Composite for pipeline callers; it fails fast on a done context.
func (e *Estimator) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	return e.Composite(in)
}

var defaultEstimator = NewEstimator()

// EstimateSATPercentile uses the default reference.
func EstimateSATPercentile(total float64) float64 { return defaultEstimator.SATPercentile(total) }

// EstimateACTPercentile uses the default reference.
func EstimateACTPercentile(total float64) float64 { return defaultEstimator.ACTPercentile(total) }

// EstimateGPAPercentile uses the default reference.
func EstimateGPAPercentile(gpa float64) float64 { return defaultEstimator.GPAPercentile(gpa) }

// EstimateCompositePercentile uses the default reference and equal weights.
// Pass nil for the test that was not taken.
func EstimateCompositePercentile(gpa float64, sat, act *float64) (Result, error) {
	return defaultEstimator.Composite(Input{GPA: gpa, SAT: sat, ACT: act})
}

// Float returns a pointer to v, for optional Input fields.
func Float(v float64) *float64 { return &v }
