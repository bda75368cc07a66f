package loadgen

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/admitly/internal/domain/percentile"
	"github.com/okian/admitly/internal/domain/scoring"
	"github.com/okian/admitly/pkg/logger"
)

// iqrPerSigma converts an interquartile range to a normal standard deviation.
const iqrPerSigma = 1.349

// Score bounds accepted by the API.
const (
	gpaMin, gpaMax = 0.0, 4.0
	satMin, satMax = 400.0, 1600.0
	actMin, actMax = 1.0, 36.0
)

// Generator draws applicants around the reference medians.
type Generator struct {
	rng       *rand.Rand
	estimator *scoring.Estimator
	satShare  float64
	gpa       distuv.Normal
	sat       distuv.Normal
	act       distuv.Normal
}

// NewGenerator creates a generator calibrated to est's reference.
func NewGenerator(est *scoring.Estimator, seed uint64, satShare float64) *Generator {
	ref := est.Reference()
	return &Generator{
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		estimator: est,
		satShare:  satShare,
		gpa:       normalFor(ref.GPAQuartiles()),
		sat:       normalFor(ref.SAT),
		act:       normalFor(ref.ACT),
	}
}

func normalFor(q percentile.Quartiles) distuv.Normal {
	return distuv.Normal{Mu: q.Q50, Sigma: (q.Q75 - q.Q25) / iqrPerSigma}
}

// draw samples n by inverse transform so the stream depends only on the seed.
func (g *Generator) draw(n distuv.Normal) float64 {
	u := g.rng.Float64()
	for u == 0 {
		u = g.rng.Float64()
	}
	return n.Quantile(u)
}

// Next returns one applicant with a fresh student and assessment id.
func (g *Generator) Next() (Applicant, error) {
	a := Applicant{
		AssessmentID: uuid.NewString(),
		StudentID:    uuid.NewString(),
		GPA:          round(clamp(g.draw(g.gpa), gpaMin, gpaMax), 100),
	}
	if g.rng.Float64() < g.satShare {
		v := math.Round(clamp(g.draw(g.sat), satMin, satMax)/10) * 10
		a.SAT = &v
	} else {
		v := math.Round(clamp(g.draw(g.act), actMin, actMax))
		a.ACT = &v
	}
	res, err := g.estimator.Composite(scoring.Input{GPA: a.GPA, SAT: a.SAT, ACT: a.ACT})
	if err != nil {
		return Applicant{}, fmt.Errorf("expected composite: %w", err)
	}
	a.Expected = res.Composite
	return a, nil
}

// generateApplicants draws n applicants.
func generateApplicants(ctx context.Context, g *Generator, n int, stats *Stats) ([]Applicant, error) {
	logger.Get().Info(ctx, "generating applicants", logger.Int("count", n))
	out := make([]Applicant, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		a, err := g.Next()
		if err != nil {
			return nil, fmt.Errorf("applicant %d: %w", i, err)
		}
		out = append(out, a)
	}
	stats.Generated = len(out)
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}
