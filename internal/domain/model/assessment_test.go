package model_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/admitly/internal/domain/model"
	"github.com/okian/admitly/internal/domain/scoring"
)

func TestAssessmentInput(t *testing.T) {
	Convey("Given an assessment with an SAT score", t, func() {
		a := model.Assessment{
			ID:          "a-1",
			StudentID:   "s-1",
			GPA:         3.8,
			SAT:         scoring.Float(1450),
			SubmittedAt: time.Now(),
		}

		Convey("When converting it to estimator input", func() {
			in := a.Input()

			Convey("Then the credentials should carry over without weights", func() {
				So(in.GPA, ShouldEqual, 3.8)
				So(*in.SAT, ShouldEqual, 1450)
				So(in.ACT, ShouldBeNil)
				So(in.WeightTest, ShouldBeNil)
				So(in.WeightGPA, ShouldBeNil)
			})

			Convey("And it should score like the free function", func() {
				got, err := scoring.NewEstimator().Composite(in)
				So(err, ShouldBeNil)
				want, _ := scoring.EstimateCompositePercentile(3.8, scoring.Float(1450), nil)
				So(got.Composite, ShouldEqual, want.Composite)
			})
		})

		Convey("When it is scored", func() {
			res, _ := scoring.NewEstimator().Composite(a.Input())
			scored := model.ScoredAssessment{Assessment: a, Result: res, ScoredAt: time.Now()}

			Convey("Then the embedded assessment fields should be promoted", func() {
				So(scored.ID, ShouldEqual, "a-1")
				So(scored.StudentID, ShouldEqual, "s-1")
				So(scored.Result.TestLabel, ShouldEqual, scoring.LabelSAT)
			})
		})
	})
}
