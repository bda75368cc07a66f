package reference_test

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/admitly/internal/domain/percentile"
	"github.com/okian/admitly/internal/domain/reference"
)

func TestDefault(t *testing.T) {
	Convey("Given the default calibration", t, func() {
		ref := reference.Default()

		Convey("Then it should carry the published quartiles", func() {
			So(ref.Version, ShouldEqual, reference.DefaultVersion)
			So(ref.SAT, ShouldResemble, percentile.Quartiles{Q25: 1083, Q50: 1185, Q75: 1285})
			So(ref.ACT, ShouldResemble, percentile.Quartiles{Q25: 22.2, Q50: 24.95, Q75: 27.7})
			So(ref.Validate(), ShouldBeNil)
		})

		Convey("When deriving GPA quartiles", func() {
			gpa := ref.GPAQuartiles()

			Convey("Then each SAT boundary should go through 0.002*(sat/10)+2.5", func() {
				So(gpa.Q25, ShouldAlmostEqual, 2.7166, 1e-9)
				So(gpa.Q50, ShouldAlmostEqual, 2.737, 1e-9)
				So(gpa.Q75, ShouldAlmostEqual, 2.757, 1e-9)
			})
		})
	})
}

func TestRegression(t *testing.T) {
	Convey("Given the SAT to GPA regression", t, func() {
		r := reference.Default().GPA

		Convey("When the prediction exceeds the cap", func() {
			Convey("Then it should be capped at 4.0", func() {
				So(r.Predict(1600), ShouldAlmostEqual, 2.82, 1e-9)
				So(r.Predict(100000), ShouldEqual, 4.0)
			})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a calibration", t, func() {
		ref := reference.Default()

		Convey("When the version is blank", func() {
			ref.Version = "  "

			Convey("Then validation should fail", func() {
				So(errors.Is(ref.Validate(), reference.ErrInvalidReference), ShouldBeTrue)
			})
		})

		Convey("When SAT quartiles are out of order", func() {
			ref.SAT = percentile.Quartiles{Q25: 1300, Q50: 1185, Q75: 1285}

			Convey("Then validation should fail with both kinds", func() {
				err := ref.Validate()
				So(errors.Is(err, reference.ErrInvalidReference), ShouldBeTrue)
				So(errors.Is(err, percentile.ErrNonIncreasingQuartiles), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "sat")
			})
		})

		Convey("When ACT quartiles are flat", func() {
			ref.ACT = percentile.Quartiles{Q25: 24, Q50: 24, Q75: 24}

			Convey("Then validation should fail", func() {
				So(ref.Validate(), ShouldNotBeNil)
			})
		})

		Convey("When the divisor is zero", func() {
			ref.GPA.SATDivisor = 0

			Convey("Then validation should fail", func() {
				So(ref.Validate(), ShouldNotBeNil)
			})
		})

		Convey("When the regression slope is negative", func() {
			ref.GPA.Slope = -0.002

			Convey("Then validation should fail on the decreasing GPA quartiles", func() {
				err := ref.Validate()
				So(errors.Is(err, reference.ErrInvalidReference), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "decreasing gpa quartiles")
			})
		})

		Convey("When the divisor is NaN", func() {
			ref.GPA.SATDivisor = math.NaN()

			Convey("Then validation should fail", func() {
				err := ref.Validate()
				So(errors.Is(err, reference.ErrInvalidReference), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "gpa_regression.sat_divisor must be finite")
			})
		})

		Convey("When a regression field is infinite", func() {
			ref.GPA.Intercept = math.Inf(1)

			Convey("Then validation should fail", func() {
				So(errors.Is(ref.Validate(), reference.ErrInvalidReference), ShouldBeTrue)
			})
		})

		Convey("When an outer quartile is infinite", func() {
			ref.SAT.Q75 = math.Inf(1)

			Convey("Then validation should fail even though the order holds", func() {
				err := ref.Validate()
				So(errors.Is(err, reference.ErrInvalidReference), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "sat.q75 must be finite")
			})
		})

		Convey("When the cap flattens the derived GPA quartiles", func() {
			ref.GPA.Cap = 2.0

			Convey("Then validation should still pass", func() {
				So(ref.Validate(), ShouldBeNil)
				gpa := ref.GPAQuartiles()
				So(gpa.Q25, ShouldEqual, gpa.Q75)
			})
		})
	})
}
