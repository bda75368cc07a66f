package sqlstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/admitly/internal/adapters/sqlstore"
	"github.com/okian/admitly/internal/domain/model"
	"github.com/okian/admitly/internal/domain/scoring"
)

var est = scoring.NewEstimator()

func scored(id, student string, gpa float64, sat, act *float64, at time.Time) model.ScoredAssessment {
	a := model.Assessment{ID: id, StudentID: student, GPA: gpa, SAT: sat, ACT: act, SubmittedAt: at}
	res, err := est.Composite(a.Input())
	if err != nil {
		panic(err)
	}
	return model.ScoredAssessment{Assessment: a, Result: res, ScoredAt: at.Add(time.Millisecond)}
}

func openMemory(ctx context.Context) *sqlstore.Store {
	s, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, ":memory:")
	So(err, ShouldBeNil)
	return s
}

func TestOpen(t *testing.T) {
	Convey("Given an unknown driver", t, func() {
		_, err := sqlstore.Open(context.Background(), sqlstore.Driver("oracle"), "")

		Convey("Then Open should fail", func() {
			So(errors.Is(err, sqlstore.ErrUnsupportedDriver), ShouldBeTrue)
		})
	})

	Convey("Given an in-memory sqlite database", t, func() {
		ctx := context.Background()
		s := openMemory(ctx)
		defer s.Close()

		Convey("Then the schema should be ready and empty", func() {
			So(s.Driver(), ShouldEqual, sqlstore.DriverSQLite)
			So(s.Ping(ctx), ShouldBeNil)
			n, err := s.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}

func TestSaveAndGet(t *testing.T) {
	Convey("Given an assessment log", t, func() {
		ctx := context.Background()
		s := openMemory(ctx)
		defer s.Close()
		now := time.Date(2026, 3, 1, 9, 0, 0, 123456789, time.UTC)

		Convey("When an SAT assessment is saved", func() {
			in := scored("a1", "s1", 3.8, scoring.Float(1450), nil, now)
			So(s.Save(ctx, in), ShouldBeNil)

			Convey("Then it should read back unchanged", func() {
				got, err := s.Get(ctx, "a1")
				So(err, ShouldBeNil)
				So(got.StudentID, ShouldEqual, "s1")
				So(got.GPA, ShouldEqual, 3.8)
				So(*got.SAT, ShouldEqual, 1450)
				So(got.ACT, ShouldBeNil)
				So(got.Result, ShouldResemble, in.Result)
				So(got.SubmittedAt.Equal(now), ShouldBeTrue)
				So(got.ScoredAt.Equal(in.ScoredAt), ShouldBeTrue)
			})

			Convey("And saving the same id again should keep the first row", func() {
				again := scored("a1", "s1", 2.0, nil, scoring.Float(20), now)
				So(s.Save(ctx, again), ShouldBeNil)
				got, err := s.Get(ctx, "a1")
				So(err, ShouldBeNil)
				So(got.Result.TestLabel, ShouldEqual, scoring.LabelSAT)
				n, _ := s.Count(ctx)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When an ACT assessment is saved", func() {
			So(s.Save(ctx, scored("a2", "s2", 3.1, nil, scoring.Float(29), now)), ShouldBeNil)

			Convey("Then the missing SAT should stay nil", func() {
				got, err := s.Get(ctx, "a2")
				So(err, ShouldBeNil)
				So(got.SAT, ShouldBeNil)
				So(*got.ACT, ShouldEqual, 29)
			})
		})

		Convey("When the id is unknown", func() {
			_, err := s.Get(ctx, "missing")

			Convey("Then it should be not found", func() {
				So(errors.Is(err, sqlstore.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestListBest(t *testing.T) {
	Convey("Given several assessments per student", t, func() {
		ctx := context.Background()
		s := openMemory(ctx)
		defer s.Close()
		t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

		for _, a := range []model.ScoredAssessment{
			scored("a1", "s1", 3.0, scoring.Float(1100), nil, t0),
			scored("a2", "s1", 3.0, scoring.Float(1400), nil, t0.Add(time.Second)),
			scored("a3", "s1", 3.0, scoring.Float(1200), nil, t0.Add(2*time.Second)),
			scored("b1", "s2", 3.9, nil, scoring.Float(33), t0),
			scored("c1", "s3", 2.5, scoring.Float(1000), nil, t0),
			scored("c2", "s3", 2.5, scoring.Float(1000), nil, t0.Add(time.Second)),
		} {
			So(s.Save(ctx, a), ShouldBeNil)
		}

		Convey("When listing the best per student", func() {
			best, err := s.ListBest(ctx)

			Convey("Then each student should appear once with the top composite", func() {
				So(err, ShouldBeNil)
				So(len(best), ShouldEqual, 3)
				byStudent := map[string]string{}
				for _, b := range best {
					byStudent[b.StudentID] = b.ID
				}
				So(byStudent["s1"], ShouldEqual, "a2")
				So(byStudent["s2"], ShouldEqual, "b1")
				So(byStudent["s3"], ShouldEqual, "c1")
			})

			Convey("And rows should be ordered by composite", func() {
				for i := 1; i < len(best); i++ {
					So(best[i].Result.Composite, ShouldBeLessThanOrEqualTo, best[i-1].Result.Composite)
				}
			})
		})

		Convey("When listing one student's history", func() {
			hist, err := s.ListByStudent(ctx, "s1")

			Convey("Then it should be newest first", func() {
				So(err, ShouldBeNil)
				So(len(hist), ShouldEqual, 3)
				So(hist[0].ID, ShouldEqual, "a3")
				So(hist[2].ID, ShouldEqual, "a1")
			})
		})
	})
}
