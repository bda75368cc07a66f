package describe_test

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/admitly/internal/domain/describe"
)

func TestDescribe(t *testing.T) {
	convey.Convey("Given an English description", t, func() {
		convey.Convey("When the percentile is 0.95", func() {
			d := describe.Describe(0.95, 10000)

			convey.Convey("Then it should read as the top 5%", func() {
				convey.So(d.PercentilePct, convey.ShouldEqual, 95)
				convey.So(d.BandPhrase, convey.ShouldEqual, "Top 5%")
				convey.So(d.StrongerThan, convey.ShouldEqual, 9500)
				convey.So(d.WeakerThan, convey.ShouldEqual, 500)
				convey.So(d.NApplicants, convey.ShouldEqual, 10000)
				convey.So(d.Statement, convey.ShouldEqual, "Stronger than 9,500 of 10,000 applicants")
				convey.So(d.Locale, convey.ShouldEqual, describe.English)
			})
		})

		convey.Convey("When the percentile is 0.30", func() {
			d := describe.Describe(0.30, 10000)

			convey.Convey("Then the band should use the complement", func() {
				convey.So(d.PercentilePct, convey.ShouldEqual, 30)
				convey.So(d.BandPhrase, convey.ShouldEqual, "Bottom 70%")
				convey.So(d.StrongerThan, convey.ShouldEqual, 3000)
			})
		})

		convey.Convey("When the percentile sits exactly on the boundary", func() {
			convey.Convey("Then 50 should be a top band", func() {
				convey.So(describe.Describe(0.5, 0).BandPhrase, convey.ShouldEqual, "Top 50%")
				convey.So(describe.Describe(0.494, 0).BandPhrase, convey.ShouldEqual, "Bottom 51%")
			})
		})

		convey.Convey("When stronger-than needs rounding", func() {
			d := describe.Describe(0.6234, 10000)

			convey.Convey("Then it should round to the nearest ten", func() {
				convey.So(d.StrongerThan, convey.ShouldEqual, 6230)
				convey.So(d.WeakerThan, convey.ShouldEqual, 3770)
				convey.So(d.StrongerThan+d.WeakerThan, convey.ShouldEqual, d.NApplicants)
			})
		})

		convey.Convey("When the applicant pool is not positive", func() {
			d := describe.Describe(0.1, -5)

			convey.Convey("Then the default pool should be used", func() {
				convey.So(d.NApplicants, convey.ShouldEqual, describe.DefaultApplicants)
				convey.So(d.StrongerThan, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When the percentile is at the extremes", func() {
			convey.Convey("Then it should cover the whole pool", func() {
				convey.So(describe.Describe(1, 200).StrongerThan, convey.ShouldEqual, 200)
				convey.So(describe.Describe(1, 200).BandPhrase, convey.ShouldEqual, "Top 0%")
				convey.So(describe.Describe(0, 200).WeakerThan, convey.ShouldEqual, 200)
				convey.So(describe.Describe(0, 200).BandPhrase, convey.ShouldEqual, "Bottom 100%")
			})
		})
	})
}

func TestDescribeKorean(t *testing.T) {
	convey.Convey("Given a Korean description", t, func() {
		convey.Convey("When the percentile is 0.95", func() {
			d := describe.DescribeKorean(0.95, 10000)

			convey.Convey("Then it should use the upper band phrase", func() {
				convey.So(d.BandPhrase, convey.ShouldEqual, "상위 5%")
				convey.So(d.Statement, convey.ShouldEqual, "지원자 10,000명 중 9,500명보다 경쟁력이 높습니다")
				convey.So(d.Locale, convey.ShouldEqual, describe.Korean)
			})
		})

		convey.Convey("When the percentile is 0.30", func() {
			d := describe.In(describe.Korean, 0.30, 10000)

			convey.Convey("Then it should use the lower band phrase", func() {
				convey.So(d.BandPhrase, convey.ShouldEqual, "하위 70%")
				convey.So(d.StrongerThan, convey.ShouldEqual, 3000)
			})
		})

		convey.Convey("When an unknown locale is requested", func() {
			d := describe.In(describe.Locale("fr"), 0.95, 10000)

			convey.Convey("Then English should be used", func() {
				convey.So(d.Locale, convey.ShouldEqual, describe.English)
				convey.So(d.BandPhrase, convey.ShouldEqual, "Top 5%")
			})
		})
	})
}

func TestLocale(t *testing.T) {
	convey.Convey("Given locale parsing", t, func() {
		convey.Convey("When the tag carries a region", func() {
			convey.Convey("Then the base language should decide", func() {
				for in, want := range map[string]describe.Locale{
					"":      describe.English,
					"en":    describe.English,
					"en-US": describe.English,
					"ko":    describe.Korean,
					"ko-KR": describe.Korean,
				} {
					got, err := describe.ParseLocale(in)
					convey.So(err, convey.ShouldBeNil)
					convey.So(got, convey.ShouldEqual, want)
				}
			})
		})

		convey.Convey("When the tag is unsupported or malformed", func() {
			convey.Convey("Then it should fail", func() {
				for _, in := range []string{"fr", "ja-JP", "not a tag!"} {
					_, err := describe.ParseLocale(in)
					convey.So(errors.Is(err, describe.ErrUnsupportedLocale), convey.ShouldBeTrue)
				}
			})
		})

		convey.Convey("When matching an Accept-Language header", func() {
			convey.Convey("Then the preferred supported language should win", func() {
				convey.So(describe.MatchLocale("ko-KR,ko;q=0.9,en;q=0.8"), convey.ShouldEqual, describe.Korean)
				convey.So(describe.MatchLocale("en-GB,en;q=0.9"), convey.ShouldEqual, describe.English)
				convey.So(describe.MatchLocale(""), convey.ShouldEqual, describe.English)
				convey.So(describe.MatchLocale("ja"), convey.ShouldEqual, describe.English)
			})
		})
	})
}
