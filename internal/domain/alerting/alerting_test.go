package alerting_test

import (
	"testing"

	alerting "github.com/okian/crease/internal/domain/alerting"
	"github.com/okian/crease/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func record(player, kind, value string) model.PerformanceRecord {
	return model.PerformanceRecord{PlayerName: player, MatchDate: "2024-03-01", PerformanceType: kind, PerformanceValue: value}
}

func TestAnalyzer_Analyze(t *testing.T) {
	Convey("Given an analyzer with default thresholds", t, func() {
		a := alerting.NewAnalyzer()

		Convey("When a batting value exceeds the strike rate threshold", func() {
			out := a.Analyze(record("P1", "batting", "160"))

			Convey("Then a high strike rate alert should be produced", func() {
				So(out, ShouldResemble, []string{"High Strike Rate by P1 (160.0)"})
			})
		})

		Convey("When a batting value equals the threshold", func() {
			Convey("Then no alert should be produced", func() {
				So(a.Analyze(record("P1", "batting", "150")), ShouldBeEmpty)
			})
		})

		Convey("When a bowling value is below the economy threshold", func() {
			out := a.Analyze(record("P2", "Bowling", "3.2"))

			Convey("Then a good bowling alert should be produced", func() {
				So(out, ShouldResemble, []string{"Good Bowling by P2 (Economy 3.2)"})
			})
		})

		Convey("When a bowling value is not numeric", func() {
			Convey("Then no alert should be produced", func() {
				So(a.Analyze(record("P2", "bowling", "abc")), ShouldBeEmpty)
			})
		})

		Convey("When a fielding value is a positive count", func() {
			out := a.Analyze(record("P3", "fielding", "2.7"))

			Convey("Then the count should be truncated", func() {
				So(out, ShouldResemble, []string{"Missed Fielding Opportunity by P3 (2 missed)"})
			})
		})

		Convey("When a fielding value is zero", func() {
			Convey("Then no alert should be produced", func() {
				So(a.Analyze(record("P3", "fielding", "0")), ShouldBeEmpty)
			})
		})

		Convey("When a fielding value mentions a miss", func() {
			out := a.Analyze(record("P3", "fielding", "Missed catch"))

			Convey("Then a reported alert should be produced", func() {
				So(out, ShouldResemble, []string{"Missed Fielding Opportunity by P3 (reported)"})
			})
		})

		Convey("When the player name is empty", func() {
			out := a.Analyze(record("", "batting", "200"))

			Convey("Then the player should be reported as Unknown", func() {
				So(out, ShouldResemble, []string{"High Strike Rate by Unknown (200.0)"})
			})
		})
	})

	Convey("Given an analyzer with custom thresholds", t, func() {
		a := alerting.NewAnalyzer(
			alerting.WithStrikeRateThreshold(100),
			alerting.WithEconomyThreshold(4),
		)

		Convey("Then the custom thresholds should apply", func() {
			So(a.Analyze(record("P1", "batting", "120")), ShouldHaveLength, 1)
			So(a.Analyze(record("P2", "bowling", "5")), ShouldBeEmpty)
		})
	})
}

func TestFormatNumber(t *testing.T) {
	Convey("Given numbers of different magnitudes", t, func() {
		So(alerting.FormatNumber(160), ShouldEqual, "160.0")
		So(alerting.FormatNumber(3.25), ShouldEqual, "3.25")
		So(alerting.FormatNumber(0), ShouldEqual, "0.0")
		So(alerting.FormatNumber(-2), ShouldEqual, "-2.0")
		So(alerting.FormatNumber(1e20), ShouldEqual, "1e+20")
	})
}
