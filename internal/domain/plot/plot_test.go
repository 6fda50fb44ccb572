package plot_test

import (
	"testing"

	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/internal/domain/plot"
	. "github.com/smartystreets/goconvey/convey"
)

func row(id string, fields map[string]float64) model.Candidate {
	return model.Candidate{EventID: "E1", CandidateID: id, Fields: fields}
}

func TestNumericColumns(t *testing.T) {
	Convey("Given candidate rows", t, func() {
		Convey("When the first row has several numeric columns", func() {
			rows := []model.Candidate{
				row("1", map[string]float64{"z_spec": 0.1, "pox": 0.5, "po": 0.2, "mag": 21}),
				row("2", map[string]float64{"extra": 1}),
			}

			Convey("Then mag and pox lead and only the first row counts", func() {
				So(plot.NumericColumns(rows), ShouldResemble, []string{"mag", "pox", "po", "z_spec"})
			})
		})

		Convey("When there are no rows", func() {
			Convey("Then there are no columns", func() {
				So(plot.NumericColumns(nil), ShouldBeEmpty)
			})
		})
	})
}

func TestDefaultAxes(t *testing.T) {
	Convey("Given discovered columns", t, func() {
		Convey("When mag and pox exist", func() {
			axes, ok := plot.DefaultAxes([]string{"mag", "pox", "po"})
			So(ok, ShouldBeTrue)
			So(axes, ShouldResemble, plot.Axes{X: "mag", Y: "pox"})
		})

		Convey("When only look-alike columns exist", func() {
			axes, _ := plot.DefaultAxes([]string{"r_mag", "z", "p_host"})
			So(axes, ShouldResemble, plot.Axes{X: "r_mag", Y: "p_host"})
		})

		Convey("When pox is absent and z_phot sorts before pxo", func() {
			axes, _ := plot.DefaultAxes([]string{"mag", "po_adj", "sep", "z_phot", "pxo"})
			So(axes, ShouldResemble, plot.Axes{X: "mag", Y: "pxo"})
		})

		Convey("When no probability column exists", func() {
			axes, _ := plot.DefaultAxes([]string{"mag", "sep", "z_phot"})
			So(axes, ShouldResemble, plot.Axes{X: "mag", Y: "sep"})
		})

		Convey("When nothing looks like magnitude", func() {
			axes, _ := plot.DefaultAxes([]string{"sep", "z_spec"})
			So(axes, ShouldResemble, plot.Axes{X: "sep", Y: "z_spec"})
		})

		Convey("When a single column exists", func() {
			axes, ok := plot.DefaultAxes([]string{"sep"})
			So(ok, ShouldBeTrue)
			So(axes, ShouldResemble, plot.Axes{X: "sep", Y: "sep"})
		})

		Convey("When no column exists", func() {
			_, ok := plot.DefaultAxes(nil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestProject(t *testing.T) {
	Convey("Given rows with missing values", t, func() {
		rows := []model.Candidate{
			row("1", map[string]float64{"mag": 20, "pox": 0.9}),
			row("2", map[string]float64{"mag": 21}),
			row("3", map[string]float64{"pox": 0.1}),
			row("4", map[string]float64{"mag": 22, "pox": 0.3}),
		}

		Convey("When projecting mag against pox", func() {
			points := plot.Project(rows, plot.Axes{X: "mag", Y: "pox"})

			Convey("Then incomplete rows are dropped silently", func() {
				So(points, ShouldResemble, []plot.Point{
					{X: 20, Y: 0.9, Label: "E1 #1"},
					{X: 22, Y: 0.3, Label: "E1 #4"},
				})
			})

			Convey("Then projecting again gives the same points", func() {
				So(plot.Project(rows, plot.Axes{X: "mag", Y: "pox"}), ShouldResemble, points)
			})
		})
	})
}
