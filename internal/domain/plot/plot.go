// Package plot projects candidate rows onto a 2D scatter.
package plot

import (
	"slices"
	"sort"
	"strings"

	"github.com/okian/frbviewer/internal/domain/model"
)

// Point is one scatter marker.
type Point struct {
	X     float64
	Y     float64
	Label string
}

// Axes are the selected x and y columns.
type Axes struct {
	X string
	Y string
}

// NumericColumns returns the numeric columns of the first row, with mag and
// pox leading and the rest sorted by name.
func NumericColumns(rows []model.Candidate) []string {
	if len(rows) == 0 {
		return nil
	}
	cols := rows[0].NumericKeys()
	sort.Slice(cols, func(i, j int) bool {
		ri, rj := columnRank(cols[i]), columnRank(cols[j])
		if ri != rj {
			return ri < rj
		}
		return cols[i] < cols[j]
	})
	return cols
}

func columnRank(c string) int {
	switch c {
	case model.ColMagnitude:
		return 0
	case model.ColProbability:
		return 1
	default:
		return 2
	}
}

// DefaultAxes picks a magnitude-like x and a probability-like y, falling back
// to the first two columns, or the single column on both axes.
func DefaultAxes(cols []string) (Axes, bool) {
	switch len(cols) {
	case 0:
		return Axes{}, false
	case 1:
		return Axes{X: cols[0], Y: cols[0]}, true
	}

	x := magnitudeColumn(cols)
	y := probabilityColumn(cols, x)
	if x == "" || y == "" {
		return Axes{X: cols[0], Y: cols[1]}, true
	}
	return Axes{X: x, Y: y}, true
}

// magnitudeColumn returns mag if present, else the first column mentioning mag.
func magnitudeColumn(cols []string) string {
	if slices.Contains(cols, model.ColMagnitude) {
		return model.ColMagnitude
	}
	for _, c := range cols {
		if strings.Contains(strings.ToLower(c), "mag") {
			return c
		}
	}
	return ""
}

// probabilityColumns are preferred in order: posterior, likelihood, prior.
var probabilityColumns = []string{model.ColProbability, model.ColPxO, model.ColPriorO}

// probabilityColumn returns the first known probability column, else the
// first column named p or prefixed p_. skip is never returned.
func probabilityColumn(cols []string, skip string) string {
	for _, want := range probabilityColumns {
		if want != skip && slices.Contains(cols, want) {
			return want
		}
	}
	for _, c := range cols {
		lc := strings.ToLower(c)
		if c != skip && (lc == "p" || strings.HasPrefix(lc, "p_")) {
			return c
		}
	}
	return ""
}

// Project returns one point per row carrying both columns. Rows missing
// either are dropped.
func Project(rows []model.Candidate, axes Axes) []Point {
	out := make([]Point, 0, len(rows))
	for i := range rows {
		x, ok := rows[i].Field(axes.X)
		if !ok {
			continue
		}
		y, ok := rows[i].Field(axes.Y)
		if !ok {
			continue
		}
		out = append(out, Point{X: x, Y: y, Label: Label(&rows[i])})
	}
	return out
}

// Label is the hover text of a row's marker.
func Label(c *model.Candidate) string {
	return c.EventID + " #" + c.CandidateID
}
