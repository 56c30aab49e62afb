package pano

import (
	"fmt"
	"math"

	"github.com/liodom-robotics/lio/grid"
)

// Params configures the Matcher (spec §6, MatcherParams): the pixel
// half-window searched around a projected point, the minimum reference
// point count required ("min_dist" per the original's naming, spec §4.6
// "require mc_p.n points above threshold"), and the allowed fractional
// range discrepancy between query and reference.
type Params struct {
	HalfRows   int
	MinDist    float64
	RangeRatio float64
}

// DefaultParams mirrors the original node's ROS matcher parameter
// defaults.
func DefaultParams() Params {
	return Params{HalfRows: 2, MinDist: 3, RangeRatio: 0.1}
}

func (p Params) String() string {
	return fmt.Sprintf("MatcherParams(half_rows=%d, min_dist=%.2f, range_ratio=%.3f)", p.HalfRows, p.MinDist, p.RangeRatio)
}

// Matcher projects every good grid cell into the panorama and looks up a
// local reference mean/covariance, populating mc_p/U on success or
// resetting the cell on failure (spec §4.6).
type Matcher struct {
	Params Params
}

// NewMatcher returns a matcher with the given parameters.
func NewMatcher(params Params) *Matcher {
	return &Matcher{Params: params}
}

// Match iterates every good cell of g, projects its sweep-frame mean
// through the predicted cell-center pose, and attempts a panorama match.
// It returns the number of cells that matched successfully.
func (m *Matcher) Match(g *grid.SweepGrid, dp DepthPano) int {
	n := 0
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			px := grid.Px{C: c, R: r}
			cell := g.CellAt(px)
			if !cell.Good() {
				continue
			}
			if m.matchOne(g, cell, c, dp) {
				n++
			} else {
				cell.Reset()
			}
		}
	}
	return n
}

func (m *Matcher) matchOne(g *grid.SweepGrid, cell *grid.Cell, col int, dp DepthPano) bool {
	tfc := g.CellTfAt(col)
	ptPano := tfc.Apply(cell.MeanG.Mean)

	panoPx, ok := dp.Project(ptPano)
	if !ok {
		return false
	}

	meanP, ok := dp.MatchCell(panoPx, m.Params.HalfRows)
	if !ok || float64(meanP.N) < m.Params.MinDist {
		return false
	}

	queryRange := ptPano.Norm()
	panoRange := meanP.Mean.Norm()
	if queryRange == 0 || math.Abs(panoRange-queryRange) > m.Params.RangeRatio*queryRange {
		return false
	}

	u, ok := grid.SqrtInfoUtU(&meanP.Covar, &cell.MeanG.Covar)
	if !ok {
		return false
	}

	cell.SetMatch(meanP, u)
	return true
}
