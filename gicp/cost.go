// Package gicp implements the generalized-ICP residual system (spec
// §4.4, §4.5): per-match Mahalanobis point-to-point residuals combined
// with an optional preintegrated-IMU residual, evaluated in parallel and
// fed to an externally driven Gauss-Newton-style solver.
package gicp

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/liodom-robotics/lio/grid"
	"github.com/liodom-robotics/lio/inertial"
)

// Cost is the shared contract of the two GICP cost variants (spec §9:
// "model as a sealed set {Rigid, Linear} with a shared trait ... avoid
// inheritance hierarchies; keep per-variant state by composition").
type Cost interface {
	UpdateMatches(g *grid.SweepGrid)
	UpdatePreint(traj *inertial.Trajectory) error
	NumResiduals() int
	NumParameters() int
	Evaluate(x []float64, r []float64, jac *mat.Dense) bool
	UpdateTraj(traj *inertial.Trajectory, x []float64)
}

type matchEntry struct {
	Px   grid.Px
	Cell *grid.Cell
}

// base holds the state common to both variants: the current good
// matches borrowed from the grid, and the preintegration borrowed from
// the trajectory (spec §3's ownership note: "the cost functor borrows
// both SweepGrid and Trajectory for the duration of a solve").
type base struct {
	Params  CostParams
	Grid    *grid.SweepGrid
	Traj    *inertial.Trajectory
	matches []matchEntry
	Preint  *inertial.ImuPreintegration
	hasImu  bool
}

func newBase(params CostParams) base {
	return base{Params: params, Preint: inertial.NewImuPreintegration()}
}

// UpdateMatches collects every Ok() cell across the grid into the match
// list the next Evaluate call will iterate (spec §6,
// GicpCost::UpdateMatches).
func (b *base) UpdateMatches(g *grid.SweepGrid) {
	b.Grid = g
	b.matches = b.matches[:0]
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			px := grid.Px{C: c, R: r}
			cell := g.CellAt(px)
			if cell.Ok() {
				b.matches = append(b.matches, matchEntry{Px: px, Cell: cell})
			}
		}
	}
}

// UpdatePreint preintegrates the trajectory's IMU queue across its
// endpoints (spec §6, GicpCost::UpdatePreint). If no IMU sample is
// available in the window, the inertial residual is skipped for this
// solve and GICP-only residuals proceed (spec §7, InsufficientIMU).
func (b *base) UpdatePreint(traj *inertial.Trajectory) error {
	b.Traj = traj
	err := b.Preint.Compute(traj.Queue, traj.Front().Time, traj.Back().Time, traj.Noise, traj.Bias)
	b.hasImu = err == nil
	if err != nil {
		return err
	}
	return nil
}

// NumResiduals is 3 per match, plus 6 if the inertial residual is live.
func (b *base) NumResiduals() int {
	n := 3 * len(b.matches)
	if b.hasImu {
		n += 6
	}
	return n
}

// NumParameters is fixed at 6: the (r0,p0) perturbation (spec §6).
func (b *base) NumParameters() int { return 6 }

func (b *base) gsize() int { return b.Params.GSize }

// whiten applies a 3x3 upper-triangular sqrt-info factor to a residual
// vector: U*res.
func whiten(u *mat.TriDense, res r3.Vector) r3.Vector {
	v := mat.NewVecDense(3, []float64{res.X, res.Y, res.Z})
	var out mat.VecDense
	out.MulVec(u, v)
	return r3.Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// setJacBlock3 writes a 3x3 dense block into jac at (row0, col0).
func setJacBlock3(jac *mat.Dense, row0, col0 int, src mat.Matrix) {
	jac.Slice(row0, row0+3, col0, col0+3).(*mat.Dense).Copy(src)
}

// alphaThetaBlocks extracts the four 3x3 sub-blocks of the
// preintegration's 15x15 sqrt-info U that couple the alpha and theta
// (rotation error) channels (spec §4.4: "block structure [U_α U_{αθ};
// 0 U_θ]"), used to whiten the stacked (r_alpha, r_gamma) inertial
// residual.
func alphaThetaBlocks(u *mat.TriDense) (uAA, uAT, uTT *mat.Dense) {
	block := func(r0, c0 int) *mat.Dense {
		m := mat.NewDense(3, 3, nil)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				m.Set(i, j, u.At(r0+i, c0+j))
			}
		}
		return m
	}
	return block(0, 0), block(0, 6), block(6, 6)
}
