package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/liodom-robotics/lio/spatialmath"
)

func mkScan(t0, dt float64, rows int, colRg ColRange, rangeFn func(r, c int) float64) *LidarScan {
	s := NewLidarScan(t0, dt, rows, colRg)
	for r := 0; r < rows; r++ {
		for c := 0; c < colRg.Size(); c++ {
			rng := rangeFn(r, c)
			p := r3.Vector{X: rng, Y: float64(c), Z: float64(r)}
			s.Set(r, c, p, rng)
		}
	}
	return s
}

// TestGridPartition: Score produces exactly nrows*ncols_active cells, and
// Filter leaves a subset (spec §8, "Grid partition").
func TestGridPartition(t *testing.T) {
	params := Params{CellRows: 2, CellCols: 4, MaxScore: 0.8, NMS: false}
	g, err := NewSweepGrid(4, 16, params) // 2 rows x 4 cols of cells
	test.That(t, err, test.ShouldBeNil)

	scan := mkScan(0, 0.01, 4, ColRange{Start: 0, End: 16}, func(r, c int) float64 { return 10 })
	nScored, nFiltered, err := g.Add(scan, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nScored, test.ShouldEqual, 2*4)
	test.That(t, nFiltered <= nScored, test.ShouldBeTrue)
}

// TestNMSMonotonicity: a strictly convex score row has exactly one cell
// survive NMS (spec §8, "NMS monotonicity").
func TestNMSMonotonicity(t *testing.T) {
	params := Params{CellRows: 1, CellCols: 4, MaxScore: 1000, NMS: true}
	// 7 cells in one row, score row is strictly convex (min at index 3).
	scores := []float64{9, 7, 5, 1, 5, 7, 9}
	ncols := len(scores)

	g, err := NewSweepGrid(1, ncols*4, params)
	test.That(t, err, test.ShouldBeNil)

	// Craft ranges so the centered finite difference reproduces `scores`
	// exactly: (left+right-2*mid)/mid squared == target, with mid fixed at 1.
	scan := NewLidarScan(0, 0.01, 1, ColRange{Start: 0, End: ncols * 4})
	for c := 0; c < ncols; c++ {
		mid := 1.0
		delta := math.Sqrt(scores[c]) * mid
		edge := mid + delta/2
		for j := 0; j < 4; j++ {
			rng := mid
			if j == 0 || j == 3 {
				rng = edge
			}
			scan.Set(0, c*4+j, r3.Vector{X: rng}, rng)
		}
	}

	_, nFiltered, err := g.Add(scan, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nFiltered, test.ShouldEqual, 1)
	test.That(t, g.CellAt(Px{C: 3, R: 0}).good, test.ShouldBeTrue)
}

// TestInterpolationEndpoint: InterpSweepPoses reproduces the exact
// boundary pose at each cell's first sub-column (spec §8, "Interpolation
// endpoint").
func TestInterpolationEndpoint(t *testing.T) {
	params := Params{CellRows: 1, CellCols: 4, MaxScore: 1, NMS: false}
	g, err := NewSweepGrid(1, 12, params) // 3 cells
	test.That(t, err, test.ShouldBeNil)

	for i := range g.tfs {
		g.tfs[i] = spatialmath.NewPose(spatialmath.Identity(), r3.Vector{X: float64(i)})
	}

	sweepTfs := make([]spatialmath.Pose, 12)
	err = g.InterpSweepPoses(sweepTfs, 0)
	test.That(t, err, test.ShouldBeNil)

	for i := 0; i < 3; i++ {
		got := sweepTfs[i*4]
		test.That(t, got.Position.X, test.ShouldAlmostEqual, float64(i), 1e-9)
	}
}

// TestSliceBoundaryWrapAround: three slices tiling the sweep pass the
// boundary check; a fourth, off-boundary slice raises InvariantViolation
// (spec §8, scenario 6).
func TestSliceBoundaryWrapAround(t *testing.T) {
	params := Params{CellRows: 1, CellCols: 4, MaxScore: 1000, NMS: false}
	g, err := NewSweepGrid(1, 24, params) // 6 cols of cells, sweep width 24
	test.That(t, err, test.ShouldBeNil)

	ranges := []ColRange{{Start: 0, End: 8}, {Start: 8, End: 16}, {Start: 16, End: 24}}
	for _, rg := range ranges {
		scan := mkScan(0, 0.01, 1, rg, func(r, c int) float64 { return 10 })
		_, _, err := g.Add(scan, 0)
		test.That(t, err, test.ShouldBeNil)
	}

	// A fourth slice should wrap back to column 0; give it an off-boundary
	// start instead and expect rejection.
	bad := mkScan(0, 0.01, 1, ColRange{Start: 4, End: 12}, func(r, c int) float64 { return 10 })
	_, _, err = g.Add(bad, 0)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrInvariantViolation), test.ShouldBeTrue)
}
