package grid

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/liodom-robotics/lio/spatialmath"
)

// SweepGrid partitions a sweep into (cols x rows) rectangular cells, scores
// each cell's curvature, applies threshold+NMS filtering, and tracks the
// per-column-boundary poses used to interpolate a cell-center pose (spec
// §4.1). It owns its cells and its boundary poses, and is reused across
// sweeps (spec §3's SweepGrid ownership/lifecycle note).
type SweepGrid struct {
	Params Params

	rows, cols int // grid dimensions; cols*CellCols == sweep width
	score      []float64
	cells      []Cell
	tfs        []spatialmath.Pose // len == cols+1

	colRg ColRange // active window, in grid-cell coordinates, advances circularly
}

// NewSweepGrid builds a grid over a sweep of the given pixel size.
func NewSweepGrid(sweepRows, sweepCols int, params Params) (*SweepGrid, error) {
	if sweepCols%params.CellCols != 0 || sweepRows%params.CellRows != 0 {
		return nil, errors.Wrapf(ErrInvariantViolation,
			"sweep size %dx%d not divisible by cell size %dx%d", sweepRows, sweepCols, params.CellRows, params.CellCols)
	}
	cols := sweepCols / params.CellCols
	rows := sweepRows / params.CellRows

	score := make([]float64, rows*cols)
	for i := range score {
		score[i] = math.NaN()
	}
	tfs := make([]spatialmath.Pose, cols+1)
	for i := range tfs {
		tfs[i] = spatialmath.IdentityPose()
	}

	return &SweepGrid{
		Params: params,
		rows:   rows,
		cols:   cols,
		score:  score,
		cells:  make([]Cell, rows*cols),
		tfs:    tfs,
	}, nil
}

// Rows, Cols return the grid's cell-grid dimensions.
func (g *SweepGrid) Rows() int { return g.rows }
func (g *SweepGrid) Cols() int { return g.cols }

// Tfs exposes the cell-boundary pose slice for callers (e.g. the
// predictor) that need to populate it; length is Cols()+1.
func (g *SweepGrid) Tfs() []spatialmath.Pose { return g.tfs }

// SetTf sets the i'th cell-boundary pose.
func (g *SweepGrid) SetTf(i int, t spatialmath.Pose) { g.tfs[i] = t }

func (g *SweepGrid) idx(px Px) int {
	c := ((px.C % g.cols) + g.cols) % g.cols // circular wraparound (spec §3: "col_rg advances circularly")
	return px.R*g.cols + c
}

// ScoreAt returns the score at a grid pixel. Columns wrap circularly;
// rows outside [0,Rows()) panic, matching the original's CHECK-style
// bounds enforcement on invariants the caller is responsible for.
func (g *SweepGrid) ScoreAt(px Px) float64 { return g.score[g.idx(px)] }

// CellAt returns a pointer to the cell at a grid pixel, for read or
// in-place mutation by the matcher.
func (g *SweepGrid) CellAt(px Px) *Cell { return &g.cells[g.idx(px)] }

// check validates the scan slice against spec §7's InvariantViolation
// triggers: row mismatch, or a column range that doesn't begin exactly
// where the previous slice ended (mod grid width).
func (g *SweepGrid) check(scan *LidarScan) error {
	if scan.Rows != g.rows*g.Params.CellRows {
		return errors.Wrapf(ErrInvariantViolation, "scan rows %d != grid rows %d", scan.Rows, g.rows*g.Params.CellRows)
	}
	if scan.ColRg.Size()%g.Params.CellCols != 0 {
		return errors.Wrapf(ErrInvariantViolation, "scan col span %d not a multiple of cell width %d", scan.ColRg.Size(), g.Params.CellCols)
	}
	sweepWidth := g.cols * g.Params.CellCols
	wantStart := (g.colRg.End * g.Params.CellCols) % sweepWidth
	if scan.ColRg.Start != wantStart {
		return errors.Wrapf(ErrInvariantViolation, "scan start %d != expected %d", scan.ColRg.Start, wantStart)
	}
	if scan.ColRg.End > sweepWidth {
		return errors.Wrapf(ErrInvariantViolation, "scan end %d exceeds sweep width %d", scan.ColRg.End, sweepWidth)
	}
	return nil
}

// Add validates the scan slice, scores it, and filters it, returning the
// (scored, filtered) cell counts (spec §2 step 1-2, §4.1 Add).
func (g *SweepGrid) Add(scan *LidarScan, gsize int) (int, int, error) {
	if err := g.check(scan); err != nil {
		return 0, 0, err
	}
	n1 := g.Score(scan, gsize)
	n2, err := g.Filter(scan, gsize)
	if err != nil {
		return n1, 0, err
	}
	return n1, n2, nil
}

// Score computes per-cell curvature for the active window of scan,
// parallelized over rows (spec §4.1 Score, §5 concurrency).
func (g *SweepGrid) Score(scan *LidarScan, gsize int) int {
	g.colRg = ColRange{Start: scan.ColRg.Start / g.Params.CellCols, End: scan.ColRg.End / g.Params.CellCols}
	width := g.colRg.Size()
	cellCols, cellRows := g.Params.CellCols, g.Params.CellRows

	return parallelReduce(g.rows, gsize, func(rBegin, rEnd int) int {
		n := 0
		for r := rBegin; r < rEnd; r++ {
			for c := 0; c < width; c++ {
				curve := scan.CurveAt(r*cellRows, c*cellCols, cellCols)
				g.score[g.idx(Px{C: g.colRg.Start + c, R: r})] = curve
				if !math.IsNaN(curve) {
					n++
				}
			}
		}
		return n
	})
}

// Filter thresholds and optionally NMS-filters the scores computed by the
// most recent Score call, populating mc_g for each surviving cell (spec
// §4.1 Filter). Filter must be called with the same scan (same col_rg)
// that was just Scored.
func (g *SweepGrid) Filter(scan *LidarScan, gsize int) (int, error) {
	newRg := ColRange{Start: scan.ColRg.Start / g.Params.CellCols, End: scan.ColRg.End / g.Params.CellCols}
	if newRg != g.colRg {
		return 0, errors.Wrapf(ErrInvariantViolation, "Filter called with col_rg %+v, Score set %+v", newRg, g.colRg)
	}
	width := g.colRg.Size()
	cellCols, cellRows := g.Params.CellCols, g.Params.CellRows
	pad := 0
	if g.Params.NMS {
		pad = 1
	}

	n := parallelReduce(g.rows, gsize, func(rBegin, rEnd int) int {
		n := 0
		for r := rBegin; r < rEnd; r++ {
			for c := 0; c < width; c++ {
				pxg := Px{C: g.colRg.Start + c, R: r}
				cell := g.CellAt(pxg)
				if pad <= c && c < width-pad && g.isCellGood(pxg) {
					scan.MeanCovarAt(r*cellRows, c*cellCols, cellRows, cellCols, &cell.MeanG)
					cell.PxG = pxg
					cell.good = true
					n++
				} else {
					cell.Reset()
				}
			}
		}
		return n
	})
	return n, nil
}

// isCellGood applies the threshold and (if enabled) the NMS check (spec
// §4.1 Filter): score < max_score AND score <= both neighbors, NaN
// neighbors counted as +inf.
func (g *SweepGrid) isCellGood(px Px) bool {
	s := g.ScoreAt(px)
	if !(s < g.Params.MaxScore) {
		return false
	}
	if g.Params.NMS {
		left := orInf(g.ScoreAt(Px{C: px.C - 1, R: px.R}))
		right := orInf(g.ScoreAt(Px{C: px.C + 1, R: px.R}))
		if s > left || s > right {
			return false
		}
	}
	return true
}

func orInf(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

// CellTfAt returns the cell-center pose for grid column c, SLERP-ing the
// boundary rotations at s=0.5 and averaging the boundary translations
// (spec §4.1 CellTfAt).
func (g *SweepGrid) CellTfAt(c int) spatialmath.Pose {
	return spatialmath.AveragePose(g.tfs[c], g.tfs[c+1])
}

// TfAt is an alias for CellTfAt matching the cost functor's `T_p_g(c)`
// lookup (spec §4.4).
func (g *SweepGrid) TfAt(c int) spatialmath.Pose { return g.CellTfAt(c) }

// InterpSweepPoses linearly interpolates rotation (via SLERP) and
// translation between consecutive grid boundary poses across each cell's
// w_c sub-columns, writing into sweepTfs (spec §4.1 InterpSweepPoses).
// Precondition: len(sweepTfs) == Cols()*CellCols.
func (g *SweepGrid) InterpSweepPoses(sweepTfs []spatialmath.Pose, gsize int) error {
	want := g.cols * g.Params.CellCols
	if len(sweepTfs) != want {
		return errors.Wrapf(ErrInvariantViolation, "sweepTfs length %d != %d", len(sweepTfs), want)
	}
	cellCols := g.Params.CellCols

	parallelFor(g.cols, gsize, func(begin, end int) {
		for i := begin; i < end; i++ {
			t0, t1 := g.tfs[i], g.tfs[i+1]
			for j := 0; j < cellCols; j++ {
				s := float64(j) / float64(cellCols)
				sweepTfs[i*cellCols+j] = spatialmath.InterpolatePose(t0, t1, s)
			}
		}
	})
	return nil
}

// MatchAt returns the cell at a grid pixel for the matcher to read/update.
func (g *SweepGrid) MatchAt(px Px) *Cell { return g.CellAt(px) }

func (g *SweepGrid) String() string {
	return fmt.Sprintf("SweepGrid(%dx%d cells, %s)", g.cols, g.rows, g.Params)
}
