// Package engine wires the Sweep Grid, Trajectory, GICP cost, solver
// driver, and panorama matcher into the per-slice pipeline described by
// spec §2: ScoreGrid -> FilterGrid -> PredictTrajectory -> MatchPano ->
// Preintegrate -> Solve -> UpdateTrajectory -> IngestSweep. Everything
// below the pipeline sequencing itself (transport, CLI, decoding) stays
// out of scope; this package is the one driver thread spec §5 describes.
package engine

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/liodom-robotics/lio/gicp"
	"github.com/liodom-robotics/lio/grid"
	"github.com/liodom-robotics/lio/inertial"
	"github.com/liodom-robotics/lio/pano"
	"github.com/liodom-robotics/lio/spatialmath"
)

// Engine owns one sweep's worth of pipeline state and is reused across
// sweeps, mirroring SweepGrid's own reuse lifecycle (spec §3).
type Engine struct {
	cfg    Config
	logger golog.Logger

	Grid    *grid.SweepGrid
	Traj    *inertial.Trajectory
	Pano    pano.DepthPano
	Matcher *pano.Matcher
	Cost    gicp.Cost
	Solver  gicp.SolverDriver

	sweepWidth  int
	sweepPoints [][]r3.Vector
}

// New builds an engine over a sweep of the given pixel shape.
func New(cfg Config, sweepRows, sweepCols int, logger golog.Logger) (*Engine, error) {
	g, err := grid.NewSweepGrid(sweepRows, sweepCols, cfg.Grid)
	if err != nil {
		return nil, errors.Wrap(err, "engine: building sweep grid")
	}

	queue := inertial.NewQueue()
	traj := inertial.NewTrajectory(cfg.TrajSize, queue, cfg.Noise)

	var cost gicp.Cost
	switch cfg.Variant {
	case VariantLinear:
		cost = gicp.NewLinearCost(cfg.Cost)
	default:
		cost = gicp.NewRigidCost(cfg.Cost)
	}

	return &Engine{
		cfg:         cfg,
		logger:      logger,
		Grid:        g,
		Traj:        traj,
		Pano:        pano.NewGridPano(cfg.PanoCols, cfg.PanoRows, cfg.PanoHfov),
		Matcher:     pano.NewMatcher(cfg.Matcher),
		Cost:        cost,
		Solver:      gicp.NewGaussNewtonSolver(),
		sweepWidth:  sweepCols,
		sweepPoints: make([][]r3.Vector, sweepCols),
	}, nil
}

// PushImu feeds one IMU sample into the trajectory's queue.
func (e *Engine) PushImu(s inertial.Sample) {
	e.Traj.Queue.Push(s)
}

// InitGravity and InitExtrinsic forward to the trajectory (spec §4.2),
// run once before the first slice arrives.
func (e *Engine) InitGravity() bool { return e.Traj.InitGravity(e.cfg.GravityNorm) }
func (e *Engine) InitExtrinsic(tImuLidar spatialmath.Pose) {
	e.Traj.InitExtrinsic(tImuLidar)
}

// IngestSlice runs one full pass of the per-slice pipeline (spec §2)
// over an incoming scan slice: grid scoring/filtering, gyro prediction,
// panorama matching, IMU preintegration, solve, and trajectory update.
// A slice that completes the sweep's column range triggers IngestSweep.
func (e *Engine) IngestSlice(scan *grid.LidarScan, gsize int) error {
	if _, _, err := e.Grid.Add(scan, gsize); err != nil {
		e.logger.Errorw("rejecting slice", "err", err)
		return err
	}
	e.bufferSlicePoints(scan)

	e.Traj.Predict(scan.Time, e.cfg.Noise.NominalDt)
	e.syncGridPoses()

	nMatched := e.Matcher.Match(e.Grid, e.Pano)
	e.logger.Debugw("matched cells", "count", nMatched)

	e.Cost.UpdateMatches(e.Grid)
	if err := e.Cost.UpdatePreint(e.Traj); err != nil {
		e.logger.Debugw("no inertial residual this slice", "err", err)
	}

	x, err := e.Solver.Solve(e.Cost)
	if err != nil {
		e.logger.Warnw("solve infeasible, reverting candidate", "err", err)
		return nil
	}
	e.Cost.UpdateTraj(e.Traj, x)

	if scan.ColRg.End == e.sweepWidth {
		if err := e.ingestFullSweep(gsize); err != nil {
			return err
		}
	}
	return nil
}

// syncGridPoses writes the trajectory's predicted per-state poses into
// the grid's column-boundary poses (spec §2 step 3->4, PredictTrajectory
// -> per-cell pose), interpolating between the two nearest trajectory
// states for boundaries that don't land exactly on a state. Without this
// the matcher and cost functor would read the grid's poses as the
// identity poses NewSweepGrid initializes them to, making the trajectory
// prediction dead weight.
func (e *Engine) syncGridPoses() {
	tfs := e.Grid.Tfs()
	n := len(e.Traj.States)
	for i := range tfs {
		frac := float64(i) / float64(len(tfs)-1)
		idx := frac * float64(n-1)
		lo := int(idx)
		if lo > n-2 {
			lo = n - 2
		}
		if lo < 0 {
			lo = 0
		}
		hi := lo + 1
		s := idx - float64(lo)

		st0, st1 := e.Traj.States[lo], e.Traj.States[hi]
		t0 := spatialmath.NewPose(st0.Rot, st0.Pos)
		t1 := spatialmath.NewPose(st1.Rot, st1.Pos)
		e.Grid.SetTf(i, spatialmath.InterpolatePose(t0, t1, s))
	}
}

// bufferSlicePoints accumulates this slice's valid points per raw sweep
// column, ahead of the eventual IngestSweep call.
func (e *Engine) bufferSlicePoints(scan *grid.LidarScan) {
	for c := 0; c < scan.Cols(); c++ {
		col := scan.ColRg.Start + c
		for r := 0; r < scan.Rows; r++ {
			p, rng := scan.At(r, c)
			if math.IsNaN(rng) {
				continue
			}
			e.sweepPoints[col] = append(e.sweepPoints[col], p)
		}
	}
}

// ingestFullSweep interpolates per-column poses across the completed
// sweep and folds the buffered points into the panorama (spec §2 step
// 8, IngestSweep), then clears the buffer for the next sweep.
func (e *Engine) ingestFullSweep(gsize int) error {
	sweepTfs := make([]spatialmath.Pose, e.sweepWidth)
	if err := e.Grid.InterpSweepPoses(sweepTfs, gsize); err != nil {
		return errors.Wrap(err, "engine: interpolating sweep poses")
	}

	n := e.Pano.AddSweep(pano.Sweep{ColumnPoints: e.sweepPoints, ColumnTfs: sweepTfs})
	e.logger.Infow("ingested sweep", "points", n)

	for i := range e.sweepPoints {
		e.sweepPoints[i] = nil
	}
	return nil
}
