package engine

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/liodom-robotics/lio/grid"
	"github.com/liodom-robotics/lio/inertial"
	"github.com/liodom-robotics/lio/spatialmath"
)

// TestEngineIngestSliceRejectsMisalignedSlice: a slice off the grid's
// expected column boundary surfaces the grid's InvariantViolation (spec
// §7) rather than panicking the pipeline.
func TestEngineIngestSliceRejectsMisalignedSlice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid = grid.Params{CellRows: 1, CellCols: 4, MaxScore: 1000, NMS: false}
	cfg.PanoCols, cfg.PanoRows = 64, 16

	e, err := New(cfg, 1, 16, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	bad := grid.NewLidarScan(0, 0.01, 1, grid.ColRange{Start: 4, End: 8})
	for c := 0; c < 4; c++ {
		bad.Set(0, c, r3.Vector{X: 10}, 10)
	}
	err = e.IngestSlice(bad, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

// TestEngineFullSweepPipeline: four aligned slices tiling a 16-column
// sweep drive the pipeline through scoring, prediction, matching,
// preintegration, solve, and a final sweep ingest without error.
func TestEngineFullSweepPipeline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid = grid.Params{CellRows: 1, CellCols: 4, MaxScore: 1000, NMS: false}
	cfg.PanoCols, cfg.PanoRows = 64, 16
	cfg.TrajSize = 5

	e, err := New(cfg, 1, 16, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	e.InitExtrinsic(spatialmath.IdentityPose())
	for i := 0; i <= 50; i++ {
		e.PushImu(inertial.Sample{Time: float64(i) * 0.01, Acc: r3.Vector{Z: 9.81}})
	}
	test.That(t, e.InitGravity(), test.ShouldBeTrue)

	for i := 0; i < 4; i++ {
		rg := grid.ColRange{Start: i * 4, End: (i + 1) * 4}
		scan := grid.NewLidarScan(float64(i)*0.01, 0.01, 1, rg)
		for c := 0; c < 4; c++ {
			scan.Set(0, c, r3.Vector{X: 10}, 10)
		}
		err := e.IngestSlice(scan, 0)
		test.That(t, err, test.ShouldBeNil)
	}

	pano := e.Pano.(interface{ NumSweeps() int })
	test.That(t, pano.NumSweeps(), test.ShouldEqual, 1)
}
