package inertial

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/liodom-robotics/lio/spatialmath"
)

// TestGyroOnlyPrediction: constant omega=(0,0,1), zero acc, dt=0.01, N=11
// -> state[N-1].Rot ~= exp(0.1*z), positions unchanged (spec §8 scenario 2).
func TestGyroOnlyPrediction(t *testing.T) {
	q := NewQueue()
	for i := 0; i <= 20; i++ {
		q.Push(Sample{Time: float64(i) * 0.01, Acc: r3.Vector{}, Gyr: r3.Vector{Z: 1}})
	}

	traj := NewTrajectory(11, q, DefaultNoise())
	traj.States[0].Pos = r3.Vector{X: 1, Y: 2, Z: 3}

	n := traj.Predict(0, 0.01)
	test.That(t, n, test.ShouldBeGreaterThan, 0)

	want := spatialmath.Exp(r3.Vector{Z: 0.1})
	got := traj.Back().Rot
	test.That(t, got.AlmostEqual(want, 1e-3), test.ShouldBeTrue)

	test.That(t, traj.Back().Pos.X, test.ShouldAlmostEqual, 1.0, 1e-9)
	test.That(t, traj.Back().Pos.Y, test.ShouldAlmostEqual, 2.0, 1e-9)
	test.That(t, traj.Back().Pos.Z, test.ShouldAlmostEqual, 3.0, 1e-9)
}

// TestPredictNoOp: no sample newer than t0 means Predict is a no-op.
func TestPredictNoOp(t *testing.T) {
	q := NewQueue()
	q.Push(Sample{Time: 0})
	traj := NewTrajectory(5, q, DefaultNoise())
	n := traj.Predict(1.0, 0.01)
	test.That(t, n, test.ShouldEqual, 0)
}

// TestInitGravity checks the gravity vector direction matches the first
// queued sample's acceleration direction, scaled to the given norm.
func TestInitGravity(t *testing.T) {
	q := NewQueue()
	q.Push(Sample{Time: 0, Acc: r3.Vector{Z: 2}})
	traj := NewTrajectory(2, q, DefaultNoise())

	ok := traj.InitGravity(9.81)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, traj.Gravity.Z, test.ShouldAlmostEqual, 9.81, 1e-9)
}

// TestInitExtrinsicSeedsInverse: every state is seeded with the inverse
// of the IMU<->LIDAR extrinsic.
func TestInitExtrinsicSeedsInverse(t *testing.T) {
	q := NewQueue()
	traj := NewTrajectory(3, q, DefaultNoise())

	tImuLidar := spatialmath.NewPose(spatialmath.Exp(r3.Vector{Z: math.Pi / 2}), r3.Vector{X: 1})
	traj.InitExtrinsic(tImuLidar)

	want := tImuLidar.Inverse()
	for i := range traj.States {
		test.That(t, traj.States[i].Pos.X, test.ShouldAlmostEqual, want.Position.X, 1e-9)
		test.That(t, traj.States[i].Rot.AlmostEqual(want.Orientation, 1e-9), test.ShouldBeTrue)
	}
}
