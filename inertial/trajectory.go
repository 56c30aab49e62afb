package inertial

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/liodom-robotics/lio/spatialmath"
)

// NavState is one state of the trajectory (spec §3): time, rotation,
// position, and velocity, all expressed in the gravity-aligned pano frame.
type NavState struct {
	Time float64
	Rot  spatialmath.Rotation
	Pos  r3.Vector
	Vel  r3.Vector
}

// Trajectory is the short sliding-window navigation trajectory whose
// endpoints the preintegration constrains (spec §3, §4.2). It owns its
// states, its IMU queue, and its noise model.
type Trajectory struct {
	States            []NavState
	Gravity           r3.Vector        // g, in the pano frame
	ExtrinsicImuLidar spatialmath.Pose // T_imu_lidar

	Queue *Queue
	Bias  Bias
	Noise Noise
}

// NewTrajectory allocates a trajectory of n >= 2 states, all initialized
// to identity (spec §3: "Nₜ ≥ 2").
func NewTrajectory(n int, queue *Queue, noise Noise) *Trajectory {
	if n < 2 {
		n = 2
	}
	states := make([]NavState, n)
	for i := range states {
		states[i].Rot = spatialmath.Identity()
	}
	return &Trajectory{States: states, Queue: queue, Noise: noise}
}

// Front returns the first state (sweep start).
func (t *Trajectory) Front() NavState { return t.States[0] }

// Back returns the last state (sweep end).
func (t *Trajectory) Back() NavState { return t.States[len(t.States)-1] }

// At returns the i'th state.
func (t *Trajectory) At(i int) NavState { return t.States[i] }

// SetAt replaces the i'th state.
func (t *Trajectory) SetAt(i int, s NavState) { t.States[i] = s }

// Size returns the number of states.
func (t *Trajectory) Size() int { return len(t.States) }

// Duration returns back.time - front.time.
func (t *Trajectory) Duration() float64 {
	return t.Back().Time - t.Front().Time
}

// InitGravity sets the gravity vector from the first queued IMU sample's
// normalized acceleration scaled by gravityNorm (spec §4.2 InitGravity).
// It returns false if the queue is empty.
func (t *Trajectory) InitGravity(gravityNorm float64) bool {
	if t.Queue == nil || t.Queue.Len() == 0 {
		return false
	}
	a := t.Queue.At(0).Acc
	if a.Norm() == 0 {
		return false
	}
	t.Gravity = a.Normalize().Mul(gravityNorm)
	return true
}

// InitExtrinsic stores the IMU<->LIDAR rigid transform and seeds every
// state's rotation/position with its inverse, so the first sweep frame
// coincides with the pano frame (spec §4.2 InitExtrinsic).
func (t *Trajectory) InitExtrinsic(tImuLidar spatialmath.Pose) {
	t.ExtrinsicImuLidar = tImuLidar
	tLidarImu := tImuLidar.Inverse()
	for i := range t.States {
		t.States[i].Rot = tLidarImu.Orientation
		t.States[i].Pos = tLidarImu.Position
	}
}

// Predict integrates gyro forward from the last state across the sweep
// (spec §4.2 Predict): it locates the first IMU sample strictly newer
// than t0, then for each cell i>=1 sets time_i = t0 + i*dt, copies
// position from state 0 (a documented simplification: position is held
// constant across the sweep window rather than integrated, per spec §9's
// open question on SweepGrid::Predict), and integrates rotation by
// R_i = R_{i-1} * exp(omega*dt) using the de-biased gyro. It returns 0
// (a no-op) if no IMU sample newer than t0 exists.
func (t *Trajectory) Predict(t0, dt float64) int {
	ibuf := t.Queue.FindFirstAfter(t0)
	if ibuf < 0 {
		return 0
	}
	ibuf0 := ibuf

	t.States[0].Time = t0
	pos0 := t.States[0].Pos

	for i := 1; i < len(t.States); i++ {
		ti := t0 + dt*float64(i)
		if t.Queue.At(ibuf).Time < ti {
			ibuf++
		}
		if ibuf >= t.Queue.Len() {
			ibuf = t.Queue.Len() - 1
		}

		imu := t.Queue.At(ibuf).DeBiased(t.Bias)
		prev := t.States[i-1]
		t.States[i].Time = prev.Time + dt
		t.States[i].Pos = pos0
		t.States[i].Rot = prev.Rot.Mul(spatialmath.Exp(imu.Gyr.Mul(dt)))
	}

	return ibuf - ibuf0 + 1
}

func (t *Trajectory) String() string {
	return fmt.Sprintf("Trajectory(n=%d, duration=%.4fs, g=%v)", len(t.States), t.Duration(), t.Gravity)
}
