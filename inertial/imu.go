// Package inertial implements the IMU trajectory window and preintegration
// machinery (spec §4.2, §4.3): a short sliding-window navigation
// trajectory predicted from gyro integration, and the preintegrated
// inertial factor that constrains its endpoints.
package inertial

import (
	"github.com/golang/geo/r3"

	"github.com/liodom-robotics/lio/spatialmath"
)

// Sample is one IMU measurement (spec §3, ImuSample): strictly increasing
// timestamp, specific-force acceleration, and angular rate.
type Sample struct {
	Time float64
	Acc  r3.Vector
	Gyr  r3.Vector
}

// Bias is the accelerometer/gyroscope bias estimate (spec §3, ImuBias):
// updated externally and treated as constant within one preintegration.
type Bias struct {
	Acc r3.Vector
	Gyr r3.Vector
}

// DeBiased returns a copy of s with the bias subtracted from both
// channels, named after the original's ImuData::DeBiased helper
// (SPEC_FULL §12).
func (s Sample) DeBiased(b Bias) Sample {
	return Sample{
		Time: s.Time,
		Acc:  s.Acc.Sub(b.Acc),
		Gyr:  s.Gyr.Sub(b.Gyr),
	}
}

// IntegrateMidpoint advances rot/pos/vel from prev to curr using the
// midpoint rule (average of the two de-biased samples) rather than the
// forward-Euler step Trajectory.Predict uses on the sweep hot path. It's
// unused by that hot path, same as the original's midpoint integrator:
// offline re-integration callers that want a higher-fidelity pass over a
// buffered window can call it directly (SPEC_FULL §12).
func IntegrateMidpoint(prev, curr Sample, rot spatialmath.Rotation, pos, vel, gravity r3.Vector, bias Bias) (spatialmath.Rotation, r3.Vector, r3.Vector) {
	dt := curr.Time - prev.Time
	if dt <= 0 {
		return rot, pos, vel
	}
	a := prev.DeBiased(bias)
	b := curr.DeBiased(bias)

	gyrMid := a.Gyr.Add(b.Gyr).Mul(0.5)
	newRot := rot.Mul(spatialmath.Exp(gyrMid.Mul(dt)))

	accMidWorld := rot.Apply(a.Acc).Add(newRot.Apply(b.Acc)).Mul(0.5).Sub(gravity)
	newVel := vel.Add(accMidWorld.Mul(dt))
	newPos := pos.Add(vel.Mul(dt)).Add(accMidWorld.Mul(0.5 * dt * dt))

	return newRot, newPos, newVel
}
