package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Pose is a rigid transform in SE(3): a rotation composed with a
// translation, applied as T*v = R*v + p.
type Pose struct {
	Orientation Rotation
	Position    r3.Vector
}

// NewPose builds a Pose from a rotation and position.
func NewPose(r Rotation, p r3.Vector) Pose {
	return Pose{Orientation: r, Position: p}
}

// IdentityPose returns the SE(3) identity transform.
func IdentityPose() Pose {
	return Pose{Orientation: Identity()}
}

// ExpSE3 computes the SE(3) exponential of a 6-vector perturbation
// xi = (r0, p0): a rotational part exponentiated through SO(3) Exp and a
// translational part carried through unchanged, matching the GICP cost's
// convention (spec §4.4) where T_apply = exp([r0,p0]) composes an SO(3)
// rotation with a plain vector translation rather than a coupled se(3) exp.
func ExpSE3(r0, p0 r3.Vector) Pose {
	return Pose{Orientation: Exp(r0), Position: p0}
}

// Apply transforms a point by this pose: T*v = R*v + p.
func (t Pose) Apply(v r3.Vector) r3.Vector {
	return t.Orientation.Apply(v).Add(t.Position)
}

// Compose returns t * other, i.e. applying other first then t.
func (t Pose) Compose(other Pose) Pose {
	return Pose{
		Orientation: t.Orientation.Mul(other.Orientation),
		Position:    t.Orientation.Apply(other.Position).Add(t.Position),
	}
}

// Inverse returns the inverse rigid transform.
func (t Pose) Inverse() Pose {
	inv := t.Orientation.Inverse()
	return Pose{
		Orientation: inv,
		Position:    inv.Apply(t.Position).Mul(-1),
	}
}

// InterpolatePose linearly interpolates translation and SLERPs rotation
// between t0 and t1 at fraction s, used by InterpSweepPoses (s=j/w_c);
// CellTfAt uses AveragePose instead.
func InterpolatePose(t0, t1 Pose, s float64) Pose {
	return Pose{
		Orientation: Slerp(t0.Orientation, t1.Orientation, s),
		Position:    t0.Position.Add(t1.Position.Sub(t0.Position).Mul(s)),
	}
}

// AveragePose averages the translations and SLERPs the rotation at s=0.5,
// the exact rule CellTfAt uses for a cell-center pose (spec §4.1): rotation
// SLERP at the midpoint, translation arithmetic mean.
func AveragePose(t0, t1 Pose) Pose {
	return Pose{
		Orientation: Slerp(t0.Orientation, t1.Orientation, 0.5),
		Position:    t0.Position.Add(t1.Position).Mul(0.5),
	}
}

func (t Pose) String() string {
	return fmt.Sprintf("Pose(R=%.4f,%.4f,%.4f,%.4f, p=%.3f,%.3f,%.3f)",
		t.Orientation.q.Real, t.Orientation.q.Imag, t.Orientation.q.Jmag, t.Orientation.q.Kmag,
		t.Position.X, t.Position.Y, t.Position.Z)
}
