// Package spatialmath provides the SO(3)/SE(3) rotation and pose algebra
// shared by the grid, inertial, and gicp packages: a quaternion-backed
// rotation with exponential/logarithm maps, hat/vee operators, and SLERP.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Rotation is an element of SO(3), backed by a unit quaternion. The zero
// value is not a valid rotation; use NewRotation or Identity.
type Rotation struct {
	q quat.Number
}

// Identity returns the SO(3) identity rotation.
func Identity() Rotation {
	return Rotation{q: quat.Number{Real: 1}}
}

// NewRotation builds a Rotation from a quaternion, normalizing it so that
// group operations remain numerically well-conditioned.
func NewRotation(q quat.Number) Rotation {
	n := quat.Abs(q)
	if n == 0 {
		return Identity()
	}
	return Rotation{q: quat.Scale(1/n, q)}
}

// Exp computes the SO(3) exponential of a so(3) vector (angular velocity
// times duration, or any 3-vector perturbation), matching the teacher's
// R3ToR4(w).ToQuat() angle-axis-to-quaternion construction.
func Exp(w r3.Vector) Rotation {
	theta := w.Norm()
	if theta < 1e-12 {
		// First-order Taylor expansion avoids a 0/0 division at the identity.
		return NewRotation(quat.Number{Real: 1, Imag: w.X / 2, Jmag: w.Y / 2, Kmag: w.Z / 2})
	}
	half := theta / 2
	s := math.Sin(half) / theta
	return Rotation{q: quat.Number{
		Real: math.Cos(half),
		Imag: w.X * s,
		Jmag: w.Y * s,
		Kmag: w.Z * s,
	}}
}

// Log computes the SO(3) logarithm, the so(3) vector whose Exp recovers r,
// mirroring the teacher's QuatToR4AA angle-axis extraction.
func (r Rotation) Log() r3.Vector {
	im := r3.Vector{X: r.q.Imag, Y: r.q.Jmag, Z: r.q.Kmag}
	n := im.Norm()
	angle := 2 * math.Atan2(n, r.q.Real)
	if angle > math.Pi {
		angle -= 2 * math.Pi
	}
	if n < 1e-12 {
		return r3.Vector{}
	}
	return im.Mul(angle / n)
}

// Quaternion returns the underlying unit quaternion.
func (r Rotation) Quaternion() quat.Number {
	return r.q
}

// Mul composes two rotations: (r.Mul(other)) applies other first, then r,
// i.e. it represents the group product r * other.
func (r Rotation) Mul(other Rotation) Rotation {
	return Rotation{q: quat.Mul(r.q, other.q)}
}

// Inverse returns the inverse rotation (conjugate of a unit quaternion).
func (r Rotation) Inverse() Rotation {
	return Rotation{q: quat.Conj(r.q)}
}

// Apply rotates a vector by this rotation: R*v.
func (r Rotation) Apply(v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(r.q, p), quat.Conj(r.q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// Matrix returns the 3x3 rotation matrix equivalent, via the same
// quaternion-to-matrix expansion the teacher's mgl64.Mat4ToQuat round-trips.
func (r Rotation) Matrix() *mat.Dense {
	w, x, y, z := r.q.Real, r.q.Imag, r.q.Jmag, r.q.Kmag
	m := mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	})
	return m
}

// Slerp performs spherical linear interpolation between r0 and r1 at
// fraction s in [0, 1], used for CellTfAt (s=0.5) and InterpSweepPoses.
func Slerp(r0, r1 Rotation, s float64) Rotation {
	dot := r0.q.Real*r1.q.Real + r0.q.Imag*r1.q.Imag + r0.q.Jmag*r1.q.Jmag + r0.q.Kmag*r1.q.Kmag
	q1 := r1.q
	if dot < 0 {
		// Take the short way around the hypersphere.
		q1 = quat.Scale(-1, q1)
		dot = -dot
	}
	if dot > 0.9995 {
		// Nearly identical rotations: linear interpolation is stable here.
		q := quat.Number{
			Real: lerp(r0.q.Real, q1.Real, s),
			Imag: lerp(r0.q.Imag, q1.Imag, s),
			Jmag: lerp(r0.q.Jmag, q1.Jmag, s),
			Kmag: lerp(r0.q.Kmag, q1.Kmag, s),
		}
		return NewRotation(q)
	}
	theta0 := math.Acos(dot)
	theta := theta0 * s
	sinTheta0 := math.Sin(theta0)
	a := math.Sin(theta0-theta) / sinTheta0
	b := math.Sin(theta) / sinTheta0
	q := quat.Number{
		Real: a*r0.q.Real + b*q1.Real,
		Imag: a*r0.q.Imag + b*q1.Imag,
		Jmag: a*r0.q.Jmag + b*q1.Jmag,
		Kmag: a*r0.q.Kmag + b*q1.Kmag,
	}
	return NewRotation(q)
}

func lerp(a, b, s float64) float64 {
	return a + (b-a)*s
}

// AlmostEqual reports whether two rotations differ by less than tol radians.
func (r Rotation) AlmostEqual(other Rotation, tol float64) bool {
	delta := r.Inverse().Mul(other).Log()
	return delta.Norm() <= tol
}

// Hat returns the skew-symmetric cross-product matrix ⌊v⌋× such that
// Hat(v)*u == v.Cross(u), used throughout the GICP Jacobians.
func Hat(v r3.Vector) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})
}

// Vee is the inverse of Hat: it extracts the 3-vector from a skew-symmetric
// matrix, reading entries (2,1), (0,2) and (1,0).
func Vee(m *mat.Dense) r3.Vector {
	return r3.Vector{X: m.At(2, 1), Y: m.At(0, 2), Z: m.At(1, 0)}
}
