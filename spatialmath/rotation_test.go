package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestExpLogRoundTrip(t *testing.T) {
	w := r3.Vector{X: 0.1, Y: -0.2, Z: 0.05}
	r := Exp(w)
	got := r.Log()
	test.That(t, got.X, test.ShouldAlmostEqual, w.X, 1e-9)
	test.That(t, got.Y, test.ShouldAlmostEqual, w.Y, 1e-9)
	test.That(t, got.Z, test.ShouldAlmostEqual, w.Z, 1e-9)
}

func TestExpZeroIsIdentity(t *testing.T) {
	r := Exp(r3.Vector{})
	test.That(t, r.AlmostEqual(Identity(), 1e-12), test.ShouldBeTrue)
}

func TestGyroOnlyPrediction(t *testing.T) {
	// Scenario 2 (spec §8): constant omega=(0,0,1) rad/s integrated over
	// 0.1s should yield exp(0.1*z-hat).
	omega := r3.Vector{Z: 1}
	dt := 0.01
	r := Identity()
	for i := 0; i < 10; i++ {
		r = r.Mul(Exp(omega.Mul(dt)))
	}
	want := Exp(omega.Mul(0.1))
	test.That(t, r.AlmostEqual(want, 1e-6), test.ShouldBeTrue)
}

func TestSlerpEndpoints(t *testing.T) {
	r0 := Identity()
	r1 := Exp(r3.Vector{Z: math.Pi / 2})
	test.That(t, Slerp(r0, r1, 0).AlmostEqual(r0, 1e-9), test.ShouldBeTrue)
	test.That(t, Slerp(r0, r1, 1).AlmostEqual(r1, 1e-9), test.ShouldBeTrue)
}

func TestMulInverseIsIdentity(t *testing.T) {
	r := Exp(r3.Vector{X: 0.3, Y: 0.4, Z: -0.2})
	id := r.Mul(r.Inverse())
	test.That(t, id.AlmostEqual(Identity(), 1e-9), test.ShouldBeTrue)
}

func TestHatVeeRoundTrip(t *testing.T) {
	v := r3.Vector{X: 1, Y: -2, Z: 3}
	got := Vee(Hat(v))
	test.That(t, got.X, test.ShouldAlmostEqual, v.X, 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, v.Y, 1e-12)
	test.That(t, got.Z, test.ShouldAlmostEqual, v.Z, 1e-12)
}

func TestHatCrossProductEquivalence(t *testing.T) {
	v := r3.Vector{X: 1, Y: 2, Z: 3}
	u := r3.Vector{X: -1, Y: 0.5, Z: 2}
	h := Hat(v)
	var got r3.Vector
	got.X = h.At(0, 0)*u.X + h.At(0, 1)*u.Y + h.At(0, 2)*u.Z
	got.Y = h.At(1, 0)*u.X + h.At(1, 1)*u.Y + h.At(1, 2)*u.Z
	got.Z = h.At(2, 0)*u.X + h.At(2, 1)*u.Y + h.At(2, 2)*u.Z
	want := v.Cross(u)
	test.That(t, got.X, test.ShouldAlmostEqual, want.X, 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, 1e-12)
	test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, 1e-12)
}

func TestApplyRotationPreservesLength(t *testing.T) {
	r := Exp(r3.Vector{X: 0.5, Y: -0.3, Z: 0.8})
	v := r3.Vector{X: 1, Y: 2, Z: 3}
	got := r.Apply(v)
	test.That(t, got.Norm(), test.ShouldAlmostEqual, v.Norm(), 1e-9)
}
