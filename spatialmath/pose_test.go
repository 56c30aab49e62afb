package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPoseComposeInverse(t *testing.T) {
	t0 := NewPose(Exp(r3.Vector{X: 0.1, Y: 0.2, Z: 0.3}), r3.Vector{X: 1, Y: 2, Z: 3})
	id := t0.Compose(t0.Inverse())
	test.That(t, id.Orientation.AlmostEqual(Identity(), 1e-9), test.ShouldBeTrue)
	test.That(t, id.Position.Norm(), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestInterpolatePoseEndpoints(t *testing.T) {
	t0 := NewPose(Identity(), r3.Vector{X: 0, Y: 0, Z: 0})
	t1 := NewPose(Exp(r3.Vector{Z: 1}), r3.Vector{X: 10, Y: 0, Z: 0})

	got0 := InterpolatePose(t0, t1, 0)
	test.That(t, got0.Position.Norm(), test.ShouldAlmostEqual, 0, 1e-9)

	got1 := InterpolatePose(t0, t1, 1)
	test.That(t, got1.Position.Sub(t1.Position).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
}

// TestInterpolationEndpointArray verifies InterpSweepPoses-style usage:
// interpolating at fraction j/w_c for j=0 must reproduce tfs[i] exactly
// (spec §8, "Interpolation endpoint").
func TestInterpolationEndpointArray(t *testing.T) {
	wc := 8
	t0 := NewPose(Identity(), r3.Vector{X: 0})
	t1 := NewPose(Exp(r3.Vector{Z: 0.4}), r3.Vector{X: 4})

	for i := 0; i < wc; i++ {
		s := float64(i) / float64(wc)
		got := InterpolatePose(t0, t1, s)
		if i == 0 {
			test.That(t, got.Position.Sub(t0.Position).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
			test.That(t, got.Orientation.AlmostEqual(t0.Orientation, 1e-9), test.ShouldBeTrue)
		}
	}
}

func TestAveragePoseIsMidpoint(t *testing.T) {
	t0 := NewPose(Identity(), r3.Vector{X: 0})
	t1 := NewPose(Identity(), r3.Vector{X: 10})
	mid := AveragePose(t0, t1)
	test.That(t, mid.Position.X, test.ShouldAlmostEqual, 5, 1e-9)
}

func TestApplyComposition(t *testing.T) {
	a := NewPose(Exp(r3.Vector{Z: 1.0}), r3.Vector{X: 1})
	b := NewPose(Exp(r3.Vector{Z: 0.5}), r3.Vector{Y: 2})
	v := r3.Vector{X: 3, Y: -1, Z: 2}

	viaCompose := a.Compose(b).Apply(v)
	viaChain := a.Apply(b.Apply(v))
	test.That(t, viaCompose.Sub(viaChain).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
}
