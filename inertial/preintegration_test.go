package inertial

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

// TestPreintegrationIdentity: zero IMU input over 1s -> alpha=0, beta=0,
// gamma=I, duration=1, n=count_of_samples (spec §8 scenario 3).
func TestPreintegrationIdentity(t *testing.T) {
	q := NewQueue()
	for i := 1; i <= 100; i++ {
		q.Push(Sample{Time: float64(i) * 0.01})
	}

	p := NewImuPreintegration()
	err := p.Compute(q, 0, 1.0, DefaultNoise(), Bias{})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, p.Alpha.Norm(), test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, p.Beta.Norm(), test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, p.Gamma.Log().Norm(), test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, p.Duration, test.ShouldAlmostEqual, 1.0, 1e-9)
	test.That(t, p.N, test.ShouldEqual, 100)
}

// TestInsufficientIMU: an empty window (no sample after t0) fails with
// ErrInsufficientIMU (spec §7).
func TestInsufficientIMU(t *testing.T) {
	q := NewQueue()
	q.Push(Sample{Time: 0})
	p := NewImuPreintegration()
	err := p.Compute(q, 1.0, 2.0, DefaultNoise(), Bias{})
	test.That(t, err, test.ShouldNotBeNil)
}

// TestSqrtInfoCorrectness: U^T U ~= P^-1, U upper triangular, positive
// diagonal (spec §8, "Sqrt-info correctness").
func TestSqrtInfoCorrectness(t *testing.T) {
	q := NewQueue()
	for i := 1; i <= 50; i++ {
		q.Push(Sample{Time: float64(i) * 0.01, Acc: r3.Vector{X: 0.1, Z: 9.81}, Gyr: r3.Vector{Y: 0.05}})
	}

	p := NewImuPreintegration()
	err := p.Compute(q, 0, 0.5, DefaultNoise(), Bias{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.U, test.ShouldNotBeNil)

	n, _ := p.U.Dims()
	for i := 0; i < n; i++ {
		test.That(t, p.U.At(i, i), test.ShouldBeGreaterThan, 0.0)
		for j := 0; j < i; j++ {
			test.That(t, p.U.At(i, j), test.ShouldAlmostEqual, 0.0, 1e-12)
		}
	}

	var utu mat.Dense
	utu.Mul(p.U.T(), p.U)

	sym := symmetrize(p.P)
	var chol mat.Cholesky
	ok := chol.Factorize(sym)
	test.That(t, ok, test.ShouldBeTrue)
	pinv := mat.NewSymDense(n, nil)
	err2 := chol.InverseTo(pinv)
	test.That(t, err2, test.ShouldBeNil)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			test.That(t, utu.At(i, j), test.ShouldAlmostEqual, pinv.At(i, j), 1e-6)
		}
	}
}

// TestPreintegrationAccumulatesConstantAcc: with zero rotation and
// constant acceleration a, beta should grow linearly as a*duration and
// alpha should approach 0.5*a*duration^2 (closed-form integral check,
// spec §8 "Preintegration consistency").
func TestPreintegrationAccumulatesConstantAcc(t *testing.T) {
	q := NewQueue()
	a := r3.Vector{X: 2}
	for i := 1; i <= 100; i++ {
		q.Push(Sample{Time: float64(i) * 0.01, Acc: a})
	}

	p := NewImuPreintegration()
	err := p.Compute(q, 0, 1.0, DefaultNoise(), Bias{})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, p.Beta.X, test.ShouldAlmostEqual, a.X*p.Duration, 1e-2)
	test.That(t, p.Alpha.X, test.ShouldAlmostEqual, 0.5*a.X*p.Duration*p.Duration, 1e-2)
}
