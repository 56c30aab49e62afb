package grid

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/liodom-robotics/lio/spatialmath"
)

// MeanCovar3 is a running mean/covariance accumulator over 3-D points,
// the geometric primitive a good cell reduces its point window to (spec
// §3, Cell.mc_g / mc_p). It mirrors the incremental point-accumulation
// pattern of pointcloud/voxel.go, adapted from per-voxel center/normal
// bookkeeping to a Welford-style running mean and covariance.
type MeanCovar3 struct {
	Mean  r3.Vector
	Covar mat.SymDense // 3x3, population covariance
	N     int
}

// NewMeanCovar3 returns an empty accumulator.
func NewMeanCovar3() *MeanCovar3 {
	return &MeanCovar3{Covar: *mat.NewSymDense(3, nil)}
}

// Add folds a new point into the running mean/covariance using Welford's
// online algorithm, which stays numerically stable without needing to
// retain the point set.
func (mc *MeanCovar3) Add(p r3.Vector) {
	mc.N++
	n := float64(mc.N)
	delta := p.Sub(mc.Mean)
	mc.Mean = mc.Mean.Add(delta.Mul(1 / n))
	delta2 := p.Sub(mc.Mean)

	// M2 accumulates n * covariance; the symmetric update below keeps the
	// matrix valid as a running (unnormalized) second-moment tensor.
	m2 := vecOuter(delta, delta2)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			mc.Covar.SetSym(i, j, mc.Covar.At(i, j)+m2.At(i, j))
		}
	}
}

// Finalize normalizes the accumulated second moment into a population
// covariance (divide by N). Call once after all points are added.
func (mc *MeanCovar3) Finalize() {
	if mc.N == 0 {
		return
	}
	n := float64(mc.N)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			mc.Covar.SetSym(i, j, mc.Covar.At(i, j)/n)
		}
	}
}

// Reset clears the accumulator back to empty.
func (mc *MeanCovar3) Reset() {
	mc.Mean = r3.Vector{}
	mc.Covar = *mat.NewSymDense(3, nil)
	mc.N = 0
}

// Valid reports whether the accumulator has seen any points.
func (mc *MeanCovar3) Valid() bool {
	return mc.N > 0
}

func vecOuter(a, b r3.Vector) *mat.Dense {
	av := []float64{a.X, a.Y, a.Z}
	bv := []float64{b.X, b.Y, b.Z}
	out := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, av[i]*bv[j])
		}
	}
	return out
}

// SqrtInfoUtU computes the upper-triangular Cholesky factor U such that
// UᵗU = (a+b)⁻¹, the whitening matrix used for GICP match residuals (spec
// §4.4). It returns ok=false if (a+b) is not positive definite (degenerate
// covariance sum), in which case the caller should treat the match as
// NumericalNaN per spec §7.
func SqrtInfoUtU(a, b mat.Symmetric) (*mat.TriDense, bool) {
	n := a.SymmetricDim()
	sum := mat.NewSymDense(n, nil)
	sum.AddSym(a, b)

	inv, ok := spatialmath.InvertSym(sum)
	if !ok {
		return nil, false
	}
	return spatialmath.MatrixSqrtUtU(inv)
}
