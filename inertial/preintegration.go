package inertial

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/liodom-robotics/lio/spatialmath"
)

// Index layout of the 15x15 F/P blocks (spec §4.3): alpha, beta, theta
// (rotation error), accel bias, gyro bias, each a contiguous 3x3 block.
const (
	idxAlpha = 0
	idxBeta  = 3
	idxTheta = 6
	idxBa    = 9
	idxBg    = 12
	stateDim = 15
)

// ImuPreintegration accumulates a relative (alpha, beta, gamma) motion
// measurement and its square-root information between two trajectory
// endpoints, independent of the states it will later constrain (spec
// §4.3, §9 "IMU <-> Trajectory coupling").
type ImuPreintegration struct {
	Alpha    r3.Vector
	Beta     r3.Vector
	Gamma    spatialmath.Rotation
	F        *mat.Dense // 15x15 error-state transition, rebuilt each Integrate
	P        *mat.Dense // 15x15 covariance
	Duration float64
	N        int
	U        *mat.TriDense // sqrt-info of P^-1, nil until Compute succeeds
}

// NewImuPreintegration returns a preintegration in its reset state.
func NewImuPreintegration() *ImuPreintegration {
	p := &ImuPreintegration{}
	p.Reset()
	return p
}

// Reset zeros alpha/beta, sets gamma to identity, F to identity, P to
// zero, and clears duration/count/U (spec §4.3 Reset).
func (p *ImuPreintegration) Reset() {
	p.Alpha = r3.Vector{}
	p.Beta = r3.Vector{}
	p.Gamma = spatialmath.Identity()
	p.F = identity15()
	p.P = mat.NewDense(stateDim, stateDim, nil)
	p.Duration = 0
	p.N = 0
	p.U = nil
}

func identity15() *mat.Dense {
	m := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < stateDim; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func setBlock3(dst *mat.Dense, r0, c0 int, src mat.Matrix) {
	dst.Slice(r0, r0+3, c0, c0+3).(*mat.Dense).Copy(src)
}

// Integrate folds one IMU measurement, already de-biased, across duration
// dt into the running (alpha, beta, gamma, F, P) state (spec §4.3
// Integrate, VINS-Mono style). The P update deliberately preserves the
// observed `dt^2` scaling of `F*P*F^T` rather than the standard
// `F*P*F^T + G*Q*G^T` form (spec §9 open question, SPEC_FULL §13).
func (p *ImuPreintegration) Integrate(dt float64, imu Sample, noise Noise) {
	a := imu.Acc
	w := imu.Gyr

	dgamma := spatialmath.Exp(w.Mul(dt))
	rotatedA := p.Gamma.Apply(a)
	dbeta := rotatedA.Mul(dt)
	dalpha := p.Beta.Mul(dt).Add(rotatedA.Mul(0.5 * dt * dt))

	rot := p.Gamma.Matrix()
	hatA := spatialmath.Hat(a)
	hatW := spatialmath.Hat(w)

	var negRotHatA mat.Dense
	negRotHatA.Mul(rot, hatA)
	negRotHatA.Scale(-1, &negRotHatA)

	var negRot mat.Dense
	negRot.Scale(-1, rot)

	var negHatW mat.Dense
	negHatW.Scale(-1, hatW)

	negI3 := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		negI3.Set(i, i, -1)
	}
	i3 := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		i3.Set(i, i, 1)
	}

	f := identity15()
	setBlock3(f, idxAlpha, idxBeta, i3)
	setBlock3(f, idxBeta, idxTheta, &negRotHatA)
	setBlock3(f, idxBeta, idxBa, &negRot)
	setBlock3(f, idxTheta, idxTheta, &negHatW)
	setBlock3(f, idxTheta, idxBg, negI3)
	p.F = f

	var fp mat.Dense
	fp.Mul(f, p.P)
	var fpft mat.Dense
	fpft.Mul(&fp, f.T())
	fpft.Scale(dt*dt, &fpft)

	// Uniform *dt scaling for all four terms, white-noise and random-walk
	// alike; the original's kalibr-style discretization instead divides
	// the white-noise terms (acc/gyr) by dt and multiplies only the
	// bias-walk terms (ba/bg) by dt (see DESIGN.md).
	addNoiseDiag(&fpft, idxBeta, noise.AccNoise*dt)
	addNoiseDiag(&fpft, idxTheta, noise.GyrNoise*dt)
	addNoiseDiag(&fpft, idxBa, noise.AccBiasNoise*dt)
	addNoiseDiag(&fpft, idxBg, noise.GyrBiasNoise*dt)
	p.P = &fpft

	p.Alpha = p.Alpha.Add(dalpha)
	p.Beta = p.Beta.Add(dbeta)
	p.Gamma = p.Gamma.Mul(dgamma)
	p.Duration += dt
	p.N++
}

func addNoiseDiag(m *mat.Dense, start int, v float64) {
	for i := start; i < start+3; i++ {
		m.Set(i, i, m.At(i, i)+v)
	}
}

// Compute integrates the IMU queue across [t0,t1] (spec §4.3 Compute):
// it locates the first sample strictly after t0, integrates stepwise
// between consecutive sample times up to t1, finishes with a fractional
// step using the last consumed sample, and derives the sqrt-information
// U from P^-1. It returns ErrInsufficientIMU if no sample after t0
// exists (spec §7).
func (p *ImuPreintegration) Compute(queue *Queue, t0, t1 float64, noise Noise, bias Bias) error {
	p.Reset()

	idx := queue.FindFirstAfter(t0)
	if idx < 0 {
		return errors.WithStack(ErrInsufficientIMU)
	}

	tPrev := t0
	var last Sample
	have := false
	for i := idx; i < queue.Len(); i++ {
		s := queue.At(i).DeBiased(bias)
		if s.Time > t1 {
			break
		}
		dt := s.Time - tPrev
		p.Integrate(dt, s, noise)
		tPrev = s.Time
		last = s
		have = true
	}
	if !have {
		last = queue.At(idx).DeBiased(bias)
	}
	if t1 > tPrev {
		p.Integrate(t1-tPrev, last, noise)
	}

	sym := symmetrize(p.P)
	infoMat, ok := spatialmath.InvertSym(sym)
	if !ok {
		return errors.WithStack(ErrSingularCovariance)
	}
	u, ok := spatialmath.MatrixSqrtUtU(infoMat)
	if !ok {
		return errors.WithStack(ErrSingularCovariance)
	}
	p.U = u
	return nil
}

func symmetrize(m *mat.Dense) *mat.SymDense {
	n, _ := m.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := 0.5 * (m.At(i, j) + m.At(j, i))
			sym.SetSym(i, j, v)
		}
	}
	return sym
}

func (p *ImuPreintegration) String() string {
	return fmt.Sprintf("ImuPreintegration(n=%d, duration=%.4fs, alpha=%v, beta=%v)", p.N, p.Duration, p.Alpha, p.Beta)
}
