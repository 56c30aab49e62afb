package gicp

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/liodom-robotics/lio/inertial"
	"github.com/liodom-robotics/lio/spatialmath"
)

// RigidCost applies a single rigid-body perturbation exp([r0,p0]),
// independent of grid column, to the whole sweep-to-pano transform (spec
// §4.4, GicpRigidCost).
type RigidCost struct {
	base
}

// NewRigidCost returns an empty rigid cost functor.
func NewRigidCost(params CostParams) *RigidCost {
	return &RigidCost{base: newBase(params)}
}

// Evaluate fills r (and, if non-nil, jac) for the perturbation x=(r0,p0)
// (spec §4.4). It returns false if x has the wrong dimension.
func (c *RigidCost) Evaluate(x []float64, r []float64, jac *mat.Dense) bool {
	if len(x) != 6 {
		return false
	}
	r0 := r3.Vector{X: x[0], Y: x[1], Z: x[2]}
	p0 := r3.Vector{X: x[3], Y: x[4], Z: x[5]}
	eR := spatialmath.Exp(r0)

	parallelForMatches(len(c.matches), c.gsize(), func(begin, end int) {
		for i := begin; i < end; i++ {
			m := c.matches[i]
			tfc := c.Grid.TfAt(m.Px.C)
			ptPHat := tfc.Apply(m.Cell.MeanG.Mean)
			predicted := eR.Apply(ptPHat).Add(p0)
			res := m.Cell.MeanP.Mean.Sub(predicted)

			u := m.Cell.U
			whitened := whiten(u, res)
			off := 3 * i
			r[off+0], r[off+1], r[off+2] = whitened.X, whitened.Y, whitened.Z

			if jac != nil {
				var dR mat.Dense
				dR.Mul(u, spatialmath.Hat(ptPHat))
				var dP mat.Dense
				dP.Scale(-1, u)
				setJacBlock3(jac, off, 0, &dR)
				setJacBlock3(jac, off, 3, &dP)
			}
		}
	})

	if c.hasImu {
		c.evaluateInertial(eR, r0, p0, r, jac)
	}
	return true
}

// evaluateInertial fills the trailing 6-vector inertial residual (spec
// §4.4 "Inertial residual", rigid variant) and its Jacobian blocks.
func (c *RigidCost) evaluateInertial(eR spatialmath.Rotation, r0, p0 r3.Vector, r []float64, jac *mat.Dense) {
	st0, st1 := c.Traj.Front(), c.Traj.Back()
	dt := c.Preint.Duration
	g := c.Traj.Gravity

	// R0 is the unperturbed state-0 rotation (spec §4.4, Rigid: "uses
	// bare R0"; only the Linear variant applies eR to state 0). Only
	// state 1 and the translation carry the perturbation.
	r0Abs := st0.Rot
	r1Abs := eR.Mul(st1.Rot)
	p1 := eR.Apply(st1.Pos).Add(p0)

	delta := p1.Sub(st0.Pos).Sub(st0.Vel.Mul(dt)).Add(g.Mul(0.5 * dt * dt))
	alpha := r0Abs.Inverse().Apply(delta)
	rGamma := r0Abs.Inverse().Mul(r1Abs).Mul(c.Preint.Gamma.Inverse()).Log()
	rAlpha := alpha.Sub(c.Preint.Alpha)

	uAA, uAT, uTT := alphaThetaBlocks(c.Preint.U)
	wAA, wAT, wTT := scaleBlocks(c.Params.ImuWeight, uAA, uAT, uTT)

	wAlpha := applyBlock2(wAA, wAT, rAlpha, rGamma)
	wGamma := applyBlock1(wTT, rGamma)

	off := 3 * len(c.matches)
	r[off+0], r[off+1], r[off+2] = wGamma.X, wGamma.Y, wGamma.Z
	r[off+3], r[off+4], r[off+5] = wAlpha.X, wAlpha.Y, wAlpha.Z

	if jac == nil {
		return
	}

	// First-order small-angle approximation of the inertial residual
	// Jacobians. R0 is constant here, so the perturbation only enters
	// through r1Abs=eR*st1.rot and p1=eR*st1.pos+p0, both conjugated by
	// the constant r0AbsInv=R0^-1; the rest of the log-map/Cholesky
	// chain rule is deferred to the external solver's own finite
	// differencing if higher fidelity is needed.
	r0AbsInv := r0Abs.Inverse().Matrix()

	var dAlphaDr0 mat.Dense
	dAlphaDr0.Mul(r0AbsInv, spatialmath.Hat(st1.Pos))
	dAlphaDr0.Scale(-1, &dAlphaDr0)
	dAlphaDp0 := r0AbsInv
	dGammaDr0 := r0AbsInv

	var jGammaR0, jAlphaR0, jAlphaP0, crossR0 mat.Dense
	jGammaR0.Mul(wTT, dGammaDr0)
	jAlphaR0.Mul(wAA, &dAlphaDr0)
	crossR0.Mul(wAT, dGammaDr0)
	jAlphaR0.Add(&jAlphaR0, &crossR0)
	jAlphaP0.Mul(wAA, dAlphaDp0)

	setJacBlock3(jac, off, 0, &jGammaR0)
	setJacBlock3(jac, off+3, 0, &jAlphaR0)
	setJacBlock3(jac, off+3, 3, &jAlphaP0)
}

// UpdateTraj applies the solved correction to state[0] only; the
// remaining states are expected to be re-propagated by the next Predict
// (spec §4.5, Rigid).
func (c *RigidCost) UpdateTraj(traj *inertial.Trajectory, x []float64) {
	r0 := r3.Vector{X: x[0], Y: x[1], Z: x[2]}
	p0 := r3.Vector{X: x[3], Y: x[4], Z: x[5]}
	eR := spatialmath.Exp(r0)

	s0 := traj.States[0]
	s0.Rot = eR.Mul(s0.Rot)
	s0.Pos = eR.Apply(s0.Pos).Add(p0)
	if d := traj.Duration(); d != 0 {
		s0.Vel = s0.Vel.Add(p0.Mul(1 / d))
	}
	traj.States[0] = s0
}

func scaleBlocks(w float64, blocks ...*mat.Dense) (*mat.Dense, *mat.Dense, *mat.Dense) {
	out := make([]*mat.Dense, len(blocks))
	for i, b := range blocks {
		var s mat.Dense
		s.Scale(w, b)
		out[i] = &s
	}
	return out[0], out[1], out[2]
}

func applyBlock1(m *mat.Dense, v r3.Vector) r3.Vector {
	vec := mat.NewVecDense(3, []float64{v.X, v.Y, v.Z})
	var out mat.VecDense
	out.MulVec(m, vec)
	return r3.Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

func applyBlock2(mAA, mAT *mat.Dense, a, t r3.Vector) r3.Vector {
	va := mat.NewVecDense(3, []float64{a.X, a.Y, a.Z})
	vt := mat.NewVecDense(3, []float64{t.X, t.Y, t.Z})
	var p1, p2 mat.VecDense
	p1.MulVec(mAA, va)
	p2.MulVec(mAT, vt)
	var out mat.VecDense
	out.AddVec(&p1, &p2)
	return r3.Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}
