package gicp

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/liodom-robotics/lio/inertial"
	"github.com/liodom-robotics/lio/spatialmath"
)

// LinearCost applies a "linearly time-varying" correction: the rotation
// exp(r0) is applied uniformly across the sweep, but the translation p0
// is blended by column fraction s=(c+0.5)/ncols (spec §4.4, GicpLinearCost).
type LinearCost struct {
	base
}

// NewLinearCost returns an empty linear cost functor.
func NewLinearCost(params CostParams) *LinearCost {
	return &LinearCost{base: newBase(params)}
}

// NumResiduals is 3 per match, plus 3 (r_alpha only) if the inertial
// residual is live (spec §4.4: "Linear variant ... emits only r_α").
func (c *LinearCost) NumResiduals() int {
	n := 3 * len(c.matches)
	if c.hasImu {
		n += 3
	}
	return n
}

func (c *LinearCost) Evaluate(x []float64, r []float64, jac *mat.Dense) bool {
	if len(x) != 6 {
		return false
	}
	r0 := r3.Vector{X: x[0], Y: x[1], Z: x[2]}
	p0 := r3.Vector{X: x[3], Y: x[4], Z: x[5]}
	eR := spatialmath.Exp(r0)
	ncols := float64(c.Grid.Cols())

	parallelForMatches(len(c.matches), c.gsize(), func(begin, end int) {
		for i := begin; i < end; i++ {
			m := c.matches[i]
			s := (float64(m.Px.C) + 0.5) / ncols

			tfc := c.Grid.TfAt(m.Px.C)
			ptPHat := tfc.Apply(m.Cell.MeanG.Mean)
			predicted := eR.Apply(ptPHat).Add(p0.Mul(s))
			res := m.Cell.MeanP.Mean.Sub(predicted)

			u := m.Cell.U
			whitened := whiten(u, res)
			off := 3 * i
			r[off+0], r[off+1], r[off+2] = whitened.X, whitened.Y, whitened.Z

			if jac != nil {
				var dR mat.Dense
				dR.Mul(u, spatialmath.Hat(ptPHat))
				var dP mat.Dense
				dP.Scale(-s, u)
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

// evaluateInertial fills the trailing 3-vector r_alpha residual (spec
// §4.4, Linear variant's inertial residual).
func (c *LinearCost) evaluateInertial(eR spatialmath.Rotation, r0, p0 r3.Vector, r []float64, jac *mat.Dense) {
	st0, st1 := c.Traj.Front(), c.Traj.Back()
	dt := c.Preint.Duration
	g := c.Traj.Gravity

	r0Abs := eR.Mul(st0.Rot)
	p0Prime := eR.Apply(st0.Pos)
	p1 := eR.Apply(st1.Pos).Add(p0)

	delta := p1.Sub(p0Prime).Sub(st0.Vel.Mul(dt)).Add(g.Mul(0.5 * dt * dt))
	alpha := r0Abs.Inverse().Apply(delta)
	rAlpha := alpha.Sub(c.Preint.Alpha)

	uAA, _, _ := alphaThetaBlocks(c.Preint.U)
	var wAA mat.Dense
	wAA.Scale(c.Params.ImuWeight, uAA)

	wAlpha := applyBlock1(&wAA, rAlpha)

	off := 3 * len(c.matches)
	r[off+0], r[off+1], r[off+2] = wAlpha.X, wAlpha.Y, wAlpha.Z

	if jac == nil {
		return
	}

	// First-order small-angle approximation: eR cancels out of the
	// st1.pos/st0.pos term of delta (it rotates the term forward in p1
	// and back out again through r0Abs.Inverse()), so only the part of
	// delta that eR does *not* also remove downstream -- p0 and the
	// drift term -- contributes to dAlpha/dr0, via p0's de-rotation by
	// eR.Inverse() alone.
	k := p0.Sub(st0.Vel.Mul(dt)).Add(g.Mul(0.5 * dt * dt))
	r0AbsInv := r0Abs.Inverse().Matrix()
	var dAlphaDr0 mat.Dense
	dAlphaDr0.Mul(r0AbsInv, spatialmath.Hat(k))
	dAlphaDp0 := r0AbsInv

	var jAlphaR0, jAlphaP0 mat.Dense
	jAlphaR0.Mul(&wAA, &dAlphaDr0)
	jAlphaP0.Mul(&wAA, dAlphaDp0)

	setJacBlock3(jac, off, 0, &jAlphaR0)
	setJacBlock3(jac, off, 3, &jAlphaP0)
}

// UpdateTraj corrects every state with a linearly-ramped translation
// (spec §4.5, Linear): interior velocities are forward-differenced from
// adjacent corrected positions (cost.cpp's GicpLinearCost::UpdateTraj,
// `st_im1.vel = (st_i.pos - st_im1.pos) / (st_i.time - st_im1.time)`),
// and the final state's velocity is the mean of the interior velocities.
func (c *LinearCost) UpdateTraj(traj *inertial.Trajectory, x []float64) {
	r0 := r3.Vector{X: x[0], Y: x[1], Z: x[2]}
	p0 := r3.Vector{X: x[3], Y: x[4], Z: x[5]}
	eR := spatialmath.Exp(r0)

	n := len(traj.States)

	oldPos := make([]r3.Vector, n)
	for i, s := range traj.States {
		oldPos[i] = s.Pos
	}

	for i := range traj.States {
		frac := float64(i) / float64(n-1)
		traj.States[i].Rot = eR.Mul(traj.States[i].Rot)
		traj.States[i].Pos = eR.Apply(oldPos[i]).Add(p0.Mul(frac))
	}

	var velSum r3.Vector
	count := 0
	for i := 2; i < n; i++ {
		dt := traj.States[i].Time - traj.States[i-1].Time
		v := traj.States[i].Pos.Sub(traj.States[i-1].Pos).Mul(1 / dt)
		traj.States[i-1].Vel = v
		velSum = velSum.Add(v)
		count++
	}
	if count > 0 {
		traj.States[n-1].Vel = velSum.Mul(1 / float64(count))
	}
}
