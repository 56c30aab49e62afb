package gicp

import (
	"gonum.org/v1/gonum/mat"
)

// SolverDriver is the external nonlinear-solver collaborator the core
// consumes (spec §6): it repeatedly calls the cost functor's Evaluate
// and returns the accumulated correction. The core itself never calls a
// solver internally; GaussNewtonSolver below is a minimal reference
// implementation used by the engine and by tests.
type SolverDriver interface {
	Solve(cost Cost) ([]float64, error)
}

// GaussNewtonSolver is a fixed-iteration Levenberg-Marquardt-damped
// Gauss-Newton minimizer over the 6-parameter perturbation (spec §5:
// "the solver is bounded by max iterations (e.g., 5) rather than wall
// clock").
type GaussNewtonSolver struct {
	MaxIters int
	// Lambda damps the normal equations ((JtJ + Lambda*I) dx = -Jtr),
	// which keeps small-match-count problems (JtJ rank-deficient, e.g.
	// a single 3-residual match against 6 parameters) solvable instead
	// of exactly singular, the way Ceres' LM trust region does it.
	Lambda float64
}

// defaultLambda is the damping used whenever Lambda is left at its zero
// value, so a solver built as a bare struct literal still damps
// rank-deficient normal equations (e.g. a single 3-residual match
// against 6 parameters).
const defaultLambda = 1e-6

// NewGaussNewtonSolver returns a solver bounded to 5 iterations with a
// small fixed damping term.
func NewGaussNewtonSolver() *GaussNewtonSolver {
	return &GaussNewtonSolver{MaxIters: 5, Lambda: defaultLambda}
}

// Solve runs fixed-iteration Gauss-Newton starting from x=0, returning
// the accumulated 6-vector correction. It returns ErrSolveInfeasible if
// the cost functor rejects the parameters or the normal equations are
// singular.
func (s *GaussNewtonSolver) Solve(cost Cost) ([]float64, error) {
	x := make([]float64, cost.NumParameters())

	for iter := 0; iter < s.MaxIters; iter++ {
		nRes := cost.NumResiduals()
		if nRes == 0 {
			return x, nil
		}

		r := make([]float64, nRes)
		jac := mat.NewDense(nRes, cost.NumParameters(), nil)
		if ok := cost.Evaluate(x, r, jac); !ok {
			return x, ErrSolveInfeasible
		}

		lambda := s.Lambda
		if lambda <= 0 {
			lambda = defaultLambda
		}

		rv := mat.NewVecDense(nRes, r)
		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		for i := 0; i < cost.NumParameters(); i++ {
			jtj.Set(i, i, jtj.At(i, i)+lambda)
		}
		var jtr mat.VecDense
		jtr.MulVec(jac.T(), rv)
		jtr.ScaleVec(-1, &jtr)

		var dx mat.VecDense
		if err := dx.SolveVec(&jtj, &jtr); err != nil {
			return x, ErrSolveInfeasible
		}
		for i := range x {
			x[i] += dx.AtVec(i)
		}
	}
	return x, nil
}
