package spatialmath

import "gonum.org/v1/gonum/mat"

// MatrixSqrtUtU computes the upper-triangular Cholesky factor U of a
// symmetric positive-definite matrix m such that UᵗU = m. Both the GICP
// match whitening (spec §4.4, U from (Σ_p+Σ_g)⁻¹) and the IMU
// preintegration sqrt-information (spec §4.3, U from P⁻¹) reduce to this
// same operation applied to an information matrix. It returns ok=false if
// m is not positive definite.
func MatrixSqrtUtU(m mat.Symmetric) (*mat.TriDense, bool) {
	var chol mat.Cholesky
	if ok := chol.Factorize(m); !ok {
		return nil, false
	}
	var u mat.TriDense
	chol.UTo(&u)
	return &u, true
}

// InvertSym inverts a symmetric positive-definite matrix, returning
// ok=false if the inversion fails (singular or not positive definite).
func InvertSym(m mat.Symmetric) (*mat.SymDense, bool) {
	n := m.SymmetricDim()
	var chol mat.Cholesky
	if ok := chol.Factorize(m); !ok {
		return nil, false
	}
	inv := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(inv); err != nil {
		return nil, false
	}
	return inv, true
}
