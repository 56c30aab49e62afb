package gicp

import "github.com/pkg/errors"

// ErrSolveInfeasible is reported when the solver cannot produce a valid
// correction (spec §7, SolveInfeasible): the caller should revert the
// candidate transform and retain the previous trajectory estimate.
var ErrSolveInfeasible = errors.New("gicp: solve infeasible")
