package inertial

import "github.com/pkg/errors"

// ErrInsufficientIMU is raised by Compute when no IMU sample newer than
// t0 exists in the queue (spec §7, InsufficientIMU): the caller
// skips the inertial residual and proceeds with a GICP-only solve.
var ErrInsufficientIMU = errors.New("inertial: insufficient IMU samples in window")

// ErrSingularCovariance is raised by Compute when the accumulated
// covariance P is singular and no sqrt-information factor can be formed;
// the caller treats this the same as InsufficientIMU and skips the
// inertial residual.
var ErrSingularCovariance = errors.New("inertial: singular preintegration covariance")
