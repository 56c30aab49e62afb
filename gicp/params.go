package gicp

import "fmt"

// CostParams configures a GICP cost functor (spec §6, CostParams): the
// grain size for parallel residual evaluation and the relative weight
// applied to the inertial residual block.
type CostParams struct {
	GSize     int
	ImuWeight float64
}

// DefaultCostParams returns a serial-equivalent grain size and unit IMU
// weighting.
func DefaultCostParams() CostParams {
	return CostParams{GSize: 0, ImuWeight: 1.0}
}

func (p CostParams) String() string {
	return fmt.Sprintf("CostParams(gsize=%d, imu_weight=%.3f)", p.GSize, p.ImuWeight)
}
