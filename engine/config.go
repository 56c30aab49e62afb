package engine

import (
	"github.com/liodom-robotics/lio/gicp"
	"github.com/liodom-robotics/lio/grid"
	"github.com/liodom-robotics/lio/inertial"
	"github.com/liodom-robotics/lio/pano"
)

// Variant selects which GICP cost functor the engine solves with.
type Variant string

const (
	VariantRigid  Variant = "rigid"
	VariantLinear Variant = "linear"
)

// Config aggregates every component's configuration struct (spec §6):
// GridParams, MatcherParams, ImuNoise, and CostParams, plus the
// panorama shape and trajectory window size that the core's own
// Non-goals leave unspecified but an end-to-end engine still needs.
type Config struct {
	Grid    grid.Params
	Matcher pano.Params
	Noise   inertial.Noise
	Cost    gicp.CostParams

	GravityNorm float64
	TrajSize    int
	Variant     Variant

	PanoCols, PanoRows int
	PanoHfov           float64
}

// DefaultConfig mirrors the original node's ROS parameter defaults
// (cell 2x16, pano 1024x256 at 90deg vfov, 11-state trajectory window).
func DefaultConfig() Config {
	return Config{
		Grid:        grid.DefaultParams(),
		Matcher:     pano.DefaultParams(),
		Noise:       inertial.DefaultNoise(),
		Cost:        gicp.DefaultCostParams(),
		GravityNorm: 9.81,
		TrajSize:    11,
		Variant:     VariantRigid,
		PanoCols:    1024,
		PanoRows:    256,
		PanoHfov:    1.5707963267948966,
	}
}
