// Package pano declares the depth-panorama collaborator interface the
// core consumes (spec §1: "the depth panorama's internal storage and
// rendering [is out of scope]; the core only requires the ability to
// look up a reference mean/covariance near a projected image
// coordinate") and implements the Matcher that drives it (spec §4.6).
package pano

import (
	"github.com/golang/geo/r3"

	"github.com/liodom-robotics/lio/grid"
	"github.com/liodom-robotics/lio/spatialmath"
)

// Pixel is a panorama image coordinate (azimuth column, elevation row).
type Pixel struct {
	Col, Row int
}

// Sweep is a fully-aligned sweep ready to be folded into the panorama
// (spec §6, DepthPano::add_sweep's "sweep_with_per_column_poses"): the
// sweep-frame points, grouped by grid column, paired with the
// interpolated sweep-to-pano pose of that column.
type Sweep struct {
	ColumnPoints [][]r3.Vector
	ColumnTfs    []spatialmath.Pose
}

// DepthPano is the external collaborator that stores and renders the
// panoramic depth map (spec §3, §6). The core never reaches into its
// storage; it only projects points into pano pixels and reads back a
// local reference mean/covariance.
type DepthPano interface {
	// Project maps a pano-frame point to a panorama pixel. ok is false
	// if the point falls outside the panorama's field of view.
	Project(p r3.Vector) (Pixel, bool)

	// MatchCell looks up a reference mean/covariance within `window`
	// pixels of px. ok is false if too few reference points are found.
	MatchCell(px Pixel, window int) (grid.MeanCovar3, bool)

	// AddSweep folds a fully-aligned sweep into the panorama, returning
	// the number of points added.
	AddSweep(sweep Sweep) int
}
