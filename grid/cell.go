package grid

import (
	"gonum.org/v1/gonum/mat"
)

// Px is an integer grid coordinate (column, row).
type Px struct {
	C, R int
}

// Cell is one grid element (spec §3): its curvature score, mean/covariance
// in sweep frame, mean/covariance matched in pano frame, the sqrt
// information of their combined covariance, the grid pixel it was found
// at, and whether it currently holds a valid match.
type Cell struct {
	Score float64
	MeanG MeanCovar3 // mc_g: mean/covariance in sweep frame
	MeanP MeanCovar3 // mc_p: mean/covariance in pano frame (filled by the matcher)
	U     *mat.TriDense
	PxG   Px
	good  bool // passed Filter's threshold+NMS check; has mc_g
}

// Reset clears the cell back to an invalid/unmatched state (spec §7,
// NoMatch handling: "local reset of cell; contributes zero residuals").
func (c *Cell) Reset() {
	c.MeanG.Reset()
	c.MeanP.Reset()
	c.U = nil
	c.good = false
}

// Good reports whether the cell passed Filter's threshold+NMS check and
// has a populated mc_g, independent of whether it has since been matched.
func (c *Cell) Good() bool { return c.good }

// Ok reports whether the cell holds a valid match: it passed Filter, and
// mc_p/U were filled in by a successful panorama match (spec §3's Cell
// invariant).
func (c *Cell) Ok() bool {
	return c.good && c.MeanG.Valid() && c.MeanP.Valid() && c.U != nil
}

// SetMatch records a successful panorama match: mc_p and the whitening
// matrix U derived from chol((Σ_p+Σ_g)⁻¹) (spec §4.6).
func (c *Cell) SetMatch(meanP MeanCovar3, u *mat.TriDense) {
	c.MeanP = meanP
	c.U = u
}
