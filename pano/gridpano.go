package pano

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/liodom-robotics/lio/grid"
)

// GridPano is a reference DepthPano: an equirectangular azimuth/elevation
// grid retaining raw points per pixel, used to exercise the Matcher and
// the engine pipeline in tests (spec §1: the panorama's storage is an
// external concern; this is one concrete, simple choice of it). Mirrors
// the original node's default pano shape (256 rows, 1024 cols).
type GridPano struct {
	Cols, Rows int
	Hfov       float64 // vertical field of view, radians

	points    [][]r3.Vector
	numSweeps int
}

// NewGridPano allocates an empty panorama of the given shape.
func NewGridPano(cols, rows int, hfov float64) *GridPano {
	return &GridPano{
		Cols:   cols,
		Rows:   rows,
		Hfov:   hfov,
		points: make([][]r3.Vector, cols*rows),
	}
}

// DefaultGridPano mirrors node.cpp's ROS defaults: 1024x256 at 90deg vfov.
func DefaultGridPano() *GridPano {
	return NewGridPano(1024, 256, math.Pi/2)
}

func (g *GridPano) index(px Pixel) int { return px.Row*g.Cols + px.Col }

// Project maps a pano-frame point to an (azimuth, elevation) pixel.
func (g *GridPano) Project(p r3.Vector) (Pixel, bool) {
	rng := p.Norm()
	if rng == 0 {
		return Pixel{}, false
	}
	azimuth := math.Atan2(p.Y, p.X)
	elevation := math.Asin(p.Z / rng)

	col := int((azimuth + math.Pi) / (2 * math.Pi) * float64(g.Cols))
	col = ((col % g.Cols) + g.Cols) % g.Cols

	row := int((elevation+g.Hfov/2)/g.Hfov*float64(g.Rows) + 0.5)
	if row < 0 || row >= g.Rows {
		return Pixel{}, false
	}
	return Pixel{Col: col, Row: row}, true
}

// MatchCell merges every point stored within a `window`-pixel box of px
// (azimuth wraps circularly) into a fresh mean/covariance.
func (g *GridPano) MatchCell(px Pixel, window int) (grid.MeanCovar3, bool) {
	mc := grid.NewMeanCovar3()
	for dr := -window; dr <= window; dr++ {
		r := px.Row + dr
		if r < 0 || r >= g.Rows {
			continue
		}
		for dc := -window; dc <= window; dc++ {
			c := ((px.Col+dc)%g.Cols + g.Cols) % g.Cols
			for _, p := range g.points[g.index(Pixel{Col: c, Row: r})] {
				mc.Add(p)
			}
		}
	}
	if !mc.Valid() {
		return grid.MeanCovar3{}, false
	}
	mc.Finalize()
	return *mc, true
}

// AddSweep projects every column's points through its interpolated pose
// and stores them at the resulting pano pixel (spec §6,
// DepthPano::add_sweep).
func (g *GridPano) AddSweep(sweep Sweep) int {
	n := 0
	for i, pts := range sweep.ColumnPoints {
		tf := sweep.ColumnTfs[i]
		for _, p := range pts {
			panoP := tf.Apply(p)
			px, ok := g.Project(panoP)
			if !ok {
				continue
			}
			idx := g.index(px)
			g.points[idx] = append(g.points[idx], panoP)
			n++
		}
	}
	g.numSweeps++
	return n
}

// NumSweeps returns how many sweeps have been ingested.
func (g *GridPano) NumSweeps() int { return g.numSweeps }
