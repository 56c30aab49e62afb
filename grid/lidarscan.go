package grid

import (
	"math"

	"github.com/golang/geo/r3"
)

// ColRange is a half-open column interval [Start, End) within a sweep,
// mirroring cv::Range in the original OpenCV-backed scan representation.
type ColRange struct {
	Start, End int
}

// Size returns End-Start.
func (c ColRange) Size() int { return c.End - c.Start }

// LidarScan is one incrementally-arriving column slice of a sweep (spec
// §3): a timestamp, an azimuth step, a 4-channel xyzr image flattened
// row-major, and the active column range it occupies within the full
// sweep. Invalid returns are represented as NaN ranges, matching the
// upstream sensor's convention for dropped/out-of-range shots.
type LidarScan struct {
	Time      float64
	AzimuthDt float64
	Rows      int
	ColRg     ColRange // columns local to the full sweep
	// Points and Ranges are row-major over (Rows, ColRg.Size()).
	Points []r3.Vector
	Ranges []float64
}

// NewLidarScan allocates a scan slice of the given shape with all ranges
// marked invalid (NaN), ready to be filled in by the caller.
func NewLidarScan(t0, dt float64, rows int, colRg ColRange) *LidarScan {
	n := rows * colRg.Size()
	ranges := make([]float64, n)
	for i := range ranges {
		ranges[i] = math.NaN()
	}
	return &LidarScan{
		Time:      t0,
		AzimuthDt: dt,
		Rows:      rows,
		ColRg:     colRg,
		Points:    make([]r3.Vector, n),
		Ranges:    ranges,
	}
}

// Cols returns the number of columns in this slice.
func (s *LidarScan) Cols() int { return s.ColRg.Size() }

func (s *LidarScan) index(r, c int) int { return r*s.Cols() + c }

// At returns the point and range at local (row, col) within this slice.
func (s *LidarScan) At(r, c int) (r3.Vector, float64) {
	i := s.index(r, c)
	return s.Points[i], s.Ranges[i]
}

// Set stores the point and range at local (row, col).
func (s *LidarScan) Set(r, c int, p r3.Vector, rng float64) {
	i := s.index(r, c)
	s.Points[i] = p
	s.Ranges[i] = rng
}

// CurveAt computes the curvature score for the cell window starting at
// local column c, row r, spanning width columns (spec §4.1: "a scalar
// curvature from the first row of the cell using a centered
// finite-difference of range over a window of w_c points"). Any invalid
// (NaN) range within the window makes the whole score NaN.
func (s *LidarScan) CurveAt(r, c, width int) float64 {
	if width < 3 {
		return math.NaN()
	}
	for i := c; i < c+width; i++ {
		if math.IsNaN(s.Ranges[s.index(r, i)]) {
			return math.NaN()
		}
	}
	left := s.Ranges[s.index(r, c)]
	right := s.Ranges[s.index(r, c+width-1)]
	mid := s.Ranges[s.index(r, c+width/2)]
	if mid == 0 {
		return math.NaN()
	}
	d := (left + right - 2*mid) / mid
	return d * d
}

// MeanCovarAt accumulates the mean and covariance of the full h_c x w_c
// window's valid points into mc, matching Filter's per-good-cell reduction
// (spec §4.1).
func (s *LidarScan) MeanCovarAt(r0, c0, height, width int, mc *MeanCovar3) {
	mc.Reset()
	for r := r0; r < r0+height; r++ {
		for c := c0; c < c0+width; c++ {
			if math.IsNaN(s.Ranges[s.index(r, c)]) {
				continue
			}
			mc.Add(s.Points[s.index(r, c)])
		}
	}
	mc.Finalize()
}
