package grid

import "fmt"

// Params configures a SweepGrid (spec §6, GridParams): the cell shape in
// sweep-image pixels, the NMS score threshold, and whether non-maximum
// suppression is applied.
type Params struct {
	CellRows int
	CellCols int
	MaxScore float64
	NMS      bool
}

// DefaultParams returns the same defaults the original node.cpp's ROS
// params carried: 2-row by 16-column cells, NMS off, max_score=0.05.
func DefaultParams() Params {
	return Params{CellRows: 2, CellCols: 16, MaxScore: 0.05, NMS: false}
}

func (p Params) String() string {
	return fmt.Sprintf("GridParams(cell=%dx%d, max_score=%.3f, nms=%v)", p.CellRows, p.CellCols, p.MaxScore, p.NMS)
}
