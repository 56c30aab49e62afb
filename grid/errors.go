package grid

import "github.com/pkg/errors"

// ErrInvariantViolation is the sentinel for spec §7's InvariantViolation
// class: the scan slice's column range doesn't line up with the grid's
// running column range, or its row count doesn't match the grid's cell
// rows. Fatal within the slice: callers must reject the slice rather than
// advance state.
var ErrInvariantViolation = errors.New("grid: invariant violation")
