package core

import (
	"fmt"
	"math"
)

// Shape is a pair of grid extents. It doubles as the cache key of the
// partial-sum buffer.
type Shape struct {
	Height int
	Width  int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Height, s.Width)
}

// Partial returns the shape of the horizontal partial-sum buffer for a grid
// of shape s: one row per grid row, two fewer columns.
func (s Shape) Partial() Shape {
	return Shape{Height: s.Height, Width: s.Width - 2}
}

// Cells returns Height*Width, failing on non-positive extents or overflow.
func (s Shape) Cells() (int, error) {
	if s.Height <= 0 || s.Width <= 0 {
		return 0, &ShapeError{Height: s.Height, Width: s.Width, Reason: "non-positive extent"}
	}
	if s.Height > math.MaxInt/s.Width {
		return 0, &AllocError{What: "cell buffer " + s.String(), Bytes: math.MaxInt64, Cause: fmt.Errorf("size overflows int")}
	}
	return s.Height * s.Width, nil
}

// StepBytes returns the scratch memory one step on a grid of shape s needs:
// the partial-sum buffer plus the next-state buffer.
func (s Shape) StepBytes() (int64, error) {
	grid, err := s.Cells()
	if err != nil {
		return 0, err
	}
	partial, err := s.Partial().Cells()
	if err != nil {
		return 0, err
	}
	return int64(AlignedSize(grid)) + int64(AlignedSize(partial)), nil
}
