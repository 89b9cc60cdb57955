// Package core provides the grid view and shared primitives of the lifestep engine.
//
// A Grid is a borrowed, possibly strided view over a caller's cell buffer. Every
// cell is one byte holding 0 (dead) or 1 (live). The engine reads and writes the
// raw byte and never revalidates cell values; callers normalise values upstream
// (see package binding).
//
// Key components:
//   - Grid: base + offset + strides + extents, with bounds-checked accessors in
//     debug builds (tag lifedebug) and unchecked accessors otherwise
//   - Shape: grid extents and the derived partial-sum buffer shape
//   - Error taxonomy shared by every layer: InvalidShape, TypeMismatch,
//     AllocationFailure
//   - Snapshot serialisation of dense grids
package core

import (
	"fmt"
)

// MinExtent is the smallest height or width a grid may have to be stepped.
const MinExtent = 3

// Grid is a rectangular view over cell bytes. Cell (i, j) lives at
// Data[Offset + i*RowStride + j*ColStride]. The view never owns Data.
type Grid struct {
	Data      []byte
	Offset    int
	RowStride int
	ColStride int
	Height    int
	Width     int
}

// NewGrid allocates a dense, zeroed, row-major grid.
func NewGrid(height, width int) (Grid, error) {
	s := Shape{Height: height, Width: width}
	n, err := s.Cells()
	if err != nil {
		return Grid{}, err
	}
	data, err := AllocBytes(n)
	if err != nil {
		return Grid{}, err
	}
	return Grid{Data: data, RowStride: width, ColStride: 1, Height: height, Width: width}, nil
}

// MustGrid is NewGrid for fixed, known-good shapes such as test fixtures.
func MustGrid(height, width int) Grid {
	g, err := NewGrid(height, width)
	if err != nil {
		panic(err)
	}
	return g
}

// Wrap builds a dense row-major view over data.
func Wrap(data []byte, height, width int) (Grid, error) {
	g := Grid{Data: data, RowStride: width, ColStride: 1, Height: height, Width: width}
	if err := g.CheckExtent(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

// Shape returns the grid extents.
func (g Grid) Shape() Shape {
	return Shape{Height: g.Height, Width: g.Width}
}

// Dense reports whether cells within a row are adjacent in memory.
func (g Grid) Dense() bool {
	return g.ColStride == 1
}

// Contiguous reports whether the whole grid is one packed row-major block.
func (g Grid) Contiguous() bool {
	return g.ColStride == 1 && g.RowStride == g.Width
}

// CheckExtent verifies strides are positive and Data covers every cell the
// strides address.
func (g Grid) CheckExtent() error {
	if g.Height <= 0 || g.Width <= 0 {
		return &ShapeError{Height: g.Height, Width: g.Width, Reason: "empty grid"}
	}
	if g.RowStride <= 0 || g.ColStride <= 0 || g.Offset < 0 {
		return &ShapeError{Height: g.Height, Width: g.Width,
			Reason: fmt.Sprintf("bad layout offset=%d strides=(%d,%d)", g.Offset, g.RowStride, g.ColStride)}
	}
	last := g.Offset + (g.Height-1)*g.RowStride + (g.Width-1)*g.ColStride
	if last >= len(g.Data) || last < g.Offset {
		return &ShapeError{Height: g.Height, Width: g.Width,
			Reason: fmt.Sprintf("buffer of %d bytes does not cover extent ending at %d", len(g.Data), last)}
	}
	return nil
}

// Validate checks the grid can be stepped: at least 3×3 and fully addressable.
func (g Grid) Validate() error {
	if g.Height < MinExtent {
		return &ShapeError{Height: g.Height, Width: g.Width, Reason: "must have at least 3 rows"}
	}
	if g.Width < MinExtent {
		return &ShapeError{Height: g.Height, Width: g.Width, Reason: "must have at least 3 columns"}
	}
	return g.CheckExtent()
}

// Index returns the Data index of cell (i, j).
func (g Grid) Index(i, j int) int {
	if boundsChecks {
		g.mustContain(i, j)
	}
	return g.Offset + i*g.RowStride + j*g.ColStride
}

// At returns the cell value at (i, j).
func (g Grid) At(i, j int) uint8 {
	return g.Data[g.Index(i, j)]
}

// Set stores v at (i, j).
func (g Grid) Set(i, j int, v uint8) {
	g.Data[g.Index(i, j)] = v
}

// Row returns row i as a slice of exactly Width bytes. Only dense grids have
// addressable rows; Row panics otherwise.
func (g Grid) Row(i int) []byte {
	if g.ColStride != 1 {
		panic("core: Row on a strided grid")
	}
	start := g.Index(i, 0)
	return g.Data[start : start+g.Width : start+g.Width]
}

// Clone returns a dense copy of the grid.
func (g Grid) Clone() Grid {
	out := MustGrid(g.Height, g.Width)
	out.CopyFrom(g)
	return out
}

// CopyFrom copies every cell of src into g. Shapes must match.
func (g Grid) CopyFrom(src Grid) {
	if g.Height != src.Height || g.Width != src.Width {
		panic(fmt.Sprintf("core: CopyFrom shape mismatch %dx%d <- %dx%d", g.Height, g.Width, src.Height, src.Width))
	}
	for i := 0; i < g.Height; i++ {
		if g.Dense() && src.Dense() {
			copy(g.Row(i), src.Row(i))
			continue
		}
		for j := 0; j < g.Width; j++ {
			g.Set(i, j, src.At(i, j))
		}
	}
}

// Equal reports whether both grids have the same shape and cell values.
func (g Grid) Equal(o Grid) bool {
	if g.Height != o.Height || g.Width != o.Width {
		return false
	}
	for i := 0; i < g.Height; i++ {
		for j := 0; j < g.Width; j++ {
			if g.At(i, j) != o.At(i, j) {
				return false
			}
		}
	}
	return true
}

// Population counts live cells.
func (g Grid) Population() int {
	n := 0
	for i := 0; i < g.Height; i++ {
		for j := 0; j < g.Width; j++ {
			if g.At(i, j) != 0 {
				n++
			}
		}
	}
	return n
}

// Sub returns the view of rows [r0, r0+h) and columns [c0, c0+w) sharing Data.
func (g Grid) Sub(r0, c0, h, w int) Grid {
	return Grid{
		Data:      g.Data,
		Offset:    g.Offset + r0*g.RowStride + c0*g.ColStride,
		RowStride: g.RowStride,
		ColStride: g.ColStride,
		Height:    h,
		Width:     w,
	}
}

// String renders the grid with '#' for live and '.' for dead cells.
func (g Grid) String() string {
	buf := make([]byte, 0, g.Height*(g.Width+1))
	for i := 0; i < g.Height; i++ {
		for j := 0; j < g.Width; j++ {
			if g.At(i, j) != 0 {
				buf = append(buf, '#')
			} else {
				buf = append(buf, '.')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

func (g Grid) mustContain(i, j int) {
	if i < 0 || i >= g.Height || j < 0 || j >= g.Width {
		panic(fmt.Sprintf("core: cell (%d,%d) outside %dx%d grid", i, j, g.Height, g.Width))
	}
}
