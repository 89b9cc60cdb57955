// Package kernels provides the row kernels of the lifestep engine.
//
// The neighbour count of a cell is computed in two separable passes:
//
//  1. PartialSums: for every row, the horizontal 3-window sum
//     partial[i][j] = grid[i][j] + grid[i][j+1] + grid[i][j+2]
//  2. Combine: for every interior cell, the vertical sum of the three partial
//     rows around it minus the cell itself, followed by the B3/S23 rule.
//
// Both passes operate on a Band of rows so that several workers can fill one
// shared buffer without locking: disjoint bands never write the same bytes.
//
// Each pass has a scalar per-column loop, which is the reference, and a
// packed-word loop that handles 8 columns per uint64 operation. The packed
// loops are only valid for 0/1 cells and are bit-identical to the scalar
// loops for such input. Strided grids always take the scalar path.
package kernels

import (
	"encoding/binary"

	"github.com/sbl8/lifestep/core"
)

// Band selects rows Start, Start+Step, Start+2*Step, ... strictly below End.
type Band struct {
	Start int
	Step  int
	End   int
}

// Rows returns the number of rows the band covers.
func (b Band) Rows() int {
	if b.Step <= 0 || b.Start >= b.End {
		return 0
	}
	return (b.End - b.Start + b.Step - 1) / b.Step
}

// All is the band covering rows [lo, hi) with step 1.
func All(lo, hi int) Band {
	return Band{Start: lo, Step: 1, End: hi}
}

// Partial is a dense Height × Width buffer of horizontal 3-window sums, where
// Width is the grid width minus two.
type Partial struct {
	Data   []byte
	Height int
	Width  int
}

// Row returns partial row i.
func (p Partial) Row(i int) []byte {
	start := i * p.Width
	return p.Data[start : start+p.Width : start+p.Width]
}

// Fits reports whether p is shaped for grid g.
func (p Partial) Fits(g core.Grid) bool {
	return p.Height == g.Height && p.Width == g.Width-2 && len(p.Data) >= p.Height*p.Width
}

// PartialSums fills partial[i] for every row i of band.
func PartialSums(g core.Grid, p Partial, band Band, mode Mode) {
	packed := mode.packed()
	for i := band.Start; i < band.End; i += band.Step {
		dst := p.Row(i)
		if !g.Dense() {
			partialRowStrided(dst, g, i)
			continue
		}
		src := g.Row(i)
		if packed {
			partialRowPacked(dst, src)
		} else {
			partialRowScalar(dst, src)
		}
	}
}

// partialRowScalar is the reference horizontal pass over one dense row.
func partialRowScalar(dst, src []byte) {
	for j := range dst {
		dst[j] = src[j] + src[j+1] + src[j+2]
	}
}

// partialRowPacked adds three shifted 8-byte windows at a time. Each byte sum
// is at most 3, so no carry crosses a byte boundary.
func partialRowPacked(dst, src []byte) {
	n := len(dst)
	j := 0
	for ; j+core.WordSize <= n; j += core.WordSize {
		a := binary.LittleEndian.Uint64(src[j:])
		b := binary.LittleEndian.Uint64(src[j+1:])
		c := binary.LittleEndian.Uint64(src[j+2:])
		binary.LittleEndian.PutUint64(dst[j:], a+b+c)
	}
	for ; j < n; j++ {
		dst[j] = src[j] + src[j+1] + src[j+2]
	}
}

func partialRowStrided(dst []byte, g core.Grid, i int) {
	for j := range dst {
		dst[j] = g.At(i, j) + g.At(i, j+1) + g.At(i, j+2)
	}
}
