package kernels

import (
	"encoding/binary"

	"github.com/sbl8/lifestep/core"
)

const (
	lowBits  = 0x0101010101010101
	threes   = 0x0303030303030303
	sevenFs  = 0x7f7f7f7f7f7f7f7f
	highBits = 0x8080808080808080
)

// Next applies B3/S23 to a cell with state c and n live neighbours.
func Next(n, c uint8) uint8 {
	if n == 3 || (n == 2 && c == 1) {
		return 1
	}
	return 0
}

// Combine writes the next state of every interior cell of each band row into
// next. Band rows must lie in [1, Height-2]. Border columns of next are not
// written.
//
// The count is partial[i-1][j-1] + partial[i][j-1] + partial[i+1][j-1] minus
// grid[i][j]: the middle partial row already contains the cell itself once.
func Combine(g core.Grid, p Partial, next core.Grid, band Band, mode Mode) {
	packed := mode.packed()
	for i := band.Start; i < band.End; i += band.Step {
		up, mid, down := p.Row(i-1), p.Row(i), p.Row(i+1)
		out := next.Row(i)
		if !g.Dense() {
			combineRowStrided(out, up, mid, down, g, i)
			continue
		}
		src := g.Row(i)
		if packed {
			combineRowPacked(out, up, mid, down, src)
		} else {
			combineRowScalar(out, up, mid, down, src)
		}
	}
}

func combineRowScalar(out, up, mid, down, src []byte) {
	for k := range mid {
		c := src[k+1]
		out[k+1] = Next(up[k]+mid[k]+down[k]-c, c)
	}
}

// combineRowPacked evaluates 8 cells per word. With 0/1 cells the count n is
// at most 8, and n|c == 3 exactly when n == 3, or n == 2 and c == 1.
func combineRowPacked(out, up, mid, down, src []byte) {
	n := len(mid)
	k := 0
	for ; k+core.WordSize <= n; k += core.WordSize {
		c := binary.LittleEndian.Uint64(src[k+1:])
		sum := binary.LittleEndian.Uint64(up[k:]) +
			binary.LittleEndian.Uint64(mid[k:]) +
			binary.LittleEndian.Uint64(down[k:]) - c
		binary.LittleEndian.PutUint64(out[k+1:], equalThree(sum|c))
	}
	for ; k < n; k++ {
		c := src[k+1]
		out[k+1] = Next(up[k]+mid[k]+down[k]-c, c)
	}
}

// equalThree returns 0x01 in every byte of x equal to 3 and 0x00 elsewhere.
// Bytes of x must be below 0x80.
func equalThree(x uint64) uint64 {
	y := x ^ threes
	nonzero := (y + sevenFs) & highBits
	return (^nonzero & highBits) >> 7 & lowBits
}

func combineRowStrided(out, up, mid, down []byte, g core.Grid, i int) {
	for k := range mid {
		c := g.At(i, k+1)
		out[k+1] = Next(up[k]+mid[k]+down[k]-c, c)
	}
}
