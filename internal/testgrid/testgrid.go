// Package testgrid builds grid fixtures for tests.
package testgrid

import (
	"math/rand"
	"strings"

	"github.com/sbl8/lifestep/core"
)

// Random returns a dense grid whose cells are live with probability density.
func Random(rng *rand.Rand, height, width int, density float64) core.Grid {
	g := core.MustGrid(height, width)
	for i := 0; i < height; i++ {
		row := g.Row(i)
		for j := range row {
			if rng.Float64() < density {
				row[j] = 1
			}
		}
	}
	return g
}

// Strided copies g into a column-strided layout with padding between rows
// and columns, so that no kernel can assume adjacent cells.
func Strided(g core.Grid) core.Grid {
	const colStride, rowPad, offset = 3, 5, 7
	rowStride := g.Width*colStride + rowPad
	out := core.Grid{
		Data:      make([]byte, offset+g.Height*rowStride),
		Offset:    offset,
		RowStride: rowStride,
		ColStride: colStride,
		Height:    g.Height,
		Width:     g.Width,
	}
	for i := range out.Data {
		out.Data[i] = 0xEE
	}
	out.CopyFrom(g)
	return out
}

// Parse builds a dense grid from rows of '#' (live) and '.' (dead).
func Parse(s string) core.Grid {
	lines := strings.Fields(s)
	g := core.MustGrid(len(lines), len(lines[0]))
	for i, line := range lines {
		if len(line) != g.Width {
			panic("testgrid: ragged fixture")
		}
		for j := 0; j < len(line); j++ {
			if line[j] == '#' {
				g.Set(i, j, 1)
			}
		}
	}
	return g
}

// Border returns a copy of the outer ring of g in row-major order.
func Border(g core.Grid) []byte {
	var out []byte
	for i := 0; i < g.Height; i++ {
		for j := 0; j < g.Width; j++ {
			if i == 0 || j == 0 || i == g.Height-1 || j == g.Width-1 {
				out = append(out, g.At(i, j))
			}
		}
	}
	return out
}
