// Package pattern loads, stores and renders Life patterns.
//
// A Pattern is a dense block of cells plus the metadata pattern files carry:
// name, comments, author and a placement offset. Patterns are turned into
// engine grids by ToGrid, which surrounds them with a frozen dead border.
//
// Supported formats:
//   - RLE (.rle): run-length encoded cells with #N, #C, #O, #R and #P lines
//   - Segments (.seg, .txt): "width,height", a segment count, then per segment
//     "x,y,w,h" followed by h rows of w comma-separated cells
//   - Snapshots (.lfs): zstd-compressed bit-packed grids with a generation
package pattern

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sbl8/lifestep/core"
)

var (
	// ErrSyntax is wrapped by every malformed-input error from the decoders.
	ErrSyntax = errors.New("pattern syntax error")
	// ErrUnsupportedRule is returned for patterns declaring a rule other
	// than B3/S23.
	ErrUnsupportedRule = errors.New("unsupported rule")
)

// Rule is the only rule patterns may declare.
const Rule = "B3/S23"

// MaxCells bounds the cell count of a decoded pattern and of the board
// ToGrid builds. Placement offsets are bounded by it too.
const MaxCells = 1 << 30

func checkCells(height, width int) error {
	if height < 0 || width < 0 || (width > 0 && height > MaxCells/width) {
		return &core.ShapeError{Height: height, Width: width,
			Reason: fmt.Sprintf("more than %d cells", MaxCells)}
	}
	return nil
}

// Pattern is a block of cells with file metadata. Cells is dense; X and Y
// place its top-left corner within a board.
type Pattern struct {
	Name     string
	Author   string
	Comments []string
	X, Y     int
	Cells    core.Grid
}

// Rect is an inclusive cell rectangle.
type Rect struct {
	MinRow, MinCol int
	MaxRow, MaxCol int
}

// Height returns the number of rows in r.
func (r Rect) Height() int { return r.MaxRow - r.MinRow + 1 }

// Width returns the number of columns in r.
func (r Rect) Width() int { return r.MaxCol - r.MinCol + 1 }

// New returns an empty pattern of the given size.
func New(height, width int) (*Pattern, error) {
	g, err := newCells(height, width)
	if err != nil {
		return nil, err
	}
	return &Pattern{Cells: g}, nil
}

// FromGrid copies g into a new pattern.
func FromGrid(g core.Grid) *Pattern {
	return &Pattern{Cells: g.Clone()}
}

func newCells(height, width int) (core.Grid, error) {
	if err := checkCells(height, width); err != nil {
		return core.Grid{}, err
	}
	if height == 0 || width == 0 {
		return core.Grid{}, nil
	}
	return core.NewGrid(height, width)
}

// Height returns the number of rows of cells.
func (p *Pattern) Height() int { return p.Cells.Height }

// Width returns the number of columns of cells.
func (p *Pattern) Width() int { return p.Cells.Width }

// Population counts live cells.
func (p *Pattern) Population() int {
	if p.Cells.Height == 0 {
		return 0
	}
	return p.Cells.Population()
}

// Bounds returns the smallest rectangle holding every live cell. ok is false
// for a pattern without live cells.
func (p *Pattern) Bounds() (r Rect, ok bool) {
	return liveBounds(p.Cells)
}

func liveBounds(g core.Grid) (r Rect, ok bool) {
	r = Rect{MinRow: g.Height, MinCol: g.Width, MaxRow: -1, MaxCol: -1}
	for i := 0; i < g.Height; i++ {
		for j := 0; j < g.Width; j++ {
			if g.At(i, j) == 0 {
				continue
			}
			r.MinRow = min(r.MinRow, i)
			r.MaxRow = max(r.MaxRow, i)
			r.MinCol = min(r.MinCol, j)
			r.MaxCol = max(r.MaxCol, j)
		}
	}
	if r.MaxRow < 0 {
		return Rect{}, false
	}
	return r, true
}

// Trim returns a copy cropped to the live bounds, with X and Y moved so the
// cells keep their board position. An empty pattern trims to 0×0.
func (p *Pattern) Trim() *Pattern {
	out := &Pattern{Name: p.Name, Author: p.Author, Comments: append([]string(nil), p.Comments...), X: p.X, Y: p.Y}
	r, ok := p.Bounds()
	if !ok {
		return out
	}
	out.X += r.MinCol
	out.Y += r.MinRow
	out.Cells = p.Cells.Sub(r.MinRow, r.MinCol, r.Height(), r.Width()).Clone()
	return out
}

// ToGrid places the pattern on a board and returns it as an engine grid.
// The board is at least minHeight × minWidth and large enough for the cells
// at their X, Y offset; a one-cell dead border is added on every side, so
// live cells never sit on the frozen edge.
func (p *Pattern) ToGrid(minHeight, minWidth int) (core.Grid, error) {
	if p.X < 0 || p.Y < 0 {
		return core.Grid{}, &core.ShapeError{Height: p.Height(), Width: p.Width(),
			Reason: fmt.Sprintf("negative offset (%d,%d)", p.X, p.Y)}
	}
	if p.X > MaxCells-p.Width() || p.Y > MaxCells-p.Height() ||
		minHeight > MaxCells || minWidth > MaxCells {
		return core.Grid{}, &core.ShapeError{Height: p.Height(), Width: p.Width(),
			Reason: fmt.Sprintf("offset (%d,%d) too large", p.X, p.Y)}
	}
	h := max(p.Y+p.Height(), minHeight) + 2
	w := max(p.X+p.Width(), minWidth) + 2
	if err := checkCells(h, w); err != nil {
		return core.Grid{}, err
	}
	g, err := core.NewGrid(h, w)
	if err != nil {
		return core.Grid{}, err
	}
	if p.Height() > 0 {
		g.Sub(p.Y+1, p.X+1, p.Height(), p.Width()).CopyFrom(p.Cells)
	}
	return g, nil
}

// Random returns a height × width pattern whose cells are live with
// probability density, drawn from a source seeded with seed.
func Random(height, width int, density float64, seed int64) (*Pattern, error) {
	if density < 0 || density > 1 {
		return nil, fmt.Errorf("density %v outside [0, 1]", density)
	}
	p, err := New(height, width)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < height; i++ {
		row := p.Cells.Row(i)
		for j := range row {
			if rng.Float64() < density {
				row[j] = 1
			}
		}
	}
	p.Name = fmt.Sprintf("random %dx%d d=%.2f seed=%d", height, width, density, seed)
	return p, nil
}

// String renders the cells with '#' and '.'.
func (p *Pattern) String() string {
	if p.Height() == 0 {
		return ""
	}
	return p.Cells.String()
}
