// Package binding adapts caller data to the step engine.
//
// Two call shapes are offered. List-of-lists grids ([][]uint8, [][]int,
// [][]bool) are copied into a dense grid, stepped and copied out to a fresh
// value; non-zero cells count as live. Array descriptors over raw storage are
// validated and stepped in place without copying.
//
// Every error wraps one of core.ErrInvalidShape, core.ErrTypeMismatch or
// core.ErrAllocationFailure; core.KindOf classifies it.
package binding

import (
	"context"
	"fmt"

	"github.com/sbl8/lifestep/core"
	"github.com/sbl8/lifestep/runtime"
)

// DefaultPoolSize is the worker count New uses for a non-positive size.
const DefaultPoolSize = 4

// Stepper advances a grid view by one generation in place.
type Stepper interface {
	Step(ctx context.Context, g core.Grid) error
}

// New starts an engine with poolSize workers. The pool size never changes
// results, only the degree of parallelism.
func New(poolSize int) (*runtime.Engine, error) {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	opts := runtime.DefaultEngineOptions()
	opts.Workers = poolSize
	return runtime.NewEngine(&opts)
}

// Step dispatches on the dynamic type of grid. List-of-lists values return a
// new stepped copy; Array, *Array and core.Grid are stepped in place and
// returned as given.
func Step(ctx context.Context, s Stepper, grid any) (any, error) {
	switch g := grid.(type) {
	case [][]uint8:
		return StepRows(ctx, s, g)
	case [][]int:
		return StepInts(ctx, s, g)
	case [][]bool:
		return StepBools(ctx, s, g)
	case Array:
		return g, StepArray(ctx, s, g)
	case *Array:
		if g == nil {
			return nil, core.TypeError("nil array")
		}
		return g, StepArray(ctx, s, *g)
	case core.Grid:
		if err := g.Validate(); err != nil {
			return nil, err
		}
		return g, s.Step(ctx, g)
	case nil:
		return nil, core.TypeError("nil grid")
	default:
		return nil, core.TypeError("unsupported grid type %T", grid)
	}
}

// StepRows steps a list-of-lists of bytes.
func StepRows(ctx context.Context, s Stepper, rows [][]uint8) ([][]uint8, error) {
	return stepList(ctx, s, rows,
		func(v uint8) uint8 { return live(v != 0) },
		func(b uint8) uint8 { return b })
}

// StepInts steps a list-of-lists of ints.
func StepInts(ctx context.Context, s Stepper, rows [][]int) ([][]int, error) {
	return stepList(ctx, s, rows,
		func(v int) uint8 { return live(v != 0) },
		func(b uint8) int { return int(b) })
}

// StepBools steps a list-of-lists of booleans.
func StepBools(ctx context.Context, s Stepper, rows [][]bool) ([][]bool, error) {
	return stepList(ctx, s, rows,
		func(v bool) uint8 { return live(v) },
		func(b uint8) bool { return b != 0 })
}

func stepList[T any](ctx context.Context, s Stepper, rows [][]T, in func(T) uint8, out func(uint8) T) ([][]T, error) {
	g, err := gridFromRows(rows, in)
	if err != nil {
		return nil, err
	}
	if err := s.Step(ctx, g); err != nil {
		return nil, err
	}

	res := make([][]T, g.Height)
	for i := range res {
		src := g.Row(i)
		row := make([]T, g.Width)
		for j, b := range src {
			row[j] = out(b)
		}
		res[i] = row
	}
	return res, nil
}

func gridFromRows[T any](rows [][]T, in func(T) uint8) (core.Grid, error) {
	if len(rows) == 0 {
		return core.Grid{}, &core.ShapeError{Height: 0, Width: 0, Reason: "no rows"}
	}
	width := len(rows[0])
	for i, r := range rows {
		if len(r) != width {
			return core.Grid{}, core.TypeError("ragged rows: row %d has %d cells, row 0 has %d", i, len(r), width)
		}
	}
	shape := core.Shape{Height: len(rows), Width: width}
	if shape.Height < core.MinExtent || shape.Width < core.MinExtent {
		return core.Grid{}, &core.ShapeError{Height: shape.Height, Width: shape.Width,
			Reason: fmt.Sprintf("need at least %dx%d", core.MinExtent, core.MinExtent)}
	}

	g, err := core.NewGrid(shape.Height, shape.Width)
	if err != nil {
		return core.Grid{}, err
	}
	for i, r := range rows {
		dst := g.Row(i)
		for j, v := range r {
			dst[j] = in(v)
		}
	}
	return g, nil
}

func live(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
