package binding

import (
	"context"
	"fmt"

	"github.com/sbl8/lifestep/core"
)

// ElemKind is the element type of an Array.
type ElemKind uint8

const (
	ElemInvalid ElemKind = iota
	ElemUint8
	ElemInt8
	ElemBool
	ElemInt32
	ElemFloat64
)

var elemNames = map[ElemKind]string{
	ElemInvalid: "invalid",
	ElemUint8:   "uint8",
	ElemInt8:    "int8",
	ElemBool:    "bool",
	ElemInt32:   "int32",
	ElemFloat64: "float64",
}

func (k ElemKind) String() string {
	if s, ok := elemNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ElemKind(%d)", uint8(k))
}

// Stepable reports whether the engine can step arrays of this kind in place.
// Only one-byte kinds qualify.
func (k ElemKind) Stepable() bool {
	return k == ElemUint8 || k == ElemInt8 || k == ElemBool
}

// Array describes an n-dimensional array over raw storage, the way array
// libraries hand buffers to native code. Strides are in elements; nil Strides
// means row-major contiguous.
type Array struct {
	Data    []byte
	Offset  int
	Shape   []int
	Strides []int
	Elem    ElemKind
}

// Contiguous describes a dense row-major height × width uint8 array.
func Contiguous(data []byte, height, width int) Array {
	return Array{Data: data, Shape: []int{height, width}, Elem: ElemUint8}
}

// Grid validates a and returns the grid view over its storage.
func (a Array) Grid() (core.Grid, error) {
	if len(a.Shape) != 2 {
		return core.Grid{}, core.TypeError("want a 2-D array, got %d dimensions", len(a.Shape))
	}
	if !a.Elem.Stepable() {
		return core.Grid{}, core.TypeError("element kind %s is not one of uint8, int8, bool", a.Elem)
	}
	h, w := a.Shape[0], a.Shape[1]
	if h < core.MinExtent {
		return core.Grid{}, &core.ShapeError{Height: h, Width: w, Reason: "must have at least 3 rows"}
	}
	if w < core.MinExtent {
		return core.Grid{}, &core.ShapeError{Height: h, Width: w, Reason: "must have at least 3 columns"}
	}

	rs, cs := w, 1
	if a.Strides != nil {
		if len(a.Strides) != 2 {
			return core.Grid{}, core.TypeError("%d strides for a 2-D array", len(a.Strides))
		}
		rs, cs = a.Strides[0], a.Strides[1]
	}
	g := core.Grid{Data: a.Data, Offset: a.Offset, RowStride: rs, ColStride: cs, Height: h, Width: w}
	if err := g.Validate(); err != nil {
		return core.Grid{}, err
	}
	return g, nil
}

// StepArray validates a and steps it in place. Cells holding values other
// than 0 and 1 count as live. The caller's border is never written, and a
// failed step leaves a's data as it was.
func StepArray(ctx context.Context, s Stepper, a Array) error {
	g, err := a.Grid()
	if err != nil {
		return err
	}
	if !needsNormalize(g) {
		return s.Step(ctx, g)
	}
	scratch := g.Clone()
	Normalize(scratch)
	if err := s.Step(ctx, scratch); err != nil {
		return err
	}
	interior(g).CopyFrom(interior(scratch))
	return nil
}

func interior(g core.Grid) core.Grid {
	return g.Sub(1, 1, g.Height-2, g.Width-2)
}

func needsNormalize(g core.Grid) bool {
	for i := 0; i < g.Height; i++ {
		for j := 0; j < g.Width; j++ {
			if g.At(i, j) > 1 {
				return true
			}
		}
	}
	return false
}

// Normalize rewrites every cell of g holding a value above 1 to 1.
func Normalize(g core.Grid) {
	for i := 0; i < g.Height; i++ {
		for j := 0; j < g.Width; j++ {
			if g.At(i, j) > 1 {
				g.Set(i, j, 1)
			}
		}
	}
}
