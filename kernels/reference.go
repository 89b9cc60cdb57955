package kernels

import (
	"sort"

	"github.com/sbl8/lifestep/core"
)

// Stepper advances a grid by one generation in place, leaving its border.
type Stepper func(g core.Grid) error

// Catalog maps names to single-threaded steppers used as correctness
// baselines and benchmark comparisons.
var Catalog = map[string]Stepper{
	"reference":  ReferenceStep,
	"sequential": func(g core.Grid) error { return SequentialStep(g, ModeScalar) },
	"packed":     func(g core.Grid) error { return SequentialStep(g, ModePacked) },
}

// GetStepper returns the named stepper or nil.
func GetStepper(name string) Stepper {
	return Catalog[name]
}

// StepperNames lists Catalog keys in sorted order.
func StepperNames() []string {
	names := make([]string, 0, len(Catalog))
	for name := range Catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReferenceStep counts all eight neighbours of every interior cell directly.
func ReferenceStep(g core.Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	prev := g.Clone()
	for i := 1; i < g.Height-1; i++ {
		for j := 1; j < g.Width-1; j++ {
			var n uint8
			for di := -1; di <= 1; di++ {
				for dj := -1; dj <= 1; dj++ {
					if di == 0 && dj == 0 {
						continue
					}
					n += prev.At(i+di, j+dj)
				}
			}
			g.Set(i, j, Next(n, prev.At(i, j)))
		}
	}
	return nil
}

// SequentialStep runs both passes on the calling goroutine and updates g in
// place. Writing g[i][j] during the second pass is safe because that pass only
// reads the partial buffer and the cell being written.
func SequentialStep(g core.Grid, mode Mode) error {
	if err := g.Validate(); err != nil {
		return err
	}
	ps := g.Shape().Partial()
	n, err := ps.Cells()
	if err != nil {
		return err
	}
	data, err := core.AllocBytes(n)
	if err != nil {
		return err
	}
	p := Partial{Data: data, Height: ps.Height, Width: ps.Width}
	PartialSums(g, p, All(0, g.Height), mode)

	for i := 1; i < g.Height-1; i++ {
		up, mid, down := p.Row(i-1), p.Row(i), p.Row(i+1)
		for k := range mid {
			c := g.At(i, k+1)
			g.Set(i, k+1, Next(up[k]+mid[k]+down[k]-c, c))
		}
	}
	return nil
}
