// Package lifestep implements a parallel stepping engine for Conway's Game of Life.
//
// The engine advances a binary grid one generation at a time using a separable
// neighbour count: every row is first reduced to horizontal three-cell sums,
// and the live-neighbour count of a cell is then the sum of three vertically
// adjacent partial sums minus the cell itself. Both passes are split into
// strided row bands that run on a persistent worker pool, with a barrier
// after each pass.
//
// # Architecture Overview
//
//   - Grid views: strided windows over caller memory, bounds-checked under the lifedebug tag
//   - Kernels: scalar and packed (8 cells per uint64) partial sums and the B3/S23 rule
//   - Runtime: worker pool, shape-keyed buffer cache and the two-phase step engine
//   - Binding: adapters for nested slices and strided array descriptors
//   - Pattern: RLE and segment files, compressed snapshots, PNG rendering
//
// # Boundary Policy
//
// The outermost rows and columns of a grid are never written. Patterns placed
// with pattern.ToGrid get a one-cell dead border, so the frozen edge does not
// touch live cells.
//
// # Failure Semantics
//
// A step either commits the whole next generation or leaves the grid as it
// was. Cancellation and allocation failures are reported before the commit.
//
// # Basic Usage
//
//	engine, err := runtime.NewEngine(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	p, err := pattern.Load("glider.rle")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	grid, err := p.ToGrid(64, 64)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := engine.StepN(ctx, grid, 100); err != nil {
//	    log.Fatal(err)
//	}
//
// # Package Structure
//
//   - core: Grid views, shapes, error kinds and snapshot encoding
//   - kernels: Partial sums, rule combination and reference steppers
//   - runtime: Step engine, worker pool and buffer cache
//   - binding: Entry points for foreign array layouts
//   - pattern: Pattern files, snapshots and rendering
//   - cmd: Command-line tools (liferun, lifeperf, lifeconv)
package lifestep
