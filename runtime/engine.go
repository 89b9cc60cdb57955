// Package runtime implements the parallel step engine.
//
// An Engine owns a persistent WorkerPool and a BufferCache. One step runs in
// two phases separated by full barriers:
//
//  1. every worker fills the partial sums of its strided row band
//  2. every worker combines the partial rows around each interior cell of its
//     band, applies B3/S23 and writes the result to the arena's next grid
//
// After the second barrier the caller's goroutine commits interior cells of the
// next grid back into the caller's grid. Border rows and columns are never
// written. A step that fails or is cancelled returns before the commit, so the
// grid is either fully advanced or untouched.
//
// Key components:
//   - Engine: Step, StepInto, StepN over core.Grid views
//   - WorkerPool: per-worker queues with stealing; ExecuteAll is the barrier
//   - BufferCache / Arena: shape-keyed scratch memory checked out per step
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sbl8/lifestep/core"
	"github.com/sbl8/lifestep/kernels"
)

// ErrEngineClosed is returned by steps on a closed engine.
var ErrEngineClosed = errors.New("engine closed")

// RowBand assigns the rows Start, Start+Step, ... below End to one task.
type RowBand = kernels.Band

// cancelCheckRows is how many band rows a task processes between context checks.
const cancelCheckRows = 16

// EngineOptions configures an Engine.
type EngineOptions struct {
	// Workers is the pool size and the number of tasks per phase.
	Workers int
	// Kernel selects the row loops.
	Kernel kernels.Mode
	// CacheSlots is how many grid shapes keep their arena between steps.
	CacheSlots int
	// DisableCache allocates fresh buffers on every step.
	DisableCache bool
	// MaxBufferBytes caps the scratch memory of one step. Zero means no cap.
	MaxBufferBytes int64
	// EnableStats records per-step latency.
	EnableStats bool
}

// DefaultEngineOptions returns four workers, automatic kernel selection and a
// single cache slot.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Workers:    4,
		Kernel:     kernels.ModeAuto,
		CacheSlots: 1,
	}
}

// ExecutionStats summarises the steps an engine has run.
type ExecutionStats struct {
	TotalSteps     int64
	FailedSteps    int64
	CancelledSteps int64
	AverageLatency time.Duration
	Workers        int
	Kernel         string
	Cache          CacheStats
}

// Engine advances grids by one generation at a time. Its methods are safe for
// concurrent use; concurrent steps must not share output cells.
type Engine struct {
	opts  EngineOptions
	mode  kernels.Mode
	pool  *WorkerPool
	cache *BufferCache

	steps     atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64

	mu      sync.Mutex
	latency time.Duration
	timed   int64
}

// NewEngine starts an engine. A nil opts means DefaultEngineOptions.
func NewEngine(opts *EngineOptions) (*Engine, error) {
	o := DefaultEngineOptions()
	if opts != nil {
		o = *opts
	}
	if err := validateOptions(&o); err != nil {
		return nil, err
	}

	e := &Engine{
		opts:  o,
		mode:  o.Kernel.Resolve(),
		pool:  NewWorkerPool(o.Workers),
		cache: NewBufferCache(o.CacheSlots, o.DisableCache, o.MaxBufferBytes),
	}
	Logger().Info("engine started", "workers", o.Workers, "kernel", e.mode.String(),
		"cache_slots", o.CacheSlots, "cache_disabled", o.DisableCache)
	return e, nil
}

func validateOptions(o *EngineOptions) error {
	if o.Workers == 0 {
		o.Workers = DefaultEngineOptions().Workers
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", o.Workers)
	}
	if o.CacheSlots == 0 {
		o.CacheSlots = 1
	}
	if o.CacheSlots < 0 {
		return fmt.Errorf("cache slots must be positive, got %d", o.CacheSlots)
	}
	if o.MaxBufferBytes < 0 {
		return fmt.Errorf("max buffer bytes must not be negative, got %d", o.MaxBufferBytes)
	}
	if _, err := kernels.ParseMode(o.Kernel.String()); err != nil {
		return err
	}
	return nil
}

// StridedBands splits rows [lo, hi) into n bands: band k holds rows
// lo+k, lo+k+n, lo+k+2n, ... Bands may be empty when hi-lo < n.
func StridedBands(n, lo, hi int) []RowBand {
	bands := make([]RowBand, n)
	for k := range bands {
		bands[k] = RowBand{Start: lo + k, Step: n, End: hi}
	}
	return bands
}

// Step advances g by one generation in place.
func (e *Engine) Step(ctx context.Context, g core.Grid) error {
	return e.step(ctx, g, g)
}

// StepInto writes the next generation of src into dst. dst receives src's
// border unchanged. src is not modified. The grids must have the same shape
// and must not overlap.
func (e *Engine) StepInto(ctx context.Context, src, dst core.Grid) error {
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if src.Height != dst.Height || src.Width != dst.Width {
		return &core.ShapeError{Height: dst.Height, Width: dst.Width,
			Reason: fmt.Sprintf("destination does not match source %dx%d", src.Height, src.Width)}
	}
	return e.step(ctx, src, dst)
}

// StepN advances g by n generations and returns how many completed. It stops
// at the first failing step; g then holds the last completed generation.
func (e *Engine) StepN(ctx context.Context, g core.Grid, n int) (int, error) {
	for i := 0; i < n; i++ {
		if err := e.step(ctx, g, g); err != nil {
			return i, err
		}
	}
	return n, nil
}

func (e *Engine) step(ctx context.Context, src, dst core.Grid) (err error) {
	start := time.Now()
	defer func() { e.record(start, err) }()

	if err := src.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("step cancelled: %w", err)
	}
	if !e.pool.IsRunning() {
		return ErrEngineClosed
	}

	arena, err := e.cache.Acquire(src.Shape())
	if err != nil {
		return err
	}
	defer e.cache.Release(arena)

	h := src.Height
	mode := e.mode
	log := Logger()

	t := time.Now()
	err = e.runPhase(ctx, StridedBands(e.pool.Workers(), 0, h), func(b RowBand) {
		kernels.PartialSums(src, arena.Partial, b, mode)
	})
	if err != nil {
		return err
	}
	log.Debug("partial sums done", "shape", src.Shape().String(), "elapsed", time.Since(t))

	t = time.Now()
	err = e.runPhase(ctx, StridedBands(e.pool.Workers(), 1, h-1), func(b RowBand) {
		kernels.Combine(src, arena.Partial, arena.Next, b, mode)
	})
	if err != nil {
		return err
	}
	log.Debug("combine done", "shape", src.Shape().String(), "elapsed", time.Since(t))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("step cancelled: %w", err)
	}
	commit(src, dst, arena.Next)
	return nil
}

// runPhase runs one task per band and waits for all of them. Tasks poll ctx
// every cancelCheckRows rows and stop early once it is done.
func (e *Engine) runPhase(ctx context.Context, bands []RowBand, kernel func(RowBand)) error {
	done := ctx.Done()
	tasks := make([]func(), len(bands))
	for k, b := range bands {
		tasks[k] = func() {
			chunk := b.Step * cancelCheckRows
			for r := b.Start; r < b.End; r += chunk {
				if done != nil {
					select {
					case <-done:
						return
					default:
					}
				}
				kernel(RowBand{Start: r, Step: b.Step, End: min(r+chunk, b.End)})
			}
		}
	}
	if err := e.pool.ExecuteAll(tasks); err != nil {
		if errors.Is(err, ErrPoolClosed) {
			return ErrEngineClosed
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("step cancelled: %w", err)
	}
	return nil
}

// commit copies the interior of next into dst, and src's border into dst when
// they are different views.
func commit(src, dst, next core.Grid) {
	h, w := dst.Height, dst.Width
	if !sameView(src, dst) {
		for j := 0; j < w; j++ {
			dst.Set(0, j, src.At(0, j))
			dst.Set(h-1, j, src.At(h-1, j))
		}
		for i := 1; i < h-1; i++ {
			dst.Set(i, 0, src.At(i, 0))
			dst.Set(i, w-1, src.At(i, w-1))
		}
	}
	for i := 1; i < h-1; i++ {
		row := next.Row(i)[1 : w-1]
		if dst.Dense() {
			copy(dst.Row(i)[1:w-1], row)
			continue
		}
		for j, v := range row {
			dst.Set(i, j+1, v)
		}
	}
}

func sameView(a, b core.Grid) bool {
	return a.Offset == b.Offset && a.RowStride == b.RowStride && a.ColStride == b.ColStride &&
		len(a.Data) == len(b.Data) && (len(a.Data) == 0 || &a.Data[0] == &b.Data[0])
}

func (e *Engine) record(start time.Time, err error) {
	switch {
	case err == nil:
		e.steps.Add(1)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.cancelled.Add(1)
		Logger().Warn("step cancelled", "error", err)
	default:
		e.failed.Add(1)
		Logger().Warn("step failed", "error", err, "kind", core.KindOf(err).String())
	}
	if !e.opts.EnableStats || err != nil {
		return
	}
	e.mu.Lock()
	e.latency += time.Since(start)
	e.timed++
	e.mu.Unlock()
}

// Stats returns a snapshot of the engine counters. AverageLatency is only
// tracked with EnableStats.
func (e *Engine) Stats() ExecutionStats {
	s := ExecutionStats{
		TotalSteps:     e.steps.Load(),
		FailedSteps:    e.failed.Load(),
		CancelledSteps: e.cancelled.Load(),
		Workers:        e.pool.Workers(),
		Kernel:         e.mode.String(),
		Cache:          e.cache.Stats(),
	}
	e.mu.Lock()
	if e.timed > 0 {
		s.AverageLatency = e.latency / time.Duration(e.timed)
	}
	e.mu.Unlock()
	return s
}

// Workers returns the pool size.
func (e *Engine) Workers() int {
	return e.pool.Workers()
}

// Kernel returns the resolved kernel mode.
func (e *Engine) Kernel() kernels.Mode {
	return e.mode
}

// CachedShapes lists the shapes whose arenas are retained.
func (e *Engine) CachedShapes() []core.Shape {
	return e.cache.Shapes()
}

// ResetCache drops every retained arena.
func (e *Engine) ResetCache() {
	e.cache.Reset()
}

// Close stops the worker pool and drops cached arenas. Steps after Close
// return ErrEngineClosed.
func (e *Engine) Close() error {
	e.pool.Close()
	e.cache.Reset()
	Logger().Info("engine closed", "steps", e.steps.Load())
	return nil
}
