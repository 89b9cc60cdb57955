package runtime

import (
	"fmt"
	"sync"

	"github.com/sbl8/lifestep/core"
	"github.com/sbl8/lifestep/kernels"
)

// Region names inside an Arena.
const (
	RegionPartial = "Partial"
	RegionNext    = "Next"
)

// ArenaRegion is a named, cache-line aligned span of an Arena's buffer.
type ArenaRegion struct {
	Offset int
	Size   int
	Name   string
}

// Arena is the scratch memory of one step on one grid shape. A single aligned
// allocation holds two regions:
//  1. Partial: the height × (width-2) horizontal sums
//  2. Next: a dense height × width grid receiving post-rule interior cells
//
// Fresh arenas are zeroed. A reused arena is not cleared: every step rewrites
// all of Partial and every interior cell of Next before reading them.
type Arena struct {
	shape   core.Shape
	buffer  []byte
	regions map[string]ArenaRegion

	Partial kernels.Partial
	Next    core.Grid
}

// NewArena allocates the arena for grids of the given shape. A positive limit
// caps the arena size in bytes; exceeding it, or a failing allocation, is an
// AllocationFailure.
func NewArena(shape core.Shape, limit int64) (*Arena, error) {
	need, err := shape.StepBytes()
	if err != nil {
		return nil, err
	}
	if limit > 0 && need > limit {
		return nil, &core.AllocError{What: "step arena " + shape.String(), Bytes: need,
			Cause: fmt.Errorf("exceeds limit of %d bytes", limit)}
	}

	buf, err := core.AllocBytes(int(need))
	if err != nil {
		return nil, fmt.Errorf("step arena %s: %w", shape, err)
	}

	ps := shape.Partial()
	partialSize := ps.Height * ps.Width
	partial := ArenaRegion{Offset: 0, Size: partialSize, Name: RegionPartial}
	next := ArenaRegion{Offset: core.AlignedSize(partialSize), Size: shape.Height * shape.Width, Name: RegionNext}

	a := &Arena{
		shape:   shape,
		buffer:  buf,
		regions: map[string]ArenaRegion{RegionPartial: partial, RegionNext: next},
		Partial: kernels.Partial{
			Data:   regionBytes(buf, partial),
			Height: ps.Height,
			Width:  ps.Width,
		},
		Next: core.Grid{
			Data:      regionBytes(buf, next),
			RowStride: shape.Width,
			ColStride: 1,
			Height:    shape.Height,
			Width:     shape.Width,
		},
	}
	return a, nil
}

func regionBytes(buf []byte, r ArenaRegion) []byte {
	return buf[r.Offset : r.Offset+r.Size : r.Offset+r.Size]
}

// Shape returns the grid shape the arena serves.
func (a *Arena) Shape() core.Shape {
	return a.shape
}

// Bytes returns the size of the underlying allocation.
func (a *Arena) Bytes() int {
	return len(a.buffer)
}

// Region returns the named region.
func (a *Arena) Region(name string) (ArenaRegion, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// CacheStats is a snapshot of BufferCache counters.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Bytes     int64
}

type cacheEntry struct {
	arena *Arena
	busy  bool
	stale bool
}

// BufferCache keeps step arenas keyed by grid shape between calls.
//
// An arena is checked out by Acquire for the duration of one step and handed
// back by Release. A caller that finds its shape's arena checked out gets a
// private arena that is dropped on release, so concurrent steps never share
// scratch memory. At most slots idle shapes are retained; the least recently
// used idle arena is evicted first. A disabled cache allocates every time.
type BufferCache struct {
	mu       sync.Mutex
	slots    int
	disabled bool
	limit    int64
	entries  []*cacheEntry // least recently used first
	stats    CacheStats
}

// NewBufferCache returns a cache retaining up to slots shapes (minimum 1).
// limit is passed to NewArena.
func NewBufferCache(slots int, disabled bool, limit int64) *BufferCache {
	return &BufferCache{slots: max(slots, 1), disabled: disabled, limit: limit}
}

// Acquire checks out an arena for shape, allocating one on a miss.
func (c *BufferCache) Acquire(shape core.Shape) (*Arena, error) {
	c.mu.Lock()
	if !c.disabled {
		for i, e := range c.entries {
			if !e.busy && !e.stale && e.arena.shape == shape {
				e.busy = true
				c.touch(i)
				c.stats.Hits++
				c.mu.Unlock()
				return e.arena, nil
			}
		}
	}
	c.stats.Misses++
	c.mu.Unlock()

	a, err := NewArena(shape, c.limit)
	if err != nil {
		return nil, err
	}
	Logger().Debug("arena allocated", "shape", shape.String(), "bytes", a.Bytes())
	if c.disabled {
		return a, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.arena.shape == shape && !e.stale {
			// Another step holds this shape: a is private to the caller.
			return a, nil
		}
	}
	c.entries = append(c.entries, &cacheEntry{arena: a, busy: true})
	c.evict()
	return a, nil
}

// Release returns a checked-out arena. Arenas the cache does not track are
// dropped.
func (c *BufferCache) Release(a *Arena) {
	if a == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.arena != a {
			continue
		}
		if e.stale {
			c.remove(i)
			return
		}
		e.busy = false
		c.evict()
		return
	}
}

// Reset drops every idle arena. Checked-out arenas are dropped when released.
func (c *BufferCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.busy {
			e.stale = true
			kept = append(kept, e)
		}
	}
	clear(c.entries[len(kept):])
	c.entries = kept
	Logger().Debug("buffer cache reset", "pending", len(kept))
}

// Stats returns the cache counters.
func (c *BufferCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	for _, e := range c.entries {
		if e.stale {
			continue
		}
		s.Entries++
		s.Bytes += int64(e.arena.Bytes())
	}
	return s
}

// Shapes lists the retained shapes, least recently used first.
func (c *BufferCache) Shapes() []core.Shape {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Shape, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.stale {
			out = append(out, e.arena.shape)
		}
	}
	return out
}

func (c *BufferCache) touch(i int) {
	e := c.entries[i]
	copy(c.entries[i:], c.entries[i+1:])
	c.entries[len(c.entries)-1] = e
}

func (c *BufferCache) remove(i int) {
	copy(c.entries[i:], c.entries[i+1:])
	c.entries[len(c.entries)-1] = nil
	c.entries = c.entries[:len(c.entries)-1]
}

// evict drops least recently used idle arenas until at most slots remain.
// Busy arenas are never evicted, so the cache may briefly exceed slots.
func (c *BufferCache) evict() {
	live := 0
	for _, e := range c.entries {
		if !e.stale {
			live++
		}
	}
	for i := 0; i < len(c.entries) && live > c.slots; {
		e := c.entries[i]
		if e.busy || e.stale {
			i++
			continue
		}
		Logger().Debug("arena evicted", "shape", e.arena.shape.String(), "bytes", e.arena.Bytes())
		c.remove(i)
		c.stats.Evictions++
		live--
	}
}
